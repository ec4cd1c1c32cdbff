// Copyright 2026 Open Targets.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

package otgraph

// FieldSet is an insertion ordered set of Fields, keyed by identity.
type FieldSet struct {
	order []*Field
	index map[*Field]int
}

// NewFieldSet returns a set holding fields, in order, without duplicates.
func NewFieldSet(fields ...*Field) *FieldSet {
	s := &FieldSet{index: make(map[*Field]int)}
	s.Add(fields...)
	return s
}

// Add inserts fields not already present.
func (s *FieldSet) Add(fields ...*Field) {
	if s.index == nil {
		s.index = make(map[*Field]int)
	}
	for _, f := range fields {
		if f == nil {
			continue
		}
		if _, ok := s.index[f]; ok {
			continue
		}
		s.index[f] = len(s.order)
		s.order = append(s.order, f)
	}
}

// Union adds every member of other.
func (s *FieldSet) Union(other *FieldSet) {
	if other == nil {
		return
	}
	s.Add(other.order...)
}

// Has reports membership.
func (s *FieldSet) Has(f *Field) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[f]
	return ok
}

// Len is the number of members.
func (s *FieldSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Slice returns the members in insertion order.
func (s *FieldSet) Slice() []*Field {
	if s == nil {
		return nil
	}
	return append([]*Field(nil), s.order...)
}

// Datasets returns the distinct datasets of the members in first-seen order.
func (s *FieldSet) Datasets() []*Dataset {
	var ret []*Dataset
	seen := make(map[*Dataset]struct{})
	for _, f := range s.Slice() {
		if _, ok := seen[f.dataset]; ok {
			continue
		}
		seen[f.dataset] = struct{}{}
		ret = append(ret, f.dataset)
	}
	return ret
}

// TopLevel maps each member onto its top-level ancestor, keeping first-seen
// order. Only members of d are considered. This is the column list to request
// from a RowSource.
func (s *FieldSet) TopLevel(d *Dataset) []*Field {
	var ret []*Field
	seen := make(map[*Field]struct{})
	for _, f := range s.Slice() {
		if f.dataset != d {
			continue
		}
		top := f.TopLevel()
		if _, ok := seen[top]; ok {
			continue
		}
		seen[top] = struct{}{}
		ret = append(ret, top)
	}
	return ret
}

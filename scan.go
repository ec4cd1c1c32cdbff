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

import (
	"fmt"

	"github.com/pkg/errors"
)

// ScanOperation describes how raw rows of a dataset become output items. It
// is a closed set: RowScan and ExplodingScan.
type ScanOperation interface {
	Dataset() *Dataset
	isScan()
}

// RowScan maps each raw row to exactly one item.
type RowScan struct {
	Source *Dataset
}

// Dataset implements ScanOperation.
func (s RowScan) Dataset() *Dataset { return s.Source }

func (s RowScan) String() string { return fmt.Sprintf("scan(%v)", s.Source) }

// ExplodingScan maps each raw row to one item per element of Field. Every
// item sees the row's other fields unchanged and exactly one element of
// Field. Rows where Field is empty or null produce no items.
type ExplodingScan struct {
	Source *Dataset
	Field  *Field
}

// Dataset implements ScanOperation.
func (s ExplodingScan) Dataset() *Dataset { return s.Source }

func (s ExplodingScan) String() string { return fmt.Sprintf("explode(%v)", s.Field) }

func (RowScan) isScan()       {}
func (ExplodingScan) isScan() {}

// NewRowScan returns a RowScan over d.
func NewRowScan(d *Dataset) RowScan { return RowScan{Source: d} }

// NewExplodingScan returns an ExplodingScan over the dataset owning f.
func NewExplodingScan(f *Field) ExplodingScan { return ExplodingScan{Source: f.dataset, Field: f} }

// validateScan checks a scan operation before any row is read.
func validateScan(op ScanOperation) error {
	switch s := op.(type) {
	case RowScan:
		if s.Source == nil {
			return errors.New("row scan has no dataset")
		}
	case ExplodingScan:
		if s.Source == nil || s.Field == nil {
			return errors.New("exploding scan needs a dataset and a field")
		}
		if s.Field.dataset != s.Source {
			return errors.Errorf("exploded field %v is not in dataset %v", s.Field, s.Source)
		}
		if s.Field.kind != KindSequence {
			return errors.Errorf("exploded field %v is a %s, not a sequence", s.Field, s.Field.kind)
		}
		for p := s.Field.Parent(); p != nil; p = p.Parent() {
			if p.kind != KindStruct {
				return errors.Errorf("exploded field %v sits below %s field %v", s.Field, p.kind, p)
			}
		}
	case nil:
		return ErrNoScan
	default:
		return errors.Errorf("unsupported scan operation %T", op)
	}
	return nil
}

// validateRequired checks that every field in required can be resolved
// against the Views op produces: it must belong to the scanned dataset, and
// the only sequence element it may sit below is the exploded one.
func validateRequired(op ScanOperation, required *FieldSet) error {
	d := op.Dataset()
	var exploded *Field
	if ex, ok := op.(ExplodingScan); ok {
		exploded = ex.Field.element
	}
	for _, f := range required.Slice() {
		if f.dataset != d {
			return errors.Errorf("field %v is not in scanned dataset %v", f, d)
		}
		for _, step := range f.Path() {
			if step.IsElement() && step != exploded {
				return errors.Errorf("field %v sits below sequence %v, which %v does not explode", f, step.parent, op)
			}
		}
	}
	return nil
}

// explodedView presents one element of an exploded sequence in place of the
// sequence itself. Views of structs enclosing the exploded field are wrapped
// in turn, so the element stays reachable at its usual path.
type explodedView struct {
	base   View
	target *Field
	elem   interface{}
}

func (v *explodedView) Get(f *Field) (interface{}, error) {
	if f == v.target {
		return wrapElement(f.element, v.elem)
	}
	if v.target.IsUnder(f) {
		val, err := v.base.Get(f)
		if err != nil || val == nil {
			return val, err
		}
		sub, ok := val.(View)
		if !ok {
			return nil, rowErr(ReasonType, f, val)
		}
		return &explodedView{base: sub, target: v.target, elem: v.elem}, nil
	}
	return v.base.Get(f)
}

func (v *explodedView) Fields() []*Field { return v.base.Fields() }

// explode splits a root view on target. The sequence is located by
// replaying target's path; a null sequence yields nothing.
func explode(root View, target *Field) ([]View, error) {
	val, err := Resolve(root, target)
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, nil
	}
	var raw []interface{}
	switch vt := val.(type) {
	case *ArrayView:
		raw = vt.raw
	case []interface{}:
		raw = vt
	default:
		return nil, rowErr(ReasonNotSequence, target, val)
	}
	views := make([]View, len(raw))
	for i, elem := range raw {
		views[i] = &explodedView{base: root, target: target, elem: elem}
	}
	return views, nil
}

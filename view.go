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
	"github.com/pkg/errors"
)

// View is a read-only projection of one raw row, or of one nested
// sub-structure of a row, keyed by Field identity. Get on a struct field
// returns a nested View, on a sequence of structs an *ArrayView, and on
// anything else the raw value unchanged. Fields outside of the view's mapped
// fields, and names missing from the raw data, produce a *RowError.
type View interface {
	Get(f *Field) (interface{}, error)

	// Fields returns the mapped fields of the view.
	Fields() []*Field
}

// MapView is a View over a string keyed record such as a decoded JSON
// object.
type MapView struct {
	raw    map[string]interface{}
	scope  *Field
	mapped *FieldSet
}

// NewMapView returns a View over a top-level record of d. If mapped is
// empty, every top-level field of d is mapped.
func NewMapView(d *Dataset, raw map[string]interface{}, mapped ...*Field) *MapView {
	v := &MapView{raw: raw, scope: d.root}
	if len(mapped) > 0 {
		v.mapped = NewFieldSet(d.TopLevel(mapped)...)
	}
	return v
}

// Raw returns the underlying record.
func (v *MapView) Raw() map[string]interface{} { return v.raw }

func (v *MapView) maps(f *Field) bool {
	if f.parent != v.scope {
		return false
	}
	return v.mapped == nil || v.mapped.Has(f)
}

// Get implements View.
func (v *MapView) Get(f *Field) (interface{}, error) {
	if !v.maps(f) {
		return nil, rowErr(ReasonLookup, f, nil)
	}
	val, ok := v.raw[f.name]
	if !ok {
		return nil, rowErr(ReasonLookup, f, nil)
	}
	return wrap(f, val)
}

// Fields implements View.
func (v *MapView) Fields() []*Field {
	if v.mapped != nil {
		return v.mapped.Slice()
	}
	return v.scope.Fields()
}

// FieldIndex maps fields of one dataset to positions in a tuple. It is built
// once per scan from the requested column list.
type FieldIndex struct {
	dataset   *Dataset
	fields    []*Field
	positions []int
}

// NewFieldIndex returns an index where fields[i] lives at position i.
func NewFieldIndex(d *Dataset, fields []*Field) (*FieldIndex, error) {
	idx := &FieldIndex{
		dataset:   d,
		fields:    append([]*Field(nil), fields...),
		positions: make([]int, d.NumFields()),
	}
	for i := range idx.positions {
		idx.positions[i] = -1
	}
	for i, f := range fields {
		if f.dataset != d {
			return nil, errors.Errorf("field %v does not belong to dataset %s", f, d.name)
		}
		if f.Depth() != 2 {
			return nil, errors.Errorf("field %v is not a top-level field", f)
		}
		if idx.positions[f.id] != -1 {
			return nil, errors.Errorf("field %v requested twice", f)
		}
		idx.positions[f.id] = i
	}
	return idx, nil
}

// Position returns the tuple position of f, or -1.
func (idx *FieldIndex) Position(f *Field) int {
	if f.dataset != idx.dataset || f.id < 0 || f.id >= len(idx.positions) {
		return -1
	}
	return idx.positions[f.id]
}

// Fields returns the indexed fields in tuple order.
func (idx *FieldIndex) Fields() []*Field { return append([]*Field(nil), idx.fields...) }

// TupleView is a View over a positional tuple, as returned by column stores.
type TupleView struct {
	raw   []interface{}
	index *FieldIndex
}

// NewTupleView returns a View over raw interpreted through index.
func NewTupleView(raw []interface{}, index *FieldIndex) *TupleView {
	return &TupleView{raw: raw, index: index}
}

// Get implements View.
func (v *TupleView) Get(f *Field) (interface{}, error) {
	pos := v.index.Position(f)
	if pos < 0 || pos >= len(v.raw) || v.raw[pos] == Absent {
		return nil, rowErr(ReasonLookup, f, nil)
	}
	return wrap(f, v.raw[pos])
}

// Fields implements View.
func (v *TupleView) Fields() []*Field { return v.index.Fields() }

// ArrayView is a lazily wrapped sequence of struct elements. Elements are
// only turned into Views when they are accessed.
type ArrayView struct {
	raw  []interface{}
	elem *Field
}

// Len returns the number of elements.
func (a *ArrayView) Len() int { return len(a.raw) }

// Element returns the element field describing each item.
func (a *ArrayView) Element() *Field { return a.elem }

// Raw returns the undecorated i-th element.
func (a *ArrayView) Raw(i int) interface{} { return a.raw[i] }

// At returns the i-th element as a View. A null element is returned as a nil
// View.
func (a *ArrayView) At(i int) (View, error) {
	if i < 0 || i >= len(a.raw) {
		return nil, rowErrf(ReasonIndexRange, i, "index %d of %d elements", i, len(a.raw))
	}
	v, err := wrapElement(a.elem, a.raw[i])
	if err != nil || v == nil {
		return nil, err
	}
	return v.(View), nil
}

// Each calls fn with every element View in order, stopping at the first
// error.
func (a *ArrayView) Each(fn func(i int, v View) error) error {
	for i := range a.raw {
		v, err := a.At(i)
		if err != nil {
			return err
		}
		if err := fn(i, v); err != nil {
			return err
		}
	}
	return nil
}

// Views wraps every element at once. Null elements are nil Views.
func (a *ArrayView) Views() ([]View, error) {
	views := make([]View, len(a.raw))
	err := a.Each(func(i int, v View) error {
		views[i] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

func wrap(f *Field, val interface{}) (interface{}, error) {
	if val == nil {
		return nil, nil
	}
	switch f.kind {
	case KindStruct:
		m, ok := val.(map[string]interface{})
		if !ok {
			return nil, rowErr(ReasonType, f, val)
		}
		return &MapView{raw: m, scope: f}, nil
	case KindSequence:
		list, ok := toSlice(val)
		if !ok {
			return nil, rowErr(ReasonType, f, val)
		}
		if f.element.kind == KindStruct {
			return &ArrayView{raw: list, elem: f.element}, nil
		}
		return list, nil
	default:
		return val, nil
	}
}

// wrapElement presents one element of a sequence the way Get presents a
// field of the element's shape.
func wrapElement(elem *Field, val interface{}) (interface{}, error) {
	return wrap(elem, val)
}

func toSlice(val interface{}) ([]interface{}, bool) {
	switch vt := val.(type) {
	case []interface{}:
		return vt, true
	case []map[string]interface{}:
		ret := make([]interface{}, len(vt))
		for i, m := range vt {
			ret[i] = m
		}
		return ret, true
	case []string:
		ret := make([]interface{}, len(vt))
		for i, s := range vt {
			ret[i] = s
		}
		return ret, true
	default:
		return nil, false
	}
}

// Resolve fetches f from a root View by replaying f's path. Nulls propagate:
// if any struct along the way is null the result is nil. Stepping into the
// element of a sequence that has not been exploded fails with a RowError.
func Resolve(v View, f *Field) (interface{}, error) {
	var cur interface{} = v
	for _, step := range f.Path() {
		if cur == nil {
			return nil, nil
		}
		if step.IsElement() {
			switch cur.(type) {
			case *ArrayView, []interface{}:
				return nil, rowErr(ReasonUnresolvedPath, f, nil)
			}
			// already positioned on a single element by an explode
			continue
		}
		view, ok := cur.(View)
		if !ok {
			if _, isArr := cur.(*ArrayView); isArr {
				return nil, rowErr(ReasonUnresolvedPath, f, nil)
			}
			return nil, rowErr(ReasonType, step, cur)
		}
		var err error
		cur, err = view.Get(step)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// Materialize turns Views and ArrayViews back into plain maps and slices so
// values can leave the core, e.g. as property values.
func Materialize(val interface{}) interface{} {
	switch vt := val.(type) {
	case *MapView:
		return vt.raw
	case *ArrayView:
		return vt.raw
	case *explodedView:
		return Materialize(vt.base)
	case *TupleView:
		m := make(map[string]interface{}, len(vt.raw))
		for _, f := range vt.index.fields {
			if pos := vt.index.Position(f); pos < len(vt.raw) && vt.raw[pos] != Absent {
				m[f.name] = vt.raw[pos]
			}
		}
		return m
	default:
		return val
	}
}

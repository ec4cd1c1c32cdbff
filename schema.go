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
	"strings"

	"github.com/pkg/errors"
)

// Kind distinguishes the shapes a Field can take.
type Kind int

const (
	KindScalar Kind = iota
	KindStruct
	KindSequence
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindStruct:
		return "struct"
	case KindSequence:
		return "sequence"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// DataType is the primitive or composite type tag of a column, named the way
// Spark names them in dataset schemas.
type DataType string

const (
	TypeString    DataType = "string"
	TypeInteger   DataType = "integer"
	TypeLong      DataType = "long"
	TypeShort     DataType = "short"
	TypeByte      DataType = "byte"
	TypeFloat     DataType = "float"
	TypeDouble    DataType = "double"
	TypeBoolean   DataType = "boolean"
	TypeDate      DataType = "date"
	TypeTimestamp DataType = "timestamp"
	TypeBinary    DataType = "binary"
	TypeStruct    DataType = "struct"
	TypeArray     DataType = "array"
	TypeMap       DataType = "map"
)

// Dataset is a named logical table. It owns an ordered set of top-level
// Fields. After construction a Dataset and all of its Fields are immutable,
// and Fields are compared by identity.
type Dataset struct {
	name string
	root *Field
	all  []*Field
}

// NewDataset returns an empty Dataset.
func NewDataset(name string) *Dataset {
	d := &Dataset{name: name}
	d.root = &Field{kind: KindStruct, dataType: TypeStruct, dataset: d, id: -1}
	return d
}

// Name returns the dataset name.
func (d *Dataset) Name() string { return d.name }

func (d *Dataset) String() string { return d.name }

// Fields returns the top-level fields in declaration order.
func (d *Dataset) Fields() []*Field {
	return append([]*Field(nil), d.root.children...)
}

// AllFields returns every field in the dataset, in the order they were
// created. A field's ID is its position in this slice.
func (d *Dataset) AllFields() []*Field {
	return append([]*Field(nil), d.all...)
}

// NumFields is the number of fields (at any depth) in the dataset.
func (d *Dataset) NumFields() int { return len(d.all) }

// TopLevel filters fields down to those hanging directly off the dataset
// (depth 2), preserving order and dropping duplicates.
func (d *Dataset) TopLevel(fields []*Field) []*Field {
	ret := make([]*Field, 0, len(fields))
	seen := make(map[*Field]struct{}, len(fields))
	for _, f := range fields {
		if f.dataset != d || f.Depth() != 2 {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		ret = append(ret, f)
	}
	return ret
}

// Field returns the top-level field with the given name, or nil.
func (d *Dataset) Field(name string) *Field { return d.root.Child(name) }

// Lookup resolves a dot separated path of field names. When a segment names
// a sequence whose element is a struct, the following segment is looked up
// in the element's children.
func (d *Dataset) Lookup(path string) (*Field, error) {
	if path == "" {
		return nil, errors.New("empty field path")
	}
	cur := d.root
	for _, name := range strings.Split(path, ".") {
		if cur.kind == KindSequence && cur.element.kind == KindStruct {
			cur = cur.element
		}
		if cur.kind != KindStruct {
			return nil, errors.Errorf("can't look up '%s' in %s field %s of %s", name, cur.kind, cur.Name(), d.name)
		}
		next := cur.Child(name)
		if next == nil {
			return nil, errors.Errorf("no field '%s' in %s (path %s)", name, d.name, path)
		}
		cur = next
	}
	return cur, nil
}

// Add adds a scalar top-level field.
func (d *Dataset) Add(name string, typ DataType, nullable bool) *Field {
	return d.root.Add(name, typ, nullable)
}

// AddStruct adds a struct top-level field. Its children are declared on the
// returned Field.
func (d *Dataset) AddStruct(name string, nullable bool) *Field {
	return d.root.AddStruct(name, nullable)
}

// AddSequence adds a top-level sequence of scalars.
func (d *Dataset) AddSequence(name string, elem DataType, nullable bool) *Field {
	return d.root.AddSequence(name, elem, nullable)
}

// AddStructSequence adds a top-level sequence of structs. The element's
// children are declared on the returned Field's Element.
func (d *Dataset) AddStructSequence(name string, nullable bool) *Field {
	return d.root.AddStructSequence(name, nullable)
}

// AddMap adds a top-level map field.
func (d *Dataset) AddMap(name string, key, value DataType, nullable bool) *Field {
	return d.root.AddMap(name, key, value, nullable)
}

// Field is one column or sub-column of a Dataset.
type Field struct {
	name     string
	kind     Kind
	dataType DataType
	nullable bool
	dataset  *Dataset
	parent   *Field
	id       int

	children []*Field
	byName   map[string]*Field
	element  *Field
	key      *Field
	value    *Field
}

// Name is the source column name.
func (f *Field) Name() string { return f.name }

// Kind reports whether the field is a scalar, struct, sequence or map.
func (f *Field) Kind() Kind { return f.kind }

// DataType returns the type tag.
func (f *Field) DataType() DataType { return f.dataType }

// Nullable reports whether the column may hold nulls.
func (f *Field) Nullable() bool { return f.nullable }

// Dataset returns the owning dataset.
func (f *Field) Dataset() *Dataset { return f.dataset }

// ID is the dense per-dataset identifier of the field.
func (f *Field) ID() int { return f.id }

// Parent returns the enclosing field, or nil for top-level fields.
func (f *Field) Parent() *Field {
	if f.parent == nil || f.parent == f.dataset.root {
		return nil
	}
	return f.parent
}

// Fields returns the children of a struct field.
func (f *Field) Fields() []*Field { return append([]*Field(nil), f.children...) }

// Child returns the named child of a struct field, or nil.
func (f *Field) Child(name string) *Field { return f.byName[name] }

// Element describes the repeated item of a sequence field.
func (f *Field) Element() *Field { return f.element }

// Key describes the keys of a map field.
func (f *Field) Key() *Field { return f.key }

// Value describes the values of a map field.
func (f *Field) Value() *Field { return f.value }

// IsElement reports whether f is the element description of a sequence.
func (f *Field) IsElement() bool {
	return f.parent != nil && f.parent.kind == KindSequence && f.parent.element == f
}

// Path returns the chain of fields from the top-level ancestor down to f,
// inclusive. The dataset is the implicit first component.
func (f *Field) Path() []*Field {
	n := 0
	for c := f; c != nil && c != f.dataset.root; c = c.parent {
		n++
	}
	path := make([]*Field, n)
	for c := f; c != nil && c != f.dataset.root; c = c.parent {
		n--
		path[n] = c
	}
	return path
}

// Depth is the length of the path counting the dataset, so top-level fields
// have depth 2.
func (f *Field) Depth() int { return len(f.Path()) + 1 }

// TopLevel returns the depth-2 ancestor of f (f itself for top-level fields).
func (f *Field) TopLevel() *Field { return f.Path()[0] }

// IsUnder reports whether anc is a strict ancestor of f.
func (f *Field) IsUnder(anc *Field) bool {
	for c := f.parent; c != nil; c = c.parent {
		if c == anc {
			return true
		}
	}
	return false
}

// String renders the dotted path, e.g. "evidence.literature.element".
func (f *Field) String() string {
	parts := []string{f.dataset.name}
	for _, p := range f.Path() {
		parts = append(parts, p.name)
	}
	return strings.Join(parts, ".")
}

// Add adds a scalar child to a struct field.
func (f *Field) Add(name string, typ DataType, nullable bool) *Field {
	return f.attach(f.newField(name, KindScalar, typ, nullable))
}

// AddStruct adds a struct child to a struct field.
func (f *Field) AddStruct(name string, nullable bool) *Field {
	return f.attach(f.newField(name, KindStruct, TypeStruct, nullable))
}

// AddSequence adds a sequence-of-scalars child to a struct field.
func (f *Field) AddSequence(name string, elem DataType, nullable bool) *Field {
	seq := f.attach(f.newField(name, KindSequence, TypeArray, nullable))
	seq.element = seq.newField("element", KindScalar, elem, true)
	f.dataset.intern(seq.element)
	return seq
}

// AddStructSequence adds a sequence-of-structs child to a struct field.
func (f *Field) AddStructSequence(name string, nullable bool) *Field {
	seq := f.attach(f.newField(name, KindSequence, TypeArray, nullable))
	seq.element = seq.newField("element", KindStruct, TypeStruct, true)
	f.dataset.intern(seq.element)
	return seq
}

// AddMap adds a map child to a struct field.
func (f *Field) AddMap(name string, key, value DataType, nullable bool) *Field {
	m := f.attach(f.newField(name, KindMap, TypeMap, nullable))
	m.key = m.newField("key", KindScalar, key, false)
	f.dataset.intern(m.key)
	m.value = m.newField("value", KindScalar, value, true)
	f.dataset.intern(m.value)
	return m
}

func (f *Field) newField(name string, kind Kind, typ DataType, nullable bool) *Field {
	return &Field{
		name:     name,
		kind:     kind,
		dataType: typ,
		nullable: nullable,
		dataset:  f.dataset,
		parent:   f,
		id:       -1,
	}
}

func (f *Field) attach(child *Field) *Field {
	if f.kind != KindStruct {
		panic(fmt.Sprintf("can't add child '%s' to %s field %v", child.name, f.kind, f))
	}
	if _, ok := f.byName[child.name]; ok {
		panic(fmt.Sprintf("duplicate field '%s' in %v", child.name, f))
	}
	if f.byName == nil {
		f.byName = make(map[string]*Field)
	}
	f.byName[child.name] = child
	f.children = append(f.children, child)
	f.dataset.intern(child)
	return child
}

func (d *Dataset) intern(f *Field) {
	f.id = len(d.all)
	d.all = append(d.all, f)
}

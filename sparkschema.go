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
	"io"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// sparkType is one node of a Spark StructType JSON schema. The type is
// either a bare name ("string") or an object ({"type": "struct", ...}).
type sparkType struct {
	Name string

	Fields       []sparkField
	ElementType  *sparkType
	ContainsNull bool
	KeyType      *sparkType
	ValueType    *sparkType
}

type sparkField struct {
	Name     string    `json:"name"`
	Type     sparkType `json:"type"`
	Nullable bool      `json:"nullable"`
}

func (t *sparkType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		t.Name = name
		return nil
	}
	var obj struct {
		Type         string       `json:"type"`
		Fields       []sparkField `json:"fields"`
		ElementType  *sparkType   `json:"elementType"`
		ContainsNull bool         `json:"containsNull"`
		KeyType      *sparkType   `json:"keyType"`
		ValueType    *sparkType   `json:"valueType"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return errors.Wrap(err, "decoding spark type")
	}
	*t = sparkType{
		Name:         obj.Type,
		Fields:       obj.Fields,
		ElementType:  obj.ElementType,
		ContainsNull: obj.ContainsNull,
		KeyType:      obj.KeyType,
		ValueType:    obj.ValueType,
	}
	return nil
}

// LoadSparkSchema builds a Dataset from the JSON form of a Spark StructType,
// as written next to Parquet outputs. Arrays of arrays and arrays of maps
// keep an opaque scalar element, as do struct-valued maps.
func LoadSparkSchema(name string, r io.Reader) (*Dataset, error) {
	var root sparkType
	if err := json.NewDecoder(r).Decode(&root); err != nil {
		return nil, errors.Wrapf(err, "decoding schema of %s", name)
	}
	if root.Name != "struct" {
		return nil, errors.Errorf("schema of %s: top-level type is '%s', not struct", name, root.Name)
	}
	d := NewDataset(name)
	if err := addSparkFields(d.root, root.Fields); err != nil {
		return nil, errors.Wrapf(err, "schema of %s", name)
	}
	return d, nil
}

func addSparkFields(parent *Field, fields []sparkField) error {
	for _, sf := range fields {
		if sf.Name == "" {
			return errors.Errorf("unnamed field under %v", parent)
		}
		if parent.Child(sf.Name) != nil {
			return errors.Errorf("duplicate field '%s' under %v", sf.Name, parent)
		}
		t := sf.Type
		switch t.Name {
		case "struct":
			f := parent.AddStruct(sf.Name, sf.Nullable)
			if err := addSparkFields(f, t.Fields); err != nil {
				return err
			}
		case "array":
			if t.ElementType == nil {
				return errors.Errorf("array field '%s' has no elementType", sf.Name)
			}
			if t.ElementType.Name == "struct" {
				f := parent.AddStructSequence(sf.Name, sf.Nullable)
				if err := addSparkFields(f.Element(), t.ElementType.Fields); err != nil {
					return err
				}
				continue
			}
			f := parent.AddSequence(sf.Name, sparkDataType(t.ElementType.Name), sf.Nullable)
			f.element.nullable = t.ContainsNull
		case "map":
			if t.KeyType == nil || t.ValueType == nil {
				return errors.Errorf("map field '%s' needs keyType and valueType", sf.Name)
			}
			parent.AddMap(sf.Name, sparkDataType(t.KeyType.Name), sparkDataType(t.ValueType.Name), sf.Nullable)
		case "":
			return errors.Errorf("field '%s' has no type", sf.Name)
		default:
			parent.Add(sf.Name, sparkDataType(t.Name), sf.Nullable)
		}
	}
	return nil
}

// sparkDataType folds parameterised names like "decimal(10,2)" onto their
// base type.
func sparkDataType(name string) DataType {
	for i := 0; i < len(name); i++ {
		if name[i] == '(' {
			return DataType(name[:i])
		}
	}
	return DataType(name)
}

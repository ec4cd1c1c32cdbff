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

// Package avro reads datasets stored as Avro object container files, one
// directory of part files per dataset.
package avro

import (
	"context"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/linkedin/goavro"
	"github.com/opentargets/otgraph"
	"github.com/opentargets/otgraph/file"
	"github.com/pkg/errors"
)

// Extension of Avro container files.
const Extension = ".avro"

// Source is an otgraph.RecordReader over one Avro container file. Union
// values, which goavro decodes as single entry maps keyed by branch type,
// are unwrapped to the bare value.
type Source struct {
	ocf    *goavro.OCFReader
	schema *schema
}

// NewSource reads the container header from r.
func NewSource(r io.Reader) (*Source, error) {
	ocf, err := goavro.NewOCFReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading container header")
	}
	s, err := parseSchema(ocf.Codec().Schema())
	if err != nil {
		return nil, errors.Wrap(err, "parsing writer schema")
	}
	if s.root["type"] != "record" {
		return nil, errors.Errorf("top-level schema is %v, not a record", s.root["type"])
	}
	return &Source{ocf: ocf, schema: s}, nil
}

// Record implements otgraph.RecordReader.
func (s *Source) Record() (map[string]interface{}, error) {
	if !s.ocf.Scan() {
		if err := s.ocf.Err(); err != nil {
			return nil, errors.Wrap(err, "scanning container")
		}
		return nil, io.EOF
	}
	datum, err := s.ocf.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading datum")
	}
	rec, ok := s.schema.unwrap(s.schema.root, datum).(map[string]interface{})
	if !ok {
		return nil, errors.Errorf("datum of %T is not a record", datum)
	}
	return rec, nil
}

// schema is a decoded Avro schema plus its named types.
type schema struct {
	root  map[string]interface{}
	named map[string]interface{}
}

func parseSchema(text string) (*schema, error) {
	var root interface{}
	if err := json.Unmarshal([]byte(text), &root); err != nil {
		return nil, err
	}
	m, ok := root.(map[string]interface{})
	if !ok {
		return nil, errors.Errorf("schema of %T is not an object", root)
	}
	s := &schema{root: m, named: make(map[string]interface{})}
	s.collect(m, "")
	return s, nil
}

// collect registers every named type under both its short and full name.
func (s *schema) collect(node interface{}, ns string) {
	switch n := node.(type) {
	case []interface{}:
		for _, branch := range n {
			s.collect(branch, ns)
		}
	case map[string]interface{}:
		typ, _ := n["type"].(string)
		switch typ {
		case "record", "enum", "fixed":
			name, _ := n["name"].(string)
			if space, ok := n["namespace"].(string); ok {
				ns = space
			}
			full := name
			if ns != "" && !strings.Contains(name, ".") {
				full = ns + "." + name
			}
			s.named[name] = n
			s.named[full] = n
			if fields, ok := n["fields"].([]interface{}); ok {
				for _, f := range fields {
					if fm, ok := f.(map[string]interface{}); ok {
						s.collect(fm["type"], ns)
					}
				}
			}
		case "array":
			s.collect(n["items"], ns)
		case "map":
			s.collect(n["values"], ns)
		default:
			s.collect(n["type"], ns)
		}
	}
}

func (s *schema) unwrap(node interface{}, val interface{}) interface{} {
	if val == nil {
		return nil
	}
	switch n := node.(type) {
	case string:
		if def, ok := s.named[n]; ok {
			return s.unwrap(def, val)
		}
		return val
	case []interface{}:
		m, ok := val.(map[string]interface{})
		if !ok || len(m) != 1 {
			return val
		}
		for branchName, inner := range m {
			for _, branch := range n {
				if s.branchMatches(branch, branchName) {
					return s.unwrap(branch, inner)
				}
			}
			return inner
		}
	case map[string]interface{}:
		switch n["type"] {
		case "record":
			m, ok := val.(map[string]interface{})
			if !ok {
				return val
			}
			fields, _ := n["fields"].([]interface{})
			for _, f := range fields {
				fm, _ := f.(map[string]interface{})
				name, _ := fm["name"].(string)
				if v, ok := m[name]; ok {
					m[name] = s.unwrap(fm["type"], v)
				}
			}
			return m
		case "array":
			list, ok := val.([]interface{})
			if !ok {
				return val
			}
			for i, v := range list {
				list[i] = s.unwrap(n["items"], v)
			}
			return list
		case "map":
			m, ok := val.(map[string]interface{})
			if !ok {
				return val
			}
			for k, v := range m {
				m[k] = s.unwrap(n["values"], v)
			}
			return m
		}
	}
	return val
}

// branchMatches reports whether the union branch described by node is the
// one goavro names branchName.
func (s *schema) branchMatches(node interface{}, branchName string) bool {
	switch n := node.(type) {
	case string:
		if n == branchName {
			return true
		}
		if def, ok := s.named[n]; ok {
			return s.branchMatches(def, branchName)
		}
	case map[string]interface{}:
		typ, _ := n["type"].(string)
		switch typ {
		case "record", "enum", "fixed":
			name, _ := n["name"].(string)
			return name == branchName || strings.HasSuffix(branchName, "."+name)
		default:
			// logical types are named like "long.timestamp-millis"
			return typ == branchName || strings.HasPrefix(branchName, typ+".")
		}
	}
	return false
}

type rawSourceSource struct {
	rs  otgraph.RawSource
	cur otgraph.NamedReadCloser
	s   *Source
}

// NewSourceFromRawSource reads the records of every container file rs hands
// out in turn.
func NewSourceFromRawSource(rs otgraph.RawSource) otgraph.RecordReader {
	return &rawSourceSource{rs: rs}
}

func (r *rawSourceSource) Record() (map[string]interface{}, error) {
	for {
		if r.s == nil {
			reader, err := r.rs.NextReader()
			if err == io.EOF {
				return nil, io.EOF
			} else if err != nil {
				return nil, errors.Wrap(err, "getting next reader")
			}
			r.cur = reader
			r.s, err = NewSource(reader)
			if err != nil {
				reader.Close()
				return nil, errors.Wrapf(err, "opening %s", reader.Name())
			}
		}
		rec, err := r.s.Record()
		if err == io.EOF {
			if err := r.Close(); err != nil {
				return nil, err
			}
			continue
		} else if err != nil {
			return nil, errors.Wrapf(err, "reading %s", r.cur.Name())
		}
		return rec, nil
	}
}

func (r *rawSourceSource) Close() error {
	cur := r.cur
	r.cur, r.s = nil, nil
	if cur == nil {
		return nil
	}
	return errors.Wrapf(cur.Close(), "closing %s", cur.Name())
}

// RowSource is an otgraph.RowSource reading Avro datasets.
type RowSource struct {
	open otgraph.RawSourceOpener
}

// NewRowSource reads the datasets under root: <root>/<dataset>/*.avro or
// <root>/<dataset>.avro.
func NewRowSource(root string) *RowSource {
	return &RowSource{open: file.Opener(root, Extension)}
}

// NewRowSourceFromOpener reads Avro files from wherever open finds them.
func NewRowSourceFromOpener(open otgraph.RawSourceOpener) *RowSource {
	return &RowSource{open: open}
}

// Rows implements otgraph.RowSource.
func (s *RowSource) Rows(ctx context.Context, d *otgraph.Dataset, fields []*otgraph.Field, limit int) (otgraph.RowIterator, error) {
	rs, err := s.open(ctx, d)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %v", d)
	}
	return otgraph.NewRecordIterator(ctx, NewSourceFromRawSource(rs), fields, limit), nil
}

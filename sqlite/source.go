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

// Package sqlite reads datasets out of a SQLite database holding one table
// per dataset. Scalar columns map to SQLite's storage classes; struct,
// sequence and map columns hold JSON text.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/opentargets/otgraph"
	"github.com/pkg/errors"

	// registers the "sqlite" driver
	_ "modernc.org/sqlite"
)

// Source is an otgraph.RowSource over a SQLite database.
type Source struct {
	db    *sql.DB
	owned bool
	table func(d *otgraph.Dataset) string
}

// SourceOption is a functional option for Source.
type SourceOption func(s *Source) error

// OptSourceTable overrides the table read for each dataset, which defaults to
// the dataset name.
func OptSourceTable(table func(d *otgraph.Dataset) string) SourceOption {
	return func(s *Source) error {
		s.table = table
		return nil
	}
}

// Open opens (or creates) the database file at path.
func Open(path string, opts ...SourceOption) (*Source, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening sqlite")
	}
	// one writer at a time
	db.SetMaxOpenConns(1)
	s, err := NewSource(db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// NewSource reads from an already open database. Close leaves db open.
func NewSource(db *sql.DB, opts ...SourceOption) (*Source, error) {
	s := &Source{
		db:    db,
		table: (*otgraph.Dataset).Name,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, errors.Wrap(err, "applying option")
		}
	}
	return s, nil
}

// DB returns the underlying database.
func (s *Source) DB() *sql.DB { return s.db }

// Close closes the database if the Source opened it.
func (s *Source) Close() error {
	if !s.owned {
		return nil
	}
	return errors.Wrap(s.db.Close(), "closing sqlite")
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func selectQuery(table string, fields []*otgraph.Field, limit int) string {
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = quote(f.Name())
	}
	list := strings.Join(cols, ", ")
	if len(cols) == 0 {
		list = "1"
	}
	q := fmt.Sprintf("SELECT %s FROM %s", list, quote(table))
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	return q
}

// Rows implements otgraph.RowSource.
func (s *Source) Rows(ctx context.Context, d *otgraph.Dataset, fields []*otgraph.Field, limit int) (otgraph.RowIterator, error) {
	for _, f := range fields {
		if f.Dataset() != d || f.Parent() != nil {
			return nil, errors.Errorf("field %v is not a top-level field of %s", f, d)
		}
	}
	rows, err := s.db.QueryContext(ctx, selectQuery(s.table(d), fields, limit))
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s", d)
	}
	return &rowIterator{rows: rows, fields: fields}, nil
}

type rowIterator struct {
	rows   *sql.Rows
	fields []*otgraph.Field
}

func (it *rowIterator) Next() ([]interface{}, error) {
	if !it.rows.Next() {
		if err := it.rows.Err(); err != nil {
			return nil, errors.Wrap(err, "iterating rows")
		}
		return nil, io.EOF
	}
	raw := make([]interface{}, len(it.fields))
	dest := make([]interface{}, len(it.fields))
	for i := range raw {
		dest[i] = &raw[i]
	}
	if len(it.fields) == 0 {
		var one int
		dest = []interface{}{&one}
	}
	if err := it.rows.Scan(dest...); err != nil {
		return nil, errors.Wrap(err, "scanning row")
	}
	for i, f := range it.fields {
		v, err := decode(f, raw[i])
		if err != nil {
			return nil, err
		}
		raw[i] = v
	}
	return raw, nil
}

func (it *rowIterator) Close() error {
	return errors.Wrap(it.rows.Close(), "closing rows")
}

// decode turns a column value into the shape otgraph expects for f.
func decode(f *otgraph.Field, val interface{}) (interface{}, error) {
	if val == nil {
		return nil, nil
	}
	if f.Kind() != otgraph.KindScalar {
		var text []byte
		switch vt := val.(type) {
		case string:
			text = []byte(vt)
		case []byte:
			text = vt
		default:
			return nil, errors.Errorf("column %s: %T is not JSON text", f.Name(), val)
		}
		var out interface{}
		if err := json.Unmarshal(text, &out); err != nil {
			return nil, errors.Wrapf(err, "decoding column %s", f.Name())
		}
		return out, nil
	}
	switch f.DataType() {
	case otgraph.TypeBoolean:
		if n, ok := val.(int64); ok {
			return n != 0, nil
		}
	case otgraph.TypeString:
		if b, ok := val.([]byte); ok {
			return string(b), nil
		}
	}
	return val, nil
}

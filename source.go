// Copyright 2017 Pilosa Corp.
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
	"context"
	"io"

	"github.com/pkg/errors"
)

// RowSource is the boundary with whatever stores the datasets (Parquet
// files, a SQL engine, object storage...). Given a dataset and a list of
// top-level fields it returns tuples whose i-th value belongs to fields[i].
// Struct and sequence values are nested map[string]interface{} and
// []interface{} values. A limit of 0 means no limit.
type RowSource interface {
	Rows(ctx context.Context, d *Dataset, fields []*Field, limit int) (RowIterator, error)
}

// RowIterator yields tuples until it returns io.EOF. Any other error is an
// I/O failure and ends the scan.
type RowIterator interface {
	Next() ([]interface{}, error)
	Close() error
}

// RowSourceFunc lets a bare function satisfy RowSource. Similar to
// http.HandlerFunc.
type RowSourceFunc func(ctx context.Context, d *Dataset, fields []*Field, limit int) (RowIterator, error)

// Rows implements RowSource.
func (f RowSourceFunc) Rows(ctx context.Context, d *Dataset, fields []*Field, limit int) (RowIterator, error) {
	return f(ctx, d, fields, limit)
}

// SliceSource is an in-memory RowSource holding string keyed records per
// dataset name. It projects each record onto the requested fields.
type SliceSource map[string][]map[string]interface{}

// Rows implements RowSource.
func (s SliceSource) Rows(ctx context.Context, d *Dataset, fields []*Field, limit int) (RowIterator, error) {
	recs, ok := s[d.Name()]
	if !ok {
		return nil, errors.Errorf("no records for dataset %s", d.Name())
	}
	return NewRecordIterator(ctx, &sliceRecords{recs: recs}, fields, limit), nil
}

// RecordReader yields string keyed records until io.EOF. It is the shape most
// document-oriented readers (JSON lines, Avro) naturally have.
type RecordReader interface {
	Record() (map[string]interface{}, error)
}

type sliceRecords struct {
	recs []map[string]interface{}
	i    int
}

func (s *sliceRecords) Record() (map[string]interface{}, error) {
	if s.i >= len(s.recs) {
		return nil, io.EOF
	}
	s.i++
	return s.recs[s.i-1], nil
}

// NewRecordIterator projects string keyed records onto the given fields, in
// order, to build tuples. A key holding null comes back as nil. A key missing
// from the record comes back as Absent, which views report as a lookup
// failure.
func NewRecordIterator(ctx context.Context, r RecordReader, fields []*Field, limit int) RowIterator {
	return &recordIterator{ctx: ctx, r: r, fields: fields, limit: limit}
}

type recordIterator struct {
	ctx    context.Context
	r      RecordReader
	fields []*Field
	limit  int
	n      int
}

func (it *recordIterator) Next() ([]interface{}, error) {
	if it.limit > 0 && it.n >= it.limit {
		return nil, io.EOF
	}
	if err := it.ctx.Err(); err != nil {
		return nil, err
	}
	rec, err := it.r.Record()
	if err != nil {
		return nil, err
	}
	it.n++
	return Project(rec, it.fields), nil
}

func (it *recordIterator) Close() error {
	if c, ok := it.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Absent marks a tuple position whose field was not present in the raw
// record at all, as opposed to present and null.
var Absent interface{} = absent{}

type absent struct{}

func (absent) String() string { return "<absent>" }

// Project builds a tuple out of rec holding the values of fields in order.
// Names missing from rec are set to Absent.
func Project(rec map[string]interface{}, fields []*Field) []interface{} {
	tuple := make([]interface{}, len(fields))
	for i, f := range fields {
		val, ok := rec[f.Name()]
		if !ok {
			val = Absent
		}
		tuple[i] = val
	}
	return tuple
}

// NamedReadCloser is a ReadCloser with a name (file name, object key) and
// arbitrary metadata.
type NamedReadCloser interface {
	io.ReadCloser
	Name() string
	Meta() map[string]interface{}
}

// RawSource hands out the files (or objects) making up a dataset one at a
// time, returning io.EOF when there are no more.
type RawSource interface {
	NextReader() (NamedReadCloser, error)
}

// RawSourceOpener returns the RawSource holding the raw data of d. Backends
// storing one dataset per directory or prefix implement it.
type RawSourceOpener func(ctx context.Context, d *Dataset) (RawSource, error)

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

// Package json reads datasets stored as JSON lines and writes generated
// records the same way.
package json

import (
	"context"
	"io"

	json "github.com/goccy/go-json"
	"github.com/opentargets/otgraph"
	"github.com/pkg/errors"
)

// Source is an otgraph.RecordReader for reading json data.
type Source struct {
	dec *json.Decoder
}

// NewSource gets a new json source which will decode from the given reader.
func NewSource(r io.Reader) *Source {
	return &Source{
		dec: json.NewDecoder(r),
	}
}

// Record implements otgraph.RecordReader. It returns the next json object
// that can be decoded from the reader.
func (s *Source) Record() (map[string]interface{}, error) {
	var res map[string]interface{}
	err := s.dec.Decode(&res)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, errors.New("decoded null where an object was expected")
	}
	return res, nil
}

// rawSourceSource reads the json objects of every reader of a RawSource in
// turn.
type rawSourceSource struct {
	rs otgraph.RawSource

	cur  otgraph.NamedReadCloser
	s    *Source
	line int
}

// NewSourceFromRawSource reads objects from every reader rs hands out. The
// returned reader closes the current underlying reader on Close.
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
			r.cur, r.s, r.line = reader, NewSource(reader), 0
		}
		rec, err := r.s.Record()
		if err == io.EOF {
			if err := r.closeCurrent(); err != nil {
				return nil, err
			}
			continue
		} else if err != nil {
			return nil, errors.Wrapf(err, "decoding object %d of %s", r.line+1, r.cur.Name())
		}
		r.line++
		return rec, nil
	}
}

func (r *rawSourceSource) closeCurrent() error {
	cur := r.cur
	r.cur, r.s = nil, nil
	if cur == nil {
		return nil
	}
	return errors.Wrapf(cur.Close(), "closing %s", cur.Name())
}

func (r *rawSourceSource) Close() error { return r.closeCurrent() }

// RowSource is an otgraph.RowSource reading every dataset as JSON lines from
// the RawSource its opener returns.
type RowSource struct {
	open otgraph.RawSourceOpener
}

// NewRowSource returns a RowSource over the raw data open finds.
func NewRowSource(open otgraph.RawSourceOpener) *RowSource {
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

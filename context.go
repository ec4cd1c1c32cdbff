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
	"context"
	"io"

	"github.com/pkg/errors"
)

// Context is built once from every registered definition. It knows which
// datasets and fields are needed, and hands each definition its stream of
// Views. It does no caching: two scans of the same operation read the
// source twice.
type Context struct {
	source   RowSource
	defs     []Definition
	datasets []*Dataset
	fields   map[*Dataset]*FieldSet

	compiler *Compiler
	log      Logger
	stats    Statter
	limit    int
}

// ContextOption is a functional option for NewContext.
type ContextOption func(c *Context) error

// OptContextLogger sets the logger used to report skipped rows.
func OptContextLogger(l Logger) ContextOption {
	return func(c *Context) error {
		c.log = l
		return nil
	}
}

// OptContextStatter sets the stats collector.
func OptContextStatter(s Statter) ContextOption {
	return func(c *Context) error {
		c.stats = s
		return nil
	}
}

// OptContextRegistry sets the CURIE registry used by compiled expressions.
func OptContextRegistry(r Registry) ContextOption {
	return func(c *Context) error {
		c.compiler = &Compiler{Registry: r}
		return nil
	}
}

// OptContextLimit caps the number of raw rows read per scan. Zero means no
// limit.
func OptContextLimit(n int) ContextOption {
	return func(c *Context) error {
		if n < 0 {
			return errors.Errorf("negative row limit %d", n)
		}
		c.limit = n
		return nil
	}
}

// NewContext aggregates the requirements of defs. A definition without a
// scan operation, with an invalid one, or needing fields its scan cannot
// reach is rejected here.
func NewContext(source RowSource, defs []Definition, opts ...ContextOption) (*Context, error) {
	if source == nil {
		return nil, errors.New("nil row source")
	}
	c := &Context{
		source:   source,
		defs:     defs,
		fields:   make(map[*Dataset]*FieldSet),
		compiler: NewCompiler(),
		log:      NopLogger{},
		stats:    NopStatter{},
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, errors.Wrap(err, "applying option")
		}
	}
	for _, def := range defs {
		if err := validateScan(def.Scan()); err != nil {
			return nil, errors.Wrapf(err, "definition %v", def)
		}
		if err := validateRequired(def.Scan(), def.RequiredFields()); err != nil {
			return nil, errors.Wrapf(err, "definition %v", def)
		}
		for _, d := range def.RequiredDatasets() {
			set, ok := c.fields[d]
			if !ok {
				set = NewFieldSet()
				c.fields[d] = set
				c.datasets = append(c.datasets, d)
			}
			set.Union(def.RequiredFields())
		}
	}
	return c, nil
}

// Definitions returns the registered definitions.
func (c *Context) Definitions() []Definition { return c.defs }

// RequiredDatasets is the union of every definition's datasets, in
// registration order.
func (c *Context) RequiredDatasets() []*Dataset { return append([]*Dataset(nil), c.datasets...) }

// RequiredFields is the union of the fields every definition needs from d.
func (c *Context) RequiredFields(d *Dataset) *FieldSet {
	set := NewFieldSet()
	if s, ok := c.fields[d]; ok {
		for _, f := range s.Slice() {
			if f.dataset == d {
				set.Add(f)
			}
		}
	}
	return set
}

// Compiler returns the expression compiler shared by the definitions.
func (c *Context) Compiler() *Compiler { return c.compiler }

// Logger returns the context's logger.
func (c *Context) Logger() Logger { return c.log }

// Statter returns the context's stats collector.
func (c *Context) Statter() Statter { return c.stats }

// ViewIterator yields the Views of one scan until io.EOF. A *RowError
// concerns a single raw row; calling Next again moves on to the next row.
// Any other error ends the scan.
type ViewIterator interface {
	Next() (View, error)

	// Row is the 1-based ordinal of the raw row the last View or RowError
	// came from.
	Row() int

	Close() error
}

// ScanStream reads the top-level columns covering required from the row
// source and turns every row into Views according to op.
func (c *Context) ScanStream(ctx context.Context, op ScanOperation, required *FieldSet) (ViewIterator, error) {
	if err := validateScan(op); err != nil {
		return nil, err
	}
	if err := validateRequired(op, required); err != nil {
		return nil, err
	}
	d := op.Dataset()
	req := NewFieldSet()
	if ex, ok := op.(ExplodingScan); ok {
		req.Add(ex.Field)
	}
	req.Union(required)
	cols := req.TopLevel(d)
	if len(cols) == 0 {
		return nil, errors.Errorf("no fields required from dataset %v", d)
	}
	index, err := NewFieldIndex(d, cols)
	if err != nil {
		return nil, errors.Wrap(err, "indexing fields")
	}
	rows, err := c.source.Rows(ctx, d, cols, c.limit)
	if err != nil {
		return nil, errors.Wrapf(err, "reading rows of %v", d)
	}
	c.log.Debugf("scanning %v with %d columns", op, len(cols))
	return &viewIterator{
		rows:  rows,
		index: index,
		op:    op,
		stats: c.stats,
	}, nil
}

type viewIterator struct {
	rows    RowIterator
	index   *FieldIndex
	op      ScanOperation
	stats   Statter
	row     int
	pending []View
}

func (it *viewIterator) Next() (View, error) {
	if len(it.pending) > 0 {
		v := it.pending[0]
		it.pending = it.pending[1:]
		it.stats.Count(StatItemsScanned, 1, 1)
		return v, nil
	}
	for {
		tuple, err := it.rows.Next()
		if err == io.EOF {
			return nil, io.EOF
		} else if err != nil {
			return nil, errors.Wrapf(err, "reading row %d", it.row+1)
		}
		it.row++
		it.stats.Count(StatRowsRead, 1, 1)
		root := NewTupleView(tuple, it.index)

		switch op := it.op.(type) {
		case RowScan:
			it.stats.Count(StatItemsScanned, 1, 1)
			return root, nil
		case ExplodingScan:
			views, err := explode(root, op.Field)
			if err != nil {
				return nil, err
			}
			if len(views) == 0 {
				continue
			}
			it.pending = views[1:]
			it.stats.Count(StatItemsScanned, 1, 1)
			return views[0], nil
		default:
			return nil, errors.Errorf("unsupported scan operation %T", it.op)
		}
	}
}

func (it *viewIterator) Row() int { return it.row }

func (it *viewIterator) Close() error { return it.rows.Close() }

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

package otgraph_test

import (
	"context"
	"io"
	"testing"

	"github.com/opentargets/otgraph"
	"github.com/opentargets/otgraph/mock"
	"github.com/opentargets/otgraph/test"
)

type rowsFixture struct {
	d       *otgraph.Dataset
	id      *otgraph.Field
	items   *otgraph.Field
	meta    *otgraph.Field
	source  *otgraph.Field
	group   *otgraph.Field
	label   *otgraph.Field
	members *otgraph.Field
	name    *otgraph.Field
}

func newRows() *rowsFixture {
	r := &rowsFixture{d: otgraph.NewDataset("rows")}
	r.id = r.d.Add("id", otgraph.TypeString, false)
	r.items = r.d.AddSequence("items", otgraph.TypeString, true)
	r.meta = r.d.AddStruct("meta", true)
	r.source = r.meta.Add("source", otgraph.TypeString, true)
	r.group = r.d.AddStruct("group", true)
	r.label = r.group.Add("label", otgraph.TypeString, true)
	r.members = r.group.AddStructSequence("members", true)
	r.name = r.members.Element().Add("name", otgraph.TypeString, true)
	return r
}

func scanAll(t *testing.T, it otgraph.ViewIterator) (views []otgraph.View, rowErrs int) {
	t.Helper()
	defer it.Close()
	for {
		v, err := it.Next()
		if err == io.EOF {
			return views, rowErrs
		} else if otgraph.IsRowError(err) {
			rowErrs++
			continue
		} else if err != nil {
			t.Fatalf("scanning: %v", err)
		}
		views = append(views, v)
	}
}

func resolveAll(t *testing.T, views []otgraph.View, f *otgraph.Field) []interface{} {
	t.Helper()
	ret := make([]interface{}, len(views))
	for i, v := range views {
		val, err := otgraph.Resolve(v, f)
		test.ErrNil(t, err, "resolving "+f.String())
		ret[i] = val
	}
	return ret
}

func TestExplodingScan(t *testing.T) {
	r := newRows()
	tests := []struct {
		name  string
		row   map[string]interface{}
		items []interface{}
	}{
		{name: "three", row: map[string]interface{}{"id": "r1", "items": []interface{}{"a", "b", "c"}, "meta": map[string]interface{}{"source": "s"}}, items: []interface{}{"a", "b", "c"}},
		{name: "one", row: map[string]interface{}{"id": "r1", "items": []interface{}{"a"}, "meta": map[string]interface{}{"source": "s"}}, items: []interface{}{"a"}},
		{name: "empty", row: map[string]interface{}{"id": "r1", "items": []interface{}{}, "meta": map[string]interface{}{"source": "s"}}},
		{name: "null", row: map[string]interface{}{"id": "r1", "items": nil, "meta": map[string]interface{}{"source": "s"}}},
	}
	for _, tst := range tests {
		t.Run(tst.name, func(t *testing.T) {
			src := otgraph.SliceSource{"rows": {tst.row}}
			stats := &mock.RecordingStatter{}
			c, err := otgraph.NewContext(src, nil, otgraph.OptContextStatter(stats))
			test.ErrNil(t, err, "context")
			it, err := c.ScanStream(context.Background(), otgraph.NewExplodingScan(r.items), otgraph.NewFieldSet(r.id, r.source))
			test.ErrNil(t, err, "scan stream")
			views, rowErrs := scanAll(t, it)
			test.MustBe(t, rowErrs, 0, "row errors")
			test.MustBe(t, len(views), len(tst.items), "item count")
			test.MustBe(t, stats.Get(otgraph.StatRowsRead), int64(1), "rows read")
			test.MustBe(t, stats.Get(otgraph.StatItemsScanned), int64(len(tst.items)), "items scanned")
			if len(views) == 0 {
				return
			}

			// upper fields are identical for every item
			for _, upper := range []*otgraph.Field{r.id, r.source} {
				for i, val := range resolveAll(t, views, upper) {
					exp, _ := otgraph.Resolve(otgraph.NewMapView(r.d, tst.row), upper)
					if val != exp {
						t.Fatalf("item %d: %v is %v, expected %v", i, upper, val, exp)
					}
				}
			}
			test.MustBe(t, resolveAll(t, views, r.items.Element()), tst.items, "elements")
			test.MustBe(t, resolveAll(t, views, r.items), tst.items, "exploded field")
		})
	}
}

func TestExplodingScanNested(t *testing.T) {
	r := newRows()
	src := otgraph.SliceSource{"rows": {
		{"id": "r4", "group": map[string]interface{}{
			"label": "g",
			"members": []interface{}{
				map[string]interface{}{"name": "x"},
				map[string]interface{}{"name": "y"},
			},
		}},
		{"id": "r5", "group": nil},
		{"id": "r6", "group": map[string]interface{}{"label": "h", "members": "oops"}},
		{"id": "r7", "group": map[string]interface{}{"label": "i", "members": []interface{}{nil}}},
	}}
	c, err := otgraph.NewContext(src, nil)
	test.ErrNil(t, err, "context")
	it, err := c.ScanStream(context.Background(), otgraph.NewExplodingScan(r.members), otgraph.NewFieldSet(r.id, r.label, r.name))
	test.ErrNil(t, err, "scan stream")
	views, rowErrs := scanAll(t, it)
	test.MustBe(t, rowErrs, 1, "row errors")
	test.MustBe(t, len(views), 3, "items")

	test.MustBe(t, resolveAll(t, views, r.id), []interface{}{"r4", "r4", "r7"}, "ids")
	test.MustBe(t, resolveAll(t, views, r.label), []interface{}{"g", "g", "i"}, "labels")
	test.MustBe(t, resolveAll(t, views, r.name), []interface{}{"x", "y", nil}, "names")
}

func TestRowScan(t *testing.T) {
	r := newRows()
	src := otgraph.SliceSource{"rows": {
		{"id": "r1", "items": []interface{}{"a"}},
		{"id": "r2", "items": nil},
		{"id": "r3"},
	}}
	c, err := otgraph.NewContext(src, nil)
	test.ErrNil(t, err, "context")
	it, err := c.ScanStream(context.Background(), otgraph.NewRowScan(r.d), otgraph.NewFieldSet(r.id, r.items))
	test.ErrNil(t, err, "scan stream")
	views, _ := scanAll(t, it)
	test.MustBe(t, resolveAll(t, views, r.id), []interface{}{"r1", "r2", "r3"}, "ids")
	test.MustBe(t, resolveAll(t, views[:2], r.items), []interface{}{[]interface{}{"a"}, nil}, "items")

	// null and missing are different things
	_, err = otgraph.Resolve(views[2], r.items)
	mustRowError(t, err, otgraph.ReasonLookup)
}

func TestExplodingScanMissingField(t *testing.T) {
	r := newRows()
	src := otgraph.SliceSource{"rows": {
		{"id": "r1", "items": []interface{}{"a"}},
		{"id": "r2"},
		{"id": "r3", "items": []interface{}{"b"}},
	}}
	c, err := otgraph.NewContext(src, nil)
	test.ErrNil(t, err, "context")
	it, err := c.ScanStream(context.Background(), otgraph.NewExplodingScan(r.items), otgraph.NewFieldSet(r.id))
	test.ErrNil(t, err, "scan stream")
	views, rowErrs := scanAll(t, it)
	test.MustBe(t, rowErrs, 1, "row errors")
	test.MustBe(t, resolveAll(t, views, r.id), []interface{}{"r1", "r3"}, "ids")
}

func TestScanValidation(t *testing.T) {
	r := newRows()
	other := otgraph.NewDataset("other")
	tags := r.members.Element().AddSequence("tags", otgraph.TypeString, true)
	tests := []struct {
		name string
		op   otgraph.ScanOperation
	}{
		{name: "nil", op: nil},
		{name: "no dataset", op: otgraph.RowScan{}},
		{name: "scalar", op: otgraph.NewExplodingScan(r.id)},
		{name: "struct", op: otgraph.NewExplodingScan(r.meta)},
		{name: "wrong dataset", op: otgraph.ExplodingScan{Source: other, Field: r.items}},
		{name: "below sequence", op: otgraph.NewExplodingScan(tags)},
		{name: "no field", op: otgraph.ExplodingScan{Source: r.d}},
	}
	c, err := otgraph.NewContext(otgraph.SliceSource{}, nil)
	test.ErrNil(t, err, "context")
	for _, tst := range tests {
		t.Run(tst.name, func(t *testing.T) {
			_, err := c.ScanStream(context.Background(), tst.op, otgraph.NewFieldSet(r.id))
			test.ErrSome(t, err, tst.name)
		})
	}
}

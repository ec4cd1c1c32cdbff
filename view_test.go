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
	"reflect"
	"testing"

	"github.com/opentargets/otgraph"
	"github.com/opentargets/otgraph/test"
)

func mustRowError(t *testing.T, err error, reason string) {
	t.Helper()
	re, ok := otgraph.AsRowError(err)
	if !ok {
		t.Fatalf("expected a row error (%s), got %v", reason, err)
	}
	if re.Reason != reason {
		t.Fatalf("expected reason %q, got %q (%v)", reason, re.Reason, re)
	}
}

func TestMapAndTupleViewsAgree(t *testing.T) {
	e := newEvidence()
	raw := e.row()
	fields := e.d.Fields()
	idx, err := otgraph.NewFieldIndex(e.d, fields)
	test.ErrNil(t, err, "indexing")

	mv := otgraph.NewMapView(e.d, raw)
	tv := otgraph.NewTupleView(otgraph.Project(raw, fields), idx)

	for _, f := range e.d.AllFields() {
		t.Run(f.String(), func(t *testing.T) {
			mval, merr := otgraph.Resolve(mv, f)
			tval, terr := otgraph.Resolve(tv, f)
			if otgraph.IsRowError(merr) != otgraph.IsRowError(terr) {
				t.Fatalf("views disagree on error: %v vs %v", merr, terr)
			}
			if !reflect.DeepEqual(otgraph.Materialize(mval), otgraph.Materialize(tval)) {
				t.Fatalf("views disagree: %#v vs %#v", mval, tval)
			}
		})
	}

	val, err := tv.Get(e.disease)
	test.ErrNil(t, err, "get disease")
	if _, ok := val.(*otgraph.MapView); !ok {
		t.Fatalf("struct field came back as %T", val)
	}
	val, err = otgraph.Resolve(tv, e.diseaseID)
	test.ErrNil(t, err, "resolve disease id")
	test.MustBe(t, val, "EFO_0000400")

	val, err = tv.Get(e.literature)
	test.ErrNil(t, err, "get literature")
	test.MustBe(t, val, []interface{}{"a", "b"}, "scalar sequence")
}

func TestArrayView(t *testing.T) {
	e := newEvidence()
	mv := otgraph.NewMapView(e.d, e.row())
	val, err := mv.Get(e.mutations)
	test.ErrNil(t, err, "get mutations")
	arr, ok := val.(*otgraph.ArrayView)
	if !ok {
		t.Fatalf("struct sequence came back as %T", val)
	}
	test.MustBe(t, arr.Len(), 1, "len")
	if arr.Element() != e.mutations.Element() {
		t.Fatalf("wrong element field")
	}
	el, err := arr.At(0)
	test.ErrNil(t, err, "at 0")
	got, err := el.Get(e.mutationID)
	test.ErrNil(t, err, "element get")
	test.MustBe(t, got, "SO_0001583")

	_, err = arr.At(1)
	mustRowError(t, err, otgraph.ReasonIndexRange)

	var seen int
	err = arr.Each(func(i int, v otgraph.View) error {
		seen++
		return nil
	})
	test.ErrNil(t, err, "each")
	test.MustBe(t, seen, 1, "each count")

	row := e.row()
	row["mutations"] = []interface{}{
		map[string]interface{}{"functionalConsequenceId": "SO_1"},
		nil,
		map[string]interface{}{"functionalConsequenceId": "SO_3"},
	}
	val, err = otgraph.NewMapView(e.d, row).Get(e.mutations)
	test.ErrNil(t, err, "get mutations")
	views, err := val.(*otgraph.ArrayView).Views()
	test.ErrNil(t, err, "views")
	test.MustBe(t, len(views), 3, "views")
	if views[1] != nil {
		t.Fatalf("null element should be a nil view, got %v", views[1])
	}
	for i, exp := range map[int]string{0: "SO_1", 2: "SO_3"} {
		got, err := views[i].Get(e.mutationID)
		test.ErrNil(t, err, "element get")
		test.MustBe(t, got, exp, "element")
	}

	row["mutations"] = []interface{}{"not a struct"}
	val, err = otgraph.NewMapView(e.d, row).Get(e.mutations)
	test.ErrNil(t, err, "get bad mutations")
	_, err = val.(*otgraph.ArrayView).Views()
	mustRowError(t, err, otgraph.ReasonType)
}

func TestTupleViewMissingKey(t *testing.T) {
	e := newEvidence()
	fields := []*otgraph.Field{e.id, e.disease}
	idx, err := otgraph.NewFieldIndex(e.d, fields)
	test.ErrNil(t, err, "indexing")
	tv := otgraph.NewTupleView(otgraph.Project(map[string]interface{}{"id": "r1"}, fields), idx)

	_, err = otgraph.Resolve(tv, e.diseaseID)
	mustRowError(t, err, otgraph.ReasonLookup)
	_, mapErr := otgraph.Resolve(otgraph.NewMapView(e.d, map[string]interface{}{"id": "r1"}), e.diseaseID)
	mustRowError(t, mapErr, otgraph.ReasonLookup)
}

func TestViewFailures(t *testing.T) {
	e := newEvidence()
	raw := e.row()

	t.Run("missing name", func(t *testing.T) {
		_, err := otgraph.NewMapView(e.d, map[string]interface{}{"id": "x"}).Get(e.targetID)
		mustRowError(t, err, otgraph.ReasonLookup)
	})
	t.Run("unmapped", func(t *testing.T) {
		_, err := otgraph.NewMapView(e.d, raw, e.id).Get(e.targetID)
		mustRowError(t, err, otgraph.ReasonLookup)
	})
	t.Run("not indexed", func(t *testing.T) {
		idx, err := otgraph.NewFieldIndex(e.d, []*otgraph.Field{e.id})
		test.ErrNil(t, err, "indexing")
		_, err = otgraph.NewTupleView([]interface{}{"r1"}, idx).Get(e.targetID)
		mustRowError(t, err, otgraph.ReasonLookup)
	})
	t.Run("wrong shape", func(t *testing.T) {
		_, err := otgraph.NewMapView(e.d, map[string]interface{}{"disease": "oops"}).Get(e.disease)
		mustRowError(t, err, otgraph.ReasonType)
	})
	t.Run("null struct", func(t *testing.T) {
		v := otgraph.NewMapView(e.d, map[string]interface{}{"disease": nil})
		val, err := otgraph.Resolve(v, e.diseaseID)
		test.ErrNil(t, err, "resolving through null")
		test.MustBe(t, val, nil)
	})
	t.Run("unexploded sequence", func(t *testing.T) {
		_, err := otgraph.Resolve(otgraph.NewMapView(e.d, raw), e.mutationID)
		mustRowError(t, err, otgraph.ReasonUnresolvedPath)
	})
}

func TestFieldIndexErrors(t *testing.T) {
	e := newEvidence()
	other := otgraph.NewDataset("other")
	x := other.Add("x", otgraph.TypeString, true)
	for name, fields := range map[string][]*otgraph.Field{
		"other dataset": {x},
		"nested":        {e.diseaseID},
		"duplicate":     {e.id, e.id},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := otgraph.NewFieldIndex(e.d, fields)
			test.ErrSome(t, err, name)
		})
	}
}

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

package file

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/opentargets/otgraph"
)

func mustFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatalf("making dir: %v", err)
	}
	if err := os.WriteFile(p, []byte(contents), 0644); err != nil {
		t.Fatalf("writing %s: %v", p, err)
	}
	return p
}

func TestRawSource(t *testing.T) {
	d := t.TempDir()
	mustFile(t, d, "part-00001.json", `blah blah blah`)
	mustFile(t, d, "part-00000.json", `hahahahahahahaha`)
	mustFile(t, d, "_SUCCESS", ``)
	mustFile(t, d, ".part-00000.json.crc", `crc`)
	mustFile(t, d, "notes.txt", `ignored`)

	rs, err := NewRawSource(d)
	if err != nil {
		t.Fatalf("getting raw source: %v", err)
	}

	gotNames := make([]string, 0, 2)
	var reader otgraph.NamedReadCloser
	for reader, err = rs.NextReader(); err == nil; reader, err = rs.NextReader() {
		gotNames = append(gotNames, reader.Name())
		if _, err := io.ReadAll(reader); err != nil {
			t.Fatalf("reading file: %v", err)
		}
		reader.Close()
	}
	if !reflect.DeepEqual(gotNames, []string{"part-00000.json", "part-00001.json"}) {
		t.Fatalf("different file names: %v", gotNames)
	}
	if err != io.EOF {
		t.Fatalf("unexpected NextReader error: %v", err)
	}
}

func TestSource(t *testing.T) {
	d := t.TempDir()
	mustFile(t, d, "a.json", `
{"hey": 44}
{"hey": 39}
`)
	mustFile(t, d, "b.json", `
{"hey": 81}
{"hey": 22}
`)

	s, err := NewSource(OptSrcSubjectAt("here"), OptSrcPath(d))
	if err != nil {
		t.Fatalf("getting source: %v", err)
	}
	defer s.Close()

	var vals []int
	var subjects []string
	var rec map[string]interface{}
	for rec, err = s.Record(); err == nil; rec, err = s.Record() {
		v, ok := rec["hey"].(float64)
		if !ok {
			t.Fatalf("expected float in %v", rec)
		}
		vals = append(vals, int(v))
		subjects = append(subjects, rec["here"].(string))
	}
	if err != io.EOF {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(vals, []int{44, 39, 81, 22}) {
		t.Fatalf("wrong vals: %v", vals)
	}
	if !reflect.DeepEqual(subjects, []string{"a.json#0", "a.json#1", "b.json#0", "b.json#1"}) {
		t.Fatalf("wrong subjects: %v", subjects)
	}

	if _, err := NewSource(); err == nil {
		t.Fatalf("expected error without a path")
	}
}

func TestSourceCloseEarly(t *testing.T) {
	d := t.TempDir()
	mustFile(t, d, "a.json", strings.Repeat("{\"x\": 1}\n", 500))
	s, err := NewSource(OptSrcPath(d))
	if err != nil {
		t.Fatalf("getting source: %v", err)
	}
	if _, err := s.Record(); err != nil {
		t.Fatalf("first record: %v", err)
	}
	s.Close()
	s.Close()
}

func TestRowSource(t *testing.T) {
	root := t.TempDir()
	mustFile(t, root, "targets/part-00000.json", `{"id": "T1", "approvedSymbol": "BRAF"}`+"\n")
	mustFile(t, root, "targets/part-00001.json", `{"id": "T2", "approvedSymbol": "KRAS"}`+"\n")
	mustFile(t, root, "diseases.jsonl", `{"id": "EFO_1"}`+"\n")

	targets := otgraph.NewDataset("targets")
	tid := targets.Add("id", otgraph.TypeString, false)
	sym := targets.Add("approvedSymbol", otgraph.TypeString, true)
	diseases := otgraph.NewDataset("diseases")
	did := diseases.Add("id", otgraph.TypeString, false)

	src := NewRowSource(root)
	tests := []struct {
		d      *otgraph.Dataset
		fields []*otgraph.Field
		limit  int
		exp    [][]interface{}
	}{
		{d: targets, fields: []*otgraph.Field{sym, tid}, exp: [][]interface{}{{"BRAF", "T1"}, {"KRAS", "T2"}}},
		{d: targets, fields: []*otgraph.Field{tid}, limit: 1, exp: [][]interface{}{{"T1"}}},
		{d: diseases, fields: []*otgraph.Field{did}, exp: [][]interface{}{{"EFO_1"}}},
	}
	for _, tst := range tests {
		t.Run(tst.d.Name(), func(t *testing.T) {
			it, err := src.Rows(context.Background(), tst.d, tst.fields, tst.limit)
			if err != nil {
				t.Fatalf("rows: %v", err)
			}
			defer it.Close()
			var got [][]interface{}
			for {
				tup, err := it.Next()
				if err == io.EOF {
					break
				} else if err != nil {
					t.Fatalf("next: %v", err)
				}
				got = append(got, tup)
			}
			if !reflect.DeepEqual(got, tst.exp) {
				t.Fatalf("expected %v, got %v", tst.exp, got)
			}
		})
	}

	if _, err := src.Rows(context.Background(), otgraph.NewDataset("missing"), nil, 0); err == nil {
		t.Fatalf("expected error for a missing dataset")
	}
}

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
	"fmt"
	"strings"
	"testing"

	"github.com/opentargets/otgraph"
	"github.com/opentargets/otgraph/test"
	"github.com/pkg/errors"
)

func TestCompile(t *testing.T) {
	e := newEvidence()
	raw := e.row()
	raw["score"] = 3.5
	score := e.d.Add("score", otgraph.TypeDouble, true)
	count := e.d.Add("count", otgraph.TypeLong, true)
	raw["count"] = int64(12)
	missing := e.d.Add("missing", otgraph.TypeString, true)
	raw["missing"] = nil
	view := otgraph.NewMapView(e.d, raw)

	fail := func(val interface{}) (interface{}, error) { return nil, errors.New("nope") }
	show := func(val interface{}) (interface{}, error) { return fmt.Sprint(val), nil }

	tests := []struct {
		name   string
		expr   otgraph.Expression
		exp    interface{}
		reason string
		msg    string
	}{
		{name: "field", expr: otgraph.F(e.id), exp: "r1"},
		{name: "nested field", expr: otgraph.F(e.diseaseID), exp: "EFO_0000400"},
		{name: "literal", expr: otgraph.L(5), exp: 5},
		{name: "transform", expr: otgraph.Transform{Func: upper, Input: otgraph.F(e.id)}, exp: "R1"},
		{name: "transform no input", expr: otgraph.Transform{Func: show}, exp: "<no input>"},
		{name: "transform failure", expr: otgraph.Transform{Func: fail, Input: otgraph.F(e.id)}, reason: otgraph.ReasonTransform},
		{name: "to string float", expr: otgraph.ToString{Expr: otgraph.F(score)}, exp: "3.5"},
		{name: "to string int", expr: otgraph.ToString{Expr: otgraph.F(count)}, exp: "12"},
		{name: "to string null", expr: otgraph.ToString{Expr: otgraph.F(missing)}, reason: otgraph.ReasonNull},
		{name: "to string struct", expr: otgraph.ToString{Expr: otgraph.F(e.attrs)}, reason: otgraph.ReasonType},
		{name: "concat", expr: otgraph.Concat(otgraph.F(e.id), otgraph.L("->"), otgraph.F(e.targetID)), exp: "r1->ENSG0001"},
		{name: "concat null part", expr: otgraph.Concat(otgraph.F(e.id), otgraph.F(missing)), reason: otgraph.ReasonNull},
		{name: "lower", expr: otgraph.StringLower{Expr: otgraph.F(e.targetID)}, exp: "ensg0001"},
		{name: "normalise underscore", expr: otgraph.NormaliseCurie{Expr: otgraph.L("gO_AbCdEf")}, exp: "go:AbCdEf"},
		{name: "normalise colon", expr: otgraph.NormaliseCurie{Expr: otgraph.L("GO:0008150")}, exp: "go:0008150"},
		{name: "normalise slash", expr: otgraph.NormaliseCurie{Expr: otgraph.L("MONDO/0005148")}, exp: "mondo:0005148"},
		{name: "normalise synonym", expr: otgraph.NormaliseCurie{Expr: otgraph.F(e.diseaseID)}, exp: "efo:0000400"},
		{name: "normalise no separator", expr: otgraph.NormaliseCurie{Expr: otgraph.L("AbCdEf")}, reason: otgraph.ReasonNoSeparator, msg: "'AbCdEf'"},
		{name: "normalise rejected", expr: otgraph.NormaliseCurie{Expr: otgraph.L("zzz:abc_1")}, reason: otgraph.ReasonNormalisation},
		{name: "build curie verbatim", expr: otgraph.BuildCurie{Prefix: otgraph.L("gO"), Reference: otgraph.L("AbCdEf")}, exp: "gO:AbCdEf"},
		{name: "build curie normalised", expr: otgraph.BuildCurie{Prefix: otgraph.L("gO"), Reference: otgraph.L("AbCdEf"), Normalise: true}, exp: "go:AbCdEf"},
		{name: "build curie rejected", expr: otgraph.BuildCurie{Prefix: otgraph.L("zzz"), Reference: otgraph.L("1"), Normalise: true}, reason: otgraph.ReasonNormalisation},
		{name: "prefix", expr: otgraph.ExtractCuriePrefix{Expr: otgraph.F(e.diseaseID)}, exp: "EFO"},
		{name: "prefix first separator", expr: otgraph.ExtractCuriePrefix{Expr: otgraph.L("a_b:c")}, exp: "a_b"},
		{name: "prefix normalised", expr: otgraph.ExtractCuriePrefix{Expr: otgraph.L("Orphanet_558"), Normalise: true}, exp: "orphanet"},
		{name: "prefix no separator", expr: otgraph.ExtractCuriePrefix{Expr: otgraph.L("abc")}, reason: otgraph.ReasonNoSeparator, msg: "'abc'"},
		{name: "substring", expr: otgraph.ExtractSubstring{Expr: otgraph.L("a|b|c"), Separator: otgraph.L("|"), Index: 1}, exp: "b"},
		{name: "substring negative", expr: otgraph.ExtractSubstring{Expr: otgraph.L("a|b|c"), Separator: otgraph.L("|"), Index: -1}, exp: "c"},
		{name: "substring range", expr: otgraph.ExtractSubstring{Expr: otgraph.L("a|b|c"), Separator: otgraph.L("|"), Index: 3}, reason: otgraph.ReasonIndexRange},
		{name: "substring negative range", expr: otgraph.ExtractSubstring{Expr: otgraph.L("a|b"), Separator: otgraph.L("|"), Index: -3}, reason: otgraph.ReasonIndexRange},
		{name: "substring empty separator", expr: otgraph.ExtractSubstring{Expr: otgraph.L("abc"), Separator: otgraph.L("")}, reason: otgraph.ReasonType},
		{name: "licence chembl", expr: otgraph.DataSourceToLicence{Expr: otgraph.F(e.datasource)}, exp: otgraph.LicenceCCBYSA30},
		{name: "licence unknown", expr: otgraph.DataSourceToLicence{Expr: otgraph.L("unknown-source")}, exp: otgraph.LicenceUnknown},
		{name: "licence as string", expr: otgraph.ToString{Expr: otgraph.DataSourceToLicence{Expr: otgraph.L("europepmc")}}, exp: "CC BY-NC 4.0"},
	}

	c := otgraph.NewCompiler()
	for _, tst := range tests {
		t.Run(tst.name, func(t *testing.T) {
			ev, err := c.Compile(tst.expr)
			test.ErrNil(t, err, "compiling")
			val, err := ev(view)
			if tst.reason != "" {
				mustRowError(t, err, tst.reason)
				if tst.msg != "" && !strings.Contains(err.Error(), tst.msg) {
					t.Fatalf("error %q does not mention %s", err, tst.msg)
				}
				return
			}
			test.ErrNil(t, err, "evaluating")
			test.MustBe(t, val, tst.exp)
		})
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		c    *otgraph.Compiler
		expr otgraph.Expression
	}{
		{name: "nil", c: otgraph.NewCompiler()},
		{name: "field without field", c: otgraph.NewCompiler(), expr: otgraph.FieldExpr{}},
		{name: "transform without func", c: otgraph.NewCompiler(), expr: otgraph.Transform{Input: otgraph.L(1)}},
		{name: "to string without input", c: otgraph.NewCompiler(), expr: otgraph.ToString{}},
		{name: "bad concat part", c: otgraph.NewCompiler(), expr: otgraph.Concat(otgraph.L("a"), nil)},
		{name: "substring without separator", c: otgraph.NewCompiler(), expr: otgraph.ExtractSubstring{Expr: otgraph.L("a")}},
		{name: "normalise without registry", c: &otgraph.Compiler{}, expr: otgraph.NormaliseCurie{Expr: otgraph.L("go:1")}},
		{name: "build without registry", c: &otgraph.Compiler{}, expr: otgraph.BuildCurie{Prefix: otgraph.L("go"), Reference: otgraph.L("1"), Normalise: true}},
	}
	for _, tst := range tests {
		t.Run(tst.name, func(t *testing.T) {
			_, err := tst.c.Compile(tst.expr)
			test.ErrSome(t, err, tst.name)
			if otgraph.IsRowError(err) {
				t.Fatalf("construction error reported as row error: %v", err)
			}
		})
	}

	// without normalisation no registry is needed
	ev, err := (&otgraph.Compiler{}).Compile(otgraph.BuildCurie{Prefix: otgraph.L("a"), Reference: otgraph.L("b")})
	test.ErrNil(t, err, "compiling without registry")
	val, err := ev(nil)
	test.ErrNil(t, err, "evaluating")
	test.MustBe(t, val, "a:b")
}

func TestPrefixMap(t *testing.T) {
	p, err := otgraph.LoadPrefixMap(strings.NewReader("chembl.compound: [CHEMBL_COMPOUND]\nmyonto: [MYO]\n"))
	test.ErrNil(t, err, "loading")

	tests := []struct {
		in  string
		exp string
		ok  bool
	}{
		{in: "MYO", exp: "myonto", ok: true},
		{in: "chembl_compound", exp: "chembl.compound", ok: true},
		{in: "ChEMBL", exp: "chembl.compound", ok: true},
		{in: " GO ", exp: "go", ok: true},
		{in: "nope"},
	}
	for _, tst := range tests {
		t.Run(tst.in, func(t *testing.T) {
			got, ok := p.NormalizePrefix(tst.in)
			test.MustBe(t, ok, tst.ok, "ok")
			test.MustBe(t, got, tst.exp, "prefix")
		})
	}

	got, ok := p.NormalizeCurie("MYO_123", "_")
	test.MustBe(t, ok, true, "curie ok")
	test.MustBe(t, got, "myonto:123")
	_, ok = p.NormalizeCurie("MYO_", "_")
	test.MustBe(t, ok, false, "empty reference")

	_, err = otgraph.LoadPrefixMap(strings.NewReader("- not\n- a map\n"))
	test.ErrSome(t, err, "bad prefix file")
}

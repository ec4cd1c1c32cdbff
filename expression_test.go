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
	"strings"
	"testing"

	"github.com/opentargets/otgraph"
)

func upper(val interface{}) (interface{}, error) {
	s, _ := val.(string)
	return strings.ToUpper(s), nil
}

func TestDependentFields(t *testing.T) {
	e := newEvidence()
	elem := e.literature.Element()
	tests := []struct {
		name string
		expr otgraph.Expression
		exp  []*otgraph.Field
	}{
		{name: "field", expr: otgraph.F(e.id), exp: []*otgraph.Field{e.id}},
		{name: "literal", expr: otgraph.L("x")},
		{name: "transform", expr: otgraph.Transform{Func: upper, Input: otgraph.F(e.targetID)}, exp: []*otgraph.Field{e.targetID}},
		{name: "transform no input", expr: otgraph.Transform{Func: upper}},
		{name: "to string", expr: otgraph.ToString{Expr: otgraph.F(e.diseaseID)}, exp: []*otgraph.Field{e.diseaseID}},
		{
			name: "concatenation",
			expr: otgraph.Concat(otgraph.F(e.id), otgraph.L("->"), otgraph.F(elem)),
			exp:  []*otgraph.Field{e.id, elem},
		},
		{name: "lower", expr: otgraph.StringLower{Expr: otgraph.F(e.targetID)}, exp: []*otgraph.Field{e.targetID}},
		{
			name: "build curie",
			expr: otgraph.BuildCurie{Prefix: otgraph.F(e.datasource), Reference: otgraph.F(e.diseaseID)},
			exp:  []*otgraph.Field{e.datasource, e.diseaseID},
		},
		{name: "extract prefix", expr: otgraph.ExtractCuriePrefix{Expr: otgraph.F(e.diseaseID)}, exp: []*otgraph.Field{e.diseaseID}},
		{name: "normalise", expr: otgraph.NormaliseCurie{Expr: otgraph.F(e.mutationID)}, exp: []*otgraph.Field{e.mutationID}},
		{
			name: "substring",
			expr: otgraph.ExtractSubstring{Expr: otgraph.F(e.id), Separator: otgraph.F(e.datasource), Index: 1},
			exp:  []*otgraph.Field{e.id, e.datasource},
		},
		{name: "licence", expr: otgraph.DataSourceToLicence{Expr: otgraph.F(e.datasource)}, exp: []*otgraph.Field{e.datasource}},
		{
			name: "nested with repeats",
			expr: otgraph.StringLower{Expr: otgraph.Concat(
				otgraph.BuildCurie{Prefix: otgraph.F(e.datasource), Reference: otgraph.ToString{Expr: otgraph.F(e.id)}},
				otgraph.Transform{Func: upper, Input: otgraph.F(e.datasource)},
				otgraph.ExtractSubstring{Expr: otgraph.F(e.targetID), Separator: otgraph.L("_")},
			)},
			exp: []*otgraph.Field{e.datasource, e.id, e.targetID},
		},
	}
	for _, tst := range tests {
		t.Run(tst.name, func(t *testing.T) {
			got := otgraph.DependentFields(tst.expr).Slice()
			if len(got) != len(tst.exp) {
				t.Fatalf("expected %v, got %v", tst.exp, got)
			}
			for i := range got {
				if got[i] != tst.exp[i] {
					t.Fatalf("field %d: expected %v, got %v", i, tst.exp[i], got[i])
				}
			}
		})
	}
}

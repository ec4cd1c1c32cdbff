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
	"fmt"
)

// Expression describes how to compute one value (an id, a label, a property)
// from a View. Expressions are immutable trees; the set of variants is
// closed and listed below.
type Expression interface {
	isExpr()
}

// FieldExpr reads a field, at any depth, from the view.
type FieldExpr struct {
	Field *Field
}

// Literal evaluates to a constant.
type Literal struct {
	Value interface{}
}

// NoInput is passed to the function of a Transform without an input
// expression.
var NoInput = noInput{}

type noInput struct{}

func (noInput) String() string { return "<no input>" }

// TransformFunc post-processes a value. It must not have side effects.
type TransformFunc func(val interface{}) (interface{}, error)

// Transform applies Func to the value of Input, or to NoInput if Input is
// nil.
type Transform struct {
	Func  TransformFunc
	Input Expression
}

// ToString stringifies the value of Expr.
type ToString struct {
	Expr Expression
}

// StringConcatenation concatenates the string values of Exprs in order.
type StringConcatenation struct {
	Exprs []Expression
}

// StringLower lower-cases the string value of Expr.
type StringLower struct {
	Expr Expression
}

// BuildCurie formats "prefix:reference", optionally normalising both parts
// through the Registry first.
type BuildCurie struct {
	Prefix    Expression
	Reference Expression
	Normalise bool
}

// ExtractCuriePrefix returns the part of an identifier before the first
// separator found, trying CurieSeparators in order.
type ExtractCuriePrefix struct {
	Expr      Expression
	Normalise bool
}

// NormaliseCurie normalises an identifier written with any of the
// CurieSeparators into canonical "prefix:reference" form.
type NormaliseCurie struct {
	Expr Expression
}

// ExtractSubstring splits the string value of Expr on the value of
// Separator and returns the Index-th part. Negative indexes count from the
// end.
type ExtractSubstring struct {
	Expr      Expression
	Separator Expression
	Index     int
}

// DataSourceToLicence maps a data source id to its Licence.
type DataSourceToLicence struct {
	Expr Expression
}

func (FieldExpr) isExpr()           {}
func (Literal) isExpr()             {}
func (Transform) isExpr()           {}
func (ToString) isExpr()            {}
func (StringConcatenation) isExpr() {}
func (StringLower) isExpr()         {}
func (BuildCurie) isExpr()          {}
func (ExtractCuriePrefix) isExpr()  {}
func (NormaliseCurie) isExpr()      {}
func (ExtractSubstring) isExpr()    {}
func (DataSourceToLicence) isExpr() {}

// F is shorthand for FieldExpr{f}.
func F(f *Field) FieldExpr { return FieldExpr{Field: f} }

// L is shorthand for Literal{v}.
func L(v interface{}) Literal { return Literal{Value: v} }

// Concat is shorthand for StringConcatenation.
func Concat(exprs ...Expression) StringConcatenation {
	return StringConcatenation{Exprs: exprs}
}

func (e FieldExpr) String() string { return fmt.Sprintf("field(%v)", e.Field) }

func (e Literal) String() string { return fmt.Sprintf("literal(%#v)", e.Value) }

// children returns every sub-expression slot of e, skipping empty ones.
func children(e Expression) []Expression {
	var kids []Expression
	switch et := e.(type) {
	case FieldExpr, Literal:
	case Transform:
		kids = []Expression{et.Input}
	case ToString:
		kids = []Expression{et.Expr}
	case StringConcatenation:
		kids = append(kids, et.Exprs...)
	case StringLower:
		kids = []Expression{et.Expr}
	case BuildCurie:
		kids = []Expression{et.Prefix, et.Reference}
	case ExtractCuriePrefix:
		kids = []Expression{et.Expr}
	case NormaliseCurie:
		kids = []Expression{et.Expr}
	case ExtractSubstring:
		kids = []Expression{et.Expr, et.Separator}
	case DataSourceToLicence:
		kids = []Expression{et.Expr}
	}
	ret := kids[:0]
	for _, k := range kids {
		if k != nil {
			ret = append(ret, k)
		}
	}
	return ret
}

// DependentFields returns every Field read by e, in the order they appear.
// This is the set of fields that must be fetched before e can be evaluated.
func DependentFields(e Expression) *FieldSet {
	set := NewFieldSet()
	collectFields(e, set)
	return set
}

func collectFields(e Expression, set *FieldSet) {
	if fe, ok := e.(FieldExpr); ok {
		set.Add(fe.Field)
		return
	}
	for _, k := range children(e) {
		collectFields(k, set)
	}
}

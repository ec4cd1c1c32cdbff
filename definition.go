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
	"fmt"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// Definition turns the rows of one scan operation into graph records.
type Definition interface {
	fmt.Stringer
	Scan() ScanOperation
	RequiredDatasets() []*Dataset
	RequiredFields() *FieldSet
	Generate(ctx context.Context, c *Context) (RecordIterator, error)
}

// PropertyExpr declares one property. A FieldExpr key names the property
// after the field (see PropertyName), a Literal key after its value; any
// other key expression is evaluated per item.
type PropertyExpr struct {
	Key   Expression
	Value Expression
}

// P declares a property named after f holding f's value.
func P(f *Field) PropertyExpr { return PropertyExpr{Key: F(f), Value: F(f)} }

// NodeDefinition generates one node per scanned item.
type NodeDefinition struct {
	Name       string
	ID         Expression
	Label      Expression
	Properties []PropertyExpr
	ScanOp     ScanOperation
}

// EdgeDefinition generates one edge per scanned item.
type EdgeDefinition struct {
	Name       string
	ID         Expression
	Source     Expression
	Target     Expression
	Label      Expression
	Properties []PropertyExpr
	ScanOp     ScanOperation
}

func (d *NodeDefinition) String() string { return defName("node", d.Name, d.ScanOp) }
func (d *EdgeDefinition) String() string { return defName("edge", d.Name, d.ScanOp) }

func defName(kind, name string, op ScanOperation) string {
	if name != "" {
		return name
	}
	if op == nil {
		return kind
	}
	return fmt.Sprintf("%s(%v)", kind, op.Dataset())
}

// Scan implements Definition.
func (d *NodeDefinition) Scan() ScanOperation { return d.ScanOp }

// Scan implements Definition.
func (d *EdgeDefinition) Scan() ScanOperation { return d.ScanOp }

// RequiredDatasets implements Definition.
func (d *NodeDefinition) RequiredDatasets() []*Dataset { return scanDatasets(d.ScanOp) }

// RequiredDatasets implements Definition.
func (d *EdgeDefinition) RequiredDatasets() []*Dataset { return scanDatasets(d.ScanOp) }

func scanDatasets(op ScanOperation) []*Dataset {
	if op == nil || op.Dataset() == nil {
		return nil
	}
	return []*Dataset{op.Dataset()}
}

// RequiredFields implements Definition.
func (d *NodeDefinition) RequiredFields() *FieldSet {
	return requiredFields(d.ScanOp, d.Properties, d.ID, d.Label)
}

// RequiredFields implements Definition.
func (d *EdgeDefinition) RequiredFields() *FieldSet {
	return requiredFields(d.ScanOp, d.Properties, d.ID, d.Source, d.Target, d.Label)
}

func requiredFields(op ScanOperation, props []PropertyExpr, exprs ...Expression) *FieldSet {
	set := NewFieldSet()
	for _, e := range exprs {
		if e != nil {
			set.Union(DependentFields(e))
		}
	}
	for _, p := range props {
		if p.Key != nil {
			set.Union(DependentFields(p.Key))
		}
		if p.Value != nil {
			set.Union(DependentFields(p.Value))
		}
	}
	if ex, ok := op.(ExplodingScan); ok {
		set.Add(ex.Field)
	}
	return set
}

// Generate implements Definition.
func (d *NodeDefinition) Generate(ctx context.Context, c *Context) (RecordIterator, error) {
	if d.ScanOp == nil {
		return nil, ErrNoScan
	}
	if d.ID == nil {
		return nil, errors.Wrapf(ErrNoID, "%v", d)
	}
	comp := c.Compiler()
	id, err := compileID(comp, d.ID, "id")
	if err != nil {
		return nil, errors.Wrapf(err, "%v", d)
	}
	label, err := compileLabel(comp, d.Label)
	if err != nil {
		return nil, errors.Wrapf(err, "%v", d)
	}
	props, err := compileProperties(comp, d.Properties)
	if err != nil {
		return nil, errors.Wrapf(err, "%v", d)
	}
	build := func(v View) (Record, error) {
		var err error
		n := &NodeInfo{}
		if n.ID, err = id(v); err != nil {
			return nil, err
		}
		if n.Label, err = label(v); err != nil {
			return nil, err
		}
		if n.Properties, err = props(v); err != nil {
			return nil, err
		}
		return n, nil
	}
	return newGenerator(ctx, c, d, build)
}

// Generate implements Definition.
func (d *EdgeDefinition) Generate(ctx context.Context, c *Context) (RecordIterator, error) {
	if d.ScanOp == nil {
		return nil, ErrNoScan
	}
	if d.ID == nil {
		return nil, errors.Wrapf(ErrNoID, "%v", d)
	}
	if d.Source == nil || d.Target == nil {
		return nil, errors.Errorf("%v: edge needs both source and target expressions", d)
	}
	comp := c.Compiler()
	id, err := compileID(comp, d.ID, "id")
	if err != nil {
		return nil, errors.Wrapf(err, "%v", d)
	}
	source, err := compileID(comp, d.Source, "source")
	if err != nil {
		return nil, errors.Wrapf(err, "%v", d)
	}
	target, err := compileID(comp, d.Target, "target")
	if err != nil {
		return nil, errors.Wrapf(err, "%v", d)
	}
	label, err := compileLabel(comp, d.Label)
	if err != nil {
		return nil, errors.Wrapf(err, "%v", d)
	}
	props, err := compileProperties(comp, d.Properties)
	if err != nil {
		return nil, errors.Wrapf(err, "%v", d)
	}
	build := func(v View) (Record, error) {
		var err error
		e := &EdgeInfo{}
		if e.ID, err = id(v); err != nil {
			return nil, err
		}
		if e.SourceID, err = source(v); err != nil {
			return nil, err
		}
		if e.TargetID, err = target(v); err != nil {
			return nil, err
		}
		if e.Label, err = label(v); err != nil {
			return nil, err
		}
		if e.Properties, err = props(v); err != nil {
			return nil, err
		}
		return e, nil
	}
	return newGenerator(ctx, c, d, build)
}

func compileID(comp *Compiler, e Expression, what string) (func(View) (string, error), error) {
	fn, err := comp.compileString(e, what)
	if err != nil {
		return nil, errors.Wrapf(err, "compiling %s", what)
	}
	return fn, nil
}

func compileLabel(comp *Compiler, e Expression) (func(View) (string, error), error) {
	if e == nil {
		return func(View) (string, error) { return "", nil }, nil
	}
	return compileID(comp, e, "label")
}

func compileProperties(comp *Compiler, decl []PropertyExpr) (func(View) (Properties, error), error) {
	keys := make([]func(View) (string, error), len(decl))
	vals := make([]Evaluator, len(decl))
	for i, p := range decl {
		if p.Key == nil || p.Value == nil {
			return nil, errors.Errorf("property %d needs a key and a value", i)
		}
		switch kt := p.Key.(type) {
		case FieldExpr:
			if kt.Field == nil {
				return nil, errors.Errorf("property %d: field key without a field", i)
			}
			name := PropertyName(kt.Field)
			keys[i] = func(View) (string, error) { return name, nil }
		case Literal:
			name, err := toString(kt.Value)
			if err != nil {
				return nil, errors.Wrapf(err, "property %d key", i)
			}
			keys[i] = func(View) (string, error) { return name, nil }
		default:
			k, err := comp.compileString(p.Key, "property key")
			if err != nil {
				return nil, errors.Wrapf(err, "property %d", i)
			}
			keys[i] = k
		}
		v, err := comp.Compile(p.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "property %d value", i)
		}
		vals[i] = v
	}
	return func(v View) (Properties, error) {
		props := make(Properties, len(keys))
		for i := range keys {
			k, err := keys[i](v)
			if err != nil {
				return nil, err
			}
			val, err := vals[i](v)
			if err != nil {
				return nil, err
			}
			props[i] = Property{Key: k, Value: Materialize(val)}
		}
		return props, nil
	}, nil
}

// PropertyName is the snake_case form of a field's name, e.g.
// "approvedSymbol" becomes "approved_symbol" and "Y" becomes "y".
func PropertyName(f *Field) string {
	name := f.Name()
	var sb strings.Builder
	var prev rune
	for _, r := range name {
		cur := r
		if unicode.IsUpper(r) {
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				sb.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		sb.WriteRune(r)
		prev = cur
	}
	return sb.String()
}

// generator drives one definition over its scan, skipping items whose
// evaluation fails with a RowError.
type generator struct {
	def     Definition
	dataset *Dataset
	stream  ViewIterator
	build   func(View) (Record, error)
	log     Logger
	stats   Statter
}

func newGenerator(ctx context.Context, c *Context, def Definition, build func(View) (Record, error)) (RecordIterator, error) {
	stream, err := c.ScanStream(ctx, def.Scan(), def.RequiredFields())
	if err != nil {
		return nil, errors.Wrapf(err, "%v: opening scan", def)
	}
	return &generator{
		def:     def,
		dataset: def.Scan().Dataset(),
		stream:  stream,
		build:   build,
		log:     c.Logger(),
		stats:   c.Statter(),
	}, nil
}

// Next implements RecordIterator.
func (g *generator) Next() (Record, error) {
	tag := "definition:" + g.def.String()
	for {
		v, err := g.stream.Next()
		if err != nil {
			if re, ok := AsRowError(err); ok {
				g.skip(re, tag)
				continue
			}
			return nil, err
		}
		rec, err := g.build(v)
		if err != nil {
			if re, ok := AsRowError(err); ok {
				g.skip(re, tag)
				continue
			}
			return nil, errors.Wrapf(err, "%v: row %d", g.def, g.stream.Row())
		}
		g.stats.Count(StatRecordsGenerated, 1, 1, tag)
		return rec, nil
	}
}

func (g *generator) skip(re *RowError, tag string) {
	g.stats.Count(StatRecordsSkipped, 1, 1, tag)
	g.log.Printf("%v: skipping row %d of %v: %v", g.def, g.stream.Row(), g.dataset, re)
}

// Close implements RecordIterator.
func (g *generator) Close() error { return g.stream.Close() }

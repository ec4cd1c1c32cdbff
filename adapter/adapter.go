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

// Package adapter loads node and edge definitions from YAML documents, so the
// graph produced from a set of datasets can be changed without recompiling.
//
// A document lists nodes and edges:
//
//	nodes:
//	  - name: target
//	    dataset: targets
//	    id: {field: id}
//	    label: {literal: TARGET}
//	    properties:
//	      - field: approvedSymbol
//	      - key: {literal: source}
//	        value: {literal: ensembl}
//	edges:
//	  - name: evidence_literature
//	    dataset: evidence
//	    explode: literature
//	    id: {concat: [{field: id}, {literal: "->"}, {field: literature}]}
//	    source: {field: targetId}
//	    target: {field: literature}
//	    label: {literal: MENTIONED_IN}
//
// Field paths are dot separated. Inside a definition exploding a sequence of
// scalars, the sequence's own path refers to the current element.
package adapter

import (
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/opentargets/otgraph"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	transformsMu sync.RWMutex
	transforms   = map[string]otgraph.TransformFunc{
		"upper": stringTransform(strings.ToUpper),
		"lower": stringTransform(strings.ToLower),
		"trim":  stringTransform(strings.TrimSpace),
	}
)

// RegisterTransform makes fn available to "transform" expressions under
// name, replacing any transform already registered with that name.
func RegisterTransform(name string, fn otgraph.TransformFunc) {
	transformsMu.Lock()
	defer transformsMu.Unlock()
	transforms[name] = fn
}

// Transforms returns the names of the registered transforms, sorted.
func Transforms() []string {
	transformsMu.RLock()
	defer transformsMu.RUnlock()
	names := make([]string, 0, len(transforms))
	for name := range transforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupTransform(name string) (otgraph.TransformFunc, bool) {
	transformsMu.RLock()
	defer transformsMu.RUnlock()
	fn, ok := transforms[name]
	return fn, ok
}

func stringTransform(fn func(string) string) otgraph.TransformFunc {
	return func(val interface{}) (interface{}, error) {
		if val == nil {
			return nil, nil
		}
		s, ok := val.(string)
		if !ok {
			return nil, errors.Errorf("expected a string, got %T", val)
		}
		return fn(s), nil
	}
}

// document is the top level of a definitions file.
type document struct {
	Nodes []definition `yaml:"nodes"`
	Edges []definition `yaml:"edges"`
}

// definition holds either a node or an edge. Source and Target are only
// allowed on edges.
type definition struct {
	Name       string      `yaml:"name"`
	Dataset    string      `yaml:"dataset"`
	Explode    string      `yaml:"explode"`
	ID         yaml.Node   `yaml:"id"`
	Label      yaml.Node   `yaml:"label"`
	Source     yaml.Node   `yaml:"source"`
	Target     yaml.Node   `yaml:"target"`
	Properties []yaml.Node `yaml:"properties"`
	line       int
}

func (d *definition) UnmarshalYAML(n *yaml.Node) error {
	m, err := mapping(n)
	if err != nil {
		return err
	}
	if err := only(m, "name", "dataset", "explode", "id", "label", "source", "target", "properties"); err != nil {
		return err
	}
	type plain definition
	if err := n.Decode((*plain)(d)); err != nil {
		return err
	}
	d.line = n.Line
	return nil
}

// Load reads a definitions document from r, resolving dataset names and
// field paths against datasets.
func Load(r io.Reader, datasets []*otgraph.Dataset) ([]otgraph.Definition, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, errors.New("empty definitions document")
		}
		return nil, errors.Wrap(err, "decoding definitions")
	}
	byName := make(map[string]*otgraph.Dataset, len(datasets))
	for _, d := range datasets {
		byName[d.Name()] = d
	}

	defs := make([]otgraph.Definition, 0, len(doc.Nodes)+len(doc.Edges))
	seen := make(map[string]int)
	for i := range doc.Nodes {
		def, err := loadNode(&doc.Nodes[i], byName)
		if err != nil {
			return nil, errors.Wrapf(err, "node %s (line %d)", describe(&doc.Nodes[i]), doc.Nodes[i].line)
		}
		defs = append(defs, def)
	}
	for i := range doc.Edges {
		def, err := loadEdge(&doc.Edges[i], byName)
		if err != nil {
			return nil, errors.Wrapf(err, "edge %s (line %d)", describe(&doc.Edges[i]), doc.Edges[i].line)
		}
		defs = append(defs, def)
	}
	for _, d := range append(doc.Nodes, doc.Edges...) {
		if d.Name == "" {
			continue
		}
		seen[d.Name]++
		if seen[d.Name] == 2 {
			return nil, errors.Errorf("definition name %s used more than once (line %d)", d.Name, d.line)
		}
	}
	return defs, nil
}

func describe(d *definition) string {
	if d.Name != "" {
		return d.Name
	}
	return "on " + d.Dataset
}

// scope is what field paths inside one definition resolve against.
type scope struct {
	dataset  *otgraph.Dataset
	exploded *otgraph.Field
}

func newScope(d *definition, datasets map[string]*otgraph.Dataset) (*scope, otgraph.ScanOperation, error) {
	ds, ok := datasets[d.Dataset]
	if !ok {
		if d.Dataset == "" {
			return nil, nil, errors.New("no dataset")
		}
		return nil, nil, errors.Errorf("unknown dataset %s", d.Dataset)
	}
	s := &scope{dataset: ds}
	if d.Explode == "" {
		return s, otgraph.NewRowScan(ds), nil
	}
	f, err := ds.Lookup(d.Explode)
	if err != nil {
		return nil, nil, errors.Wrap(err, "explode")
	}
	if f.Kind() != otgraph.KindSequence {
		return nil, nil, errors.Errorf("explode: %v is a %s, not a sequence", f, f.Kind())
	}
	s.exploded = f
	return s, otgraph.NewExplodingScan(f), nil
}

func (s *scope) field(path string) (*otgraph.Field, error) {
	f, err := s.dataset.Lookup(path)
	if err != nil {
		return nil, err
	}
	if f == s.exploded && f.Element().Kind() == otgraph.KindScalar {
		return f.Element(), nil
	}
	return f, nil
}

func loadNode(d *definition, datasets map[string]*otgraph.Dataset) (*otgraph.NodeDefinition, error) {
	if !isZero(&d.Source) || !isZero(&d.Target) {
		return nil, errors.New("nodes take no source or target")
	}
	s, op, err := newScope(d, datasets)
	if err != nil {
		return nil, err
	}
	def := &otgraph.NodeDefinition{Name: d.Name, ScanOp: op}
	if def.ID, err = s.required(&d.ID, "id"); err != nil {
		return nil, err
	}
	if def.Label, err = s.required(&d.Label, "label"); err != nil {
		return nil, err
	}
	if def.Properties, err = s.properties(d.Properties); err != nil {
		return nil, err
	}
	return def, nil
}

func loadEdge(d *definition, datasets map[string]*otgraph.Dataset) (*otgraph.EdgeDefinition, error) {
	s, op, err := newScope(d, datasets)
	if err != nil {
		return nil, err
	}
	def := &otgraph.EdgeDefinition{Name: d.Name, ScanOp: op}
	for _, slot := range []struct {
		node *yaml.Node
		dst  *otgraph.Expression
		what string
	}{
		{&d.ID, &def.ID, "id"},
		{&d.Source, &def.Source, "source"},
		{&d.Target, &def.Target, "target"},
		{&d.Label, &def.Label, "label"},
	} {
		if *slot.dst, err = s.required(slot.node, slot.what); err != nil {
			return nil, err
		}
	}
	if def.Properties, err = s.properties(d.Properties); err != nil {
		return nil, err
	}
	return def, nil
}

func isZero(n *yaml.Node) bool { return n == nil || n.Kind == 0 }

func (s *scope) required(n *yaml.Node, what string) (otgraph.Expression, error) {
	if isZero(n) {
		return nil, errors.Errorf("missing %s", what)
	}
	e, err := s.expr(n)
	return e, errors.Wrap(err, what)
}

func (s *scope) properties(nodes []yaml.Node) ([]otgraph.PropertyExpr, error) {
	props := make([]otgraph.PropertyExpr, 0, len(nodes))
	for i := range nodes {
		n := &nodes[i]
		fields, err := mapping(n)
		if err != nil {
			return nil, errors.Wrapf(err, "property %d", i)
		}
		if path, ok := fields["field"]; ok && len(fields) == 1 {
			f, err := s.fieldNode(path)
			if err != nil {
				return nil, errors.Wrapf(err, "property %d", i)
			}
			props = append(props, otgraph.P(f))
			continue
		}
		if err := only(fields, "key", "value"); err != nil {
			return nil, errors.Wrapf(err, "property %d", i)
		}
		var p otgraph.PropertyExpr
		if p.Key, err = s.required(fields["key"], "key"); err != nil {
			return nil, errors.Wrapf(err, "property %d", i)
		}
		if p.Value, err = s.required(fields["value"], "value"); err != nil {
			return nil, errors.Wrapf(err, "property %d", i)
		}
		props = append(props, p)
	}
	return props, nil
}

// mapping returns the entries of a mapping node by key.
func mapping(n *yaml.Node) (map[string]*yaml.Node, error) {
	if n.Kind != yaml.MappingNode {
		return nil, errors.Errorf("line %d: expected a mapping", n.Line)
	}
	m := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		m[n.Content[i].Value] = n.Content[i+1]
	}
	return m, nil
}

// only fails if m has keys other than allowed.
func only(m map[string]*yaml.Node, allowed ...string) error {
	for k, v := range m {
		ok := false
		for _, a := range allowed {
			if k == a {
				ok = true
				break
			}
		}
		if !ok {
			return errors.Errorf("line %d: unexpected key %s", v.Line, k)
		}
	}
	return nil
}

func (s *scope) fieldNode(n *yaml.Node) (*otgraph.Field, error) {
	var path string
	if err := n.Decode(&path); err != nil {
		return nil, errors.Wrapf(err, "line %d: field path", n.Line)
	}
	return s.field(path)
}

// expr decodes a single-key mapping into an expression.
func (s *scope) expr(n *yaml.Node) (otgraph.Expression, error) {
	m, err := mapping(n)
	if err != nil {
		return nil, err
	}
	if len(m) != 1 {
		return nil, errors.Errorf("line %d: an expression has exactly one key, got %d", n.Line, len(m))
	}
	key, arg := n.Content[0].Value, n.Content[1]
	e, err := s.build(key, arg)
	if err != nil {
		return nil, errors.Wrapf(err, "line %d: %s", arg.Line, key)
	}
	return e, nil
}

func (s *scope) build(key string, arg *yaml.Node) (otgraph.Expression, error) {
	switch key {
	case "field":
		f, err := s.fieldNode(arg)
		if err != nil {
			return nil, err
		}
		return otgraph.F(f), nil

	case "literal":
		var v interface{}
		if err := arg.Decode(&v); err != nil {
			return nil, err
		}
		return otgraph.L(v), nil

	case "string":
		e, err := s.expr(arg)
		return otgraph.ToString{Expr: e}, err

	case "lower":
		e, err := s.expr(arg)
		return otgraph.StringLower{Expr: e}, err

	case "normalise":
		e, err := s.expr(arg)
		return otgraph.NormaliseCurie{Expr: e}, err

	case "licence":
		e, err := s.expr(arg)
		return otgraph.DataSourceToLicence{Expr: e}, err

	case "concat":
		if arg.Kind != yaml.SequenceNode {
			return nil, errors.New("expected a list of expressions")
		}
		exprs := make([]otgraph.Expression, len(arg.Content))
		for i, c := range arg.Content {
			e, err := s.expr(c)
			if err != nil {
				return nil, errors.Wrapf(err, "item %d", i)
			}
			exprs[i] = e
		}
		return otgraph.Concat(exprs...), nil

	case "curie":
		m, err := mapping(arg)
		if err != nil {
			return nil, err
		}
		if err := only(m, "prefix", "reference", "normalise"); err != nil {
			return nil, err
		}
		var e otgraph.BuildCurie
		if e.Prefix, err = s.required(m["prefix"], "prefix"); err != nil {
			return nil, err
		}
		if e.Reference, err = s.required(m["reference"], "reference"); err != nil {
			return nil, err
		}
		e.Normalise, err = flag(m["normalise"])
		return e, err

	case "prefix":
		m, err := mapping(arg)
		if err != nil {
			return nil, err
		}
		if err := only(m, "of", "normalise"); err != nil {
			return nil, err
		}
		var e otgraph.ExtractCuriePrefix
		if e.Expr, err = s.required(m["of"], "of"); err != nil {
			return nil, err
		}
		e.Normalise, err = flag(m["normalise"])
		return e, err

	case "substring":
		m, err := mapping(arg)
		if err != nil {
			return nil, err
		}
		if err := only(m, "of", "separator", "index"); err != nil {
			return nil, err
		}
		var e otgraph.ExtractSubstring
		if e.Expr, err = s.required(m["of"], "of"); err != nil {
			return nil, err
		}
		if e.Separator, err = s.required(m["separator"], "separator"); err != nil {
			return nil, err
		}
		if idx := m["index"]; idx != nil {
			if err := idx.Decode(&e.Index); err != nil {
				return nil, errors.Wrap(err, "index")
			}
		}
		return e, nil

	case "transform":
		m, err := mapping(arg)
		if err != nil {
			return nil, err
		}
		if err := only(m, "name", "input"); err != nil {
			return nil, err
		}
		var name string
		if n := m["name"]; n != nil {
			if err := n.Decode(&name); err != nil {
				return nil, errors.Wrap(err, "name")
			}
		}
		fn, ok := lookupTransform(name)
		if !ok {
			return nil, errors.Errorf("unknown transform %q (have %s)", name, strings.Join(Transforms(), ", "))
		}
		t := otgraph.Transform{Func: fn}
		if in := m["input"]; in != nil {
			if t.Input, err = s.expr(in); err != nil {
				return nil, errors.Wrap(err, "input")
			}
		}
		return t, nil

	default:
		return nil, errors.New("unknown expression")
	}
}

func flag(n *yaml.Node) (bool, error) {
	if n == nil {
		return false, nil
	}
	var b bool
	err := n.Decode(&b)
	return b, errors.Wrap(err, "normalise")
}

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
	"strings"

	"github.com/pkg/errors"
)

// Evaluator computes an expression's value against a View. Errors it returns
// for bad data are *RowErrors.
type Evaluator func(v View) (interface{}, error)

// Compiler turns Expressions into Evaluators. The Registry backs the CURIE
// expressions; it may be nil if none of them ask for normalisation.
type Compiler struct {
	Registry Registry
}

// NewCompiler returns a Compiler using the default prefix map.
func NewCompiler() *Compiler {
	return &Compiler{Registry: DefaultPrefixMap()}
}

// Compile walks e once and returns a closure evaluating it. An unsupported
// variant or a malformed tree is reported here, never per row.
func (c *Compiler) Compile(e Expression) (Evaluator, error) {
	switch et := e.(type) {
	case FieldExpr:
		if et.Field == nil {
			return nil, errors.New("field expression without a field")
		}
		f := et.Field
		return func(v View) (interface{}, error) {
			return Resolve(v, f)
		}, nil

	case Literal:
		val := et.Value
		return func(View) (interface{}, error) { return val, nil }, nil

	case Transform:
		if et.Func == nil {
			return nil, errors.New("transform without a function")
		}
		fn := et.Func
		if et.Input == nil {
			return func(View) (interface{}, error) {
				out, err := fn(NoInput)
				if err != nil {
					return nil, &RowError{Reason: ReasonTransform, Err: err}
				}
				return out, nil
			}, nil
		}
		in, err := c.Compile(et.Input)
		if err != nil {
			return nil, errors.Wrap(err, "compiling transform input")
		}
		return func(v View) (interface{}, error) {
			val, err := in(v)
			if err != nil {
				return nil, err
			}
			out, err := fn(val)
			if err != nil {
				return nil, &RowError{Reason: ReasonTransform, Value: val, Err: err}
			}
			return out, nil
		}, nil

	case ToString:
		in, err := c.compileString(et.Expr, "to-string")
		if err != nil {
			return nil, err
		}
		return func(v View) (interface{}, error) { return in(v) }, nil

	case StringConcatenation:
		parts := make([]func(View) (string, error), len(et.Exprs))
		for i, sub := range et.Exprs {
			p, err := c.compileString(sub, "concatenation")
			if err != nil {
				return nil, errors.Wrapf(err, "part %d", i)
			}
			parts[i] = p
		}
		return func(v View) (interface{}, error) {
			var sb strings.Builder
			for _, p := range parts {
				s, err := p(v)
				if err != nil {
					return nil, err
				}
				sb.WriteString(s)
			}
			return sb.String(), nil
		}, nil

	case StringLower:
		in, err := c.compileString(et.Expr, "lower")
		if err != nil {
			return nil, err
		}
		return func(v View) (interface{}, error) {
			s, err := in(v)
			if err != nil {
				return nil, err
			}
			return strings.ToLower(s), nil
		}, nil

	case BuildCurie:
		return c.compileBuildCurie(et)

	case ExtractCuriePrefix:
		return c.compileExtractPrefix(et)

	case NormaliseCurie:
		return c.compileNormaliseCurie(et)

	case ExtractSubstring:
		return c.compileSubstring(et)

	case DataSourceToLicence:
		in, err := c.compileString(et.Expr, "licence")
		if err != nil {
			return nil, err
		}
		return func(v View) (interface{}, error) {
			s, err := in(v)
			if err != nil {
				return nil, err
			}
			return LicenceFor(s), nil
		}, nil

	case nil:
		return nil, errors.New("nil expression")
	default:
		return nil, errors.Errorf("unsupported expression %T", e)
	}
}

// compileString compiles e and stringifies its result.
func (c *Compiler) compileString(e Expression, what string) (func(View) (string, error), error) {
	if e == nil {
		return nil, errors.Errorf("%s expression has no input", what)
	}
	in, err := c.Compile(e)
	if err != nil {
		return nil, errors.Wrapf(err, "compiling %s input", what)
	}
	return func(v View) (string, error) {
		val, err := in(v)
		if err != nil {
			return "", err
		}
		s, err := toString(val)
		if err != nil {
			if val == nil {
				return "", &RowError{Reason: ReasonNull, Err: err}
			}
			return "", &RowError{Reason: ReasonType, Value: val, Err: err}
		}
		return s, nil
	}, nil
}

func (c *Compiler) needRegistry() error {
	if c.Registry == nil {
		return errors.New("normalisation requested but compiler has no registry")
	}
	return nil
}

func (c *Compiler) compileBuildCurie(e BuildCurie) (Evaluator, error) {
	prefix, err := c.compileString(e.Prefix, "curie prefix")
	if err != nil {
		return nil, err
	}
	ref, err := c.compileString(e.Reference, "curie reference")
	if err != nil {
		return nil, err
	}
	if !e.Normalise {
		return func(v View) (interface{}, error) {
			p, err := prefix(v)
			if err != nil {
				return nil, err
			}
			r, err := ref(v)
			if err != nil {
				return nil, err
			}
			return p + ":" + r, nil
		}, nil
	}
	if err := c.needRegistry(); err != nil {
		return nil, err
	}
	reg := c.Registry
	return func(v View) (interface{}, error) {
		p, err := prefix(v)
		if err != nil {
			return nil, err
		}
		r, err := ref(v)
		if err != nil {
			return nil, err
		}
		np, nr, ok := reg.NormalizeParsedCurie(p, r)
		if !ok {
			return nil, rowErrf(ReasonNormalisation, p+":"+r, "registry rejected prefix '%s' reference '%s'", p, r)
		}
		return np + ":" + nr, nil
	}, nil
}

func (c *Compiler) compileExtractPrefix(e ExtractCuriePrefix) (Evaluator, error) {
	in, err := c.compileString(e.Expr, "curie prefix extraction")
	if err != nil {
		return nil, err
	}
	var reg Registry
	if e.Normalise {
		if err := c.needRegistry(); err != nil {
			return nil, err
		}
		reg = c.Registry
	}
	return func(v View) (interface{}, error) {
		s, err := in(v)
		if err != nil {
			return nil, err
		}
		for _, sep := range CurieSeparators {
			i := strings.Index(s, sep)
			if i < 0 {
				continue
			}
			prefix := s[:i]
			if reg == nil {
				return prefix, nil
			}
			np, ok := reg.NormalizePrefix(prefix)
			if !ok {
				return nil, rowErrf(ReasonNormalisation, s, "registry rejected prefix '%s'", prefix)
			}
			return np, nil
		}
		return nil, rowErrf(ReasonNoSeparator, s, "none of %q found in '%s'", CurieSeparators, s)
	}, nil
}

func (c *Compiler) compileNormaliseCurie(e NormaliseCurie) (Evaluator, error) {
	in, err := c.compileString(e.Expr, "curie normalisation")
	if err != nil {
		return nil, err
	}
	if err := c.needRegistry(); err != nil {
		return nil, err
	}
	reg := c.Registry
	return func(v View) (interface{}, error) {
		s, err := in(v)
		if err != nil {
			return nil, err
		}
		for _, sep := range CurieSeparators {
			if !strings.Contains(s, sep) {
				continue
			}
			// a separator that is present but rejected is final
			norm, ok := reg.NormalizeCurie(s, sep)
			if !ok {
				return nil, rowErrf(ReasonNormalisation, s, "registry rejected '%s' split on %q", s, sep)
			}
			return norm, nil
		}
		return nil, rowErrf(ReasonNoSeparator, s, "none of %q found in '%s'", CurieSeparators, s)
	}, nil
}

func (c *Compiler) compileSubstring(e ExtractSubstring) (Evaluator, error) {
	in, err := c.compileString(e.Expr, "substring")
	if err != nil {
		return nil, err
	}
	sepFn, err := c.compileString(e.Separator, "substring separator")
	if err != nil {
		return nil, err
	}
	index := e.Index
	return func(v View) (interface{}, error) {
		s, err := in(v)
		if err != nil {
			return nil, err
		}
		sep, err := sepFn(v)
		if err != nil {
			return nil, err
		}
		if sep == "" {
			return nil, rowErrf(ReasonType, s, "empty separator")
		}
		parts := strings.Split(s, sep)
		i := index
		if i < 0 {
			i += len(parts)
		}
		if i < 0 || i >= len(parts) {
			return nil, rowErrf(ReasonIndexRange, s, "index %d of %d parts splitting on %q", index, len(parts), sep)
		}
		return parts[i], nil
	}, nil
}

// CompileAll compiles several expressions, failing on the first error.
func (c *Compiler) CompileAll(exprs ...Expression) ([]Evaluator, error) {
	ret := make([]Evaluator, len(exprs))
	for i, e := range exprs {
		ev, err := c.Compile(e)
		if err != nil {
			return nil, errors.Wrapf(err, "expression %d", i)
		}
		ret[i] = ev
	}
	return ret, nil
}

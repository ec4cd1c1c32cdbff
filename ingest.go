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

package otgraph

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Sink consumes generated records. Sinks shared by an Ingester with
// Concurrency above one must be threadsafe.
type Sink interface {
	WriteNode(ctx context.Context, n *NodeInfo) error
	WriteEdge(ctx context.Context, e *EdgeInfo) error
	Close() error
}

// Ingester generates every definition of a Context and writes the records
// to a Sink.
type Ingester struct {
	Concurrency int

	ctx        *Context
	sink       Sink
	translator Translator
}

// IngestOption is a functional option for NewIngester.
type IngestOption func(n *Ingester) error

// OptIngestConcurrency sets how many definitions are generated at once.
func OptIngestConcurrency(c int) IngestOption {
	return func(n *Ingester) error {
		if c < 1 {
			return errors.Errorf("concurrency must be at least 1, got %d", c)
		}
		n.Concurrency = c
		return nil
	}
}

// OptIngestTranslator enables dedupe: a record whose id was already
// allocated by t is dropped.
func OptIngestTranslator(t Translator) IngestOption {
	return func(n *Ingester) error {
		n.translator = t
		return nil
	}
}

// NewIngester creates an Ingester with Concurrency 1 and no dedupe.
func NewIngester(c *Context, sink Sink, opts ...IngestOption) (*Ingester, error) {
	if c == nil || sink == nil {
		return nil, errors.New("ingester needs a context and a sink")
	}
	n := &Ingester{
		Concurrency: 1,
		ctx:         c,
		sink:        sink,
	}
	for _, opt := range opts {
		if err := opt(n); err != nil {
			return nil, errors.Wrap(err, "applying option")
		}
	}
	return n, nil
}

// Run generates every definition, returning the first fatal error. Row
// errors are skipped by the definitions themselves. The sink is closed
// before Run returns.
func (n *Ingester) Run(ctx context.Context) (err error) {
	defer func() {
		if cerr := n.sink.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "closing sink")
		}
	}()
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(n.Concurrency)
	for _, def := range n.ctx.Definitions() {
		def := def
		eg.Go(func() error {
			return errors.Wrapf(n.runDefinition(ctx, def), "%v", def)
		})
	}
	return eg.Wait()
}

func (n *Ingester) runDefinition(ctx context.Context, def Definition) (err error) {
	log := n.ctx.Logger()
	stats := n.ctx.Statter()
	it, err := def.Generate(ctx, n.ctx)
	if err != nil {
		return errors.Wrap(err, "generating")
	}
	defer func() {
		if cerr := it.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "closing records")
		}
	}()
	var written int
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := it.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return err
		}
		if dup, err := n.duplicate(rec); err != nil {
			return err
		} else if dup {
			stats.Count(StatRecordsDuplicate, 1, 1, "definition:"+def.String())
			continue
		}
		switch r := rec.(type) {
		case *NodeInfo:
			err = n.sink.WriteNode(ctx, r)
		case *EdgeInfo:
			err = n.sink.WriteEdge(ctx, r)
		default:
			err = errors.Errorf("unknown record type %T", rec)
		}
		if err != nil {
			return errors.Wrapf(err, "writing %s", rec.RecordID())
		}
		written++
	}
	log.Debugf("%v: wrote %d records", def, written)
	return nil
}

func (n *Ingester) duplicate(rec Record) (bool, error) {
	if n.translator == nil {
		return false, nil
	}
	kind := KindNode
	if _, ok := rec.(*EdgeInfo); ok {
		kind = KindEdge
	}
	_, created, err := n.translator.GetID(kind, rec.RecordID())
	if err != nil {
		return false, errors.Wrapf(err, "translating %s id %s", kind, rec.RecordID())
	}
	return !created, nil
}

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

package json

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/opentargets/otgraph"
	"github.com/pkg/errors"
)

// Writer is an otgraph.Sink writing one JSON object per line:
//
//	{"type":"node","id":"ENSG1","label":"TARGET","properties":{"approved_symbol":"BRAF"}}
//	{"type":"edge","id":"a->b","source":"a","target":"b","label":"REL","properties":{}}
//
// Properties are written in declaration order. It is threadsafe.
type Writer struct {
	mu  sync.Mutex
	w   *bufio.Writer
	out io.Writer
	buf bytes.Buffer
}

// NewWriter returns a Writer on out. If out is an io.Closer, Close closes
// it.
func NewWriter(out io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(out), out: out}
}

// WriteNode implements otgraph.Sink.
func (w *Writer) WriteNode(ctx context.Context, n *otgraph.NodeInfo) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.Reset()
	if err := encodeNode(&w.buf, n); err != nil {
		return err
	}
	return w.flushLine()
}

// WriteEdge implements otgraph.Sink.
func (w *Writer) WriteEdge(ctx context.Context, e *otgraph.EdgeInfo) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.Reset()
	if err := encodeEdge(&w.buf, e); err != nil {
		return err
	}
	return w.flushLine()
}

func (w *Writer) flushLine() error {
	w.buf.WriteByte('\n')
	_, err := w.w.Write(w.buf.Bytes())
	return errors.Wrap(err, "writing record")
}

// MarshalNode encodes n the way Writer writes it, without the newline.
func MarshalNode(n *otgraph.NodeInfo) ([]byte, error) {
	var buf bytes.Buffer
	err := encodeNode(&buf, n)
	return buf.Bytes(), err
}

// MarshalEdge encodes e the way Writer writes it, without the newline.
func MarshalEdge(e *otgraph.EdgeInfo) ([]byte, error) {
	var buf bytes.Buffer
	err := encodeEdge(&buf, e)
	return buf.Bytes(), err
}

func encodeNode(buf *bytes.Buffer, n *otgraph.NodeInfo) error {
	buf.WriteString(`{"type":"node","id":`)
	if err := value(buf, n.ID); err != nil {
		return err
	}
	buf.WriteString(`,"label":`)
	if err := value(buf, n.Label); err != nil {
		return err
	}
	return properties(buf, n.Properties)
}

func encodeEdge(buf *bytes.Buffer, e *otgraph.EdgeInfo) error {
	buf.WriteString(`{"type":"edge","id":`)
	for _, part := range []struct {
		key, val string
	}{
		{"", e.ID},
		{`,"source":`, e.SourceID},
		{`,"target":`, e.TargetID},
		{`,"label":`, e.Label},
	} {
		buf.WriteString(part.key)
		if err := value(buf, part.val); err != nil {
			return err
		}
	}
	return properties(buf, e.Properties)
}

func value(buf *bytes.Buffer, v interface{}) error {
	bs, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encoding %v", v)
	}
	buf.Write(bs)
	return nil
}

func properties(buf *bytes.Buffer, props otgraph.Properties) error {
	buf.WriteString(`,"properties":{`)
	for i, p := range props {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := value(buf, p.Key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := value(buf, p.Value); err != nil {
			return errors.Wrapf(err, "property %s", p.Key)
		}
	}
	buf.WriteString("}}")
	return nil
}

// Close implements otgraph.Sink.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.w.Flush(); err != nil {
		return errors.Wrap(err, "flushing")
	}
	if c, ok := w.out.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Line is one decoded line of a Writer's output.
type Line struct {
	Type       string                 `json:"type"`
	ID         string                 `json:"id"`
	Source     string                 `json:"source,omitempty"`
	Target     string                 `json:"target,omitempty"`
	Label      string                 `json:"label"`
	Properties map[string]interface{} `json:"properties"`
}

// ReadLines decodes everything a Writer wrote to r.
func ReadLines(r io.Reader) ([]Line, error) {
	dec := json.NewDecoder(r)
	var lines []Line
	for {
		var l Line
		err := dec.Decode(&l)
		if err == io.EOF {
			return lines, nil
		} else if err != nil {
			return lines, errors.Wrapf(err, "decoding line %d", len(lines)+1)
		}
		lines = append(lines, l)
	}
}

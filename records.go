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
	"io"
)

// Property is one key/value pair of a node or edge.
type Property struct {
	Key   string
	Value interface{}
}

// Properties keeps declaration order, which downstream writers rely on to
// line up columns.
type Properties []Property

// Get returns the value for key and whether it was present.
func (ps Properties) Get(key string) (interface{}, bool) {
	for _, p := range ps {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// Keys returns the keys in order.
func (ps Properties) Keys() []string {
	keys := make([]string, len(ps))
	for i, p := range ps {
		keys[i] = p.Key
	}
	return keys
}

// Record is either a *NodeInfo or an *EdgeInfo.
type Record interface {
	RecordID() string
	isRecord()
}

// NodeInfo is a generated node.
type NodeInfo struct {
	ID         string
	Label      string
	Properties Properties
}

// EdgeInfo is a generated edge.
type EdgeInfo struct {
	ID         string
	SourceID   string
	TargetID   string
	Label      string
	Properties Properties
}

// RecordID implements Record.
func (n *NodeInfo) RecordID() string { return n.ID }

// RecordID implements Record.
func (e *EdgeInfo) RecordID() string { return e.ID }

func (*NodeInfo) isRecord() {}
func (*EdgeInfo) isRecord() {}

// RecordIterator yields generated records until io.EOF. It is finite and not
// restartable; generate again to rescan.
type RecordIterator interface {
	Next() (Record, error)
	Close() error
}

// Drain pulls every record out of it and closes it.
func Drain(it RecordIterator) (recs []Record, err error) {
	defer func() {
		if cerr := it.Close(); err == nil {
			err = cerr
		}
	}()
	for {
		rec, err := it.Next()
		if err == io.EOF {
			return recs, nil
		} else if err != nil {
			return recs, err
		}
		recs = append(recs, rec)
	}
}

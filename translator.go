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
	"sync"

	"github.com/pkg/errors"
)

// Translator maps record ids within a namespace ("node", "edge", or a
// label) to dense monotonic integers and back. The Ingester uses it to spot
// records it has already written. Implementations must be threadsafe.
type Translator interface {
	// GetID returns the integer for key, allocating one if key is new.
	// created reports whether the allocation happened in this call.
	GetID(kind, key string) (id uint64, created bool, err error)

	// Get returns the key previously mapped to id.
	Get(kind string, id uint64) (string, error)
}

// Namespaces used by the Ingester.
const (
	KindNode = "node"
	KindEdge = "edge"
)

// MapTranslator is an in-memory Translator.
type MapTranslator struct {
	lock  sync.RWMutex
	kinds map[string]*mapKindTranslator
}

// NewMapTranslator creates a new MapTranslator.
func NewMapTranslator() *MapTranslator {
	return &MapTranslator{
		kinds: make(map[string]*mapKindTranslator),
	}
}

func (m *MapTranslator) kind(kind string) *mapKindTranslator {
	m.lock.RLock()
	if kt, ok := m.kinds[kind]; ok {
		m.lock.RUnlock()
		return kt
	}
	m.lock.RUnlock()
	m.lock.Lock()
	defer m.lock.Unlock()
	if kt, ok := m.kinds[kind]; ok {
		return kt
	}
	kt := &mapKindTranslator{
		ids: make(map[string]uint64),
		n:   NewNexter(),
	}
	m.kinds[kind] = kt
	return kt
}

// Get implements Translator.
func (m *MapTranslator) Get(kind string, id uint64) (string, error) {
	key, err := m.kind(kind).get(id)
	if err != nil {
		return "", errors.Wrapf(err, "kind '%v', id %v", kind, id)
	}
	return key, nil
}

// GetID implements Translator.
func (m *MapTranslator) GetID(kind, key string) (uint64, bool, error) {
	id, created := m.kind(kind).getID(key)
	return id, created, nil
}

type mapKindTranslator struct {
	l    sync.RWMutex
	ids  map[string]uint64
	keys []string
	n    *Nexter
}

func (m *mapKindTranslator) get(id uint64) (string, error) {
	m.l.RLock()
	defer m.l.RUnlock()
	if id >= uint64(len(m.keys)) {
		return "", errors.New("requested unknown id in MapTranslator")
	}
	return m.keys[id], nil
}

func (m *mapKindTranslator) getID(key string) (uint64, bool) {
	m.l.RLock()
	id, ok := m.ids[key]
	m.l.RUnlock()
	if ok {
		return id, false
	}
	m.l.Lock()
	defer m.l.Unlock()
	if id, ok := m.ids[key]; ok {
		return id, false
	}
	id = m.n.Next()
	m.ids[key] = id
	m.keys = append(m.keys, key)
	return id, true
}

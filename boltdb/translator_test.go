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

package boltdb

import (
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/opentargets/otgraph"
	"github.com/opentargets/otgraph/test"
)

func TestBoltTranslator(t *testing.T) {
	boltFile := filepath.Join(t.TempDir(), "ids.bolt")
	bt, err := NewTranslator(boltFile, otgraph.KindNode, otgraph.KindEdge)
	if err != nil {
		t.Fatalf("couldn't get bolt db: %v", err)
	}
	id1, created, err := bt.GetID(otgraph.KindNode, "hello")
	if err != nil {
		t.Fatalf("couldn't get id for hello node: %v", err)
	}
	test.MustBe(t, created, true, "first created")
	id2, _, err := bt.GetID(otgraph.KindEdge, "hello")
	if err != nil {
		t.Fatalf("couldn't get id for hello edge: %v", err)
	}
	test.MustBe(t, []uint64{id1, id2}, []uint64{1, 1}, "ids start at 1 per kind")

	val, err := bt.Get(otgraph.KindNode, id1)
	test.ErrNil(t, err, "Get node")
	test.MustBe(t, val, "hello", "Get node")

	if err := bt.Close(); err != nil {
		t.Fatalf("closing bolt db: %v", err)
	}

	bt, err = NewTranslator(boltFile)
	if err != nil {
		t.Fatalf("getting new translator: %v", err)
	}
	defer bt.Close()
	val, err = bt.Get(otgraph.KindEdge, id2)
	test.ErrNil(t, err, "Get edge after reopen")
	test.MustBe(t, val, "hello", "after reopen")

	id1again, created, err := bt.GetID(otgraph.KindNode, "hello")
	if err != nil {
		t.Fatalf("couldn't get id again for hello node: %v", err)
	}
	if id1again != id1 || created {
		t.Fatalf("didn't get same id for same key: %v, again: %v (created %v)", id1, id1again, created)
	}

	id3, created, err := bt.GetID("other", "newkind")
	if err != nil {
		t.Fatalf("couldn't get id for a new kind: %v", err)
	}
	test.MustBe(t, created, true, "new kind created")
	val, err = bt.Get("other", id3)
	test.ErrNil(t, err, "Get new kind")
	test.MustBe(t, val, "newkind", "Get new kind")

	if _, err := bt.Get(otgraph.KindNode, 42); err == nil {
		t.Fatalf("expected error for unknown id")
	}
	if _, err := bt.Get("nokind", 1); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestConcBoltTranslator(t *testing.T) {
	bt, err := NewTranslator(filepath.Join(t.TempDir(), "ids.bolt"))
	if err != nil {
		t.Fatalf("couldn't get bolt db: %v", err)
	}
	defer bt.Close()

	var mu sync.Mutex
	created := 0
	wg := &sync.WaitGroup{}
	rets := make([][]uint64, 4)
	for i := range rets {
		rets[i] = make([]uint64, 100)
		wg.Add(1)
		go func(ret []uint64) {
			defer wg.Done()
			for j := range ret {
				id, c, err := bt.GetID(otgraph.KindNode, strconv.Itoa(j))
				if err != nil {
					t.Errorf("getting id: %v", err)
					return
				}
				if c {
					mu.Lock()
					created++
					mu.Unlock()
				}
				ret[j] = id
			}
		}(rets[i])
	}
	wg.Wait()
	for _, ret := range rets {
		test.MustBe(t, ret, rets[0], "ids per goroutine")
	}
	test.MustBe(t, created, 100, "allocations")
}

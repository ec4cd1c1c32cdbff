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

package leveldb

import (
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/opentargets/otgraph"
	"github.com/opentargets/otgraph/test"
	"github.com/pkg/errors"
)

func TestTranslator(t *testing.T) {
	levelDir := t.TempDir()
	bt, err := NewTranslator(levelDir, otgraph.KindNode, otgraph.KindEdge)
	if err != nil {
		t.Fatalf("couldn't get level translator: %v", err)
	}
	id1, created, err := bt.GetID(otgraph.KindNode, "ENSG1")
	test.ErrNil(t, err, "GetID(node, ENSG1)")
	test.MustBe(t, created, true, "first node created")
	id2, _, err := bt.GetID(otgraph.KindEdge, "ENSG1")
	test.ErrNil(t, err, "GetID(edge, ENSG1)")
	id3, _, err := bt.GetID("other", "ENSG1")
	test.ErrNil(t, err, "GetID(other, ENSG1)")
	test.MustBe(t, []uint64{id1, id2, id3}, []uint64{0, 0, 0}, "ids per kind")

	for _, kind := range []string{otgraph.KindNode, otgraph.KindEdge, "other"} {
		val, err := bt.Get(kind, 0)
		test.ErrNil(t, err, "Get "+kind)
		test.MustBe(t, val, "ENSG1", "Get "+kind)
	}

	if err := bt.Close(); err != nil {
		t.Fatalf("closing level translator: %v", err)
	}

	bt, err = NewTranslator(levelDir, otgraph.KindNode, otgraph.KindEdge)
	if err != nil {
		t.Fatalf("couldn't get level translator after closing: %v", err)
	}
	defer bt.Close()
	val, err := bt.Get("other", id3)
	test.ErrNil(t, err, "Get after reopen")
	test.MustBe(t, val, "ENSG1", "Get after reopen")

	again, created, err := bt.GetID(otgraph.KindNode, "ENSG1")
	test.ErrNil(t, err, "GetID again")
	test.MustBe(t, again, id1, "same id after reopen")
	test.MustBe(t, created, false, "not created after reopen")

	next, created, err := bt.GetID(otgraph.KindNode, "ENSG2")
	test.ErrNil(t, err, "GetID new key after reopen")
	test.MustBe(t, next, uint64(1), "allocation resumes after reopen")
	test.MustBe(t, created, true, "new key created")

	if _, err := bt.Get(otgraph.KindNode, 99); err == nil {
		t.Fatalf("expected error for unknown id")
	}
}

func TestConcTranslator(t *testing.T) {
	bt, err := NewTranslator(t.TempDir(), otgraph.KindNode)
	if err != nil {
		t.Fatalf("couldn't get level translator: %v", err)
	}
	defer bt.Close()

	wg := &sync.WaitGroup{}
	rets := make([][]uint64, 8)
	createdCounts := make([]int, 8)
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		rets[i] = make([]uint64, 1000)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				id, created, err := bt.GetID(otgraph.KindNode, strconv.Itoa(j))
				if err != nil {
					errs <- errors.Wrap(err, "error getting id")
					return
				}
				if created {
					createdCounts[i]++
				}
				rets[i][j] = id
			}
		}(i)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
	total := 0
	for i, ret := range rets {
		total += createdCounts[i]
		test.MustBe(t, ret, rets[0], "ids per goroutine")
	}
	test.MustBe(t, total, 1000, "allocations")
	sorted := append([]uint64(nil), rets[0]...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for j := 0; j < 1000; j++ {
		if sorted[j] != uint64(j) {
			t.Fatalf("returned ids are not dense, pos: %v, val: %v", j, sorted[j])
		}
	}
}

func BenchmarkTranslatorGetID(b *testing.B) {
	bt, err := NewTranslator(b.TempDir(), otgraph.KindNode)
	if err != nil {
		b.Fatalf("couldn't get level translator: %v", err)
	}
	defer bt.Close()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := bt.GetID(otgraph.KindNode, strconv.Itoa(i)); err != nil {
			b.Fatal(err)
		}
	}
}

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

package kafka

import (
	"context"
	"fmt"
	"testing"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/opentargets/otgraph"
	"github.com/opentargets/otgraph/test"
)

func TestSink(t *testing.T) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, config)
	expectValue := func(want string) mocks.ValueChecker {
		return func(val []byte) error {
			if string(val) != want {
				return fmt.Errorf("unexpected value %s, want %s", val, want)
			}
			return nil
		}
	}
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(expectValue(
		`{"type":"node","id":"ENSG1","label":"TARGET","properties":{"approved_symbol":"BRAF"}}`))
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(expectValue(
		`{"type":"edge","id":"a->b","source":"a","target":"b","label":"REL","properties":{}}`))
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	s, err := NewSinkFromProducer(producer, OptSinkTopics("graph-nodes", "graph-edges"))
	test.ErrNil(t, err, "NewSinkFromProducer")
	test.MustBe(t, s.NodeTopic, "graph-nodes", "node topic")

	ctx := context.Background()
	test.ErrNil(t, s.WriteNode(ctx, &otgraph.NodeInfo{
		ID:         "ENSG1",
		Label:      "TARGET",
		Properties: otgraph.Properties{{Key: "approved_symbol", Value: "BRAF"}},
	}), "node")
	test.ErrNil(t, s.WriteEdge(ctx, &otgraph.EdgeInfo{ID: "a->b", SourceID: "a", TargetID: "b", Label: "REL"}), "edge")
	test.ErrSome(t, s.WriteNode(ctx, &otgraph.NodeInfo{ID: "ENSG2", Label: "TARGET"}), "failing broker")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	test.ErrSome(t, s.WriteNode(cancelled, &otgraph.NodeInfo{ID: "ENSG3"}), "cancelled")

	test.ErrNil(t, s.Close(), "close")
}

func TestSinkOptions(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	if _, err := NewSinkFromProducer(producer, OptSinkTopics("", "edges")); err == nil {
		t.Fatalf("expected error for an empty topic")
	}
	s, err := NewSinkFromProducer(producer)
	test.ErrNil(t, err, "defaults")
	test.MustBe(t, []string{s.NodeTopic, s.EdgeTopic}, []string{"nodes", "edges"}, "default topics")
	test.ErrNil(t, s.Close(), "close")
}

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

// Package kafka publishes generated graph records to Kafka topics.
package kafka

import (
	"context"
	"io/ioutil"
	"log"

	"github.com/Shopify/sarama"
	"github.com/opentargets/otgraph"
	"github.com/opentargets/otgraph/json"
	"github.com/pkg/errors"
)

// Sink is an otgraph.Sink which sends each node and edge as a JSON message
// keyed by its id. Nodes and edges go to separate topics. It is threadsafe.
type Sink struct {
	NodeTopic string
	EdgeTopic string

	producer sarama.SyncProducer
}

var _ otgraph.Sink = &Sink{}

// SinkOption is a functional option for Sink.
type SinkOption func(s *Sink) error

// OptSinkTopics sets the node and edge topics.
func OptSinkTopics(nodes, edges string) SinkOption {
	return func(s *Sink) error {
		if nodes == "" || edges == "" {
			return errors.New("topics must not be empty")
		}
		s.NodeTopic, s.EdgeTopic = nodes, edges
		return nil
	}
}

// NewSink connects a synchronous producer to hosts.
func NewSink(hosts []string, opts ...SinkOption) (*Sink, error) {
	sarama.Logger = log.New(ioutil.Discard, "", 0)
	config := sarama.NewConfig()
	config.Version = sarama.V0_10_0_0
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Partitioner = sarama.NewHashPartitioner
	producer, err := sarama.NewSyncProducer(hosts, config)
	if err != nil {
		return nil, errors.Wrap(err, "getting new producer")
	}
	s, err := NewSinkFromProducer(producer, opts...)
	if err != nil {
		producer.Close()
		return nil, err
	}
	return s, nil
}

// NewSinkFromProducer wraps an existing producer, which Close will close.
func NewSinkFromProducer(p sarama.SyncProducer, opts ...SinkOption) (*Sink, error) {
	s := &Sink{
		NodeTopic: "nodes",
		EdgeTopic: "edges",
		producer:  p,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, errors.Wrap(err, "applying option")
		}
	}
	return s, nil
}

// WriteNode implements otgraph.Sink.
func (s *Sink) WriteNode(ctx context.Context, n *otgraph.NodeInfo) error {
	val, err := json.MarshalNode(n)
	if err != nil {
		return errors.Wrapf(err, "encoding node %s", n.ID)
	}
	return s.send(ctx, s.NodeTopic, n.ID, val)
}

// WriteEdge implements otgraph.Sink.
func (s *Sink) WriteEdge(ctx context.Context, e *otgraph.EdgeInfo) error {
	val, err := json.MarshalEdge(e)
	if err != nil {
		return errors.Wrapf(err, "encoding edge %s", e.ID)
	}
	return s.send(ctx, s.EdgeTopic, e.ID, val)
}

func (s *Sink) send(ctx context.Context, topic, key string, val []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(val),
	})
	return errors.Wrapf(err, "sending %s to %s", key, topic)
}

// Close implements otgraph.Sink.
func (s *Sink) Close() error {
	return errors.Wrap(s.producer.Close(), "closing kafka producer")
}

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

// Package generate wires the otgraph libraries into a runnable job: datasets
// described by Spark schemas are read from a store, turned into nodes and
// edges by YAML definitions, and written to a sink.
package generate

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/opentargets/otgraph"
	"github.com/opentargets/otgraph/adapter"
	"github.com/opentargets/otgraph/avro"
	"github.com/opentargets/otgraph/aws/s3"
	"github.com/opentargets/otgraph/boltdb"
	"github.com/opentargets/otgraph/file"
	"github.com/opentargets/otgraph/json"
	"github.com/opentargets/otgraph/kafka"
	"github.com/opentargets/otgraph/leveldb"
	"github.com/opentargets/otgraph/sqlite"
	"github.com/opentargets/otgraph/termstat"
	"github.com/pkg/errors"
)

// Main holds the options for a generation run.
type Main struct {
	Input       string   `help:"Dataset location: a directory, a SQLite file, or s3://bucket/prefix."`
	Format      string   `help:"Format of the files under Input: json or avro. Ignored for SQLite."`
	Schemas     string   `help:"Directory of Spark JSON schemas named <dataset>.json."`
	Definitions string   `help:"YAML file of node and edge definitions."`
	Prefixes    string   `help:"YAML file of extra CURIE prefixes. Empty uses the built in ones."`
	Output      string   `help:"Where records go: a file path, - for stdout, or kafka."`
	KafkaHosts  []string `help:"Comma separated list of Kafka hosts and ports."`
	NodeTopic   string   `help:"Kafka topic for nodes."`
	EdgeTopic   string   `help:"Kafka topic for edges."`
	Region      string   `help:"AWS region of the S3 bucket."`
	Dedupe      string   `help:"Drop repeated node and edge ids using: none, memory, bolt or leveldb."`
	DedupePath  string   `help:"File (bolt) or directory (leveldb) keeping dedupe state."`
	Concurrency int      `help:"Number of definitions generated at once."`
	Limit       int      `help:"Maximum rows read per scan. 0 means no limit."`
	Stats       bool     `help:"Print counters to stderr while running."`
	Verbose     bool     `help:"Enable verbose logging."`

	stdout io.Writer
	stderr io.Writer
}

// NewMain gets a new Main with default values.
func NewMain() *Main {
	return &Main{
		Format:      "json",
		Output:      "-",
		KafkaHosts:  []string{"localhost:9092"},
		NodeTopic:   "nodes",
		EdgeTopic:   "edges",
		Region:      "us-east-1",
		Dedupe:      "memory",
		Concurrency: 4,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
	}
}

// SetOutput redirects what Main would write to stdout and stderr.
func (m *Main) SetOutput(stdout, stderr io.Writer) {
	m.stdout, m.stderr = stdout, stderr
}

// Run executes the generation run described by m.
func (m *Main) Run() error {
	return m.RunContext(context.Background())
}

// RunContext is Run with a context which stops generation when done.
func (m *Main) RunContext(ctx context.Context) (err error) {
	var logger otgraph.Logger = otgraph.StdLogger{Logger: log.New(m.stderr, "", log.LstdFlags)}
	if m.Verbose {
		logger = otgraph.VerboseLogger{Logger: log.New(m.stderr, "", log.LstdFlags)}
	}
	logger.Debugf("Running Main: %#v", m)

	datasets, err := LoadSchemas(m.Schemas)
	if err != nil {
		return errors.Wrap(err, "loading schemas")
	}
	registry := otgraph.DefaultPrefixMap()
	if m.Prefixes != "" {
		if registry, err = loadPrefixes(m.Prefixes); err != nil {
			return errors.Wrap(err, "loading prefixes")
		}
	}
	defs, err := loadDefinitions(m.Definitions, datasets)
	if err != nil {
		return errors.Wrap(err, "loading definitions")
	}

	src, closeSrc, err := m.rowSource()
	if err != nil {
		return errors.Wrap(err, "setting up row source")
	}
	defer func() {
		if cerr := closeSrc(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "closing row source")
		}
	}()

	var stats otgraph.Statter = otgraph.NopStatter{}
	if m.Stats {
		collector := termstat.NewCollector(m.stderr)
		defer collector.Close()
		stats = collector
	}

	c, err := otgraph.NewContext(src, defs,
		otgraph.OptContextLogger(logger),
		otgraph.OptContextStatter(stats),
		otgraph.OptContextRegistry(registry),
		otgraph.OptContextLimit(m.Limit),
	)
	if err != nil {
		return errors.Wrap(err, "building context")
	}

	translator, closeTranslator, err := m.translator()
	if err != nil {
		return errors.Wrap(err, "setting up dedupe")
	}
	defer func() {
		if cerr := closeTranslator(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "closing dedupe store")
		}
	}()

	sink, err := m.sink()
	if err != nil {
		return errors.Wrap(err, "setting up output")
	}
	opts := []otgraph.IngestOption{otgraph.OptIngestConcurrency(m.Concurrency)}
	if translator != nil {
		opts = append(opts, otgraph.OptIngestTranslator(translator))
	}
	ingester, err := otgraph.NewIngester(c, sink, opts...)
	if err != nil {
		sink.Close()
		return errors.Wrap(err, "getting ingester")
	}
	logger.Printf("generating %d definitions over %d datasets", len(defs), len(c.RequiredDatasets()))
	return errors.Wrap(ingester.Run(ctx), "running ingester")
}

// LoadSchemas reads every <dataset>.json Spark schema in dir.
func LoadSchemas(dir string) ([]*otgraph.Dataset, error) {
	if dir == "" {
		return nil, errors.New("no schema directory")
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, errors.Wrap(err, "listing schemas")
	}
	if len(paths) == 0 {
		return nil, errors.Errorf("no schemas in %s", dir)
	}
	sort.Strings(paths)
	datasets := make([]*otgraph.Dataset, 0, len(paths))
	for _, p := range paths {
		d, err := loadSchema(p)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, d)
	}
	return datasets, nil
}

func loadSchema(path string) (*otgraph.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening schema")
	}
	defer f.Close()
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	d, err := otgraph.LoadSparkSchema(name, f)
	return d, errors.Wrapf(err, "loading schema %s", path)
}

func loadPrefixes(path string) (*otgraph.PrefixMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening prefix file")
	}
	defer f.Close()
	return otgraph.LoadPrefixMap(f)
}

func loadDefinitions(path string, datasets []*otgraph.Dataset) ([]otgraph.Definition, error) {
	if path == "" {
		return nil, errors.New("no definitions file")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening definitions")
	}
	defer f.Close()
	return adapter.Load(f, datasets)
}

func nopClose() error { return nil }

// rowSource picks the RowSource for Input. The returned func releases it.
func (m *Main) rowSource() (otgraph.RowSource, func() error, error) {
	if m.Input == "" {
		return nil, nil, errors.New("no input")
	}
	var open otgraph.RawSourceOpener
	switch {
	case strings.HasPrefix(m.Input, "s3://"):
		bucket, prefix := splitS3(m.Input)
		client, err := s3.NewClient(m.Region)
		if err != nil {
			return nil, nil, err
		}
		open = s3.Opener(client, bucket, prefix)
	case strings.HasSuffix(m.Input, ".db") || strings.HasSuffix(m.Input, ".sqlite"):
		src, err := sqlite.Open(m.Input)
		if err != nil {
			return nil, nil, err
		}
		return src, src.Close, nil
	default:
		info, err := os.Stat(m.Input)
		if err != nil {
			return nil, nil, errors.Wrap(err, "statting input")
		}
		if !info.IsDir() {
			return nil, nil, errors.Errorf("input %s is neither a directory nor a SQLite file", m.Input)
		}
		switch m.Format {
		case "json":
			return file.NewRowSource(m.Input), nopClose, nil
		case "avro":
			return avro.NewRowSource(m.Input), nopClose, nil
		}
	}
	switch m.Format {
	case "json":
		return json.NewRowSource(open), nopClose, nil
	case "avro":
		return avro.NewRowSourceFromOpener(open), nopClose, nil
	}
	return nil, nil, errors.Errorf("unknown format %q", m.Format)
}

func splitS3(uri string) (bucket, prefix string) {
	rest := strings.TrimPrefix(uri, "s3://")
	if i := strings.Index(rest, "/"); i >= 0 {
		return rest[:i], strings.Trim(rest[i+1:], "/")
	}
	return rest, ""
}

func (m *Main) translator() (otgraph.Translator, func() error, error) {
	switch m.Dedupe {
	case "", "none":
		return nil, nopClose, nil
	case "memory":
		return otgraph.NewMapTranslator(), nopClose, nil
	case "bolt":
		if m.DedupePath == "" {
			return nil, nil, errors.New("bolt dedupe needs a path")
		}
		t, err := boltdb.NewTranslator(m.DedupePath, otgraph.KindNode, otgraph.KindEdge)
		if err != nil {
			return nil, nil, err
		}
		return t, t.Close, nil
	case "leveldb":
		if m.DedupePath == "" {
			return nil, nil, errors.New("leveldb dedupe needs a path")
		}
		t, err := leveldb.NewTranslator(m.DedupePath, otgraph.KindNode, otgraph.KindEdge)
		if err != nil {
			return nil, nil, err
		}
		return t, t.Close, nil
	default:
		return nil, nil, errors.Errorf("unknown dedupe store %q", m.Dedupe)
	}
}

func (m *Main) sink() (otgraph.Sink, error) {
	switch m.Output {
	case "kafka":
		return kafka.NewSink(m.KafkaHosts, kafka.OptSinkTopics(m.NodeTopic, m.EdgeTopic))
	case "", "-":
		return json.NewWriter(nopCloser{m.stdout}), nil
	default:
		f, err := os.Create(m.Output)
		if err != nil {
			return nil, errors.Wrap(err, "creating output file")
		}
		return json.NewWriter(f), nil
	}
}

// nopCloser keeps the Writer from closing stdout.
type nopCloser struct {
	io.Writer
}

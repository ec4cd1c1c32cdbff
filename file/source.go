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

// Package file reads datasets from a local directory laid out the way Spark
// writes them: one directory per dataset holding JSON lines part files.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/opentargets/otgraph"
	"github.com/opentargets/otgraph/json"
	"github.com/pkg/errors"
)

// Extensions of the files read from a dataset directory when no others are
// given.
var Extensions = []string{".json", ".jsonl"}

// Source is an otgraph.RecordReader which reads json objects from files on
// disk.
type Source struct {
	rawSource *RawSource
	records   chan record
	done      chan struct{}
	closeOnce sync.Once
	subjectAt string
}

// SrcOption is a functional option for the file Source.
type SrcOption func(s *Source) error

// OptSrcSubjectAt tells the source to add a new key to each record whose value
// will be <filename>#<record number>.
func OptSrcSubjectAt(key string) SrcOption {
	return func(s *Source) error {
		s.subjectAt = key
		return nil
	}
}

// OptSrcPath sets the path name for the file or directory to use for source
// data.
func OptSrcPath(pathname string) SrcOption {
	return func(s *Source) (err error) {
		s.rawSource, err = NewRawSource(pathname)
		if err != nil {
			return errors.Wrap(err, "getting raw source")
		}
		return nil
	}
}

func (s *Source) run() {
	defer close(s.records)
	reader, err := s.rawSource.NextReader()
	for ; err == nil; reader, err = s.rawSource.NextReader() {
		src := json.NewSource(reader)
		for i := 0; ; i++ {
			r := record{}
			r.data, r.err = src.Record()
			if r.err == io.EOF {
				break
			}
			if r.err != nil {
				r.err = errors.Wrapf(r.err, "decoding %s", reader.Name())
			} else if s.subjectAt != "" {
				r.data[s.subjectAt] = fmt.Sprintf("%s#%d", reader.Name(), i)
			}
			select {
			case s.records <- r:
			case <-s.done:
				reader.Close()
				return
			}
			if r.err != nil {
				reader.Close()
				return
			}
		}
		reader.Close()
	}
	if err != io.EOF {
		select {
		case s.records <- record{err: errors.Wrap(err, "getting next reader")}:
		case <-s.done:
		}
	}
}

// NewSource gets a new file source which will read json data from a file or
// all files in a directory.
func NewSource(opts ...SrcOption) (*Source, error) {
	s := &Source{
		records: make(chan record, 100),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		err := opt(s)
		if err != nil {
			return nil, err
		}
	}
	if s.rawSource == nil {
		return nil, errors.New("file source needs a path")
	}
	go s.run()
	return s, nil
}

// Record implements otgraph.RecordReader returning each json object in the
// source files.
func (s *Source) Record() (map[string]interface{}, error) {
	rec, ok := <-s.records
	if !ok {
		return nil, io.EOF
	}
	return rec.data, rec.err
}

// Close stops reading. It is safe to call more than once.
func (s *Source) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

type record struct {
	data map[string]interface{}
	err  error
}

// RawSource is an otgraph.RawSource handing out the files of a directory in
// name order. Hidden files and Spark bookkeeping files (names starting with
// "." or "_") are skipped, as are files without one of the extensions.
type RawSource struct {
	files   []string
	fileIdx *uint64
}

// NewRawSource lists pathname, which may be a directory or a single file.
// exts defaults to Extensions.
func NewRawSource(pathname string, exts ...string) (*RawSource, error) {
	if len(exts) == 0 {
		exts = Extensions
	}
	fileIdx := uint64(0)
	s := &RawSource{
		fileIdx: &fileIdx,
	}
	info, err := os.Stat(pathname)
	if err != nil {
		return nil, errors.Wrap(err, "statting path")
	}
	if !info.IsDir() {
		s.files = []string{pathname}
		return s, nil
	}
	entries, err := os.ReadDir(pathname)
	if err != nil {
		return nil, errors.Wrap(err, "reading directory")
	}
	s.files = make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !dataFile(e.Name(), exts) {
			continue
		}
		s.files = append(s.files, filepath.Join(pathname, e.Name()))
	}
	sort.Strings(s.files)
	return s, nil
}

func dataFile(name string, exts []string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return false
	}
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// Files returns the files the source will read.
func (s *RawSource) Files() []string { return append([]string(nil), s.files...) }

type metaFile struct {
	*os.File
}

func (m *metaFile) Name() string {
	return filepath.Base(m.File.Name())
}

func (m *metaFile) Meta() map[string]interface{} {
	return map[string]interface{}{"path": m.File.Name()}
}

// NextReader implements otgraph.RawSource.
func (s *RawSource) NextReader() (otgraph.NamedReadCloser, error) {
	idx := atomic.AddUint64(s.fileIdx, 1) - 1
	if int(idx) >= len(s.files) {
		return nil, io.EOF
	}

	file, err := os.Open(s.files[idx])
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", s.files[idx])
	}
	return &metaFile{file}, nil
}

// Opener finds each dataset under root, either as a directory named after
// the dataset or as a single file named after it with one of exts, which
// defaults to Extensions.
func Opener(root string, exts ...string) otgraph.RawSourceOpener {
	if len(exts) == 0 {
		exts = Extensions
	}
	return func(ctx context.Context, d *otgraph.Dataset) (otgraph.RawSource, error) {
		candidates := []string{filepath.Join(root, d.Name())}
		for _, ext := range exts {
			candidates = append(candidates, filepath.Join(root, d.Name()+ext))
		}
		for _, c := range candidates {
			if _, err := os.Stat(c); err == nil {
				return NewRawSource(c, exts...)
			}
		}
		return nil, errors.Errorf("no data for dataset %s under %s", d.Name(), root)
	}
}

// NewRowSource returns an otgraph.RowSource reading the datasets under root.
func NewRowSource(root string) otgraph.RowSource {
	return json.NewRowSource(Opener(root))
}

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

// Package leveldb provides an otgraph.Translator which keeps its key/id
// mapping in a pair of leveldb databases per kind.
package leveldb

import (
	"encoding/binary"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/opentargets/otgraph"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

var _ otgraph.Translator = &Translator{}

// Translator is an otgraph.Translator which stores the two way key/id
// mapping in leveldb.
type Translator struct {
	lock    sync.RWMutex
	dirname string
	kinds   map[string]*KindTranslator
}

// KindTranslator maps the keys of a single kind.
type KindTranslator struct {
	lock   valueLocker
	idMap  *leveldb.DB
	keyMap *leveldb.DB
	curID  *uint64
}

type errorList []error

func (errs errorList) Error() string {
	errstrings := make([]string, len(errs))
	for i, err := range errs {
		errstrings[i] = err.Error()
	}
	return strings.Join(errstrings, "; ")
}

// Close closes all of the underlying leveldb instances.
func (lt *Translator) Close() error {
	lt.lock.Lock()
	defer lt.lock.Unlock()
	errs := make(errorList, 0)
	for k, kt := range lt.kinds {
		err := kt.Close()
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "kind: %v", k))
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Close closes the two leveldbs used by the KindTranslator.
func (kt *KindTranslator) Close() error {
	errs := make(errorList, 0)
	err := kt.idMap.Close()
	if err != nil {
		errs = append(errs, errors.Wrap(err, "closing idMap"))
	}
	err = kt.keyMap.Close()
	if err != nil {
		errs = append(errs, errors.Wrap(err, "closing keyMap"))
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// kindTranslator retrieves or creates the KindTranslator for kind.
func (lt *Translator) kindTranslator(kind string) (*KindTranslator, error) {
	lt.lock.RLock()
	if tr, ok := lt.kinds[kind]; ok {
		lt.lock.RUnlock()
		return tr, nil
	}
	lt.lock.RUnlock()
	lt.lock.Lock()
	defer lt.lock.Unlock()
	if tr, ok := lt.kinds[kind]; ok {
		return tr, nil
	}
	kt, err := NewKindTranslator(lt.dirname, kind)
	if err != nil {
		return nil, errors.Wrap(err, "creating new KindTranslator")
	}
	lt.kinds[kind] = kt
	return kt, nil
}

// NewKindTranslator opens (or creates) the leveldbs for kind under dirname.
// Allocation resumes after the highest id already stored.
func NewKindTranslator(dirname string, kind string) (*KindTranslator, error) {
	err := os.MkdirAll(dirname, 0700)
	if err != nil {
		return nil, errors.Wrap(err, "making directory")
	}
	kt := &KindTranslator{
		lock: newBucketVLock(),
	}
	idPath := filepath.Join(dirname, kind+"-id")
	kt.idMap, err = leveldb.OpenFile(idPath, &opt.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "opening leveldb at %v", idPath)
	}
	keyPath := filepath.Join(dirname, kind+"-key")
	kt.keyMap, err = leveldb.OpenFile(keyPath, &opt.Options{})
	if err != nil {
		kt.idMap.Close()
		return nil, errors.Wrapf(err, "opening leveldb at %v", keyPath)
	}
	next, err := kt.nextID()
	if err != nil {
		kt.Close()
		return nil, err
	}
	kt.curID = &next
	return kt, nil
}

// nextID finds the first unused id. Ids are stored big endian, so the last
// key in idMap is the highest.
func (kt *KindTranslator) nextID() (uint64, error) {
	it := kt.idMap.NewIterator(nil, nil)
	defer it.Release()
	var next uint64
	if it.Last() {
		if len(it.Key()) != 8 {
			return 0, errors.Errorf("malformed id key %x", it.Key())
		}
		next = binary.BigEndian.Uint64(it.Key()) + 1
	}
	return next, errors.Wrap(it.Error(), "finding highest id")
}

// NewTranslator gets a new Translator storing its databases under dirname.
// Kinds not listed are opened on first use.
func NewTranslator(dirname string, kinds ...string) (lt *Translator, err error) {
	lt = &Translator{
		dirname: dirname,
		kinds:   make(map[string]*KindTranslator),
	}
	for _, kind := range kinds {
		kt, err := NewKindTranslator(dirname, kind)
		if err != nil {
			lt.Close()
			return nil, errors.Wrap(err, "making KindTranslator")
		}
		lt.kinds[kind] = kt
	}
	return lt, nil
}

// Get returns the key mapped to the given id in the given kind.
func (lt *Translator) Get(kind string, id uint64) (string, error) {
	kt, err := lt.kindTranslator(kind)
	if err != nil {
		return "", errors.Wrap(err, "getting kind translator")
	}
	return kt.Get(id)
}

// Get returns the key mapped to the given id.
func (kt *KindTranslator) Get(id uint64) (string, error) {
	idBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(idBytes, id)
	data, err := kt.idMap.Get(idBytes, nil)
	if err != nil {
		return "", errors.Wrap(err, "fetching from idMap")
	}
	return string(data), nil
}

// GetID implements otgraph.Translator. Ids start at 0.
func (lt *Translator) GetID(kind, key string) (id uint64, created bool, err error) {
	kt, err := lt.kindTranslator(kind)
	if err != nil {
		return 0, false, errors.Wrap(err, "getting kind translator")
	}
	return kt.GetID(key)
}

// GetID returns the integer id associated with key, allocating a new one if
// key is not found.
func (kt *KindTranslator) GetID(key string) (id uint64, created bool, err error) {
	keyBytes := []byte(key)

	// if you're expecting most of the mapping to already be done, this would be faster
	data, err := kt.keyMap.Get(keyBytes, &opt.ReadOptions{})
	if err != nil && err != leveldb.ErrNotFound {
		return 0, false, errors.Wrap(err, "trying to read key map")
	} else if err == nil {
		return binary.BigEndian.Uint64(data), false, nil
	}

	// else, key not found
	kt.lock.Lock(keyBytes)
	defer kt.lock.Unlock(keyBytes)
	// re-read after locking
	data, err = kt.keyMap.Get(keyBytes, &opt.ReadOptions{})
	if err != nil && err != leveldb.ErrNotFound {
		return 0, false, errors.Wrap(err, "trying to read key map")
	} else if err == nil {
		return binary.BigEndian.Uint64(data), false, nil
	}

	idBytes := make([]byte, 8)
	id = atomic.AddUint64(kt.curID, 1) - 1
	binary.BigEndian.PutUint64(idBytes, id)
	err = kt.idMap.Put(idBytes, keyBytes, &opt.WriteOptions{})
	if err != nil {
		return 0, false, errors.Wrap(err, "putting new id into idmap")
	}
	err = kt.keyMap.Put(keyBytes, idBytes, &opt.WriteOptions{})
	if err != nil {
		return 0, false, errors.Wrap(err, "putting new id into keymap")
	}
	return id, true, nil
}

type valueLocker interface {
	Lock(val []byte)
	Unlock(val []byte)
}

type bucketVLock struct {
	ms []sync.Mutex
}

func newBucketVLock() bucketVLock {
	return bucketVLock{
		ms: make([]sync.Mutex, 1000),
	}
}

func (b bucketVLock) Lock(val []byte) {
	hsh := fnv.New32a()
	hsh.Write(val) // never returns error for hash
	b.ms[hsh.Sum32()%1000].Lock()
}

func (b bucketVLock) Unlock(val []byte) {
	hsh := fnv.New32a()
	hsh.Write(val) // never returns error for hash
	b.ms[hsh.Sum32()%1000].Unlock()
}

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

// Package boltdb provides an otgraph.Translator which persists its key/id
// mapping in a boltdb file, so dedupe state survives between runs.
package boltdb

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/boltdb/bolt"
	"github.com/opentargets/otgraph"
	"github.com/pkg/errors"
)

var (
	idBucket  = []byte("idKey")
	keyBucket = []byte("keyID")
)

// Translator is an otgraph.Translator which stores the two way key/id
// mapping in boltdb, one pair of nested buckets per kind.
type Translator struct {
	Db    *bolt.DB
	kmu   sync.RWMutex
	kinds map[string]struct{}
}

var _ otgraph.Translator = &Translator{}

// Close syncs and closes the underlying boltdb.
func (bt *Translator) Close() error {
	err := bt.Db.Sync()
	if err != nil {
		return errors.Wrap(err, "syncing db")
	}
	return bt.Db.Close()
}

// NewTranslator opens (or creates) filename and makes sure the buckets for
// kinds exist.
func NewTranslator(filename string, kinds ...string) (bt *Translator, err error) {
	bt = &Translator{
		kinds: make(map[string]struct{}),
	}
	bt.Db, err = bolt.Open(filename, 0600, &bolt.Options{Timeout: 1 * time.Second, NoGrowSync: true})
	if err != nil {
		return nil, errors.Wrapf(err, "opening db file '%v'", filename)
	}
	bt.Db.MaxBatchDelay = 400 * time.Microsecond
	err = bt.Db.Update(func(tx *bolt.Tx) error {
		ib, err := tx.CreateBucketIfNotExists(idBucket)
		if err != nil {
			return errors.Wrap(err, "creating id bucket")
		}
		kb, err := tx.CreateBucketIfNotExists(keyBucket)
		if err != nil {
			return errors.Wrap(err, "creating key bucket")
		}
		for _, kind := range kinds {
			if _, _, err = addKind(ib, kb, kind); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		bt.Db.Close()
		return nil, errors.Wrap(err, "ensuring bucket existence")
	}
	bt.noteKinds(kinds...)
	return bt, nil
}

func addKind(ib, kb *bolt.Bucket, kind string) (kib, kkb *bolt.Bucket, err error) {
	kib, err = ib.CreateBucketIfNotExists([]byte(kind))
	if err != nil {
		return nil, nil, errors.Wrap(err, "adding "+kind+" to id bucket")
	}
	kkb, err = kb.CreateBucketIfNotExists([]byte(kind))
	if err != nil {
		return nil, nil, errors.Wrap(err, "adding "+kind+" to key bucket")
	}
	return kib, kkb, nil
}

func (bt *Translator) noteKinds(kinds ...string) {
	bt.kmu.Lock()
	for _, k := range kinds {
		bt.kinds[k] = struct{}{}
	}
	bt.kmu.Unlock()
}

func (bt *Translator) ensureKind(kind string) error {
	bt.kmu.RLock()
	_, ok := bt.kinds[kind]
	bt.kmu.RUnlock()
	if ok {
		return nil
	}
	err := bt.Db.Update(func(tx *bolt.Tx) error {
		_, _, err := addKind(tx.Bucket(idBucket), tx.Bucket(keyBucket), kind)
		return err
	})
	if err != nil {
		return errors.Wrapf(err, "adding kind %s", kind)
	}
	bt.noteKinds(kind)
	return nil
}

// Get returns the key previously mapped to id.
func (bt *Translator) Get(kind string, id uint64) (key string, err error) {
	err = bt.Db.View(func(tx *bolt.Tx) error {
		kib := tx.Bucket(idBucket).Bucket([]byte(kind))
		if kib == nil {
			return errors.Errorf("unknown kind %s", kind)
		}
		val := kib.Get(idBytes(id))
		if val == nil {
			return errors.Errorf("id %d not found in %s", id, kind)
		}
		key = string(val)
		return nil
	})
	return key, err
}

// GetID implements otgraph.Translator. Ids start at 1.
func (bt *Translator) GetID(kind, key string) (id uint64, created bool, err error) {
	if err := bt.ensureKind(kind); err != nil {
		return 0, false, err
	}
	bskey := []byte(key)

	// look up to see if this key is already mapped to an id
	var ret []byte
	err = bt.Db.View(func(tx *bolt.Tx) error {
		ret = tx.Bucket(keyBucket).Bucket([]byte(kind)).Get(bskey)
		return nil
	})
	if err != nil {
		return 0, false, errors.Wrap(err, "looking up key")
	}
	if len(ret) == 8 {
		return binary.BigEndian.Uint64(ret), false, nil
	}

	// Batch may run fn more than once, so everything it sets is reset on
	// each call.
	err = bt.Db.Batch(func(tx *bolt.Tx) error {
		kib := tx.Bucket(idBucket).Bucket([]byte(kind))
		kkb := tx.Bucket(keyBucket).Bucket([]byte(kind))
		if existing := kkb.Get(bskey); len(existing) == 8 {
			id, created = binary.BigEndian.Uint64(existing), false
			return nil
		}
		next, err := kib.NextSequence()
		if err != nil {
			return err
		}
		if err := kib.Put(idBytes(next), bskey); err != nil {
			return errors.Wrap(err, "inserting into id bucket")
		}
		if err := kkb.Put(bskey, idBytes(next)); err != nil {
			return errors.Wrap(err, "inserting into key bucket")
		}
		id, created = next, true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return id, created, nil
}

func idBytes(id uint64) []byte {
	bs := make([]byte, 8)
	binary.BigEndian.PutUint64(bs, id)
	return bs
}

// This file is part of diatom - https://github.com/db47h/diatom
//
// Copyright 2016 Denis Bernard <db047h@gmail.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package imagestore provides a persistent, named store of program images.
//
// Images are kept in a bbolt database along with their BLAKE3 digest, checked
// on every read.
package imagestore

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/tliron/commonlog"
	"github.com/zeebo/blake3"
	bolt "go.etcd.io/bbolt"
)

var logger = commonlog.GetLogger("diatom.imagestore")

var (
	// ErrNotFound is returned when an image does not exist.
	ErrNotFound = errors.New("image not found")
	// ErrCorrupt is returned when an image does not match its digest.
	ErrCorrupt = errors.New("image digest mismatch")
)

var (
	bucketImages  = []byte("images")
	bucketDigests = []byte("digests")
)

// DigestSize is the size in bytes of an image digest.
const DigestSize = 32

// Entry describes a stored image.
type Entry struct {
	Name   string
	Size   int
	Digest [DigestSize]byte
}

// Store is an image store. It is safe for concurrent use.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the image store at path. Missing parent directories
// are created.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "imagestore")
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "imagestore: open %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketImages, bucketDigests} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "imagestore: init %s", path)
	}
	logger.Debugf("opened %s", path)
	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Digest returns the BLAKE3 digest of img.
func Digest(img []byte) [DigestSize]byte {
	return blake3.Sum256(img)
}

// Put stores img under name, replacing any previous image with the same name,
// and returns its digest.
func (s *Store) Put(name string, img []byte) ([DigestSize]byte, error) {
	if name == "" {
		return [DigestSize]byte{}, errors.New("imagestore: empty image name")
	}
	d := Digest(img)
	err := s.db.Update(func(tx *bolt.Tx) error {
		k := []byte(name)
		if err := tx.Bucket(bucketImages).Put(k, img); err != nil {
			return err
		}
		return tx.Bucket(bucketDigests).Put(k, d[:])
	})
	if err != nil {
		return d, errors.Wrapf(err, "imagestore: put %s", name)
	}
	logger.Infof("stored %s (%d bytes)", name, len(img))
	return d, nil
}

// Get returns the image stored under name. It fails with ErrNotFound if no
// such image exists, or ErrCorrupt if the image does not match its digest.
func (s *Store) Get(name string) ([]byte, error) {
	var img []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		k := []byte(name)
		v := tx.Bucket(bucketImages).Get(k)
		if v == nil {
			return ErrNotFound
		}
		d := Digest(v)
		if !bytes.Equal(tx.Bucket(bucketDigests).Get(k), d[:]) {
			return ErrCorrupt
		}
		// v is only valid for the life of the transaction
		img = make([]byte, len(v))
		copy(img, v)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "imagestore: get %s", name)
	}
	return img, nil
}

// List returns all stored images, sorted by name.
func (s *Store) List() ([]Entry, error) {
	var l []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		digests := tx.Bucket(bucketDigests)
		return tx.Bucket(bucketImages).ForEach(func(k, v []byte) error {
			e := Entry{Name: string(k), Size: len(v)}
			copy(e.Digest[:], digests.Get(k))
			l = append(l, e)
			return nil
		})
	})
	return l, errors.Wrap(err, "imagestore: list")
}

// Delete removes the image stored under name.
func (s *Store) Delete(name string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		k := []byte(name)
		b := tx.Bucket(bucketImages)
		if b.Get(k) == nil {
			return ErrNotFound
		}
		if err := b.Delete(k); err != nil {
			return err
		}
		return tx.Bucket(bucketDigests).Delete(k)
	})
	if err != nil {
		return errors.Wrapf(err, "imagestore: delete %s", name)
	}
	logger.Infof("deleted %s", name)
	return nil
}

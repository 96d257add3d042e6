// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package bolt contains the embedded bbolt implementation of the issued
// certificate and trusted key stores, for single node deployments.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/absmach/cloudca/pkg/errors"
	repoerr "github.com/absmach/cloudca/pkg/errors/repository"
	"go.etcd.io/bbolt"
)

var (
	certsBucket     = []byte("certificates")
	serialsBucket   = []byte("serials")
	keysBucket      = []byte("trusted_keys")
	keyHashesBucket = []byte("key_hashes")

	errOpen = errors.New("failed to open bolt database")
)

// Open opens or creates the database file at path and makes sure every
// bucket exists.
func Open(path string, timeout time.Duration) (*bbolt.DB, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: timeout})
	if err != nil {
		return nil, errors.Wrap(errOpen, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{certsBucket, serialsBucket, keysBucket, keyHashesBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(errOpen, err)
	}

	return db, nil
}

func itob(id int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}

func btoi(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}

func put(b *bbolt.Bucket, id int64, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(repoerr.ErrMalformedEntity, err)
	}

	return b.Put(itob(id), data)
}

func get(b *bbolt.Bucket, id int64, v interface{}) error {
	data := b.Get(itob(id))
	if data == nil {
		return repoerr.ErrNotFound
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(repoerr.ErrViewEntity, err)
	}

	return nil
}

// page walks b in ID order and decodes the entries selected by offset and
// limit with fn. It returns the total entry count.
func page(b *bbolt.Bucket, offset, limit uint64, fn func(data []byte) error) (uint64, error) {
	var total uint64
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if total >= offset && total < offset+limit {
			if err := fn(v); err != nil {
				return 0, errors.Wrap(repoerr.ErrViewEntity, err)
			}
		}
		total++
	}

	return total, nil
}

func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(repoerr.ErrUnavailable, err)
	}

	return nil
}

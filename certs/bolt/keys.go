// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package bolt

import (
	"context"
	"encoding/json"

	"github.com/absmach/cloudca/certs"
	"github.com/absmach/cloudca/pkg/errors"
	repoerr "github.com/absmach/cloudca/pkg/errors/repository"
	"go.etcd.io/bbolt"
)

var _ certs.KeyRepository = (*keysRepo)(nil)

type keysRepo struct {
	db *bbolt.DB
}

// NewKeyRepository returns a trusted key repository backed by db.
func NewKeyRepository(db *bbolt.DB) certs.KeyRepository {
	return &keysRepo{db: db}
}

func (repo *keysRepo) Save(ctx context.Context, key certs.TrustedKey) (certs.TrustedKey, error) {
	if err := checkContext(ctx); err != nil {
		return certs.TrustedKey{}, err
	}

	err := repo.db.Update(func(tx *bbolt.Tx) error {
		hashes := tx.Bucket(keyHashesBucket)
		if hashes.Get([]byte(key.Hash)) != nil {
			return repoerr.ErrConflict
		}

		b := tx.Bucket(keysBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		key.ID = int64(seq)
		if err := put(b, key.ID, key); err != nil {
			return err
		}

		return hashes.Put([]byte(key.Hash), itob(key.ID))
	})
	if err != nil {
		if errors.Contains(err, repoerr.ErrConflict) {
			return certs.TrustedKey{}, err
		}
		return certs.TrustedKey{}, errors.Wrap(repoerr.ErrCreateEntity, err)
	}

	return key, nil
}

func (repo *keysRepo) RetrieveByHash(ctx context.Context, hash string) (certs.TrustedKey, error) {
	if err := checkContext(ctx); err != nil {
		return certs.TrustedKey{}, err
	}

	var key certs.TrustedKey
	err := repo.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket(keyHashesBucket).Get([]byte(hash))
		if id == nil {
			return repoerr.ErrNotFound
		}

		return get(tx.Bucket(keysBucket), btoi(id), &key)
	})
	if err != nil {
		return certs.TrustedKey{}, err
	}

	return key, nil
}

func (repo *keysRepo) RetrieveAll(ctx context.Context, pm certs.PageMetadata) (certs.TrustedKeysPage, error) {
	if err := checkContext(ctx); err != nil {
		return certs.TrustedKeysPage{}, err
	}

	keys := []certs.TrustedKey{}
	var total uint64
	err := repo.db.View(func(tx *bbolt.Tx) error {
		var err error
		total, err = page(tx.Bucket(keysBucket), pm.Offset, pm.Limit, func(data []byte) error {
			var key certs.TrustedKey
			if err := json.Unmarshal(data, &key); err != nil {
				return err
			}
			keys = append(keys, key)
			return nil
		})
		return err
	})
	if err != nil {
		return certs.TrustedKeysPage{}, err
	}

	return certs.TrustedKeysPage{
		PageMetadata: certs.PageMetadata{
			Total:  total,
			Offset: pm.Offset,
			Limit:  pm.Limit,
		},
		Keys: keys,
	}, nil
}

func (repo *keysRepo) Remove(ctx context.Context, id int64) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	err := repo.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(keysBucket)
		var key certs.TrustedKey
		if err := get(b, id, &key); err != nil {
			return err
		}
		if err := tx.Bucket(keyHashesBucket).Delete([]byte(key.Hash)); err != nil {
			return err
		}

		return b.Delete(itob(id))
	})
	if err != nil {
		if errors.Contains(err, repoerr.ErrNotFound) {
			return err
		}
		return errors.Wrap(repoerr.ErrRemoveEntity, err)
	}

	return nil
}

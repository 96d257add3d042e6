// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/absmach/cloudca/certs"
	"github.com/absmach/cloudca/pkg/errors"
	repoerr "github.com/absmach/cloudca/pkg/errors/repository"
	"github.com/absmach/cloudca/pkg/postgres"
)

var _ certs.KeyRepository = (*keysRepo)(nil)

type keysRepo struct {
	db postgres.Database
}

// NewKeyRepository instantiates a PostgreSQL implementation of the trusted
// key repository.
func NewKeyRepository(db postgres.Database) certs.KeyRepository {
	return &keysRepo{
		db: db,
	}
}

func (repo keysRepo) Save(ctx context.Context, key certs.TrustedKey) (certs.TrustedKey, error) {
	q := `INSERT INTO trusted_keys (public_key, hash, description, valid_after, valid_before, created_at, updated_at)
		VALUES (:public_key, :hash, :description, :valid_after, :valid_before, :created_at, :updated_at)
		RETURNING id`

	dbk := toDBKey(key)
	rows, err := repo.db.NamedQueryContext(ctx, q, dbk)
	if err != nil {
		return certs.TrustedKey{}, postgres.HandleError(repoerr.ErrCreateEntity, err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&dbk.ID); err != nil {
			return certs.TrustedKey{}, postgres.HandleError(repoerr.ErrCreateEntity, err)
		}
	}
	if err := rows.Err(); err != nil {
		return certs.TrustedKey{}, postgres.HandleError(repoerr.ErrCreateEntity, err)
	}

	return toKey(dbk), nil
}

func (repo keysRepo) RetrieveByHash(ctx context.Context, hash string) (certs.TrustedKey, error) {
	q := `SELECT id, public_key, hash, description, valid_after, valid_before, created_at, updated_at
		FROM trusted_keys WHERE hash = $1`

	dbk := dbKey{}
	if err := repo.db.QueryRowxContext(ctx, q, hash).StructScan(&dbk); err != nil {
		if err == sql.ErrNoRows {
			return certs.TrustedKey{}, errors.Wrap(repoerr.ErrNotFound, err)
		}
		return certs.TrustedKey{}, postgres.HandleError(repoerr.ErrViewEntity, err)
	}

	return toKey(dbk), nil
}

func (repo keysRepo) RetrieveAll(ctx context.Context, pm certs.PageMetadata) (certs.TrustedKeysPage, error) {
	q := `SELECT id, public_key, hash, description, valid_after, valid_before, created_at, updated_at
		FROM trusted_keys ORDER BY id LIMIT :limit OFFSET :offset`

	params := map[string]interface{}{
		"limit":  pm.Limit,
		"offset": pm.Offset,
	}
	rows, err := repo.db.NamedQueryContext(ctx, q, params)
	if err != nil {
		return certs.TrustedKeysPage{}, postgres.HandleError(repoerr.ErrViewEntity, err)
	}
	defer rows.Close()

	keys := []certs.TrustedKey{}
	for rows.Next() {
		dbk := dbKey{}
		if err := rows.StructScan(&dbk); err != nil {
			return certs.TrustedKeysPage{}, errors.Wrap(repoerr.ErrViewEntity, err)
		}
		keys = append(keys, toKey(dbk))
	}

	total, err := postgres.Total(ctx, repo.db, `SELECT COUNT(*) FROM trusted_keys`)
	if err != nil {
		return certs.TrustedKeysPage{}, postgres.HandleError(repoerr.ErrViewEntity, err)
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

func (repo keysRepo) Remove(ctx context.Context, id int64) error {
	q := `DELETE FROM trusted_keys WHERE id = $1`

	res, err := repo.db.ExecContext(ctx, q, id)
	if err != nil {
		return postgres.HandleError(repoerr.ErrRemoveEntity, err)
	}
	if cnt, _ := res.RowsAffected(); cnt != 1 {
		return repoerr.ErrNotFound
	}

	return nil
}

type dbKey struct {
	ID          int64          `db:"id"`
	PublicKey   string         `db:"public_key"`
	Hash        string         `db:"hash"`
	Description sql.NullString `db:"description"`
	ValidAfter  time.Time      `db:"valid_after"`
	ValidBefore time.Time      `db:"valid_before"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func toDBKey(key certs.TrustedKey) dbKey {
	return dbKey{
		ID:          key.ID,
		PublicKey:   key.PublicKey,
		Hash:        key.Hash,
		Description: sql.NullString{String: key.Description, Valid: key.Description != ""},
		ValidAfter:  key.ValidAfter.UTC(),
		ValidBefore: key.ValidBefore.UTC(),
		CreatedAt:   key.CreatedAt.UTC(),
		UpdatedAt:   key.UpdatedAt.UTC(),
	}
}

func toKey(dbk dbKey) certs.TrustedKey {
	return certs.TrustedKey{
		ID:          dbk.ID,
		PublicKey:   dbk.PublicKey,
		Hash:        dbk.Hash,
		Description: dbk.Description.String,
		ValidAfter:  dbk.ValidAfter.UTC(),
		ValidBefore: dbk.ValidBefore.UTC(),
		CreatedAt:   dbk.CreatedAt.UTC(),
		UpdatedAt:   dbk.UpdatedAt.UTC(),
	}
}

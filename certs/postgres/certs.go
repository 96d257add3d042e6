// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"
	"crypto/x509"
	"database/sql"
	"math/big"
	"time"

	"github.com/absmach/cloudca/certs"
	"github.com/absmach/cloudca/pkg/errors"
	repoerr "github.com/absmach/cloudca/pkg/errors/repository"
	"github.com/absmach/cloudca/pkg/postgres"
)

var (
	_ certs.Repository = (*certsRepo)(nil)

	errInvalidSerial = errors.New("stored serial is not a decimal integer")
)

type certsRepo struct {
	db postgres.Database
}

// NewRepository instantiates a PostgreSQL implementation of the issued
// certificate repository.
func NewRepository(db postgres.Database) certs.Repository {
	return &certsRepo{
		db: db,
	}
}

func (repo certsRepo) SaveCertificateInfo(ctx context.Context, commonName string, cert *x509.Certificate, requestedBy string) (int64, error) {
	q := `INSERT INTO certificates (common_name, serial, certificate, requested_by, valid_after, valid_before, created_at, updated_at)
		VALUES (:common_name, :serial, :certificate, :requested_by, :valid_after, :valid_before, :created_at, :updated_at)
		RETURNING id`

	now := time.Now().UTC()
	dbc := dbCertificate{
		CommonName:  commonName,
		Serial:      cert.SerialNumber.String(),
		Certificate: certs.EncodeDER(cert.Raw),
		RequestedBy: requestedBy,
		ValidAfter:  cert.NotBefore.UTC(),
		ValidBefore: cert.NotAfter.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	rows, err := repo.db.NamedQueryContext(ctx, q, dbc)
	if err != nil {
		return 0, postgres.HandleError(repoerr.ErrCreateEntity, err)
	}
	defer rows.Close()

	var id int64
	if rows.Next() {
		if err := rows.Scan(&id); err != nil {
			return 0, postgres.HandleError(repoerr.ErrCreateEntity, err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, postgres.HandleError(repoerr.ErrCreateEntity, err)
	}

	return id, nil
}

func (repo certsRepo) IsCertificateValidNow(ctx context.Context, cert *x509.Certificate) (certs.CheckResponse, error) {
	q := `SELECT id, common_name, serial, certificate, requested_by, valid_after, valid_before, created_at, updated_at, revoked_at
		FROM certificates WHERE serial = $1`

	dbc := dbCertificate{}
	if err := repo.db.QueryRowxContext(ctx, q, cert.SerialNumber.String()).StructScan(&dbc); err != nil {
		if err == sql.ErrNoRows {
			return certs.CheckResponse{}, errors.Wrap(repoerr.ErrNotFound, err)
		}
		return certs.CheckResponse{}, postgres.HandleError(repoerr.ErrViewEntity, err)
	}
	// A matching serial on a different certificate was not issued here.
	if dbc.Certificate != certs.EncodeDER(cert.Raw) {
		return certs.CheckResponse{}, repoerr.ErrNotFound
	}

	c, err := toCertificate(dbc)
	if err != nil {
		return certs.CheckResponse{}, err
	}

	return certs.CheckResponse{
		CommonName:   c.CommonName,
		SerialNumber: c.Serial,
		Status:       c.StatusAt(time.Now()),
		ValidFrom:    c.ValidAfter,
	}, nil
}

func (repo certsRepo) RetrieveByID(ctx context.Context, id int64) (certs.Certificate, error) {
	q := `SELECT id, common_name, serial, certificate, requested_by, valid_after, valid_before, created_at, updated_at, revoked_at
		FROM certificates WHERE id = $1`

	dbc := dbCertificate{}
	if err := repo.db.QueryRowxContext(ctx, q, id).StructScan(&dbc); err != nil {
		if err == sql.ErrNoRows {
			return certs.Certificate{}, errors.Wrap(repoerr.ErrNotFound, err)
		}
		return certs.Certificate{}, postgres.HandleError(repoerr.ErrViewEntity, err)
	}

	return toCertificate(dbc)
}

func (repo certsRepo) RetrieveAll(ctx context.Context, pm certs.PageMetadata) (certs.CertificatesPage, error) {
	q := `SELECT id, common_name, serial, certificate, requested_by, valid_after, valid_before, created_at, updated_at, revoked_at
		FROM certificates ORDER BY id LIMIT :limit OFFSET :offset`

	params := map[string]interface{}{
		"limit":  pm.Limit,
		"offset": pm.Offset,
	}
	rows, err := repo.db.NamedQueryContext(ctx, q, params)
	if err != nil {
		return certs.CertificatesPage{}, postgres.HandleError(repoerr.ErrViewEntity, err)
	}
	defer rows.Close()

	items := []certs.Certificate{}
	for rows.Next() {
		dbc := dbCertificate{}
		if err := rows.StructScan(&dbc); err != nil {
			return certs.CertificatesPage{}, errors.Wrap(repoerr.ErrViewEntity, err)
		}
		c, err := toCertificate(dbc)
		if err != nil {
			return certs.CertificatesPage{}, err
		}
		items = append(items, c)
	}

	total, err := postgres.Total(ctx, repo.db, `SELECT COUNT(*) FROM certificates`)
	if err != nil {
		return certs.CertificatesPage{}, postgres.HandleError(repoerr.ErrViewEntity, err)
	}

	return certs.CertificatesPage{
		PageMetadata: certs.PageMetadata{
			Total:  total,
			Offset: pm.Offset,
			Limit:  pm.Limit,
		},
		Certificates: items,
	}, nil
}

func (repo certsRepo) Revoke(ctx context.Context, id int64, revokedAt time.Time) error {
	q := `UPDATE certificates SET revoked_at = $2, updated_at = $2 WHERE id = $1`

	res, err := repo.db.ExecContext(ctx, q, id, revokedAt.UTC())
	if err != nil {
		return postgres.HandleError(repoerr.ErrUpdateEntity, err)
	}
	if cnt, _ := res.RowsAffected(); cnt != 1 {
		return repoerr.ErrNotFound
	}

	return nil
}

type dbCertificate struct {
	ID          int64        `db:"id"`
	CommonName  string       `db:"common_name"`
	Serial      string       `db:"serial"`
	Certificate string       `db:"certificate"`
	RequestedBy string       `db:"requested_by"`
	ValidAfter  time.Time    `db:"valid_after"`
	ValidBefore time.Time    `db:"valid_before"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
	RevokedAt   sql.NullTime `db:"revoked_at"`
}

func toCertificate(dbc dbCertificate) (certs.Certificate, error) {
	serial, ok := new(big.Int).SetString(dbc.Serial, 10)
	if !ok {
		return certs.Certificate{}, errors.Wrap(repoerr.ErrViewEntity, errInvalidSerial)
	}

	c := certs.Certificate{
		ID:          dbc.ID,
		CommonName:  dbc.CommonName,
		Serial:      serial,
		Certificate: dbc.Certificate,
		RequestedBy: dbc.RequestedBy,
		ValidAfter:  dbc.ValidAfter.UTC(),
		ValidBefore: dbc.ValidBefore.UTC(),
		CreatedAt:   dbc.CreatedAt.UTC(),
		UpdatedAt:   dbc.UpdatedAt.UTC(),
	}
	if dbc.RevokedAt.Valid {
		revokedAt := dbc.RevokedAt.Time.UTC()
		c.RevokedAt = &revokedAt
	}
	c.Status = c.StatusAt(time.Now())

	return c, nil
}

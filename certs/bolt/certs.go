// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package bolt

import (
	"context"
	"crypto/x509"
	"encoding/json"
	"time"

	"github.com/absmach/cloudca/certs"
	"github.com/absmach/cloudca/pkg/errors"
	repoerr "github.com/absmach/cloudca/pkg/errors/repository"
	"go.etcd.io/bbolt"
)

var _ certs.Repository = (*certsRepo)(nil)

type certsRepo struct {
	db *bbolt.DB
}

// NewRepository returns an issued certificate repository backed by db.
func NewRepository(db *bbolt.DB) certs.Repository {
	return &certsRepo{db: db}
}

func (repo *certsRepo) SaveCertificateInfo(ctx context.Context, commonName string, cert *x509.Certificate, requestedBy string) (int64, error) {
	if err := checkContext(ctx); err != nil {
		return 0, err
	}

	var id int64
	err := repo.db.Update(func(tx *bbolt.Tx) error {
		serials := tx.Bucket(serialsBucket)
		serial := []byte(cert.SerialNumber.String())
		if serials.Get(serial) != nil {
			return repoerr.ErrConflict
		}

		b := tx.Bucket(certsBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		id = int64(seq)

		now := time.Now().UTC()
		c := certs.Certificate{
			ID:          id,
			CommonName:  commonName,
			Serial:      cert.SerialNumber,
			Certificate: certs.EncodeDER(cert.Raw),
			RequestedBy: requestedBy,
			ValidAfter:  cert.NotBefore.UTC(),
			ValidBefore: cert.NotAfter.UTC(),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := put(b, id, c); err != nil {
			return err
		}

		return serials.Put(serial, itob(id))
	})
	if err != nil {
		if errors.Contains(err, repoerr.ErrConflict) {
			return 0, err
		}
		return 0, errors.Wrap(repoerr.ErrCreateEntity, err)
	}

	return id, nil
}

func (repo *certsRepo) IsCertificateValidNow(ctx context.Context, cert *x509.Certificate) (certs.CheckResponse, error) {
	if err := checkContext(ctx); err != nil {
		return certs.CheckResponse{}, err
	}

	var c certs.Certificate
	err := repo.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket(serialsBucket).Get([]byte(cert.SerialNumber.String()))
		if id == nil {
			return repoerr.ErrNotFound
		}

		return get(tx.Bucket(certsBucket), btoi(id), &c)
	})
	if err != nil {
		return certs.CheckResponse{}, err
	}
	if c.Certificate != certs.EncodeDER(cert.Raw) {
		return certs.CheckResponse{}, repoerr.ErrNotFound
	}

	return certs.CheckResponse{
		CommonName:   c.CommonName,
		SerialNumber: c.Serial,
		Status:       c.StatusAt(time.Now()),
		ValidFrom:    c.ValidAfter,
	}, nil
}

func (repo *certsRepo) RetrieveByID(ctx context.Context, id int64) (certs.Certificate, error) {
	if err := checkContext(ctx); err != nil {
		return certs.Certificate{}, err
	}

	var c certs.Certificate
	if err := repo.db.View(func(tx *bbolt.Tx) error {
		return get(tx.Bucket(certsBucket), id, &c)
	}); err != nil {
		return certs.Certificate{}, err
	}
	c.Status = c.StatusAt(time.Now())

	return c, nil
}

func (repo *certsRepo) RetrieveAll(ctx context.Context, pm certs.PageMetadata) (certs.CertificatesPage, error) {
	if err := checkContext(ctx); err != nil {
		return certs.CertificatesPage{}, err
	}

	now := time.Now()
	items := []certs.Certificate{}
	var total uint64
	err := repo.db.View(func(tx *bbolt.Tx) error {
		var err error
		total, err = page(tx.Bucket(certsBucket), pm.Offset, pm.Limit, func(data []byte) error {
			var c certs.Certificate
			if err := json.Unmarshal(data, &c); err != nil {
				return err
			}
			c.Status = c.StatusAt(now)
			items = append(items, c)
			return nil
		})
		return err
	})
	if err != nil {
		return certs.CertificatesPage{}, err
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

func (repo *certsRepo) Revoke(ctx context.Context, id int64, revokedAt time.Time) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	return repo.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(certsBucket)
		var c certs.Certificate
		if err := get(b, id, &c); err != nil {
			return err
		}
		revokedAt = revokedAt.UTC()
		c.RevokedAt = &revokedAt
		c.UpdatedAt = revokedAt
		c.Status = ""

		return put(b, id, c)
	})
}

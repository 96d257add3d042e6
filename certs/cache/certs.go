// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package cache contains a redis backed status lookup cache for the issued
// certificate repository.
package cache

import (
	"context"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/absmach/cloudca/certs"
	"github.com/absmach/cloudca/pkg/errors"
	repoerr "github.com/absmach/cloudca/pkg/errors/repository"
	"github.com/go-redis/redis/v8"
)

const keyPrefix = "cert_status"

var _ certs.Repository = (*certsCache)(nil)

type certsCache struct {
	certs.Repository
	client *redis.Client
	ttl    time.Duration
}

// NewRepository decorates repo so that status lookups are served from redis.
// Only good and revoked statuses are cached. A good status never outlives
// the certificate validity.
func NewRepository(repo certs.Repository, client *redis.Client, ttl time.Duration) certs.Repository {
	return &certsCache{
		Repository: repo,
		client:     client,
		ttl:        ttl,
	}
}

type entry struct {
	CommonName string    `json:"common_name"`
	Serial     string    `json:"serial"`
	Status     string    `json:"status"`
	ValidFrom  time.Time `json:"valid_from"`
}

func (cc *certsCache) IsCertificateValidNow(ctx context.Context, cert *x509.Certificate) (certs.CheckResponse, error) {
	key := statusKey(cert.Raw)
	if res, ok := cc.lookup(ctx, key); ok {
		return res, nil
	}

	res, err := cc.Repository.IsCertificateValidNow(ctx, cert)
	if err != nil {
		return certs.CheckResponse{}, err
	}

	ttl := cc.ttl
	switch res.Status {
	case certs.StatusGood:
		if left := time.Until(cert.NotAfter); left < ttl {
			ttl = left
		}
	case certs.StatusRevoked:
	default:
		ttl = 0
	}
	if ttl > 0 {
		// Lookups keep working when redis does not.
		_ = cc.store(ctx, key, res, ttl)
	}

	return res, nil
}

func (cc *certsCache) Revoke(ctx context.Context, id int64, revokedAt time.Time) error {
	c, err := cc.Repository.RetrieveByID(ctx, id)
	if err != nil {
		return err
	}
	raw, err := base64.StdEncoding.DecodeString(c.Certificate)
	if err != nil {
		return errors.Wrap(repoerr.ErrMalformedEntity, err)
	}
	key := statusKey(raw)
	if err := cc.client.Del(ctx, key).Err(); err != nil {
		return errors.Wrap(repoerr.ErrRemoveEntity, err)
	}
	if err := cc.Repository.Revoke(ctx, id, revokedAt); err != nil {
		return err
	}
	// Drop anything a concurrent lookup stored in between.
	if err := cc.client.Del(ctx, key).Err(); err != nil {
		return errors.Wrap(repoerr.ErrRemoveEntity, err)
	}

	return nil
}

func (cc *certsCache) lookup(ctx context.Context, key string) (certs.CheckResponse, bool) {
	data, err := cc.client.Get(ctx, key).Bytes()
	if err != nil {
		return certs.CheckResponse{}, false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return certs.CheckResponse{}, false
	}
	serial, ok := new(big.Int).SetString(e.Serial, 10)
	if !ok {
		return certs.CheckResponse{}, false
	}

	return certs.CheckResponse{
		CommonName:   e.CommonName,
		SerialNumber: serial,
		Status:       e.Status,
		ValidFrom:    e.ValidFrom,
	}, true
}

func (cc *certsCache) store(ctx context.Context, key string, res certs.CheckResponse, ttl time.Duration) error {
	data, err := json.Marshal(entry{
		CommonName: res.CommonName,
		Serial:     res.SerialNumber.String(),
		Status:     res.Status,
		ValidFrom:  res.ValidFrom,
	})
	if err != nil {
		return err
	}

	return cc.client.Set(ctx, key, data, ttl).Err()
}

func statusKey(raw []byte) string {
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("%s:%s", keyPrefix, hex.EncodeToString(sum[:]))
}

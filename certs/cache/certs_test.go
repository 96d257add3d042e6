// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package cache_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/absmach/cloudca/certs"
	"github.com/absmach/cloudca/certs/cache"
	"github.com/absmach/cloudca/certs/mocks"
	"github.com/absmach/cloudca/internal/testsutil"
	"github.com/absmach/cloudca/pkg/errors"
	repoerr "github.com/absmach/cloudca/pkg/errors/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const deviceCN = "device01.testcloud2.aitia.arrowhead.eu"

func TestIsCertificateValidNow(t *testing.T) {
	t.Cleanup(func() {
		require.Nil(t, redisClient.FlushAll(context.Background()).Err())
	})

	authority, _ := testsutil.NewAuthority(t)

	cases := []struct {
		desc    string
		status  string
		repoErr error
		calls   int
		err     error
	}{
		{
			desc:   "good status is cached",
			status: certs.StatusGood,
			calls:  1,
		},
		{
			desc:   "revoked status is cached",
			status: certs.StatusRevoked,
			calls:  1,
		},
		{
			desc:   "unknown status is not cached",
			status: certs.StatusUnknown,
			calls:  2,
		},
		{
			desc:    "missing record is not cached",
			repoErr: repoerr.ErrNotFound,
			calls:   2,
			err:     repoerr.ErrNotFound,
		},
	}

	for _, tc := range cases {
		leaf := testsutil.NewLeaf(t, authority, deviceCN)
		res := certs.CheckResponse{}
		if tc.repoErr == nil {
			res = certs.CheckResponse{
				CommonName:   deviceCN,
				SerialNumber: leaf.SerialNumber,
				Status:       tc.status,
				ValidFrom:    leaf.NotBefore.UTC(),
			}
		}

		repo := new(mocks.Repository)
		repo.On("IsCertificateValidNow", mock.Anything, leaf).Return(res, tc.repoErr)
		cached := cache.NewRepository(repo, redisClient, time.Minute)

		for i := 0; i < 2; i++ {
			got, err := cached.IsCertificateValidNow(context.Background(), leaf)
			assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("%s: expected %s got %s\n", tc.desc, tc.err, err))
			if tc.err == nil {
				assert.Equal(t, res.CommonName, got.CommonName, fmt.Sprintf("%s: unexpected common name", tc.desc))
				assert.Equal(t, 0, res.SerialNumber.Cmp(got.SerialNumber), fmt.Sprintf("%s: unexpected serial", tc.desc))
				assert.Equal(t, res.Status, got.Status, fmt.Sprintf("%s: unexpected status", tc.desc))
				assert.True(t, res.ValidFrom.Equal(got.ValidFrom), fmt.Sprintf("%s: unexpected valid from", tc.desc))
			}
		}
		repo.AssertNumberOfCalls(t, "IsCertificateValidNow", tc.calls)
	}
}

func TestCachedStatusExpiresWithCertificate(t *testing.T) {
	t.Cleanup(func() {
		require.Nil(t, redisClient.FlushAll(context.Background()).Err())
	})

	authority, _ := testsutil.NewAuthority(t)
	leaf := testsutil.NewLeaf(t, authority, deviceCN)

	repo := new(mocks.Repository)
	repo.On("IsCertificateValidNow", mock.Anything, leaf).Return(certs.CheckResponse{
		CommonName:   deviceCN,
		SerialNumber: leaf.SerialNumber,
		Status:       certs.StatusGood,
	}, nil)
	cached := cache.NewRepository(repo, redisClient, 24*time.Hour)

	_, err := cached.IsCertificateValidNow(context.Background(), leaf)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))

	keys, err := redisClient.Keys(context.Background(), "cert_status:*").Result()
	require.Nil(t, err, fmt.Sprintf("list keys unexpected error: %s", err))
	require.Len(t, keys, 1)
	ttl, err := redisClient.TTL(context.Background(), keys[0]).Result()
	require.Nil(t, err, fmt.Sprintf("read ttl unexpected error: %s", err))
	assert.LessOrEqual(t, ttl, time.Until(leaf.NotAfter)+time.Second, "cached status must not outlive the certificate")
}

func TestRevokeInvalidates(t *testing.T) {
	t.Cleanup(func() {
		require.Nil(t, redisClient.FlushAll(context.Background()).Err())
	})

	authority, _ := testsutil.NewAuthority(t)
	leaf := testsutil.NewLeaf(t, authority, deviceCN)
	good := certs.CheckResponse{CommonName: deviceCN, SerialNumber: leaf.SerialNumber, Status: certs.StatusGood}
	revoked := good
	revoked.Status = certs.StatusRevoked

	repo := new(mocks.Repository)
	cached := cache.NewRepository(repo, redisClient, time.Minute)

	goodCall := repo.On("IsCertificateValidNow", mock.Anything, leaf).Return(good, nil)
	res, err := cached.IsCertificateValidNow(context.Background(), leaf)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, certs.StatusGood, res.Status)
	goodCall.Unset()

	repo.On("RetrieveByID", mock.Anything, int64(1)).Return(certs.Certificate{ID: 1, Certificate: certs.EncodeDER(leaf.Raw)}, nil)
	repo.On("Revoke", mock.Anything, int64(1), mock.Anything).Return(nil)
	err = cached.Revoke(context.Background(), 1, time.Now())
	require.Nil(t, err, fmt.Sprintf("revoke unexpected error: %s", err))

	repo.On("IsCertificateValidNow", mock.Anything, leaf).Return(revoked, nil)
	res, err = cached.IsCertificateValidNow(context.Background(), leaf)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, certs.StatusRevoked, res.Status, "revocation must be visible immediately")
}

func TestRevokeMissing(t *testing.T) {
	repo := new(mocks.Repository)
	cached := cache.NewRepository(repo, redisClient, time.Minute)

	repo.On("RetrieveByID", mock.Anything, int64(9)).Return(certs.Certificate{}, repoerr.ErrNotFound)
	err := cached.Revoke(context.Background(), 9, time.Now())
	assert.True(t, errors.Contains(err, repoerr.ErrNotFound), fmt.Sprintf("expected %s got %s\n", repoerr.ErrNotFound, err))
	repo.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything, mock.Anything)
}

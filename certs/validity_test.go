// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package certs

import (
	"crypto/x509"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/absmach/cloudca/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestValidityWindow(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	issuer := &x509.Certificate{
		NotBefore: now.Add(-24 * time.Hour),
		NotAfter:  now.Add(30 * 24 * time.Hour),
	}
	inside := now.Add(time.Hour)
	later := now.Add(2 * time.Hour)
	early := issuer.NotBefore.Add(-time.Second)
	late := issuer.NotAfter.Add(time.Second)

	cases := []struct {
		desc      string
		after     *time.Time
		before    *time.Time
		neg       time.Duration
		pos       time.Duration
		notBefore time.Time
		notAfter  time.Time
		err       error
	}{
		{
			desc:      "default window inside issuer",
			neg:       time.Minute,
			pos:       time.Hour,
			notBefore: now.Add(-time.Minute),
			notAfter:  now.Add(time.Hour),
		},
		{
			desc:      "default window clamped to issuer",
			neg:       48 * time.Hour,
			pos:       DefaultPositiveOffset,
			notBefore: issuer.NotBefore,
			notAfter:  issuer.NotAfter,
		},
		{
			desc:      "explicit window",
			after:     &inside,
			before:    &later,
			notBefore: inside,
			notAfter:  later,
		},
		{
			desc:   "explicit start before issuer",
			after:  &early,
			before: &later,
			err:    ErrInvalidInput,
		},
		{
			desc:   "explicit end after issuer",
			after:  &inside,
			before: &late,
			err:    ErrInvalidInput,
		},
		{
			desc:   "equal bounds",
			after:  &inside,
			before: &inside,
			err:    ErrInvalidInput,
		},
		{
			desc:   "explicit start after default end",
			after:  &later,
			pos:    time.Minute,
			err:    ErrInvalidInput,
		},
	}

	for _, tc := range cases {
		notBefore, notAfter, err := validityWindow(now, tc.after, tc.before, tc.neg, tc.pos, issuer)
		assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("%s: expected %s got %s\n", tc.desc, tc.err, err))
		if tc.err == nil {
			assert.Equal(t, tc.notBefore, notBefore, fmt.Sprintf("%s: unexpected notBefore", tc.desc))
			assert.Equal(t, tc.notAfter, notAfter, fmt.Sprintf("%s: unexpected notAfter", tc.desc))
		}
	}
}

func TestCertificateStatusAt(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)
	cert := Certificate{ValidAfter: now.Add(-time.Hour), ValidBefore: now.Add(time.Hour)}

	revoked := cert
	revoked.RevokedAt = &past
	scheduled := cert
	scheduled.RevokedAt = &future
	expired := cert
	expired.ValidBefore = past
	pending := cert
	pending.ValidAfter = future

	cases := map[string]struct {
		cert   Certificate
		status string
	}{
		"good":             {cert: cert, status: StatusGood},
		"revoked":          {cert: revoked, status: StatusRevoked},
		"revocation ahead": {cert: scheduled, status: StatusGood},
		"expired":          {cert: expired, status: StatusUnknown},
		"not yet valid":    {cert: pending, status: StatusUnknown},
	}

	for desc, tc := range cases {
		assert.Equal(t, tc.status, tc.cert.StatusAt(now), fmt.Sprintf("%s: unexpected status", desc))
	}
}

func TestNewSerial(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		serial, err := NewSerial()
		assert.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
		assert.Equal(t, 1, serial.Sign(), "serial must be positive")
		assert.LessOrEqual(t, serial.BitLen(), serialBits)
		assert.Equal(t, -1, serial.Cmp(new(big.Int).Lsh(big.NewInt(1), 127)))
		_, ok := seen[serial.String()]
		assert.False(t, ok, "serial must not repeat")
		seen[serial.String()] = struct{}{}
	}
}

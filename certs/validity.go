// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package certs

import (
	"crypto/x509"
	"time"

	"github.com/absmach/cloudca/pkg/errors"
)

// validityWindow resolves the leaf validity. Explicit bounds must lie inside
// the issuer window; defaulted bounds are clamped to it.
func validityWindow(now time.Time, after, before *time.Time, neg, pos time.Duration, issuer *x509.Certificate) (time.Time, time.Time, error) {
	notBefore := now.Add(-neg)
	if after != nil {
		if after.Before(issuer.NotBefore) || after.After(issuer.NotAfter) {
			return time.Time{}, time.Time{}, errors.Wrap(ErrInvalidInput, errValidityRange)
		}
		notBefore = *after
	} else if notBefore.Before(issuer.NotBefore) {
		notBefore = issuer.NotBefore
	}

	notAfter := now.Add(pos)
	if before != nil {
		if before.After(issuer.NotAfter) || before.Before(issuer.NotBefore) {
			return time.Time{}, time.Time{}, errors.Wrap(ErrInvalidInput, errValidityRange)
		}
		notAfter = *before
	} else if notAfter.After(issuer.NotAfter) {
		notAfter = issuer.NotAfter
	}

	if !notBefore.Before(notAfter) {
		return time.Time{}, time.Time{}, errors.Wrap(ErrInvalidInput, errValidityOrder)
	}

	return notBefore.UTC(), notAfter.UTC(), nil
}

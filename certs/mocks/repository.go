// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"
	"crypto/x509"
	"time"

	"github.com/absmach/cloudca/certs"
	"github.com/stretchr/testify/mock"
)

var _ certs.Repository = (*Repository)(nil)

type Repository struct {
	mock.Mock
}

func (m *Repository) SaveCertificateInfo(ctx context.Context, commonName string, cert *x509.Certificate, requestedBy string) (int64, error) {
	ret := m.Called(ctx, commonName, cert, requestedBy)

	return ret.Get(0).(int64), ret.Error(1)
}

func (m *Repository) IsCertificateValidNow(ctx context.Context, cert *x509.Certificate) (certs.CheckResponse, error) {
	ret := m.Called(ctx, cert)

	return ret.Get(0).(certs.CheckResponse), ret.Error(1)
}

func (m *Repository) RetrieveByID(ctx context.Context, id int64) (certs.Certificate, error) {
	ret := m.Called(ctx, id)

	return ret.Get(0).(certs.Certificate), ret.Error(1)
}

func (m *Repository) RetrieveAll(ctx context.Context, pm certs.PageMetadata) (certs.CertificatesPage, error) {
	ret := m.Called(ctx, pm)

	return ret.Get(0).(certs.CertificatesPage), ret.Error(1)
}

func (m *Repository) Revoke(ctx context.Context, id int64, revokedAt time.Time) error {
	ret := m.Called(ctx, id, revokedAt)

	return ret.Error(0)
}

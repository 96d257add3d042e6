// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"

	"github.com/absmach/cloudca/certs"
	"github.com/stretchr/testify/mock"
)

var _ certs.Service = (*Service)(nil)

type Service struct {
	mock.Mock
}

func (m *Service) CloudCommonName() string {
	ret := m.Called()

	return ret.String(0)
}

func (m *Service) SignCertificate(ctx context.Context, req certs.SigningRequest, requester string) (certs.SigningResponse, error) {
	ret := m.Called(ctx, req, requester)

	return ret.Get(0).(certs.SigningResponse), ret.Error(1)
}

func (m *Service) CheckCertificate(ctx context.Context, req certs.CheckRequest) (certs.CheckResponse, error) {
	ret := m.Called(ctx, req)

	return ret.Get(0).(certs.CheckResponse), ret.Error(1)
}

func (m *Service) ListCertificates(ctx context.Context, requester string, pm certs.PageMetadata) (certs.CertificatesPage, error) {
	ret := m.Called(ctx, requester, pm)

	return ret.Get(0).(certs.CertificatesPage), ret.Error(1)
}

func (m *Service) RevokeCertificate(ctx context.Context, requester string, id int64) error {
	ret := m.Called(ctx, requester, id)

	return ret.Error(0)
}

func (m *Service) AddTrustedKey(ctx context.Context, requester string, req certs.AddTrustedKeyRequest) (certs.TrustedKey, error) {
	ret := m.Called(ctx, requester, req)

	return ret.Get(0).(certs.TrustedKey), ret.Error(1)
}

func (m *Service) CheckTrustedKey(ctx context.Context, req certs.TrustedKeyCheckRequest) (certs.TrustedKeyCheckResponse, error) {
	ret := m.Called(ctx, req)

	return ret.Get(0).(certs.TrustedKeyCheckResponse), ret.Error(1)
}

func (m *Service) ListTrustedKeys(ctx context.Context, requester string, pm certs.PageMetadata) (certs.TrustedKeysPage, error) {
	ret := m.Called(ctx, requester, pm)

	return ret.Get(0).(certs.TrustedKeysPage), ret.Error(1)
}

func (m *Service) DeleteTrustedKey(ctx context.Context, requester string, id int64) error {
	ret := m.Called(ctx, requester, id)

	return ret.Error(0)
}

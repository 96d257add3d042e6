// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"

	"github.com/absmach/cloudca/certs"
	"github.com/stretchr/testify/mock"
)

var _ certs.KeyRepository = (*KeyRepository)(nil)

type KeyRepository struct {
	mock.Mock
}

func (m *KeyRepository) Save(ctx context.Context, key certs.TrustedKey) (certs.TrustedKey, error) {
	ret := m.Called(ctx, key)

	return ret.Get(0).(certs.TrustedKey), ret.Error(1)
}

func (m *KeyRepository) RetrieveByHash(ctx context.Context, hash string) (certs.TrustedKey, error) {
	ret := m.Called(ctx, hash)

	return ret.Get(0).(certs.TrustedKey), ret.Error(1)
}

func (m *KeyRepository) RetrieveAll(ctx context.Context, pm certs.PageMetadata) (certs.TrustedKeysPage, error) {
	ret := m.Called(ctx, pm)

	return ret.Get(0).(certs.TrustedKeysPage), ret.Error(1)
}

func (m *KeyRepository) Remove(ctx context.Context, id int64) error {
	ret := m.Called(ctx, id)

	return ret.Error(0)
}

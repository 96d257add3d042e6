// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package pki

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/absmach/cloudca/pkg/errors"
	"github.com/hashicorp/vault/api"
	"github.com/mitchellh/mapstructure"
)

const vaultScheme = "vault:"

var (
	errInvalidVaultPath   = errors.New("vault location must be vault:<mount>/<path>")
	errFailedVaultRead    = errors.New("failed to read key container from vault")
	errFailedVaultDecode  = errors.New("failed to decode key container secret")
	errMissingVaultSecret = errors.New("key container secret has no container field")
)

// vaultSecret is the KV v2 secret layout. Container is base64 encoded PKCS#12.
type vaultSecret struct {
	Container string `mapstructure:"container"`
	Password  string `mapstructure:"password"`
}

// readVault fetches the container from the KV v2 engine mounted at the first
// path segment. A password stored with the secret is used unless one is configured.
func readVault(ctx context.Context, addr, token, location, password string) ([]byte, string, error) {
	mount, path, ok := strings.Cut(strings.Trim(location, "/"), "/")
	if !ok || mount == "" || path == "" {
		return nil, "", errors.Wrap(ErrMissingContainer, errInvalidVaultPath)
	}

	conf := api.DefaultConfig()
	if addr != "" {
		conf.Address = addr
	}
	client, err := api.NewClient(conf)
	if err != nil {
		return nil, "", errors.Wrap(errFailedVaultRead, err)
	}
	if token != "" {
		client.SetToken(token)
	}

	secret, err := client.KVv2(mount).Get(ctx, path)
	if err != nil {
		return nil, "", errors.Wrap(ErrMissingContainer, errors.Wrap(errFailedVaultRead, err))
	}

	var s vaultSecret
	if err := mapstructure.Decode(secret.Data, &s); err != nil {
		return nil, "", errors.Wrap(ErrInvalidContainer, errors.Wrap(errFailedVaultDecode, err))
	}
	if s.Container == "" {
		return nil, "", errors.Wrap(ErrMissingContainer, errMissingVaultSecret)
	}
	data, err := base64.StdEncoding.DecodeString(s.Container)
	if err != nil {
		return nil, "", errors.Wrap(ErrInvalidContainer, errors.Wrap(errFailedVaultDecode, err))
	}
	if password == "" {
		password = s.Password
	}

	return data, password, nil
}

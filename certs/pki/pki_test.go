// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package pki_test

import (
	"context"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/absmach/cloudca/certs"
	"github.com/absmach/cloudca/certs/pki"
	"github.com/absmach/cloudca/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"software.sslmate.com/src/go-pkcs12"
)

const (
	rootCN   = "arrowhead.eu"
	cloudCN  = "testcloud2.aitia.arrowhead.eu"
	password = "123456"
)

func newBundle(t *testing.T) pki.Bundle {
	bundle, err := pki.Generate(rootCN, cloudCN, 24*time.Hour)
	require.Nil(t, err, fmt.Sprintf("unexpected error generating authority: %s", err))
	return bundle
}

func writeContainer(t *testing.T, data []byte) string {
	path := filepath.Join(t.TempDir(), "certificate_authority.p12")
	require.Nil(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoad(t *testing.T) {
	bundle := newBundle(t)
	data, err := bundle.Encode(password)
	require.Nil(t, err)
	path := writeContainer(t, data)

	noRoot, err := pkcs12.Modern.Encode(bundle.CloudKey, bundle.Cloud, nil, password)
	require.Nil(t, err)
	noRootPath := writeContainer(t, noRoot)

	cases := []struct {
		desc string
		cfg  pki.Config
		err  error
	}{
		{
			desc: "load valid container",
			cfg:  pki.Config{Location: path, Type: "PKCS12", Password: password},
		},
		{
			desc: "load valid container with lower case type and matching key password",
			cfg:  pki.Config{Location: path, Type: "pkcs12", Password: password, KeyPassword: password},
		},
		{
			desc: "load with wrong password",
			cfg:  pki.Config{Location: path, Type: "PKCS12", Password: "wrong"},
			err:  pki.ErrWrongPassword,
		},
		{
			desc: "load with mismatching key password",
			cfg:  pki.Config{Location: path, Type: "PKCS12", Password: password, KeyPassword: "other"},
			err:  pki.ErrKeyPassword,
		},
		{
			desc: "load missing container",
			cfg:  pki.Config{Location: filepath.Join(t.TempDir(), "missing.p12"), Type: "PKCS12", Password: password},
			err:  pki.ErrMissingContainer,
		},
		{
			desc: "load unsupported container type",
			cfg:  pki.Config{Location: path, Type: "JKS", Password: password},
			err:  pki.ErrUnsupportedType,
		},
		{
			desc: "load container without root entry",
			cfg:  pki.Config{Location: noRootPath, Type: "PKCS12", Password: password},
			err:  pki.ErrMissingRoot,
		},
		{
			desc: "load garbage container",
			cfg:  pki.Config{Location: writeContainer(t, []byte("not a container")), Type: "PKCS12", Password: password},
			err:  pki.ErrInvalidContainer,
		},
	}

	for _, tc := range cases {
		authority, err := pki.Load(context.Background(), tc.cfg)
		assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("%s: expected %s got %s\n", tc.desc, tc.err, err))
		if tc.err != nil {
			continue
		}
		assert.Equal(t, cloudCN, authority.CloudCommonName(), fmt.Sprintf("%s: unexpected cloud common name", tc.desc))
		assert.Equal(t, bundle.Cloud.Raw, authority.CloudCertificate().Raw, fmt.Sprintf("%s: unexpected cloud certificate", tc.desc))
		assert.Equal(t, bundle.Root.Raw, authority.RootCertificate().Raw, fmt.Sprintf("%s: unexpected root certificate", tc.desc))
	}
}

func TestAuthorityRejectsForeignKey(t *testing.T) {
	bundle := newBundle(t)
	other := newBundle(t)

	_, err := certs.NewAuthority(bundle.Root, bundle.Cloud, other.CloudKey)
	assert.True(t, errors.Contains(err, certs.ErrInvalidAuthority), fmt.Sprintf("expected %s got %s\n", certs.ErrInvalidAuthority, err))

	_, err = certs.NewAuthority(other.Root, bundle.Cloud, bundle.CloudKey)
	assert.True(t, errors.Contains(err, certs.ErrInvalidAuthority), fmt.Sprintf("expected %s got %s\n", certs.ErrInvalidAuthority, err))
}

func TestAuthorityCloudCommonName(t *testing.T) {
	cases := []struct {
		desc    string
		cloudCN string
		err     error
	}{
		{
			desc:    "plain common name",
			cloudCN: cloudCN,
		},
		{
			desc:    "common name with surrounding spaces",
			cloudCN: " " + cloudCN + " ",
		},
		{
			desc:    "blank common name",
			cloudCN: "   ",
			err:     certs.ErrInvalidAuthority,
		},
	}

	for _, tc := range cases {
		bundle, err := pki.Generate("root", tc.cloudCN, time.Hour)
		require.Nil(t, err, fmt.Sprintf("%s: generate unexpected error: %s", tc.desc, err))
		authority, err := certs.NewAuthority(bundle.Root, bundle.Cloud, bundle.CloudKey)
		assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("%s: expected %s got %s\n", tc.desc, tc.err, err))
		if tc.err != nil {
			continue
		}
		assert.Equal(t, bundle.Cloud.Subject.CommonName, authority.CloudCommonName(), fmt.Sprintf("%s: cloud common name must match the certificate", tc.desc))
		assert.Equal(t, tc.cloudCN, authority.CloudCommonName(), fmt.Sprintf("%s: unexpected cloud common name", tc.desc))
	}
}

func TestGenerate(t *testing.T) {
	bundle := newBundle(t)

	assert.True(t, bundle.Root.IsCA)
	assert.True(t, bundle.Cloud.IsCA)
	assert.Equal(t, rootCN, bundle.Root.Subject.CommonName)
	assert.Equal(t, cloudCN, bundle.Cloud.Subject.CommonName)

	pool := x509.NewCertPool()
	pool.AddCert(bundle.Root)
	_, err := bundle.Cloud.Verify(x509.VerifyOptions{Roots: pool, KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageAny}})
	assert.Nil(t, err, fmt.Sprintf("cloud certificate does not chain to root: %s", err))
}

func vaultServer(t *testing.T, container, secretPassword string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/secret/data/cloudca/keystore" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		if r.Header.Get("X-Vault-Token") != "root-token" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"errors":["permission denied"]}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"data": map[string]interface{}{
					"container": container,
					"password":  secretPassword,
				},
				"metadata": nil,
			},
		})
	}))
}

func TestLoadFromVault(t *testing.T) {
	bundle := newBundle(t)
	data, err := bundle.Encode(password)
	require.Nil(t, err)

	srv := vaultServer(t, base64.StdEncoding.EncodeToString(data), password)
	defer srv.Close()

	cases := []struct {
		desc string
		cfg  pki.Config
		err  error
	}{
		{
			desc: "load from vault with password stored in secret",
			cfg:  pki.Config{Location: "vault:secret/cloudca/keystore", Type: "PKCS12", VaultAddr: srv.URL, VaultToken: "root-token"},
		},
		{
			desc: "load from vault with configured password",
			cfg:  pki.Config{Location: "vault:secret/cloudca/keystore", Type: "PKCS12", Password: password, VaultAddr: srv.URL, VaultToken: "root-token"},
		},
		{
			desc: "load from vault with wrong configured password",
			cfg:  pki.Config{Location: "vault:secret/cloudca/keystore", Type: "PKCS12", Password: "wrong", VaultAddr: srv.URL, VaultToken: "root-token"},
			err:  pki.ErrWrongPassword,
		},
		{
			desc: "load from missing vault path",
			cfg:  pki.Config{Location: "vault:secret/cloudca/missing", Type: "PKCS12", VaultAddr: srv.URL, VaultToken: "root-token"},
			err:  pki.ErrMissingContainer,
		},
		{
			desc: "load from vault with invalid location",
			cfg:  pki.Config{Location: "vault:secret", Type: "PKCS12", VaultAddr: srv.URL, VaultToken: "root-token"},
			err:  pki.ErrMissingContainer,
		},
		{
			desc: "load from vault with wrong token",
			cfg:  pki.Config{Location: "vault:secret/cloudca/keystore", Type: "PKCS12", VaultAddr: srv.URL, VaultToken: "bad-token"},
			err:  pki.ErrMissingContainer,
		},
	}

	for _, tc := range cases {
		authority, err := pki.Load(context.Background(), tc.cfg)
		assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("%s: expected %s got %s\n", tc.desc, tc.err, err))
		if tc.err == nil {
			assert.Equal(t, cloudCN, authority.CloudCommonName(), fmt.Sprintf("%s: unexpected cloud common name", tc.desc))
		}
	}
}

// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package pki

import (
	"bytes"
	"context"
	"crypto"
	"crypto/x509"
	stderrors "errors"
	"os"
	"strings"

	"github.com/absmach/cloudca/certs"
	"github.com/absmach/cloudca/pkg/errors"
	"software.sslmate.com/src/go-pkcs12"
)

// TypePKCS12 is the only supported container type.
const TypePKCS12 = "PKCS12"

var (
	// ErrUnsupportedType indicates a container type other than PKCS12.
	ErrUnsupportedType = errors.New("unsupported key container type")

	// ErrMissingContainer indicates the container location could not be read.
	ErrMissingContainer = errors.New("key container not found")

	// ErrWrongPassword indicates the container password is wrong.
	ErrWrongPassword = errors.New("wrong key container password")

	// ErrKeyPassword indicates a key password that differs from the container password.
	ErrKeyPassword = errors.New("key password must match the container password")

	// ErrInvalidContainer indicates a container that could not be parsed.
	ErrInvalidContainer = errors.New("invalid key container")

	// ErrMissingCloud indicates the container holds no usable cloud key entry.
	ErrMissingCloud = errors.New("key container has no cloud authority entry")

	// ErrMissingRoot indicates the container holds no root authority issuing the cloud certificate.
	ErrMissingRoot = errors.New("key container has no root authority entry")
)

// Config locates and unlocks the key container.
type Config struct {
	Location    string `env:"KEYSTORE"          envDefault:"certificate_authority.p12"`
	Type        string `env:"KEYSTORE_TYPE"     envDefault:"PKCS12"`
	Password    string `env:"KEYSTORE_PASSWORD" envDefault:""`
	KeyPassword string `env:"KEY_PASSWORD"      envDefault:""`
	VaultAddr   string `env:"VAULT_ADDR"        envDefault:""`
	VaultToken  string `env:"VAULT_TOKEN"       envDefault:""`
}

// Load reads the container once and returns the authority it holds.
func Load(ctx context.Context, cfg Config) (*certs.Authority, error) {
	if !strings.EqualFold(strings.TrimSpace(cfg.Type), TypePKCS12) {
		return nil, errors.Wrap(ErrUnsupportedType, errors.New(cfg.Type))
	}

	data, password, err := read(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.KeyPassword != "" && cfg.KeyPassword != password {
		return nil, ErrKeyPassword
	}

	return Decode(data, password)
}

// Decode parses PKCS#12 data. The entry carrying a private key is the cloud
// authority; the root is the CA certificate that issued it.
func Decode(data []byte, password string) (*certs.Authority, error) {
	key, cloud, cas, err := pkcs12.DecodeChain(data, password)
	if err != nil {
		if stderrors.Is(err, pkcs12.ErrIncorrectPassword) {
			return nil, ErrWrongPassword
		}
		return nil, errors.Wrap(ErrInvalidContainer, err)
	}
	signer, ok := key.(crypto.Signer)
	if !ok || cloud == nil {
		return nil, ErrMissingCloud
	}
	root := findRoot(cloud, cas)
	if root == nil {
		return nil, ErrMissingRoot
	}

	return certs.NewAuthority(root, cloud, signer)
}

func findRoot(cloud *x509.Certificate, cas []*x509.Certificate) *x509.Certificate {
	for _, ca := range cas {
		if !ca.IsCA || !bytes.Equal(ca.RawSubject, cloud.RawIssuer) {
			continue
		}
		if cloud.CheckSignatureFrom(ca) == nil {
			return ca
		}
	}

	return nil
}

func read(ctx context.Context, cfg Config) ([]byte, string, error) {
	if path, ok := strings.CutPrefix(cfg.Location, vaultScheme); ok {
		return readVault(ctx, cfg.VaultAddr, cfg.VaultToken, path, cfg.Password)
	}

	data, err := os.ReadFile(cfg.Location)
	if err != nil {
		return nil, "", errors.Wrap(ErrMissingContainer, err)
	}

	return data, cfg.Password, nil
}

// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package testsutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"testing"
	"time"

	"github.com/absmach/cloudca/certs"
	"github.com/absmach/cloudca/certs/pki"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

const (
	RootCommonName  = "arrowhead.eu"
	CloudCommonName = "testcloud2.aitia.arrowhead.eu"
	SysopCommonName = "sysop." + CloudCommonName
)

// NewBundle generates a root and cloud authority valid for a day.
func NewBundle(t *testing.T) pki.Bundle {
	bundle, err := pki.Generate(RootCommonName, CloudCommonName, 24*time.Hour)
	require.Nil(t, err, fmt.Sprintf("generate authority unexpected error: %s", err))
	return bundle
}

// NewAuthority generates a fresh authority.
func NewAuthority(t *testing.T) (*certs.Authority, pki.Bundle) {
	bundle := NewBundle(t)
	authority, err := bundle.Authority()
	require.Nil(t, err, fmt.Sprintf("create authority unexpected error: %s", err))
	return authority, bundle
}

// NewCSR returns a base64 DER encoded signing request for cn.
func NewCSR(t *testing.T, cn string, dnsNames ...string) string {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.Nil(t, err, fmt.Sprintf("generate key unexpected error: %s", err))
	der, err := x509.CreateCertificateRequest(rand.Reader, &x509.CertificateRequest{
		Subject:  pkix.Name{CommonName: cn, Organization: []string{"AITIA"}},
		DNSNames: dnsNames,
	}, key)
	require.Nil(t, err, fmt.Sprintf("create csr unexpected error: %s", err))
	return base64.StdEncoding.EncodeToString(der)
}

// NewPublicKey returns a base64 DER encoded SubjectPublicKeyInfo.
func NewPublicKey(t *testing.T) string {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.Nil(t, err, fmt.Sprintf("generate key unexpected error: %s", err))
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.Nil(t, err, fmt.Sprintf("marshal public key unexpected error: %s", err))
	return base64.StdEncoding.EncodeToString(der)
}

// NewLeaf signs a leaf certificate for cn with authority.
func NewLeaf(t *testing.T, authority *certs.Authority, cn string) *x509.Certificate {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.Nil(t, err, fmt.Sprintf("generate key unexpected error: %s", err))
	serial, err := certs.NewSerial()
	require.Nil(t, err, fmt.Sprintf("generate serial unexpected error: %s", err))
	now := time.Now().UTC()
	der, err := authority.Sign(&x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    now.Add(-time.Minute),
		NotAfter:     now.Add(time.Hour),
	}, &key.PublicKey)
	require.Nil(t, err, fmt.Sprintf("sign leaf unexpected error: %s", err))
	cert, err := x509.ParseCertificate(der)
	require.Nil(t, err, fmt.Sprintf("parse leaf unexpected error: %s", err))
	return cert
}

// PEM wraps a base64 DER value in PEM framing.
func PEM(t *testing.T, blockType, encoded string) string {
	der, err := base64.StdEncoding.DecodeString(encoded)
	require.Nil(t, err, fmt.Sprintf("decode unexpected error: %s", err))
	return string(pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der}))
}

// CleanUpDB empties the certificate authority tables.
func CleanUpDB(t *testing.T, db *sqlx.DB) {
	_, err := db.Exec("DELETE FROM certificates")
	require.Nil(t, err, fmt.Sprintf("clean certificates unexpected error: %s", err))
	_, err = db.Exec("DELETE FROM trusted_keys")
	require.Nil(t, err, fmt.Sprintf("clean trusted_keys unexpected error: %s", err))
}

// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package pki

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"time"

	"github.com/absmach/cloudca/certs"
	"software.sslmate.com/src/go-pkcs12"
)

// Bundle is a freshly generated root and cloud authority pair.
type Bundle struct {
	Root     *x509.Certificate
	RootKey  *ecdsa.PrivateKey
	Cloud    *x509.Certificate
	CloudKey *ecdsa.PrivateKey
}

// Generate creates a self-signed root and a cloud authority issued by it,
// both valid from now for validity.
func Generate(rootCN, cloudCN string, validity time.Duration) (Bundle, error) {
	now := time.Now().Add(-time.Minute).UTC()

	rootKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return Bundle{}, err
	}
	rootSerial, err := certs.NewSerial()
	if err != nil {
		return Bundle{}, err
	}
	rootTmpl := &x509.Certificate{
		SerialNumber:          rootSerial,
		Subject:               pkix.Name{CommonName: rootCN},
		NotBefore:             now,
		NotAfter:              now.Add(validity),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	rootDER, err := x509.CreateCertificate(rand.Reader, rootTmpl, rootTmpl, &rootKey.PublicKey, rootKey)
	if err != nil {
		return Bundle{}, err
	}
	root, err := x509.ParseCertificate(rootDER)
	if err != nil {
		return Bundle{}, err
	}

	cloudKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return Bundle{}, err
	}
	cloudSerial, err := certs.NewSerial()
	if err != nil {
		return Bundle{}, err
	}
	cloudTmpl := &x509.Certificate{
		SerialNumber:          cloudSerial,
		Subject:               pkix.Name{CommonName: cloudCN},
		NotBefore:             now,
		NotAfter:              now.Add(validity),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLen:            0,
		MaxPathLenZero:        true,
	}
	cloudDER, err := x509.CreateCertificate(rand.Reader, cloudTmpl, root, &cloudKey.PublicKey, rootKey)
	if err != nil {
		return Bundle{}, err
	}
	cloud, err := x509.ParseCertificate(cloudDER)
	if err != nil {
		return Bundle{}, err
	}

	return Bundle{
		Root:     root,
		RootKey:  rootKey,
		Cloud:    cloud,
		CloudKey: cloudKey,
	}, nil
}

// Authority returns the authority backed by the bundle.
func (b Bundle) Authority() (*certs.Authority, error) {
	return certs.NewAuthority(b.Root, b.Cloud, b.CloudKey)
}

// Encode returns the bundle as a PKCS#12 container holding the cloud key,
// the cloud certificate and the root certificate.
func (b Bundle) Encode(password string) ([]byte, error) {
	return pkcs12.Modern.Encode(b.CloudKey, b.Cloud, []*x509.Certificate{b.Root}, password)
}

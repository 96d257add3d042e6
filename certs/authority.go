// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package certs

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"

	"github.com/absmach/cloudca/pkg/errors"
)

// Authority holds the root and cloud authority material. It is immutable
// after construction and safe for concurrent use.
type Authority struct {
	root    *x509.Certificate
	cloud   *x509.Certificate
	signer  crypto.Signer
	cloudCN string
}

// NewAuthority validates that cloud is a CA certificate issued by root and
// that signer holds the cloud certificate's private key.
func NewAuthority(root, cloud *x509.Certificate, signer crypto.Signer) (*Authority, error) {
	if root == nil || cloud == nil || signer == nil {
		return nil, errors.Wrap(ErrInvalidAuthority, fmt.Errorf("root certificate, cloud certificate and cloud key are required"))
	}
	if !cloud.IsCA {
		return nil, errors.Wrap(ErrInvalidAuthority, fmt.Errorf("cloud certificate %q is not a CA", cloud.Subject.CommonName))
	}
	if err := cloud.CheckSignatureFrom(root); err != nil {
		return nil, errors.Wrap(ErrInvalidAuthority, err)
	}
	pub, ok := signer.Public().(interface{ Equal(crypto.PublicKey) bool })
	if !ok || !pub.Equal(cloud.PublicKey) {
		return nil, errors.Wrap(ErrInvalidAuthority, fmt.Errorf("cloud key does not match cloud certificate"))
	}
	if _, err := CommonName(cloud.Subject); err != nil {
		return nil, errors.Wrap(ErrInvalidAuthority, err)
	}

	return &Authority{
		root:    root,
		cloud:   cloud,
		signer:  signer,
		cloudCN: cloud.Subject.CommonName,
	}, nil
}

// RootCertificate returns the root authority certificate.
func (a *Authority) RootCertificate() *x509.Certificate {
	return a.root
}

// CloudCertificate returns the cloud authority certificate.
func (a *Authority) CloudCertificate() *x509.Certificate {
	return a.cloud
}

// CloudCommonName returns the cloud certificate's subject common name verbatim.
func (a *Authority) CloudCommonName() string {
	return a.cloudCN
}

// Sign issues a certificate for pub from template, signed by the cloud key.
// It returns the DER encoding of the new certificate.
func (a *Authority) Sign(template *x509.Certificate, pub crypto.PublicKey) ([]byte, error) {
	if template.SignatureAlgorithm == x509.UnknownSignatureAlgorithm {
		template.SignatureAlgorithm = a.signatureAlgorithm()
	}

	return x509.CreateCertificate(rand.Reader, template, a.cloud, pub, a.signer)
}

// Chain returns the trust chain for leaf ordered leaf, cloud, root.
func (a *Authority) Chain(leaf []byte) []string {
	return []string{
		EncodeDER(leaf),
		EncodeDER(a.cloud.Raw),
		EncodeDER(a.root.Raw),
	}
}

// signatureAlgorithm reuses the algorithm of the hierarchy when the cloud key
// can produce it and otherwise leaves the choice to crypto/x509.
func (a *Authority) signatureAlgorithm() x509.SignatureAlgorithm {
	alg := a.cloud.SignatureAlgorithm
	switch a.signer.Public().(type) {
	case *ecdsa.PublicKey:
		switch alg {
		case x509.ECDSAWithSHA256, x509.ECDSAWithSHA384, x509.ECDSAWithSHA512:
			return alg
		}
	case *rsa.PublicKey:
		switch alg {
		case x509.SHA256WithRSA, x509.SHA384WithRSA, x509.SHA512WithRSA,
			x509.SHA256WithRSAPSS, x509.SHA384WithRSAPSS, x509.SHA512WithRSAPSS:
			return alg
		}
	case ed25519.PublicKey:
		if alg == x509.PureEd25519 {
			return alg
		}
	}

	return x509.UnknownSignatureAlgorithm
}

// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package certs

import (
	"crypto"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"strings"
	"unicode"

	"github.com/absmach/cloudca/pkg/errors"
)

const (
	pemBegin = "-----BEGIN"
	pemEnd   = "-----END"
)

// DecodeCertificate parses a standard base64 encoded DER certificate.
// PEM framed input is rejected even though it could be unwrapped.
func DecodeCertificate(encoded string) (*x509.Certificate, error) {
	der, err := decodeDER(encoded)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidInput, err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidInput, err)
	}

	return cert, nil
}

// DecodeSigningRequest parses a standard base64 encoded DER PKCS#10 request
// and verifies its self-signature. Empty input is ErrInvalidInput, anything
// present but unusable is ErrMalformedPayload.
func DecodeSigningRequest(encoded string) (*x509.CertificateRequest, error) {
	if strings.TrimSpace(encoded) == "" {
		return nil, errors.Wrap(ErrInvalidInput, errEmptyEncoding)
	}
	der, err := decodeDER(encoded)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedPayload, err)
	}
	csr, err := x509.ParseCertificateRequest(der)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedPayload, err)
	}
	if err := csr.CheckSignature(); err != nil {
		return nil, errors.Wrap(ErrMalformedPayload, err)
	}

	return csr, nil
}

// DecodePublicKey parses a standard base64 encoded DER SubjectPublicKeyInfo.
// The DER bytes are returned alongside the key.
func DecodePublicKey(encoded string) (crypto.PublicKey, []byte, error) {
	der, err := decodeDER(encoded)
	if err != nil {
		return nil, nil, errors.Wrap(ErrInvalidInput, err)
	}
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, nil, errors.Wrap(ErrInvalidInput, err)
	}

	return key, der, nil
}

// CommonName returns the CN attribute of name.
func CommonName(name pkix.Name) (string, error) {
	cn := strings.TrimSpace(name.CommonName)
	if cn == "" {
		return "", errors.Wrap(ErrInvalidInput, errMissingCN)
	}

	return cn, nil
}

// EncodeDER returns the standard base64 encoding of der.
func EncodeDER(der []byte) string {
	return base64.StdEncoding.EncodeToString(der)
}

func decodeDER(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, errEmptyEncoding
	}
	if strings.Contains(encoded, pemBegin) || strings.Contains(encoded, pemEnd) {
		return nil, errPEMFramed
	}
	// The standard decoder silently skips line breaks.
	if strings.IndexFunc(encoded, unicode.IsSpace) >= 0 {
		return nil, errWhitespace
	}

	return base64.StdEncoding.DecodeString(encoded)
}

// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package certs

import "github.com/absmach/cloudca/pkg/errors"

var (
	// ErrInvalidInput indicates a missing or unusable request parameter, or a
	// request rejected by the issuance policy.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedPayload indicates a signing request whose bytes do not parse.
	ErrMalformedPayload = errors.New("malformed certificate signing request")

	// ErrFailedCertCreation indicates the certificate could not be signed or persisted.
	ErrFailedCertCreation = errors.New("failed to create certificate")

	// ErrFailedCertCheck indicates the record store could not be queried.
	ErrFailedCertCheck = errors.New("failed to check certificate")

	// ErrInvalidAuthority indicates unusable authority key material.
	ErrInvalidAuthority = errors.New("invalid certificate authority material")

	errEmptyEncoding    = errors.New("empty encoded value")
	errPEMFramed        = errors.New("PEM framing is not accepted, use base64 encoded DER")
	errWhitespace       = errors.New("encoded value contains whitespace")
	errMissingCN        = errors.New("subject has no common name")
	errMissingRequester = errors.New("missing requester common name")
	errProtectedName    = errors.New("common name is reserved")
	errValidityOrder    = errors.New("validAfter must be before validBefore")
	errValidityRange    = errors.New("validity outside the cloud authority window")
	errSerialExhausted  = errors.New("failed to allocate a unique serial number")
)

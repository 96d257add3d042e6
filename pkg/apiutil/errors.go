// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package apiutil

import "github.com/absmach/cloudca/pkg/errors"

// Errors defined in this file are used by the LoggingErrorEncoder decorator
// to distinguish and log API request validation errors and avoid that service
// errors are logged twice.
var (
	// ErrValidation indicates that an error was returned by the API.
	ErrValidation = errors.New("something went wrong with the request")

	// ErrMissingRequester indicates the requester identity could not be resolved.
	ErrMissingRequester = errors.New("missing requester common name")

	// ErrInvalidIDFormat indicates an invalid ID format.
	ErrInvalidIDFormat = errors.New("invalid id format provided")

	// ErrMissingCSR indicates a signing request without an encoded CSR.
	ErrMissingCSR = errors.New("missing encoded certificate signing request")

	// ErrMissingCertificate indicates a check request without an encoded certificate.
	ErrMissingCertificate = errors.New("missing encoded certificate")

	// ErrMissingPublicKey indicates a trusted key request without a public key.
	ErrMissingPublicKey = errors.New("missing public key")

	// ErrInvalidValidity indicates validity bounds in the wrong order.
	ErrInvalidValidity = errors.New("validAfter must be before validBefore")

	// ErrLimitSize indicates that an invalid limit.
	ErrLimitSize = errors.New("invalid limit size")

	// ErrInvalidQueryParams indicates invalid query parameters.
	ErrInvalidQueryParams = errors.New("invalid query parameters")

	// ErrUnsupportedContentType indicates unacceptable or lack of Content-Type.
	ErrUnsupportedContentType = errors.New("unsupported content type")
)

// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"time"

	"github.com/absmach/cloudca/pkg/apiutil"
)

const maxLimitSize = 100

type signReq struct {
	requester   string
	EncodedCSR  string     `json:"encodedCSR"`
	ValidAfter  *time.Time `json:"validAfter,omitempty"`
	ValidBefore *time.Time `json:"validBefore,omitempty"`
}

func (req signReq) validate() error {
	if req.requester == "" {
		return apiutil.ErrMissingRequester
	}
	if req.EncodedCSR == "" {
		return apiutil.ErrMissingCSR
	}
	if req.ValidAfter != nil && req.ValidBefore != nil && !req.ValidAfter.Before(*req.ValidBefore) {
		return apiutil.ErrInvalidValidity
	}

	return nil
}

type checkCertReq struct {
	ID                 int64  `json:"id,omitempty"`
	EncodedCertificate string `json:"encodedCertificate"`
}

func (req checkCertReq) validate() error {
	if req.EncodedCertificate == "" {
		return apiutil.ErrMissingCertificate
	}

	return nil
}

type checkKeyReq struct {
	PublicKey string `json:"publicKey"`
}

func (req checkKeyReq) validate() error {
	if req.PublicKey == "" {
		return apiutil.ErrMissingPublicKey
	}

	return nil
}

type addKeyReq struct {
	requester   string
	PublicKey   string    `json:"publicKey"`
	Description string    `json:"description,omitempty"`
	ValidAfter  time.Time `json:"validAfter"`
	ValidBefore time.Time `json:"validBefore"`
}

func (req addKeyReq) validate() error {
	if req.requester == "" {
		return apiutil.ErrMissingRequester
	}
	if req.PublicKey == "" {
		return apiutil.ErrMissingPublicKey
	}
	if !req.ValidAfter.Before(req.ValidBefore) {
		return apiutil.ErrInvalidValidity
	}

	return nil
}

type listReq struct {
	requester string
	offset    uint64
	limit     uint64
}

func (req listReq) validate() error {
	if req.requester == "" {
		return apiutil.ErrMissingRequester
	}
	if req.limit == 0 || req.limit > maxLimitSize {
		return apiutil.ErrLimitSize
	}

	return nil
}

type entityReq struct {
	requester string
	id        int64
}

func (req entityReq) validate() error {
	if req.requester == "" {
		return apiutil.ErrMissingRequester
	}
	if req.id <= 0 {
		return apiutil.ErrInvalidIDFormat
	}

	return nil
}

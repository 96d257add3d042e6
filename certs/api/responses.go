// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"math/big"
	"net/http"
	"time"

	"github.com/absmach/cloudca"
	"github.com/absmach/cloudca/certs"
)

var (
	_ cloudca.Response = (*signRes)(nil)
	_ cloudca.Response = (*checkCertRes)(nil)
	_ cloudca.Response = (*certsPageRes)(nil)
	_ cloudca.Response = (*keyRes)(nil)
	_ cloudca.Response = (*checkKeyRes)(nil)
	_ cloudca.Response = (*keysPageRes)(nil)
	_ cloudca.Response = (*removeRes)(nil)
)

type signRes struct {
	ID               int64    `json:"id"`
	CertificateChain []string `json:"certificateChain"`
}

func (res signRes) Code() int {
	return http.StatusOK
}

func (res signRes) Headers() map[string]string {
	return map[string]string{}
}

func (res signRes) Empty() bool {
	return false
}

type checkCertRes struct {
	CommonName   string     `json:"commonName"`
	SerialNumber *big.Int   `json:"serialNumber"`
	Status       string     `json:"status"`
	ValidFrom    *time.Time `json:"validFrom,omitempty"`
}

func (res checkCertRes) Code() int {
	return http.StatusOK
}

func (res checkCertRes) Headers() map[string]string {
	return map[string]string{}
}

func (res checkCertRes) Empty() bool {
	return false
}

type certificateRes struct {
	ID           int64      `json:"id"`
	CommonName   string     `json:"commonName"`
	SerialNumber *big.Int   `json:"serialNumber"`
	Certificate  string     `json:"certificate"`
	RequestedBy  string     `json:"requestedBy"`
	Status       string     `json:"status"`
	ValidAfter   time.Time  `json:"validAfter"`
	ValidBefore  time.Time  `json:"validBefore"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	RevokedAt    *time.Time `json:"revokedAt,omitempty"`
}

type pageRes struct {
	Total  uint64 `json:"total"`
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type certsPageRes struct {
	pageRes
	Certificates []certificateRes `json:"certificates"`
}

func (res certsPageRes) Code() int {
	return http.StatusOK
}

func (res certsPageRes) Headers() map[string]string {
	return map[string]string{}
}

func (res certsPageRes) Empty() bool {
	return false
}

type keyRes struct {
	ID          int64     `json:"id"`
	PublicKey   string    `json:"publicKey"`
	Hash        string    `json:"hash"`
	Description string    `json:"description,omitempty"`
	ValidAfter  time.Time `json:"validAfter"`
	ValidBefore time.Time `json:"validBefore"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	created     bool
}

func (res keyRes) Code() int {
	if res.created {
		return http.StatusCreated
	}

	return http.StatusOK
}

func (res keyRes) Headers() map[string]string {
	return map[string]string{}
}

func (res keyRes) Empty() bool {
	return false
}

type checkKeyRes struct {
	ID          int64     `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	Description string    `json:"description,omitempty"`
}

func (res checkKeyRes) Code() int {
	return http.StatusOK
}

func (res checkKeyRes) Headers() map[string]string {
	return map[string]string{}
}

func (res checkKeyRes) Empty() bool {
	return false
}

type keysPageRes struct {
	pageRes
	Keys []keyRes `json:"keys"`
}

func (res keysPageRes) Code() int {
	return http.StatusOK
}

func (res keysPageRes) Headers() map[string]string {
	return map[string]string{}
}

func (res keysPageRes) Empty() bool {
	return false
}

type removeRes struct{}

func (res removeRes) Code() int {
	return http.StatusNoContent
}

func (res removeRes) Headers() map[string]string {
	return map[string]string{}
}

func (res removeRes) Empty() bool {
	return true
}

func toCertificateRes(c certs.Certificate) certificateRes {
	return certificateRes{
		ID:           c.ID,
		CommonName:   c.CommonName,
		SerialNumber: c.Serial,
		Certificate:  c.Certificate,
		RequestedBy:  c.RequestedBy,
		Status:       c.Status,
		ValidAfter:   c.ValidAfter,
		ValidBefore:  c.ValidBefore,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		RevokedAt:    c.RevokedAt,
	}
}

func toKeyRes(k certs.TrustedKey) keyRes {
	return keyRes{
		ID:          k.ID,
		PublicKey:   k.PublicKey,
		Hash:        k.Hash,
		Description: k.Description,
		ValidAfter:  k.ValidAfter,
		ValidBefore: k.ValidBefore,
		CreatedAt:   k.CreatedAt,
		UpdatedAt:   k.UpdatedAt,
	}
}

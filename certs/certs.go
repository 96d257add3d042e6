// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package certs

import (
	"context"
	"crypto/x509"
	"math/big"
	"time"
)

// Certificate statuses reported by the status engine.
const (
	StatusGood    = "good"
	StatusUnknown = "unknown"
	StatusRevoked = "revoked"
)

// SigningRequest asks the cloud authority to sign a certificate signing request.
// Nil bounds fall back to the configured default window.
type SigningRequest struct {
	EncodedCSR  string
	ValidAfter  *time.Time
	ValidBefore *time.Time
}

// SigningResponse carries the stored record ID and the trust chain
// ordered leaf, cloud authority, root authority.
type SigningResponse struct {
	ID               int64
	CertificateChain []string
}

// CheckRequest asks for the status of a previously issued certificate.
type CheckRequest struct {
	ID                 int64
	EncodedCertificate string
}

// CheckResponse describes a certificate status. Certificates unknown to
// the record store carry a zero serial and a zero ValidFrom.
type CheckResponse struct {
	CommonName   string
	SerialNumber *big.Int
	Status       string
	ValidFrom    time.Time
}

// Certificate is an issued certificate record.
type Certificate struct {
	ID          int64      `json:"id"`
	CommonName  string     `json:"common_name"`
	Serial      *big.Int   `json:"serial"`
	Certificate string     `json:"certificate"`
	RequestedBy string     `json:"requested_by"`
	Status      string     `json:"status,omitempty"`
	ValidAfter  time.Time  `json:"valid_after"`
	ValidBefore time.Time  `json:"valid_before"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
}

// StatusAt classifies the record at the given instant.
func (c Certificate) StatusAt(now time.Time) string {
	switch {
	case c.RevokedAt != nil && !c.RevokedAt.After(now):
		return StatusRevoked
	case now.Before(c.ValidAfter), now.After(c.ValidBefore):
		return StatusUnknown
	default:
		return StatusGood
	}
}

// TrustedKey is a pre-shared public key used by onboarding flows.
type TrustedKey struct {
	ID          int64     `json:"id"`
	PublicKey   string    `json:"public_key"`
	Hash        string    `json:"hash"`
	Description string    `json:"description"`
	ValidAfter  time.Time `json:"valid_after"`
	ValidBefore time.Time `json:"valid_before"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ValidAt reports whether the key may be used at the given instant.
func (k TrustedKey) ValidAt(now time.Time) bool {
	return !now.Before(k.ValidAfter) && !now.After(k.ValidBefore)
}

// AddTrustedKeyRequest registers a base64 DER encoded public key.
type AddTrustedKeyRequest struct {
	PublicKey   string
	Description string
	ValidAfter  time.Time
	ValidBefore time.Time
}

// TrustedKeyCheckRequest looks a public key up.
type TrustedKeyCheckRequest struct {
	PublicKey string
}

// TrustedKeyCheckResponse describes a registered key.
type TrustedKeyCheckResponse struct {
	ID          int64
	CreatedAt   time.Time
	Description string
}

// PageMetadata contains page related metadata.
type PageMetadata struct {
	Total  uint64
	Offset uint64
	Limit  uint64
}

// CertificatesPage contains a page of issued certificate records.
type CertificatesPage struct {
	PageMetadata
	Certificates []Certificate
}

// TrustedKeysPage contains a page of trusted keys.
type TrustedKeysPage struct {
	PageMetadata
	Keys []TrustedKey
}

// Repository specifies the issued certificate record store.
type Repository interface {
	// SaveCertificateInfo persists a freshly signed certificate and returns
	// the store assigned ID. A serial that is already stored yields ErrConflict.
	SaveCertificateInfo(ctx context.Context, commonName string, cert *x509.Certificate, requestedBy string) (int64, error)

	// IsCertificateValidNow reports the stored status of cert, or ErrNotFound.
	IsCertificateValidNow(ctx context.Context, cert *x509.Certificate) (CheckResponse, error)

	// RetrieveByID retrieves a certificate record.
	RetrieveByID(ctx context.Context, id int64) (Certificate, error)

	// RetrieveAll retrieves a page of certificate records ordered by ID.
	RetrieveAll(ctx context.Context, pm PageMetadata) (CertificatesPage, error)

	// Revoke marks a certificate record as revoked.
	Revoke(ctx context.Context, id int64, revokedAt time.Time) error
}

// KeyRepository specifies the trusted key store.
type KeyRepository interface {
	// Save persists a trusted key. A hash that is already stored yields ErrConflict.
	Save(ctx context.Context, key TrustedKey) (TrustedKey, error)

	// RetrieveByHash retrieves a trusted key by the hex SHA-256 of its DER encoding.
	RetrieveByHash(ctx context.Context, hash string) (TrustedKey, error)

	// RetrieveAll retrieves a page of trusted keys ordered by ID.
	RetrieveAll(ctx context.Context, pm PageMetadata) (TrustedKeysPage, error)

	// Remove removes a trusted key.
	Remove(ctx context.Context, id int64) error
}

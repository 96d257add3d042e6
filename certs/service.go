// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package certs

import (
	"context"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"math/big"
	"strings"
	"time"

	"github.com/absmach/cloudca/pkg/errors"
	repoerr "github.com/absmach/cloudca/pkg/errors/repository"
	svcerr "github.com/absmach/cloudca/pkg/errors/service"
)

const (
	// DefaultNegativeOffset is how far before now a default window starts.
	DefaultNegativeOffset = time.Minute
	// DefaultPositiveOffset is how far after now a default window ends.
	DefaultPositiveOffset = 525600 * time.Minute
	// DefaultStoreTimeout bounds each call to a store.
	DefaultStoreTimeout = 5 * time.Second
)

var _ Service = (*service)(nil)

// Service specifies an API that must be fulfilled by the domain service
// implementation, and all of its decorators (e.g. logging & metrics).
type Service interface {
	// CloudCommonName returns the cloud authority common name.
	CloudCommonName() string

	// SignCertificate signs the request on behalf of requester and returns
	// the record ID with the trust chain.
	SignCertificate(ctx context.Context, req SigningRequest, requester string) (SigningResponse, error)

	// CheckCertificate reports the status of a presented certificate.
	CheckCertificate(ctx context.Context, req CheckRequest) (CheckResponse, error)

	// ListCertificates lists issued certificate records. Operators only.
	ListCertificates(ctx context.Context, requester string, pm PageMetadata) (CertificatesPage, error)

	// RevokeCertificate revokes a record. Operators or the original requester.
	RevokeCertificate(ctx context.Context, requester string, id int64) error

	// AddTrustedKey registers a trusted public key. Operators only.
	AddTrustedKey(ctx context.Context, requester string, req AddTrustedKeyRequest) (TrustedKey, error)

	// CheckTrustedKey looks up a currently valid trusted key.
	CheckTrustedKey(ctx context.Context, req TrustedKeyCheckRequest) (TrustedKeyCheckResponse, error)

	// ListTrustedKeys lists registered trusted keys. Operators only.
	ListTrustedKeys(ctx context.Context, requester string, pm PageMetadata) (TrustedKeysPage, error)

	// DeleteTrustedKey removes a trusted key. Operators only.
	DeleteTrustedKey(ctx context.Context, requester string, id int64) error
}

// Config holds the issuance parameters.
type Config struct {
	NegativeOffset time.Duration
	PositiveOffset time.Duration
	ProtectedNames []string
	StoreTimeout   time.Duration
}

type service struct {
	authority *Authority
	certs     Repository
	keys      KeyRepository
	policy    Policy
	config    Config
}

// New returns a new certificate authority service.
func New(authority *Authority, certs Repository, keys KeyRepository, config Config) Service {
	if config.StoreTimeout <= 0 {
		config.StoreTimeout = DefaultStoreTimeout
	}
	if config.ProtectedNames == nil {
		config.ProtectedNames = DefaultProtectedNames
	}

	return &service{
		authority: authority,
		certs:     certs,
		keys:      keys,
		policy:    NewPolicy(config.ProtectedNames, authority.CloudCommonName()),
		config:    config,
	}
}

func (svc *service) CloudCommonName() string {
	return svc.authority.CloudCommonName()
}

func (svc *service) SignCertificate(ctx context.Context, req SigningRequest, requester string) (SigningResponse, error) {
	if strings.TrimSpace(req.EncodedCSR) == "" {
		return SigningResponse{}, errors.Wrap(ErrInvalidInput, errEmptyEncoding)
	}
	requester = strings.TrimSpace(requester)
	if requester == "" {
		return SigningResponse{}, errors.Wrap(ErrInvalidInput, errMissingRequester)
	}

	csr, err := DecodeSigningRequest(req.EncodedCSR)
	if err != nil {
		return SigningResponse{}, err
	}
	cn, err := CommonName(csr.Subject)
	if err != nil {
		return SigningResponse{}, err
	}
	if !svc.policy.Allows(cn, requester) {
		return SigningResponse{}, errors.Wrap(ErrInvalidInput, errProtectedName)
	}

	notBefore, notAfter, err := validityWindow(time.Now(), req.ValidAfter, req.ValidBefore, svc.config.NegativeOffset, svc.config.PositiveOffset, svc.authority.CloudCertificate())
	if err != nil {
		return SigningResponse{}, err
	}

	for attempt := 0; attempt < maxSerialAttempts; attempt++ {
		serial, err := NewSerial()
		if err != nil {
			return SigningResponse{}, errors.Wrap(ErrFailedCertCreation, err)
		}
		der, err := svc.authority.Sign(leafTemplate(csr, serial, notBefore, notAfter), csr.PublicKey)
		if err != nil {
			return SigningResponse{}, errors.Wrap(ErrFailedCertCreation, err)
		}
		leaf, err := x509.ParseCertificate(der)
		if err != nil {
			return SigningResponse{}, errors.Wrap(ErrFailedCertCreation, err)
		}

		id, err := svc.save(ctx, cn, leaf, requester)
		switch {
		case err == nil:
			return SigningResponse{
				ID:               id,
				CertificateChain: svc.authority.Chain(der),
			}, nil
		case errors.Contains(err, repoerr.ErrConflict):
			continue
		default:
			return SigningResponse{}, errors.Wrap(ErrFailedCertCreation, err)
		}
	}

	return SigningResponse{}, errors.Wrap(ErrFailedCertCreation, errSerialExhausted)
}

func (svc *service) CheckCertificate(ctx context.Context, req CheckRequest) (CheckResponse, error) {
	if strings.TrimSpace(req.EncodedCertificate) == "" {
		return CheckResponse{}, errors.Wrap(ErrInvalidInput, errEmptyEncoding)
	}
	cert, err := DecodeCertificate(req.EncodedCertificate)
	if err != nil {
		return CheckResponse{}, err
	}
	cn, err := CommonName(cert.Subject)
	if err != nil {
		return CheckResponse{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, svc.config.StoreTimeout)
	defer cancel()

	res, err := svc.certs.IsCertificateValidNow(ctx, cert)
	switch {
	case err == nil:
		return res, nil
	case errors.Contains(err, repoerr.ErrNotFound):
		return CheckResponse{
			CommonName:   cn,
			SerialNumber: big.NewInt(0),
			Status:       StatusUnknown,
		}, nil
	default:
		return CheckResponse{}, errors.Wrap(ErrFailedCertCheck, err)
	}
}

func (svc *service) ListCertificates(ctx context.Context, requester string, pm PageMetadata) (CertificatesPage, error) {
	if !svc.policy.IsOperator(requester) {
		return CertificatesPage{}, svcerr.ErrAuthorization
	}

	ctx, cancel := context.WithTimeout(ctx, svc.config.StoreTimeout)
	defer cancel()

	page, err := svc.certs.RetrieveAll(ctx, pm)
	if err != nil {
		return CertificatesPage{}, errors.Wrap(svcerr.ErrViewEntity, err)
	}

	return page, nil
}

func (svc *service) RevokeCertificate(ctx context.Context, requester string, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, svc.config.StoreTimeout)
	defer cancel()

	cert, err := svc.certs.RetrieveByID(ctx, id)
	if err != nil {
		if errors.Contains(err, repoerr.ErrNotFound) {
			return errors.Wrap(svcerr.ErrNotFound, err)
		}
		return errors.Wrap(svcerr.ErrViewEntity, err)
	}
	if !svc.policy.IsOperator(requester) && normalize(cert.RequestedBy) != normalize(requester) {
		return svcerr.ErrAuthorization
	}
	if cert.RevokedAt != nil {
		return nil
	}
	if err := svc.certs.Revoke(ctx, id, time.Now().UTC()); err != nil {
		return errors.Wrap(svcerr.ErrUpdateEntity, err)
	}

	return nil
}

func (svc *service) AddTrustedKey(ctx context.Context, requester string, req AddTrustedKeyRequest) (TrustedKey, error) {
	if !svc.policy.IsOperator(requester) {
		return TrustedKey{}, svcerr.ErrAuthorization
	}
	if strings.TrimSpace(req.PublicKey) == "" {
		return TrustedKey{}, errors.Wrap(ErrInvalidInput, errEmptyEncoding)
	}
	_, der, err := DecodePublicKey(req.PublicKey)
	if err != nil {
		return TrustedKey{}, err
	}
	if !req.ValidAfter.Before(req.ValidBefore) {
		return TrustedKey{}, errors.Wrap(ErrInvalidInput, errValidityOrder)
	}

	ctx, cancel := context.WithTimeout(ctx, svc.config.StoreTimeout)
	defer cancel()

	now := time.Now().UTC()
	key, err := svc.keys.Save(ctx, TrustedKey{
		PublicKey:   EncodeDER(der),
		Hash:        keyHash(der),
		Description: strings.TrimSpace(req.Description),
		ValidAfter:  req.ValidAfter.UTC(),
		ValidBefore: req.ValidBefore.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		if errors.Contains(err, repoerr.ErrConflict) {
			return TrustedKey{}, errors.Wrap(svcerr.ErrConflict, err)
		}
		return TrustedKey{}, errors.Wrap(svcerr.ErrCreateEntity, err)
	}

	return key, nil
}

func (svc *service) CheckTrustedKey(ctx context.Context, req TrustedKeyCheckRequest) (TrustedKeyCheckResponse, error) {
	if strings.TrimSpace(req.PublicKey) == "" {
		return TrustedKeyCheckResponse{}, errors.Wrap(ErrInvalidInput, errEmptyEncoding)
	}
	_, der, err := DecodePublicKey(req.PublicKey)
	if err != nil {
		return TrustedKeyCheckResponse{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, svc.config.StoreTimeout)
	defer cancel()

	key, err := svc.keys.RetrieveByHash(ctx, keyHash(der))
	if err != nil {
		if errors.Contains(err, repoerr.ErrNotFound) {
			return TrustedKeyCheckResponse{}, errors.Wrap(svcerr.ErrNotFound, err)
		}
		return TrustedKeyCheckResponse{}, errors.Wrap(svcerr.ErrViewEntity, err)
	}
	if !key.ValidAt(time.Now()) {
		return TrustedKeyCheckResponse{}, svcerr.ErrNotFound
	}

	return TrustedKeyCheckResponse{
		ID:          key.ID,
		CreatedAt:   key.CreatedAt,
		Description: key.Description,
	}, nil
}

func (svc *service) ListTrustedKeys(ctx context.Context, requester string, pm PageMetadata) (TrustedKeysPage, error) {
	if !svc.policy.IsOperator(requester) {
		return TrustedKeysPage{}, svcerr.ErrAuthorization
	}

	ctx, cancel := context.WithTimeout(ctx, svc.config.StoreTimeout)
	defer cancel()

	page, err := svc.keys.RetrieveAll(ctx, pm)
	if err != nil {
		return TrustedKeysPage{}, errors.Wrap(svcerr.ErrViewEntity, err)
	}

	return page, nil
}

func (svc *service) DeleteTrustedKey(ctx context.Context, requester string, id int64) error {
	if !svc.policy.IsOperator(requester) {
		return svcerr.ErrAuthorization
	}

	ctx, cancel := context.WithTimeout(ctx, svc.config.StoreTimeout)
	defer cancel()

	if err := svc.keys.Remove(ctx, id); err != nil {
		if errors.Contains(err, repoerr.ErrNotFound) {
			return errors.Wrap(svcerr.ErrNotFound, err)
		}
		return errors.Wrap(svcerr.ErrRemoveEntity, err)
	}

	return nil
}

// save persists a signed leaf under the store timeout.
func (svc *service) save(ctx context.Context, cn string, leaf *x509.Certificate, requester string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, svc.config.StoreTimeout)
	defer cancel()

	return svc.certs.SaveCertificateInfo(ctx, cn, leaf, requester)
}

func leafTemplate(csr *x509.CertificateRequest, serial *big.Int, notBefore, notAfter time.Time) *x509.Certificate {
	return &x509.Certificate{
		SerialNumber:          serial,
		RawSubject:            csr.RawSubject,
		Subject:               csr.Subject,
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		IsCA:                  false,
		DNSNames:              csr.DNSNames,
		IPAddresses:           csr.IPAddresses,
		EmailAddresses:        csr.EmailAddresses,
		URIs:                  csr.URIs,
	}
}

func keyHash(der []byte) string {
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:])
}

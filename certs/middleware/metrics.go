// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"context"
	"time"

	"github.com/absmach/cloudca/certs"
	"github.com/absmach/cloudca/pkg/errors"
	"github.com/go-kit/kit/metrics"
)

// Outcome label values.
const (
	OutcomeIssued   = "issued"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
	OutcomeGood     = certs.StatusGood
	OutcomeUnknown  = certs.StatusUnknown
	OutcomeRevoked  = certs.StatusRevoked
)

var _ certs.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter  metrics.Counter
	latency  metrics.Histogram
	outcomes metrics.Counter
	svc      certs.Service
}

// MetricsMiddleware instruments the service by tracking request count, latency
// and the outcome of signing and status checks.
func MetricsMiddleware(svc certs.Service, counter metrics.Counter, latency metrics.Histogram, outcomes metrics.Counter) certs.Service {
	return &metricsMiddleware{
		counter:  counter,
		latency:  latency,
		outcomes: outcomes,
		svc:      svc,
	}
}

func (mm *metricsMiddleware) CloudCommonName() string {
	return mm.svc.CloudCommonName()
}

func (mm *metricsMiddleware) SignCertificate(ctx context.Context, req certs.SigningRequest, requester string) (res certs.SigningResponse, err error) {
	defer func(begin time.Time) {
		mm.observe("sign_certificate", begin)
		mm.outcomes.With("method", "sign_certificate", "outcome", signOutcome(err)).Add(1)
	}(time.Now())

	return mm.svc.SignCertificate(ctx, req, requester)
}

func (mm *metricsMiddleware) CheckCertificate(ctx context.Context, req certs.CheckRequest) (res certs.CheckResponse, err error) {
	defer func(begin time.Time) {
		mm.observe("check_certificate", begin)
		outcome := res.Status
		if err != nil {
			outcome = OutcomeFailed
			if !errors.Contains(err, certs.ErrFailedCertCheck) {
				outcome = OutcomeRejected
			}
		}
		mm.outcomes.With("method", "check_certificate", "outcome", outcome).Add(1)
	}(time.Now())

	return mm.svc.CheckCertificate(ctx, req)
}

func (mm *metricsMiddleware) ListCertificates(ctx context.Context, requester string, pm certs.PageMetadata) (certs.CertificatesPage, error) {
	defer mm.observe("list_certificates", time.Now())

	return mm.svc.ListCertificates(ctx, requester, pm)
}

func (mm *metricsMiddleware) RevokeCertificate(ctx context.Context, requester string, id int64) error {
	defer mm.observe("revoke_certificate", time.Now())

	return mm.svc.RevokeCertificate(ctx, requester, id)
}

func (mm *metricsMiddleware) AddTrustedKey(ctx context.Context, requester string, req certs.AddTrustedKeyRequest) (certs.TrustedKey, error) {
	defer mm.observe("add_trusted_key", time.Now())

	return mm.svc.AddTrustedKey(ctx, requester, req)
}

func (mm *metricsMiddleware) CheckTrustedKey(ctx context.Context, req certs.TrustedKeyCheckRequest) (certs.TrustedKeyCheckResponse, error) {
	defer mm.observe("check_trusted_key", time.Now())

	return mm.svc.CheckTrustedKey(ctx, req)
}

func (mm *metricsMiddleware) ListTrustedKeys(ctx context.Context, requester string, pm certs.PageMetadata) (certs.TrustedKeysPage, error) {
	defer mm.observe("list_trusted_keys", time.Now())

	return mm.svc.ListTrustedKeys(ctx, requester, pm)
}

func (mm *metricsMiddleware) DeleteTrustedKey(ctx context.Context, requester string, id int64) error {
	defer mm.observe("delete_trusted_key", time.Now())

	return mm.svc.DeleteTrustedKey(ctx, requester, id)
}

func (mm *metricsMiddleware) observe(method string, begin time.Time) {
	mm.counter.With("method", method).Add(1)
	mm.latency.With("method", method).Observe(time.Since(begin).Seconds())
}

func signOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeIssued
	case errors.Contains(err, certs.ErrFailedCertCreation):
		return OutcomeFailed
	default:
		return OutcomeRejected
	}
}

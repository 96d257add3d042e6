// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"context"

	"github.com/absmach/cloudca/certs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ certs.Service = (*tracingMiddleware)(nil)

type tracingMiddleware struct {
	tracer trace.Tracer
	svc    certs.Service
}

// TracingMiddleware returns a new certificate authority service with tracing capabilities.
func TracingMiddleware(svc certs.Service, tracer trace.Tracer) certs.Service {
	return &tracingMiddleware{
		tracer: tracer,
		svc:    svc,
	}
}

func (tm *tracingMiddleware) CloudCommonName() string {
	return tm.svc.CloudCommonName()
}

func (tm *tracingMiddleware) SignCertificate(ctx context.Context, req certs.SigningRequest, requester string) (certs.SigningResponse, error) {
	ctx, span := tm.tracer.Start(ctx, "svc_sign_certificate", trace.WithAttributes(
		attribute.String("requester", requester),
		attribute.Bool("explicit_valid_after", req.ValidAfter != nil),
		attribute.Bool("explicit_valid_before", req.ValidBefore != nil),
	))
	defer span.End()

	res, err := tm.svc.SignCertificate(ctx, req, requester)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}
	span.SetAttributes(attribute.Int64("id", res.ID))

	return res, nil
}

func (tm *tracingMiddleware) CheckCertificate(ctx context.Context, req certs.CheckRequest) (certs.CheckResponse, error) {
	ctx, span := tm.tracer.Start(ctx, "svc_check_certificate", trace.WithAttributes(
		attribute.Int64("id", req.ID),
	))
	defer span.End()

	res, err := tm.svc.CheckCertificate(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}
	span.SetAttributes(
		attribute.String("common_name", res.CommonName),
		attribute.String("status", res.Status),
	)

	return res, nil
}

func (tm *tracingMiddleware) ListCertificates(ctx context.Context, requester string, pm certs.PageMetadata) (certs.CertificatesPage, error) {
	ctx, span := tm.tracer.Start(ctx, "svc_list_certificates", trace.WithAttributes(
		attribute.String("requester", requester),
		attribute.Int64("offset", int64(pm.Offset)),
		attribute.Int64("limit", int64(pm.Limit)),
	))
	defer span.End()

	return tm.svc.ListCertificates(ctx, requester, pm)
}

func (tm *tracingMiddleware) RevokeCertificate(ctx context.Context, requester string, id int64) error {
	ctx, span := tm.tracer.Start(ctx, "svc_revoke_certificate", trace.WithAttributes(
		attribute.String("requester", requester),
		attribute.Int64("id", id),
	))
	defer span.End()

	return tm.svc.RevokeCertificate(ctx, requester, id)
}

func (tm *tracingMiddleware) AddTrustedKey(ctx context.Context, requester string, req certs.AddTrustedKeyRequest) (certs.TrustedKey, error) {
	ctx, span := tm.tracer.Start(ctx, "svc_add_trusted_key", trace.WithAttributes(
		attribute.String("requester", requester),
		attribute.String("description", req.Description),
	))
	defer span.End()

	return tm.svc.AddTrustedKey(ctx, requester, req)
}

func (tm *tracingMiddleware) CheckTrustedKey(ctx context.Context, req certs.TrustedKeyCheckRequest) (certs.TrustedKeyCheckResponse, error) {
	ctx, span := tm.tracer.Start(ctx, "svc_check_trusted_key")
	defer span.End()

	return tm.svc.CheckTrustedKey(ctx, req)
}

func (tm *tracingMiddleware) ListTrustedKeys(ctx context.Context, requester string, pm certs.PageMetadata) (certs.TrustedKeysPage, error) {
	ctx, span := tm.tracer.Start(ctx, "svc_list_trusted_keys", trace.WithAttributes(
		attribute.String("requester", requester),
		attribute.Int64("offset", int64(pm.Offset)),
		attribute.Int64("limit", int64(pm.Limit)),
	))
	defer span.End()

	return tm.svc.ListTrustedKeys(ctx, requester, pm)
}

func (tm *tracingMiddleware) DeleteTrustedKey(ctx context.Context, requester string, id int64) error {
	ctx, span := tm.tracer.Start(ctx, "svc_delete_trusted_key", trace.WithAttributes(
		attribute.String("requester", requester),
		attribute.Int64("id", id),
	))
	defer span.End()

	return tm.svc.DeleteTrustedKey(ctx, requester, id)
}

// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/cloudca/certs"
)

var _ certs.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    certs.Service
}

// LoggingMiddleware adds logging facilities to the certificate authority service.
// Encoded certificates and keys are never logged.
func LoggingMiddleware(svc certs.Service, logger *slog.Logger) certs.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) CloudCommonName() string {
	return lm.svc.CloudCommonName()
}

func (lm *loggingMiddleware) SignCertificate(ctx context.Context, req certs.SigningRequest, requester string) (res certs.SigningResponse, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("requester", requester),
			slog.Int64("id", res.ID),
		}
		if req.ValidAfter != nil {
			args = append(args, slog.String("valid_after", req.ValidAfter.Format(time.RFC3339)))
		}
		if req.ValidBefore != nil {
			args = append(args, slog.String("valid_before", req.ValidBefore.Format(time.RFC3339)))
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Sign certificate failed", args...)
			return
		}
		lm.logger.Info("Sign certificate completed successfully", args...)
	}(time.Now())

	return lm.svc.SignCertificate(ctx, req, requester)
}

func (lm *loggingMiddleware) CheckCertificate(ctx context.Context, req certs.CheckRequest) (res certs.CheckResponse, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("certificate",
				slog.String("common_name", res.CommonName),
				slog.String("serial", serial(res)),
				slog.String("status", res.Status),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Check certificate failed", args...)
			return
		}
		lm.logger.Info("Check certificate completed successfully", args...)
	}(time.Now())

	return lm.svc.CheckCertificate(ctx, req)
}

func (lm *loggingMiddleware) ListCertificates(ctx context.Context, requester string, pm certs.PageMetadata) (page certs.CertificatesPage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("requester", requester),
			slog.Group("page",
				slog.Uint64("offset", pm.Offset),
				slog.Uint64("limit", pm.Limit),
				slog.Uint64("total", page.Total),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List certificates failed", args...)
			return
		}
		lm.logger.Info("List certificates completed successfully", args...)
	}(time.Now())

	return lm.svc.ListCertificates(ctx, requester, pm)
}

func (lm *loggingMiddleware) RevokeCertificate(ctx context.Context, requester string, id int64) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("requester", requester),
			slog.Int64("id", id),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Revoke certificate failed", args...)
			return
		}
		lm.logger.Info("Revoke certificate completed successfully", args...)
	}(time.Now())

	return lm.svc.RevokeCertificate(ctx, requester, id)
}

func (lm *loggingMiddleware) AddTrustedKey(ctx context.Context, requester string, req certs.AddTrustedKeyRequest) (key certs.TrustedKey, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("requester", requester),
			slog.Group("key",
				slog.Int64("id", key.ID),
				slog.String("hash", key.Hash),
				slog.String("valid_after", req.ValidAfter.Format(time.RFC3339)),
				slog.String("valid_before", req.ValidBefore.Format(time.RFC3339)),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Add trusted key failed", args...)
			return
		}
		lm.logger.Info("Add trusted key completed successfully", args...)
	}(time.Now())

	return lm.svc.AddTrustedKey(ctx, requester, req)
}

func (lm *loggingMiddleware) CheckTrustedKey(ctx context.Context, req certs.TrustedKeyCheckRequest) (res certs.TrustedKeyCheckResponse, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Int64("id", res.ID),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Check trusted key failed", args...)
			return
		}
		lm.logger.Info("Check trusted key completed successfully", args...)
	}(time.Now())

	return lm.svc.CheckTrustedKey(ctx, req)
}

func (lm *loggingMiddleware) ListTrustedKeys(ctx context.Context, requester string, pm certs.PageMetadata) (page certs.TrustedKeysPage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("requester", requester),
			slog.Group("page",
				slog.Uint64("offset", pm.Offset),
				slog.Uint64("limit", pm.Limit),
				slog.Uint64("total", page.Total),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List trusted keys failed", args...)
			return
		}
		lm.logger.Info("List trusted keys completed successfully", args...)
	}(time.Now())

	return lm.svc.ListTrustedKeys(ctx, requester, pm)
}

func (lm *loggingMiddleware) DeleteTrustedKey(ctx context.Context, requester string, id int64) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("requester", requester),
			slog.Int64("id", id),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Delete trusted key failed", args...)
			return
		}
		lm.logger.Info("Delete trusted key completed successfully", args...)
	}(time.Now())

	return lm.svc.DeleteTrustedKey(ctx, requester, id)
}

func serial(res certs.CheckResponse) string {
	if res.SerialNumber == nil {
		return ""
	}
	return res.SerialNumber.String()
}

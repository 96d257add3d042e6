// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/absmach/cloudca"
	"github.com/absmach/cloudca/certs"
	"github.com/absmach/cloudca/pkg/apiutil"
	"github.com/absmach/cloudca/pkg/errors"
	svcerr "github.com/absmach/cloudca/pkg/errors/service"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	contentType = "application/json"
	textType    = "text/plain; charset=utf-8"
	offsetKey   = "offset"
	limitKey    = "limit"
	idKey       = "id"
	defOffset   = 0
	defLimit    = 10
	maxBodySize = 1 << 20
)

// MakeHandler returns a HTTP handler for the certificate authority endpoints.
// trustHeader enables the requester header for deployments where TLS is
// terminated in front of the service.
func MakeHandler(svc certs.Service, logger *slog.Logger, instanceID string, trustHeader bool) http.Handler {
	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, encodeError)),
	}
	d := decoders{trustHeader: trustHeader}

	mux := chi.NewRouter()

	mux.Route("/certificate-authority", func(r chi.Router) {
		r.Get("/name", otelhttp.NewHandler(kithttp.NewServer(
			nameEndpoint(svc),
			kithttp.NopRequestDecoder,
			encodeText,
			opts...,
		), "cloud_common_name").ServeHTTP)

		r.Post("/sign", otelhttp.NewHandler(kithttp.NewServer(
			signEndpoint(svc),
			d.decodeSign,
			encodeResponse,
			opts...,
		), "sign_certificate").ServeHTTP)

		r.Post("/checkCertificate", otelhttp.NewHandler(kithttp.NewServer(
			checkCertificateEndpoint(svc),
			decodeCheckCertificate,
			encodeResponse,
			opts...,
		), "check_certificate").ServeHTTP)

		r.Post("/checkTrustedKey", otelhttp.NewHandler(kithttp.NewServer(
			checkTrustedKeyEndpoint(svc),
			decodeCheckTrustedKey,
			encodeResponse,
			opts...,
		), "check_trusted_key").ServeHTTP)

		r.Route("/mgmt", func(r chi.Router) {
			r.Get("/certificates", otelhttp.NewHandler(kithttp.NewServer(
				listCertificatesEndpoint(svc),
				d.decodeList,
				encodeResponse,
				opts...,
			), "list_certificates").ServeHTTP)

			r.Delete("/certificates/{id}", otelhttp.NewHandler(kithttp.NewServer(
				revokeCertificateEndpoint(svc),
				d.decodeEntity,
				encodeResponse,
				opts...,
			), "revoke_certificate").ServeHTTP)

			r.Get("/keys", otelhttp.NewHandler(kithttp.NewServer(
				listTrustedKeysEndpoint(svc),
				d.decodeList,
				encodeResponse,
				opts...,
			), "list_trusted_keys").ServeHTTP)

			r.Put("/keys", otelhttp.NewHandler(kithttp.NewServer(
				addTrustedKeyEndpoint(svc),
				d.decodeAddTrustedKey,
				encodeResponse,
				opts...,
			), "add_trusted_key").ServeHTTP)

			r.Delete("/keys/{id}", otelhttp.NewHandler(kithttp.NewServer(
				deleteTrustedKeyEndpoint(svc),
				d.decodeEntity,
				encodeResponse,
				opts...,
			), "delete_trusted_key").ServeHTTP)
		})
	})

	mux.Get("/health", cloudca.Health("certs", instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

type decoders struct {
	trustHeader bool
}

func (d decoders) decodeSign(_ context.Context, r *http.Request) (interface{}, error) {
	req := signReq{requester: apiutil.ExtractRequester(r, d.trustHeader)}
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	return req, nil
}

func decodeCheckCertificate(_ context.Context, r *http.Request) (interface{}, error) {
	req := checkCertReq{}
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	return req, nil
}

func decodeCheckTrustedKey(_ context.Context, r *http.Request) (interface{}, error) {
	req := checkKeyReq{}
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	return req, nil
}

func (d decoders) decodeAddTrustedKey(_ context.Context, r *http.Request) (interface{}, error) {
	req := addKeyReq{requester: apiutil.ExtractRequester(r, d.trustHeader)}
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	return req, nil
}

func (d decoders) decodeList(_ context.Context, r *http.Request) (interface{}, error) {
	offset, err := apiutil.ReadNumQuery[uint64](r, offsetKey, defOffset)
	if err != nil {
		return nil, errors.Wrap(apiutil.ErrValidation, err)
	}
	limit, err := apiutil.ReadNumQuery[uint64](r, limitKey, defLimit)
	if err != nil {
		return nil, errors.Wrap(apiutil.ErrValidation, err)
	}

	return listReq{
		requester: apiutil.ExtractRequester(r, d.trustHeader),
		offset:    offset,
		limit:     limit,
	}, nil
}

func (d decoders) decodeEntity(_ context.Context, r *http.Request) (interface{}, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, idKey), 10, 64)
	if err != nil {
		return nil, errors.Wrap(apiutil.ErrValidation, errors.Wrap(apiutil.ErrInvalidIDFormat, err))
	}

	return entityReq{
		requester: apiutil.ExtractRequester(r, d.trustHeader),
		id:        id,
	}, nil
}

func decodeJSON(r *http.Request, v interface{}) error {
	if !strings.Contains(r.Header.Get("Content-Type"), contentType) {
		return errors.Wrap(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(v); err != nil {
		return errors.Wrap(apiutil.ErrValidation, errors.Wrap(errors.ErrMalformedEntity, err))
	}

	return nil
}

func encodeResponse(_ context.Context, w http.ResponseWriter, response interface{}) error {
	if ar, ok := response.(cloudca.Response); ok {
		for k, v := range ar.Headers() {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(ar.Code())

		if ar.Empty() {
			return nil
		}
	}

	return json.NewEncoder(w).Encode(response)
}

func encodeText(_ context.Context, w http.ResponseWriter, response interface{}) error {
	w.Header().Set("Content-Type", textType)
	w.WriteHeader(http.StatusOK)
	_, err := io.WriteString(w, response.(string))

	return err
}

func encodeError(_ context.Context, err error, w http.ResponseWriter) {
	var wrapper error
	if errors.Contains(err, apiutil.ErrValidation) {
		wrapper, err = errors.Unwrap(err)
	}

	w.Header().Set("Content-Type", contentType)
	switch {
	case errors.Contains(err, certs.ErrFailedCertCreation),
		errors.Contains(err, certs.ErrFailedCertCheck):
		w.WriteHeader(http.StatusInternalServerError)
	case errors.Contains(err, apiutil.ErrMissingRequester):
		w.WriteHeader(http.StatusUnauthorized)
	case errors.Contains(err, svcerr.ErrAuthorization):
		w.WriteHeader(http.StatusForbidden)
	case errors.Contains(err, apiutil.ErrUnsupportedContentType):
		w.WriteHeader(http.StatusUnsupportedMediaType)
	case errors.Contains(err, certs.ErrInvalidInput),
		errors.Contains(err, certs.ErrMalformedPayload),
		errors.Contains(err, errors.ErrMalformedEntity),
		errors.Contains(err, svcerr.ErrMalformedEntity),
		errors.Contains(err, apiutil.ErrMissingCSR),
		errors.Contains(err, apiutil.ErrMissingCertificate),
		errors.Contains(err, apiutil.ErrMissingPublicKey),
		errors.Contains(err, apiutil.ErrInvalidValidity),
		errors.Contains(err, apiutil.ErrInvalidIDFormat),
		errors.Contains(err, apiutil.ErrLimitSize),
		errors.Contains(err, apiutil.ErrInvalidQueryParams),
		errors.Contains(err, apiutil.ErrValidation):
		w.WriteHeader(http.StatusBadRequest)
	case errors.Contains(err, svcerr.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Contains(err, svcerr.ErrConflict):
		w.WriteHeader(http.StatusConflict)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}

	if wrapper != nil {
		err = errors.Wrap(wrapper, err)
	}

	if errorVal, ok := err.(errors.Error); ok {
		if err := json.NewEncoder(w).Encode(errorVal); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}
}

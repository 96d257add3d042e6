// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"

	"github.com/absmach/cloudca/certs"
	"github.com/absmach/cloudca/pkg/apiutil"
	"github.com/absmach/cloudca/pkg/errors"
	"github.com/go-kit/kit/endpoint"
)

func nameEndpoint(svc certs.Service) endpoint.Endpoint {
	return func(_ context.Context, _ interface{}) (interface{}, error) {
		return svc.CloudCommonName(), nil
	}
}

func signEndpoint(svc certs.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(signReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		res, err := svc.SignCertificate(ctx, certs.SigningRequest{
			EncodedCSR:  req.EncodedCSR,
			ValidAfter:  req.ValidAfter,
			ValidBefore: req.ValidBefore,
		}, req.requester)
		if err != nil {
			return nil, err
		}

		return signRes{
			ID:               res.ID,
			CertificateChain: res.CertificateChain,
		}, nil
	}
}

func checkCertificateEndpoint(svc certs.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(checkCertReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		res, err := svc.CheckCertificate(ctx, certs.CheckRequest{
			ID:                 req.ID,
			EncodedCertificate: req.EncodedCertificate,
		})
		if err != nil {
			return nil, err
		}

		ret := checkCertRes{
			CommonName:   res.CommonName,
			SerialNumber: res.SerialNumber,
			Status:       res.Status,
		}
		if !res.ValidFrom.IsZero() {
			ret.ValidFrom = &res.ValidFrom
		}

		return ret, nil
	}
}

func listCertificatesEndpoint(svc certs.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(listReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		page, err := svc.ListCertificates(ctx, req.requester, certs.PageMetadata{
			Offset: req.offset,
			Limit:  req.limit,
		})
		if err != nil {
			return nil, err
		}

		res := certsPageRes{
			pageRes: pageRes{
				Total:  page.Total,
				Offset: page.Offset,
				Limit:  page.Limit,
			},
			Certificates: []certificateRes{},
		}
		for _, c := range page.Certificates {
			res.Certificates = append(res.Certificates, toCertificateRes(c))
		}

		return res, nil
	}
}

func revokeCertificateEndpoint(svc certs.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(entityReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		if err := svc.RevokeCertificate(ctx, req.requester, req.id); err != nil {
			return nil, err
		}

		return removeRes{}, nil
	}
}

func checkTrustedKeyEndpoint(svc certs.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(checkKeyReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		res, err := svc.CheckTrustedKey(ctx, certs.TrustedKeyCheckRequest{PublicKey: req.PublicKey})
		if err != nil {
			return nil, err
		}

		return checkKeyRes{
			ID:          res.ID,
			CreatedAt:   res.CreatedAt,
			Description: res.Description,
		}, nil
	}
}

func addTrustedKeyEndpoint(svc certs.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(addKeyReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		key, err := svc.AddTrustedKey(ctx, req.requester, certs.AddTrustedKeyRequest{
			PublicKey:   req.PublicKey,
			Description: req.Description,
			ValidAfter:  req.ValidAfter,
			ValidBefore: req.ValidBefore,
		})
		if err != nil {
			return nil, err
		}

		res := toKeyRes(key)
		res.created = true

		return res, nil
	}
}

func listTrustedKeysEndpoint(svc certs.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(listReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		page, err := svc.ListTrustedKeys(ctx, req.requester, certs.PageMetadata{
			Offset: req.offset,
			Limit:  req.limit,
		})
		if err != nil {
			return nil, err
		}

		res := keysPageRes{
			pageRes: pageRes{
				Total:  page.Total,
				Offset: page.Offset,
				Limit:  page.Limit,
			},
			Keys: []keyRes{},
		}
		for _, k := range page.Keys {
			res.Keys = append(res.Keys, toKeyRes(k))
		}

		return res, nil
	}
}

func deleteTrustedKeyEndpoint(svc certs.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(entityReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		if err := svc.DeleteTrustedKey(ctx, req.requester, req.id); err != nil {
			return nil, err
		}

		return removeRes{}, nil
	}
}

// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package api_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/absmach/cloudca/certs"
	httpapi "github.com/absmach/cloudca/certs/api"
	"github.com/absmach/cloudca/certs/mocks"
	"github.com/absmach/cloudca/internal/testsutil"
	"github.com/absmach/cloudca/logger"
	"github.com/absmach/cloudca/pkg/apiutil"
	"github.com/absmach/cloudca/pkg/errors"
	repoerr "github.com/absmach/cloudca/pkg/errors/repository"
	svcerr "github.com/absmach/cloudca/pkg/errors/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	contentType = "application/json"
	instanceID  = "5de9b29a-feb9-11ed-be56-0242ac120002"
	requester   = "onboarding.testcloud2.aitia.arrowhead.eu"
	deviceCN    = "device01.testcloud2.aitia.arrowhead.eu"
	baseURL     = "/certificate-authority"
)

type testRequest struct {
	client      *http.Client
	method      string
	url         string
	contentType string
	requester   string
	body        io.Reader
}

func (tr testRequest) make() (*http.Response, error) {
	req, err := http.NewRequest(tr.method, tr.url, tr.body)
	if err != nil {
		return nil, err
	}
	if tr.requester != "" {
		req.Header.Set(apiutil.RequesterHeader, tr.requester)
	}
	if tr.contentType != "" {
		req.Header.Set("Content-Type", tr.contentType)
	}
	return tr.client.Do(req)
}

func newServer(trustHeader bool) (*httptest.Server, *mocks.Service) {
	svc := new(mocks.Service)
	mux := httpapi.MakeHandler(svc, logger.NewMock(), instanceID, trustHeader)
	return httptest.NewServer(mux), svc
}

func toJSON(data interface{}) string {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	return string(jsonData)
}

type errorRes struct {
	Err string `json:"error"`
	Msg string `json:"message"`
}

func TestCloudCommonName(t *testing.T) {
	ss, svc := newServer(false)
	defer ss.Close()

	svcCall := svc.On("CloudCommonName").Return(testsutil.CloudCommonName)
	defer svcCall.Unset()

	req := testRequest{
		client: ss.Client(),
		method: http.MethodGet,
		url:    ss.URL + baseURL + "/name",
	}
	res, err := req.make()
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.Nil(t, err, fmt.Sprintf("read body unexpected error: %s", err))
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, testsutil.CloudCommonName, string(body))
	assert.True(t, strings.HasPrefix(res.Header.Get("Content-Type"), "text/plain"))
}

func TestSignCertificate(t *testing.T) {
	ss, svc := newServer(true)
	defer ss.Close()

	chain := []string{"bGVhZg==", "Y2xvdWQ=", "cm9vdA=="}
	after := time.Now().UTC().Truncate(time.Second)
	before := after.Add(time.Hour)

	cases := []struct {
		desc        string
		body        string
		contentType string
		requester   string
		svcRes      certs.SigningResponse
		svcErr      error
		status      int
		err         error
	}{
		{
			desc:        "sign certificate",
			body:        toJSON(map[string]string{"encodedCSR": "Y3Ny"}),
			contentType: contentType,
			requester:   requester,
			svcRes:      certs.SigningResponse{ID: 12, CertificateChain: chain},
			status:      http.StatusOK,
		},
		{
			desc:        "sign certificate with explicit validity",
			body:        toJSON(map[string]interface{}{"encodedCSR": "Y3Ny", "validAfter": after, "validBefore": before}),
			contentType: contentType,
			requester:   requester,
			svcRes:      certs.SigningResponse{ID: 13, CertificateChain: chain},
			status:      http.StatusOK,
		},
		{
			desc:        "sign certificate without requester",
			body:        toJSON(map[string]string{"encodedCSR": "Y3Ny"}),
			contentType: contentType,
			status:      http.StatusUnauthorized,
			err:         apiutil.ErrMissingRequester,
		},
		{
			desc:        "sign certificate with empty csr",
			body:        toJSON(map[string]string{"encodedCSR": ""}),
			contentType: contentType,
			requester:   requester,
			status:      http.StatusBadRequest,
			err:         apiutil.ErrMissingCSR,
		},
		{
			desc:        "sign certificate with inverted validity",
			body:        toJSON(map[string]interface{}{"encodedCSR": "Y3Ny", "validAfter": before, "validBefore": after}),
			contentType: contentType,
			requester:   requester,
			status:      http.StatusBadRequest,
			err:         apiutil.ErrInvalidValidity,
		},
		{
			desc:        "sign certificate with invalid content type",
			body:        toJSON(map[string]string{"encodedCSR": "Y3Ny"}),
			contentType: "text/plain",
			requester:   requester,
			status:      http.StatusUnsupportedMediaType,
			err:         apiutil.ErrUnsupportedContentType,
		},
		{
			desc:        "sign certificate with malformed body",
			body:        "{",
			contentType: contentType,
			requester:   requester,
			status:      http.StatusBadRequest,
			err:         errors.ErrMalformedEntity,
		},
		{
			desc:        "sign certificate for protected name",
			body:        toJSON(map[string]string{"encodedCSR": "Y3Ny"}),
			contentType: contentType,
			requester:   requester,
			svcErr:      certs.ErrInvalidInput,
			status:      http.StatusBadRequest,
			err:         certs.ErrInvalidInput,
		},
		{
			desc:        "sign malformed csr",
			body:        toJSON(map[string]string{"encodedCSR": "Z2FyYmFnZQ=="}),
			contentType: contentType,
			requester:   requester,
			svcErr:      certs.ErrMalformedPayload,
			status:      http.StatusBadRequest,
			err:         certs.ErrMalformedPayload,
		},
		{
			desc:        "sign certificate with store failure",
			body:        toJSON(map[string]string{"encodedCSR": "Y3Ny"}),
			contentType: contentType,
			requester:   requester,
			svcErr:      errors.Wrap(certs.ErrFailedCertCreation, repoerr.ErrMalformedEntity),
			status:      http.StatusInternalServerError,
			err:         certs.ErrFailedCertCreation,
		},
	}

	for _, tc := range cases {
		svcCall := svc.On("SignCertificate", mock.Anything, mock.Anything, tc.requester).Return(tc.svcRes, tc.svcErr)
		req := testRequest{
			client:      ss.Client(),
			method:      http.MethodPost,
			url:         ss.URL + baseURL + "/sign",
			contentType: tc.contentType,
			requester:   tc.requester,
			body:        strings.NewReader(tc.body),
		}
		res, err := req.make()
		require.Nil(t, err, fmt.Sprintf("%s: unexpected error %s", tc.desc, err))
		assert.Equal(t, tc.status, res.StatusCode, fmt.Sprintf("%s: expected status code %d got %d", tc.desc, tc.status, res.StatusCode))

		if tc.err == nil {
			var body struct {
				ID               int64    `json:"id"`
				CertificateChain []string `json:"certificateChain"`
			}
			err = json.NewDecoder(res.Body).Decode(&body)
			assert.Nil(t, err, fmt.Sprintf("%s: decode body unexpected error: %s", tc.desc, err))
			assert.Equal(t, tc.svcRes.ID, body.ID, fmt.Sprintf("%s: unexpected id", tc.desc))
			assert.Equal(t, chain, body.CertificateChain, fmt.Sprintf("%s: unexpected chain", tc.desc))
		} else {
			var body errorRes
			err = json.NewDecoder(res.Body).Decode(&body)
			assert.Nil(t, err, fmt.Sprintf("%s: decode body unexpected error: %s", tc.desc, err))
			assert.True(t, body.Err == tc.err.Error() || body.Msg == tc.err.Error(), fmt.Sprintf("%s: expected %s in %v", tc.desc, tc.err, body))
		}
		res.Body.Close()
		svcCall.Unset()
	}
}

func TestSignCertificateForwardsValidity(t *testing.T) {
	ss, svc := newServer(true)
	defer ss.Close()

	after := time.Date(2024, time.May, 2, 8, 0, 0, 0, time.UTC)
	before := after.Add(24 * time.Hour)
	svcCall := svc.On("SignCertificate", mock.Anything, mock.MatchedBy(func(req certs.SigningRequest) bool {
		return req.EncodedCSR == "Y3Ny" && req.ValidAfter != nil && req.ValidAfter.Equal(after) && req.ValidBefore != nil && req.ValidBefore.Equal(before)
	}), requester).Return(certs.SigningResponse{ID: 1}, nil)
	defer svcCall.Unset()

	req := testRequest{
		client:      ss.Client(),
		method:      http.MethodPost,
		url:         ss.URL + baseURL + "/sign",
		contentType: contentType,
		requester:   requester,
		body:        strings.NewReader(toJSON(map[string]interface{}{"encodedCSR": "Y3Ny", "validAfter": after, "validBefore": before})),
	}
	res, err := req.make()
	require.Nil(t, err, fmt.Sprintf("unexpected error %s", err))
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestSignCertificateUntrustedHeader(t *testing.T) {
	ss, svc := newServer(false)
	defer ss.Close()

	req := testRequest{
		client:      ss.Client(),
		method:      http.MethodPost,
		url:         ss.URL + baseURL + "/sign",
		contentType: contentType,
		requester:   requester,
		body:        strings.NewReader(toJSON(map[string]string{"encodedCSR": "Y3Ny"})),
	}
	res, err := req.make()
	require.Nil(t, err, fmt.Sprintf("unexpected error %s", err))
	defer res.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	svc.AssertNotCalled(t, "SignCertificate", mock.Anything, mock.Anything, mock.Anything)
}

func newClientCertificate(t *testing.T, cn string) (*x509.CertPool, tls.Certificate) {
	caKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.Nil(t, err, fmt.Sprintf("generate key unexpected error: %s", err))
	caTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "clients"},
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	caDER, err := x509.CreateCertificate(rand.Reader, caTmpl, caTmpl, &caKey.PublicKey, caKey)
	require.Nil(t, err, fmt.Sprintf("create certificate unexpected error: %s", err))
	ca, err := x509.ParseCertificate(caDER)
	require.Nil(t, err, fmt.Sprintf("parse certificate unexpected error: %s", err))

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.Nil(t, err, fmt.Sprintf("generate key unexpected error: %s", err))
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, ca, &key.PublicKey, caKey)
	require.Nil(t, err, fmt.Sprintf("create certificate unexpected error: %s", err))

	pool := x509.NewCertPool()
	pool.AddCert(ca)

	return pool, tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}
}

func TestSignCertificateClientCertificate(t *testing.T) {
	pool, clientCert := newClientCertificate(t, requester)

	cases := []struct {
		desc   string
		tls    *tls.Config
		status int
		called bool
	}{
		{
			desc:   "sign with verified client certificate",
			tls:    &tls.Config{ClientAuth: tls.VerifyClientCertIfGiven, ClientCAs: pool},
			status: http.StatusOK,
			called: true,
		},
		{
			desc:   "sign with unverified client certificate",
			tls:    &tls.Config{ClientAuth: tls.RequestClientCert},
			status: http.StatusUnauthorized,
		},
	}

	for _, tc := range cases {
		svc := new(mocks.Service)
		ss := httptest.NewUnstartedServer(httpapi.MakeHandler(svc, logger.NewMock(), instanceID, false))
		ss.TLS = tc.tls
		ss.StartTLS()

		client := ss.Client()
		client.Transport.(*http.Transport).TLSClientConfig.Certificates = []tls.Certificate{clientCert}

		svcCall := svc.On("SignCertificate", mock.Anything, mock.Anything, requester).Return(certs.SigningResponse{ID: 3}, nil)
		req := testRequest{
			client:      client,
			method:      http.MethodPost,
			url:         ss.URL + baseURL + "/sign",
			contentType: contentType,
			body:        strings.NewReader(toJSON(map[string]string{"encodedCSR": "Y3Ny"})),
		}
		res, err := req.make()
		require.Nil(t, err, fmt.Sprintf("%s: unexpected error %s", tc.desc, err))
		res.Body.Close()

		assert.Equal(t, tc.status, res.StatusCode, fmt.Sprintf("%s: expected status code %d got %d", tc.desc, tc.status, res.StatusCode))
		if tc.called {
			svc.AssertCalled(t, "SignCertificate", mock.Anything, mock.Anything, requester)
		} else {
			svc.AssertNotCalled(t, "SignCertificate", mock.Anything, mock.Anything, mock.Anything)
		}
		svcCall.Unset()
		ss.Close()
	}
}

func TestCheckCertificate(t *testing.T) {
	ss, svc := newServer(false)
	defer ss.Close()

	validFrom := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		desc   string
		body   string
		svcRes certs.CheckResponse
		svcErr error
		status int
		res    string
	}{
		{
			desc:   "check known certificate",
			body:   toJSON(map[string]interface{}{"id": 1, "encodedCertificate": "Y2VydA=="}),
			svcRes: certs.CheckResponse{CommonName: deviceCN, SerialNumber: big.NewInt(4242), Status: certs.StatusGood, ValidFrom: validFrom},
			status: http.StatusOK,
			res:    `{"commonName":"device01.testcloud2.aitia.arrowhead.eu","serialNumber":4242,"status":"good","validFrom":"2024-03-01T10:00:00Z"}`,
		},
		{
			desc:   "check unknown certificate",
			body:   toJSON(map[string]interface{}{"encodedCertificate": "Y2VydA=="}),
			svcRes: certs.CheckResponse{CommonName: deviceCN, SerialNumber: big.NewInt(0), Status: certs.StatusUnknown},
			status: http.StatusOK,
			res:    `{"commonName":"device01.testcloud2.aitia.arrowhead.eu","serialNumber":0,"status":"unknown"}`,
		},
		{
			desc:   "check missing certificate",
			body:   toJSON(map[string]interface{}{"id": 1}),
			status: http.StatusBadRequest,
		},
		{
			desc:   "check PEM certificate",
			body:   toJSON(map[string]interface{}{"encodedCertificate": "-----BEGIN CERTIFICATE-----"}),
			svcErr: certs.ErrInvalidInput,
			status: http.StatusBadRequest,
		},
		{
			desc:   "check certificate with store failure",
			body:   toJSON(map[string]interface{}{"encodedCertificate": "Y2VydA=="}),
			svcErr: errors.Wrap(certs.ErrFailedCertCheck, repoerr.ErrUnavailable),
			status: http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		svcCall := svc.On("CheckCertificate", mock.Anything, mock.Anything).Return(tc.svcRes, tc.svcErr)
		req := testRequest{
			client:      ss.Client(),
			method:      http.MethodPost,
			url:         ss.URL + baseURL + "/checkCertificate",
			contentType: contentType,
			body:        strings.NewReader(tc.body),
		}
		res, err := req.make()
		require.Nil(t, err, fmt.Sprintf("%s: unexpected error %s", tc.desc, err))
		body, err := io.ReadAll(res.Body)
		require.Nil(t, err, fmt.Sprintf("%s: read body unexpected error %s", tc.desc, err))
		res.Body.Close()

		assert.Equal(t, tc.status, res.StatusCode, fmt.Sprintf("%s: expected status code %d got %d", tc.desc, tc.status, res.StatusCode))
		if tc.res != "" {
			assert.JSONEq(t, tc.res, string(body), fmt.Sprintf("%s: unexpected body", tc.desc))
		}
		svcCall.Unset()
	}
}

func TestCheckTrustedKey(t *testing.T) {
	ss, svc := newServer(false)
	defer ss.Close()

	createdAt := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		desc   string
		body   string
		svcRes certs.TrustedKeyCheckResponse
		svcErr error
		status int
	}{
		{
			desc:   "check registered key",
			body:   toJSON(map[string]string{"publicKey": "a2V5"}),
			svcRes: certs.TrustedKeyCheckResponse{ID: 4, CreatedAt: createdAt, Description: "gateway"},
			status: http.StatusOK,
		},
		{
			desc:   "check unknown key",
			body:   toJSON(map[string]string{"publicKey": "a2V5"}),
			svcErr: errors.Wrap(svcerr.ErrNotFound, repoerr.ErrNotFound),
			status: http.StatusNotFound,
		},
		{
			desc:   "check empty key",
			body:   toJSON(map[string]string{"publicKey": ""}),
			status: http.StatusBadRequest,
		},
	}

	for _, tc := range cases {
		svcCall := svc.On("CheckTrustedKey", mock.Anything, certs.TrustedKeyCheckRequest{PublicKey: "a2V5"}).Return(tc.svcRes, tc.svcErr)
		req := testRequest{
			client:      ss.Client(),
			method:      http.MethodPost,
			url:         ss.URL + baseURL + "/checkTrustedKey",
			contentType: contentType,
			body:        strings.NewReader(tc.body),
		}
		res, err := req.make()
		require.Nil(t, err, fmt.Sprintf("%s: unexpected error %s", tc.desc, err))
		assert.Equal(t, tc.status, res.StatusCode, fmt.Sprintf("%s: expected status code %d got %d", tc.desc, tc.status, res.StatusCode))
		if tc.status == http.StatusOK {
			var body struct {
				ID          int64     `json:"id"`
				CreatedAt   time.Time `json:"createdAt"`
				Description string    `json:"description"`
			}
			err = json.NewDecoder(res.Body).Decode(&body)
			assert.Nil(t, err, fmt.Sprintf("%s: decode body unexpected error: %s", tc.desc, err))
			assert.Equal(t, int64(4), body.ID)
			assert.True(t, createdAt.Equal(body.CreatedAt))
			assert.Equal(t, "gateway", body.Description)
		}
		res.Body.Close()
		svcCall.Unset()
	}
}

func TestListCertificates(t *testing.T) {
	ss, svc := newServer(true)
	defer ss.Close()

	page := certs.CertificatesPage{
		PageMetadata: certs.PageMetadata{Total: 1, Offset: 0, Limit: 10},
		Certificates: []certs.Certificate{{ID: 1, CommonName: deviceCN, Serial: big.NewInt(99), Status: certs.StatusGood, RequestedBy: requester}},
	}

	cases := []struct {
		desc      string
		query     string
		requester string
		pm        certs.PageMetadata
		svcErr    error
		status    int
	}{
		{
			desc:      "list certificates with default paging",
			requester: testsutil.SysopCommonName,
			pm:        certs.PageMetadata{Offset: 0, Limit: 10},
			status:    http.StatusOK,
		},
		{
			desc:      "list certificates with explicit paging",
			query:     "?offset=5&limit=20",
			requester: testsutil.SysopCommonName,
			pm:        certs.PageMetadata{Offset: 5, Limit: 20},
			status:    http.StatusOK,
		},
		{
			desc:      "list certificates as regular system",
			requester: requester,
			pm:        certs.PageMetadata{Offset: 0, Limit: 10},
			svcErr:    svcerr.ErrAuthorization,
			status:    http.StatusForbidden,
		},
		{
			desc:      "list certificates without requester",
			status:    http.StatusUnauthorized,
		},
		{
			desc:      "list certificates with limit above maximum",
			query:     "?limit=1000",
			requester: testsutil.SysopCommonName,
			status:    http.StatusBadRequest,
		},
		{
			desc:      "list certificates with invalid offset",
			query:     "?offset=minus",
			requester: testsutil.SysopCommonName,
			status:    http.StatusBadRequest,
		},
	}

	for _, tc := range cases {
		svcCall := svc.On("ListCertificates", mock.Anything, tc.requester, tc.pm).Return(page, tc.svcErr)
		req := testRequest{
			client:    ss.Client(),
			method:    http.MethodGet,
			url:       ss.URL + baseURL + "/mgmt/certificates" + tc.query,
			requester: tc.requester,
		}
		res, err := req.make()
		require.Nil(t, err, fmt.Sprintf("%s: unexpected error %s", tc.desc, err))
		assert.Equal(t, tc.status, res.StatusCode, fmt.Sprintf("%s: expected status code %d got %d", tc.desc, tc.status, res.StatusCode))
		if tc.status == http.StatusOK {
			var body struct {
				Total        uint64 `json:"total"`
				Certificates []struct {
					CommonName   string   `json:"commonName"`
					SerialNumber *big.Int `json:"serialNumber"`
					RequestedBy  string   `json:"requestedBy"`
				} `json:"certificates"`
			}
			err = json.NewDecoder(res.Body).Decode(&body)
			assert.Nil(t, err, fmt.Sprintf("%s: decode body unexpected error: %s", tc.desc, err))
			assert.Equal(t, uint64(1), body.Total)
			require.Len(t, body.Certificates, 1)
			assert.Equal(t, deviceCN, body.Certificates[0].CommonName)
			assert.Equal(t, int64(99), body.Certificates[0].SerialNumber.Int64())
			assert.Equal(t, requester, body.Certificates[0].RequestedBy)
		}
		res.Body.Close()
		svcCall.Unset()
	}
}

func TestRevokeCertificate(t *testing.T) {
	ss, svc := newServer(true)
	defer ss.Close()

	cases := []struct {
		desc   string
		id     string
		svcErr error
		status int
	}{
		{
			desc:   "revoke certificate",
			id:     "7",
			status: http.StatusNoContent,
		},
		{
			desc:   "revoke missing certificate",
			id:     "7",
			svcErr: svcerr.ErrNotFound,
			status: http.StatusNotFound,
		},
		{
			desc:   "revoke foreign certificate",
			id:     "7",
			svcErr: svcerr.ErrAuthorization,
			status: http.StatusForbidden,
		},
		{
			desc:   "revoke certificate with invalid id",
			id:     "seven",
			status: http.StatusBadRequest,
		},
		{
			desc:   "revoke certificate with negative id",
			id:     "-7",
			status: http.StatusBadRequest,
		},
	}

	for _, tc := range cases {
		svcCall := svc.On("RevokeCertificate", mock.Anything, requester, int64(7)).Return(tc.svcErr)
		req := testRequest{
			client:    ss.Client(),
			method:    http.MethodDelete,
			url:       fmt.Sprintf("%s%s/mgmt/certificates/%s", ss.URL, baseURL, tc.id),
			requester: requester,
		}
		res, err := req.make()
		require.Nil(t, err, fmt.Sprintf("%s: unexpected error %s", tc.desc, err))
		assert.Equal(t, tc.status, res.StatusCode, fmt.Sprintf("%s: expected status code %d got %d", tc.desc, tc.status, res.StatusCode))
		res.Body.Close()
		svcCall.Unset()
	}
}

func TestAddTrustedKey(t *testing.T) {
	ss, svc := newServer(true)
	defer ss.Close()

	now := time.Now().UTC().Truncate(time.Second)
	valid := toJSON(map[string]interface{}{"publicKey": "a2V5", "description": "gateway", "validAfter": now, "validBefore": now.Add(time.Hour)})
	inverted := toJSON(map[string]interface{}{"publicKey": "a2V5", "validAfter": now.Add(time.Hour), "validBefore": now})
	saved := certs.TrustedKey{ID: 2, PublicKey: "a2V5", Hash: "abcd", Description: "gateway", ValidAfter: now, ValidBefore: now.Add(time.Hour)}

	cases := []struct {
		desc        string
		body        string
		contentType string
		svcErr      error
		status      int
	}{
		{
			desc:        "add trusted key",
			body:        valid,
			contentType: contentType,
			status:      http.StatusCreated,
		},
		{
			desc:        "add duplicate trusted key",
			body:        valid,
			contentType: contentType,
			svcErr:      errors.Wrap(svcerr.ErrConflict, repoerr.ErrConflict),
			status:      http.StatusConflict,
		},
		{
			desc:        "add trusted key as regular system",
			body:        valid,
			contentType: contentType,
			svcErr:      svcerr.ErrAuthorization,
			status:      http.StatusForbidden,
		},
		{
			desc:        "add trusted key with inverted window",
			body:        inverted,
			contentType: contentType,
			status:      http.StatusBadRequest,
		},
		{
			desc:        "add trusted key without content type",
			body:        valid,
			status:      http.StatusUnsupportedMediaType,
		},
	}

	for _, tc := range cases {
		svcCall := svc.On("AddTrustedKey", mock.Anything, testsutil.SysopCommonName, mock.Anything).Return(saved, tc.svcErr)
		req := testRequest{
			client:      ss.Client(),
			method:      http.MethodPut,
			url:         ss.URL + baseURL + "/mgmt/keys",
			contentType: tc.contentType,
			requester:   testsutil.SysopCommonName,
			body:        strings.NewReader(tc.body),
		}
		res, err := req.make()
		require.Nil(t, err, fmt.Sprintf("%s: unexpected error %s", tc.desc, err))
		assert.Equal(t, tc.status, res.StatusCode, fmt.Sprintf("%s: expected status code %d got %d", tc.desc, tc.status, res.StatusCode))
		if tc.status == http.StatusCreated {
			var body struct {
				ID   int64  `json:"id"`
				Hash string `json:"hash"`
			}
			err = json.NewDecoder(res.Body).Decode(&body)
			assert.Nil(t, err, fmt.Sprintf("%s: decode body unexpected error: %s", tc.desc, err))
			assert.Equal(t, int64(2), body.ID)
			assert.Equal(t, "abcd", body.Hash)
		}
		res.Body.Close()
		svcCall.Unset()
	}
}

func TestListTrustedKeys(t *testing.T) {
	ss, svc := newServer(true)
	defer ss.Close()

	page := certs.TrustedKeysPage{
		PageMetadata: certs.PageMetadata{Total: 2, Limit: 10},
		Keys:         []certs.TrustedKey{{ID: 1, Description: "a"}, {ID: 2, Description: "b"}},
	}
	svcCall := svc.On("ListTrustedKeys", mock.Anything, testsutil.SysopCommonName, certs.PageMetadata{Limit: 10}).Return(page, nil)
	defer svcCall.Unset()

	req := testRequest{
		client:    ss.Client(),
		method:    http.MethodGet,
		url:       ss.URL + baseURL + "/mgmt/keys",
		requester: testsutil.SysopCommonName,
	}
	res, err := req.make()
	require.Nil(t, err, fmt.Sprintf("unexpected error %s", err))
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	var body struct {
		Total uint64 `json:"total"`
		Keys  []struct {
			ID int64 `json:"id"`
		} `json:"keys"`
	}
	err = json.NewDecoder(res.Body).Decode(&body)
	assert.Nil(t, err, fmt.Sprintf("decode body unexpected error: %s", err))
	assert.Equal(t, uint64(2), body.Total)
	assert.Len(t, body.Keys, 2)
}

func TestDeleteTrustedKey(t *testing.T) {
	ss, svc := newServer(true)
	defer ss.Close()

	cases := []struct {
		desc   string
		svcErr error
		status int
	}{
		{
			desc:   "delete trusted key",
			status: http.StatusNoContent,
		},
		{
			desc:   "delete missing trusted key",
			svcErr: svcerr.ErrNotFound,
			status: http.StatusNotFound,
		},
		{
			desc:   "delete trusted key with store failure",
			svcErr: errors.Wrap(svcerr.ErrRemoveEntity, repoerr.ErrUnavailable),
			status: http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		svcCall := svc.On("DeleteTrustedKey", mock.Anything, testsutil.SysopCommonName, int64(3)).Return(tc.svcErr)
		req := testRequest{
			client:    ss.Client(),
			method:    http.MethodDelete,
			url:       ss.URL + baseURL + "/mgmt/keys/3",
			requester: testsutil.SysopCommonName,
		}
		res, err := req.make()
		require.Nil(t, err, fmt.Sprintf("%s: unexpected error %s", tc.desc, err))
		assert.Equal(t, tc.status, res.StatusCode, fmt.Sprintf("%s: expected status code %d got %d", tc.desc, tc.status, res.StatusCode))
		res.Body.Close()
		svcCall.Unset()
	}
}

func TestHealth(t *testing.T) {
	ss, _ := newServer(false)
	defer ss.Close()

	req := testRequest{
		client: ss.Client(),
		method: http.MethodGet,
		url:    ss.URL + "/health",
	}
	res, err := req.make()
	require.Nil(t, err, fmt.Sprintf("unexpected error %s", err))
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
}

// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package apiutil

import (
	"net/http"
	"strings"
)

// RequesterHeader carries the requester common name when TLS is terminated
// by a gateway in front of the service.
const RequesterHeader = "X-Requester-Common-Name"

// ExtractRequester returns the common name of the verified TLS peer. Peer
// certificates that were not verified against the client CAs are ignored.
// When no verified peer is present and trustHeader is set, RequesterHeader
// is used. An empty value is returned when neither source is available.
func ExtractRequester(r *http.Request, trustHeader bool) string {
	if r.TLS != nil {
		if chains := r.TLS.VerifiedChains; len(chains) > 0 && len(chains[0]) > 0 {
			return chains[0][0].Subject.CommonName
		}
	}
	if !trustHeader {
		return ""
	}

	return strings.TrimSpace(r.Header.Get(RequesterHeader))
}

// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package certs

import (
	"sort"
	"strings"
)

// DefaultProtectedNames are the system labels reserved under every cloud.
var DefaultProtectedNames = []string{"sysop"}

// Policy decides which common names a requester may obtain.
// Names are compared case-insensitively.
type Policy struct {
	protected map[string]struct{}
}

// NewPolicy reserves label.cloudCommonName for each of labels.
func NewPolicy(labels []string, cloudCommonName string) Policy {
	p := Policy{protected: make(map[string]struct{}, len(labels))}
	for _, label := range labels {
		label = strings.Trim(strings.TrimSpace(label), ".")
		if label == "" {
			continue
		}
		p.protected[normalize(label+"."+cloudCommonName)] = struct{}{}
	}

	return p
}

// IsProtected reports whether name is reserved.
func (p Policy) IsProtected(name string) bool {
	_, ok := p.protected[normalize(name)]
	return ok
}

// Allows reports whether requester may obtain a certificate for requested.
// A protected name may only be issued to itself.
func (p Policy) Allows(requested, requester string) bool {
	if !p.IsProtected(requested) {
		return true
	}

	return normalize(requested) == normalize(requester)
}

// IsOperator reports whether requester holds a protected identity.
func (p Policy) IsOperator(requester string) bool {
	return p.IsProtected(requester)
}

// ProtectedNames returns the reserved names in lexical order.
func (p Policy) ProtectedNames() []string {
	names := make([]string, 0, len(p.protected))
	for name := range p.protected {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package certs

import (
	"crypto/rand"
	"math/big"
)

const (
	serialBits        = 127
	maxSerialAttempts = 3
)

var serialLimit = new(big.Int).Lsh(big.NewInt(1), serialBits)

// NewSerial returns a positive random serial number of at most 127 bits,
// which keeps the DER encoding within the 20 octets RFC 5280 allows.
func NewSerial() (*big.Int, error) {
	for {
		serial, err := rand.Int(rand.Reader, serialLimit)
		if err != nil {
			return nil, err
		}
		if serial.Sign() > 0 {
			return serial, nil
		}
	}
}

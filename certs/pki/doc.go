// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package pki loads the root and cloud authority material from a PKCS#12
// container stored on disk or in a Vault KV v2 secret engine.
package pki

// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package postgres contains the PostgreSQL implementation of the issued
// certificate and trusted key stores.
package postgres

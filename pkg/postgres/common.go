// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package postgres

import "context"

// Total returns the total number of rows.
//
// For example:
//
//	total, err := Total(ctx, db, "SELECT COUNT(*) FROM certificates", nil)
func Total(ctx context.Context, db Database, query string, args ...interface{}) (uint64, error) {
	var total uint64
	if err := db.QueryRowxContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}

	return total, nil
}

// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package postgres

import migrate "github.com/rubenv/sql-migrate"

// Migration of the certificate authority service.
func Migration() *migrate.MemoryMigrationSource {
	return &migrate.MemoryMigrationSource{
		Migrations: []*migrate.Migration{
			{
				Id: "certs_01",
				Up: []string{
					`CREATE TABLE IF NOT EXISTS certificates (
                        id           BIGSERIAL PRIMARY KEY,
                        common_name  VARCHAR(255) NOT NULL,
                        serial       TEXT NOT NULL UNIQUE,
                        certificate  TEXT NOT NULL,
                        requested_by VARCHAR(255) NOT NULL,
                        valid_after  TIMESTAMPTZ NOT NULL,
                        valid_before TIMESTAMPTZ NOT NULL,
                        created_at   TIMESTAMPTZ NOT NULL,
                        updated_at   TIMESTAMPTZ NOT NULL,
                        revoked_at   TIMESTAMPTZ
                    )`,
					`CREATE INDEX IF NOT EXISTS certificates_common_name_idx ON certificates (common_name)`,
				},
				Down: []string{
					`DROP TABLE IF EXISTS certificates`,
				},
			},
			{
				Id: "certs_02",
				Up: []string{
					`CREATE TABLE IF NOT EXISTS trusted_keys (
                        id           BIGSERIAL PRIMARY KEY,
                        public_key   TEXT NOT NULL,
                        hash         VARCHAR(64) NOT NULL UNIQUE,
                        description  TEXT,
                        valid_after  TIMESTAMPTZ NOT NULL,
                        valid_before TIMESTAMPTZ NOT NULL,
                        created_at   TIMESTAMPTZ NOT NULL,
                        updated_at   TIMESTAMPTZ NOT NULL
                    )`,
				},
				Down: []string{
					`DROP TABLE IF EXISTS trusted_keys`,
				},
			},
		},
	}
}

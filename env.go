// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package cloudca

import "github.com/subosito/gotenv"

// LoadEnvFile loads environment variables defined in an .env formatted file.
// An empty path is a no-op. Variables already present in the environment win.
func LoadEnvFile(envfilepath string) error {
	if envfilepath == "" {
		return nil
	}
	return gotenv.Load(envfilepath)
}

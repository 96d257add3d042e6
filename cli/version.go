// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"github.com/absmach/cloudca"
	"github.com/spf13/cobra"
)

// NewVersionCmd returns version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print cactl version",
		Run: func(cmd *cobra.Command, args []string) {
			logJSONCmd(*cmd, map[string]string{"version": cloudca.Version})
		},
	}
}

// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package commands

import (
	"github.com/spf13/cobra"

	"github.com/tomtom215/zonevalue/internal/logging"
)

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			c.Security.APIKey = logging.SanitizeToken(c.Security.APIKey)
			c.Geocode.APIKey = logging.SanitizeToken(c.Geocode.APIKey)
			c.Cache.RedisPassword = logging.SanitizeToken(c.Cache.RedisPassword)
			return printJSON(cmd.OutOrStdout(), c)
		},
	}
}

// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package commands

import (
	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Prime the gateway and print session, breaker and cache state",
		Long: "status asks the gateway for credentials the way a first lookup would and\n" +
			"reports what came back. Cookie values are never printed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.Status(cmd.Context(), !offline)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), st)
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "skip the priming call")
	return cmd
}

// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomtom215/zonevalue/internal/api"
	"github.com/tomtom215/zonevalue/internal/models"
)

// errLookupFailed makes the process exit non-zero after the body is printed.
var errLookupFailed = errors.New("lookup failed")

func lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <lat> <lng>",
		Short: "Look up the zone at a WGS84 coordinate",
		Example: "  zonectl lookup 37.9838 23.7275\n" +
			"  zonectl lookup 37,9838 23,7275",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, err := parseCoordinate(args[0])
			if err != nil {
				return fmt.Errorf("lat: %w", err)
			}
			lng, err := parseCoordinate(args[1])
			if err != nil {
				return fmt.Errorf("lng: %w", err)
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			return render(cmd, a.Lookup.ByCoordinate(cmd.Context(), lat, lng))
		},
	}
}

func zipCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "zip <postal-code>",
		Short:   "Geocode a postal code and look up its zone",
		Example: "  zonectl zip 10681\n  zonectl zip \"106 81\"",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			return render(cmd, a.Lookup.ByPostalCode(cmd.Context(), args[0]))
		},
	}
}

// parseCoordinate accepts a decimal comma, as Greek users often type it.
func parseCoordinate(s string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(strings.TrimSpace(s), ",", ".", 1), 64)
}

// render prints the same body the HTTP API would return.
func render(cmd *cobra.Command, res models.Result) error {
	_, body := api.ResultBody(res)
	if err := printJSON(cmd.OutOrStdout(), body); err != nil {
		return err
	}
	if !res.Success() {
		return errLookupFailed
	}
	return nil
}

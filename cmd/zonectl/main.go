// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

// Command zonectl runs one-off zone lookups against the live upstream using
// the same configuration and components as the server.
//
//	zonectl lookup 37.9838 23.7275
//	zonectl zip 10681
//	zonectl status
//	zonectl config
//	zonectl serve
package main

import (
	"fmt"
	"os"

	"github.com/tomtom215/zonevalue/cmd/zonectl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

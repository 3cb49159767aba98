// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package services

import (
	"context"
	"fmt"
	"io"

	"github.com/tomtom215/zonevalue/internal/logging"
)

// CloserService ties a resource's lifetime to the supervisor: it idles until
// shutdown and then closes the resource. Used for the outcome cache so badger
// flushes and redis connections drain before exit.
type CloserService struct {
	closer io.Closer
	name   string
}

// NewCloserService wraps closer under name.
func NewCloserService(name string, closer io.Closer) *CloserService {
	return &CloserService{closer: closer, name: name}
}

// Serve implements suture.Service.
func (c *CloserService) Serve(ctx context.Context) error {
	<-ctx.Done()

	if err := c.closer.Close(); err != nil {
		return fmt.Errorf("%s close failed: %w", c.name, err)
	}
	logging.Info().Str("service", c.name).Msg("Closed")
	return ctx.Err()
}

// String implements fmt.Stringer.
func (c *CloserService) String() string {
	return c.name
}

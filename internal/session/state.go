// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package session

import (
	"maps"
	"net/http"
	"sort"
	"strings"
	"time"
)

// State is the gateway credential jar plus the time it was last acquired.
// It lives only in process memory.
type State struct {
	Cookies    map[string]string
	AcquiredAt time.Time
}

// Empty reports whether the state holds no credentials.
func (s State) Empty() bool {
	return len(s.Cookies) == 0
}

// clone returns a copy whose cookie map is not shared.
func (s State) clone() State {
	return State{Cookies: maps.Clone(s.Cookies), AcquiredAt: s.AcquiredAt}
}

// CookieHeader renders the jar as a Cookie header value in name order.
func (s State) CookieHeader() string {
	if s.Empty() {
		return ""
	}
	names := make([]string, 0, len(s.Cookies))
	for name := range s.Cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(s.Cookies[name])
	}
	return b.String()
}

// Apply attaches the credentials to req. An empty state leaves req untouched.
func (s State) Apply(req *http.Request) {
	if header := s.CookieHeader(); header != "" {
		req.Header.Set("Cookie", header)
	}
}

// merge overlays issued credentials on top of existing ones.
// Same-named credentials are overwritten and unrelated ones are kept.
func merge(existing, issued map[string]string) map[string]string {
	out := make(map[string]string, len(existing)+len(issued))
	maps.Copy(out, existing)
	maps.Copy(out, issued)
	return out
}

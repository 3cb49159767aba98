// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package logging

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// SanitizeToken masks a credential, showing only the first and last 4 characters.
// Example: "AGWSESSIONabcdef0123" -> "AGWS...0123"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

var sensitiveKeys = map[string]bool{
	"token":         true,
	"password":      true,
	"secret":        true,
	"api_key":       true,
	"apikey":        true,
	"key":           true,
	"authorization": true,
	"cookie":        true,
	"set-cookie":    true,
	"session":       true,
	"session_id":    true,
	"sessionid":     true,
	"jsessionid":    true,
}

// SanitizeValue masks value when key names a credential.
func SanitizeValue(key, value string) string {
	if sensitiveKeys[strings.ToLower(key)] {
		return SanitizeToken(value)
	}
	return value
}

// CookieDict renders a cookie jar as a zerolog dictionary with every value
// masked. Names are kept so operators can see which credentials the gateway
// issued.
func CookieDict(cookies map[string]string) *zerolog.Event {
	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	dict := zerolog.Dict()
	for _, name := range names {
		dict = dict.Str(name, SanitizeToken(cookies[name]))
	}
	return dict
}

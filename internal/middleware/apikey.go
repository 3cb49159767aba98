// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/tomtom215/zonevalue/internal/logging"
)

// APIKeyHeader carries the client access key.
const APIKeyHeader = "X-API-Key"

// APIKey rejects requests that do not present key in the X-API-Key header
// or the "key" query parameter. An empty key disables the gate.
// onReject writes the rejection body.
func APIKey(key string, onReject http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		expected := []byte(key)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(APIKeyHeader)
			if presented == "" {
				presented = r.URL.Query().Get("key")
			}
			if subtle.ConstantTimeCompare([]byte(presented), expected) != 1 {
				logging.CtxWarn(r.Context()).
					Str("path", r.URL.Path).
					Str("remote_addr", r.RemoteAddr).
					Bool("key_present", presented != "").
					Msg("Rejected request with invalid API key")
				onReject(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

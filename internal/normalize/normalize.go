// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

// Package normalize maps the upstream's heterogeneous zone attributes onto
// models.ZoneResult. It performs no I/O.
//
// The same semantic field appears under different attribute names depending
// on the dataset and query style, so each field is resolved from an ordered
// list of candidate names. For each candidate an exact key match is tried
// before a case-insensitive one, and the first present, non-null value wins.
package normalize

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/zonevalue/internal/config"
	"github.com/tomtom215/zonevalue/internal/models"
)

// Record-set keys by query style.
const (
	featuresKey = "features"
	resultsKey  = "results"
)

// Fields holds the ordered candidate names for each semantic attribute.
type Fields struct {
	Value    []string
	ZoneID   []string
	ZoneName []string
}

// DefaultFields returns the built-in candidate lists.
func DefaultFields() Fields {
	return Fields{
		Value:    []string{"TIMH", "TIMH_ZONIS", "ZONE_PRICE", "PRICE", "VALUE"},
		ZoneID:   []string{"ZONEREGISTRYID", "ZONE_REGISTRY_ID", "ZONEID", "ZONE_ID", "OBJECTID"},
		ZoneName: []string{"ZONENAME", "ZONE_NAME", "ONOMA", "NAME"},
	}
}

// FieldsFromConfig applies configured overrides on top of DefaultFields.
func FieldsFromConfig(cfg config.NormalizeConfig) Fields {
	f := DefaultFields()
	if len(cfg.ValueFields) > 0 {
		f.Value = cfg.ValueFields
	}
	if len(cfg.ZoneIDFields) > 0 {
		f.ZoneID = cfg.ZoneIDFields
	}
	if len(cfg.ZoneNameFields) > 0 {
		f.ZoneName = cfg.ZoneNameFields
	}
	return f
}

// Normalizer converts upstream payloads into ZoneResults.
type Normalizer struct {
	fields Fields
}

// New creates a Normalizer with the given candidate lists.
func New(fields Fields) *Normalizer {
	return &Normalizer{fields: fields}
}

var defaultNormalizer = New(DefaultFields())

// Normalize uses the built-in candidate lists.
func Normalize(payload map[string]interface{}, style string) models.ZoneResult {
	return defaultNormalizer.Normalize(payload, style)
}

// Normalize extracts the first matching record of payload. style is
// "identify" for results[] payloads and anything else for features[].
// A payload without any attribute record is the only failure.
func (n *Normalizer) Normalize(payload map[string]interface{}, style string) models.ZoneResult {
	attrs, ok := firstAttributes(payload, style)
	if !ok {
		return models.ZoneFailure(models.ErrNoAttributes)
	}

	var value *float64
	if raw, ok := pick(attrs, n.fields.Value, parseNumber); ok {
		v := raw.(float64)
		value = &v
	}
	var zoneID, zoneName *string
	if raw, ok := pick(attrs, n.fields.ZoneID, parseText); ok {
		s := raw.(string)
		zoneID = &s
	}
	if raw, ok := pick(attrs, n.fields.ZoneName, parseText); ok {
		s := raw.(string)
		zoneName = &s
	}
	return models.ZoneSuccess(value, zoneID, zoneName)
}

func firstAttributes(payload map[string]interface{}, style string) (map[string]interface{}, bool) {
	keys := []string{featuresKey, resultsKey}
	if style == "identify" {
		keys = []string{resultsKey, featuresKey}
	}
	for _, key := range keys {
		records, ok := payload[key].([]interface{})
		if !ok {
			continue
		}
		for _, rec := range records {
			m, ok := rec.(map[string]interface{})
			if !ok {
				continue
			}
			if attrs, ok := m["attributes"].(map[string]interface{}); ok {
				return attrs, true
			}
		}
	}
	return nil, false
}

// pick walks candidates in order and returns the first value that parse accepts.
func pick(attrs map[string]interface{}, candidates []string, parse func(interface{}) (interface{}, bool)) (interface{}, bool) {
	var keys []string
	for _, name := range candidates {
		if raw, ok := attrs[name]; ok {
			if v, ok := parse(raw); ok {
				return v, true
			}
		}
		if keys == nil {
			keys = sortedKeys(attrs)
		}
		for _, key := range keys {
			if key == name || !strings.EqualFold(key, name) {
				continue
			}
			if v, ok := parse(attrs[key]); ok {
				return v, true
			}
		}
	}
	return nil, false
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func parseNumber(raw interface{}) (interface{}, bool) {
	switch v := raw.(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		return parseNumericString(v)
	default:
		return nil, false
	}
}

// groupedThousands matches dot-grouped integers such as "12.000" or "1.234.567".
var groupedThousands = regexp.MustCompile(`^-?\d{1,3}(\.\d{3})+$`)

// parseNumericString accepts "3500", "3500.5", "3500,5", "1.234,56" and the
// Greek thousands form "3.500". A dot followed by exactly three digits and no
// decimal comma is a group separator.
func parseNumericString(s string) (interface{}, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "€"))
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return nil, false
	}
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
		}
		s = strings.ReplaceAll(s, ",", ".")
	} else if groupedThousands.MatchString(s) {
		s = strings.ReplaceAll(s, ".", "")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, false
	}
	return f, true
}

func parseText(raw interface{}) (interface{}, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, false
	case string:
		s := strings.TrimSpace(v)
		return s, s != ""
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return fmt.Sprint(v), true
	}
}

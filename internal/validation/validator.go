// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

// Package validation provides struct validation using go-playground/validator v10.
// It provides a thread-safe singleton validator with the custom rules lookup
// queries need and translates failures into short human-readable messages.
//
// Custom tags:
//   - finite: float is neither NaN nor ±Inf
//   - postalcode: exactly five digits once non-digits are stripped
//
// Field names in messages come from the json struct tag, so errors refer to
// "lat" rather than "Lat".
//
// Example usage:
//
//	type lookupRequest struct {
//	    Lat *float64 `json:"lat" validate:"required,finite,latitude"`
//	    Lng *float64 `json:"lng" validate:"required,finite,longitude"`
//	}
//
//	if err := validation.ValidateStruct(&req); err != nil {
//	    respondError(w, http.StatusBadRequest, err.Error())
//	}
package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// PostalCodeDigits is the length of a Greek postal code.
const PostalCodeDigits = 5

// singleton validator instance
var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is one failing field with a readable message.
type FieldError struct {
	Field   string
	Message string
}

// RequestValidationError collects every failing field of a request.
type RequestValidationError struct {
	errors []FieldError
}

// Fields returns the names of the failing fields, json names where present.
func (ve *RequestValidationError) Fields() []string {
	fields := make([]string, len(ve.errors))
	for i := range ve.errors {
		fields[i] = ve.errors[i].Field
	}
	return fields
}

// Error joins the field messages.
func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	messages := make([]string, 0, len(ve.errors))
	for _, fe := range ve.errors {
		messages = append(messages, fe.Message)
	}
	return strings.Join(messages, "; ")
}

// GetValidator returns the singleton validator instance.
// This function is thread-safe.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})

		// Registration only fails for empty tags or nil funcs.
		_ = validate.RegisterValidation("finite", validateFinite)
		_ = validate.RegisterValidation("postalcode", validatePostalCode)
	})

	return validate
}

// ValidateStruct validates a struct using the singleton validator.
// Returns nil if validation passes, or *RequestValidationError if validation fails.
func ValidateStruct(s interface{}) *RequestValidationError {
	v := GetValidator()

	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &RequestValidationError{errors: []FieldError{{Field: "unknown", Message: err.Error()}}}
	}

	fieldErrors := make([]FieldError, len(validationErrs))
	for i, fe := range validationErrs {
		fieldErrors[i] = FieldError{Field: fe.Field(), Message: translateError(fe)}
	}

	return &RequestValidationError{errors: fieldErrors}
}

// DigitsOnly strips everything except ASCII digits.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePostalCode returns the digits of s when there are exactly five.
func NormalizePostalCode(s string) (string, bool) {
	digits := DigitsOnly(s)
	return digits, len(digits) == PostalCodeDigits
}

func validateFinite(fl validator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.Float32, reflect.Float64:
		f := field.Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	default:
		return true
	}
}

func validatePostalCode(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	_, ok := NormalizePostalCode(fl.Field().String())
	return ok
}

// errorMessageTemplates maps validation tags to message templates.
var errorMessageTemplates = map[string]string{
	"required":   "%s is required",
	"finite":     "%s must be a finite number",
	"latitude":   "%s must be a valid latitude (-90 to 90)",
	"longitude":  "%s must be a valid longitude (-180 to 180)",
	"postalcode": "%s must contain exactly 5 digits",
}

func translateError(fe validator.FieldError) string {
	field := fe.Field()
	tag := fe.Tag()

	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}
	return fmt.Sprintf("%s failed %s validation", field, tag)
}

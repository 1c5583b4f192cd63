// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared by the process; it caches struct
// metadata, so configuration sections and evaluation options are validated
// through ValidateStruct rather than through ad hoc validator.New calls.
//
//	type Options struct {
//	    Split string `validate:"oneof=loo ratio"`
//	    K     int    `validate:"gte=1"`
//	}
//
//	if err := validation.ValidateStruct(&opts); err != nil {
//	    return fmt.Errorf("invalid options: %w", err)
//	}
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ValidationError describes one field that failed validation.
type ValidationError struct {
	namespace string
	tag       string
	param     string
	value     interface{}
	message   string
}

// Field returns the namespaced field name, e.g. "Config.Recommend.AlphaMax".
func (e *ValidationError) Field() string {
	return e.namespace
}

// Tag returns the validation tag that failed.
func (e *ValidationError) Tag() string {
	return e.tag
}

// Param returns the tag parameter (e.g. "1" for "gte=1").
func (e *ValidationError) Param() string {
	return e.param
}

// Value returns the offending value.
func (e *ValidationError) Value() interface{} {
	return e.value
}

func (e *ValidationError) Error() string {
	return e.message
}

// StructValidationError collects every field error of one ValidateStruct call.
type StructValidationError struct {
	errors []ValidationError
}

// Errors returns the individual field errors.
func (ve *StructValidationError) Errors() []ValidationError {
	return ve.errors
}

func (ve *StructValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	messages := make([]string, 0, len(ve.errors))
	for i := range ve.errors {
		messages = append(messages, ve.errors[i].Error())
	}
	return strings.Join(messages, "; ")
}

// GetValidator returns the process-wide validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateStruct validates s and returns nil or a *StructValidationError.
//
// The return type is the concrete pointer so callers can inspect field
// errors; compare against nil before converting to error.
func ValidateStruct(s interface{}) *StructValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &StructValidationError{errors: []ValidationError{{
			namespace: "unknown",
			tag:       "unknown",
			message:   err.Error(),
		}}}
	}

	out := make([]ValidationError, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = ValidationError{
			namespace: trimRoot(fe.Namespace()),
			tag:       fe.Tag(),
			param:     fe.Param(),
			value:     fe.Value(),
			message:   translateError(fe),
		}
	}
	return &StructValidationError{errors: out}
}

// trimRoot drops the top-level struct name so messages read
// "Recommend.AlphaMax" instead of "Config.Recommend.AlphaMax".
func trimRoot(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

var errorMessageTemplates = map[string]string{
	"required": "%s is required",
}

var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s, got %v",
	"gte":   "%s must be greater than or equal to %s, got %v",
	"lte":   "%s must be less than or equal to %s, got %v",
	"gt":    "%s must be greater than %s, got %v",
	"lt":    "%s must be less than %s, got %v",
	"min":   "%s must be at least %s, got %v",
	"max":   "%s must be at most %s, got %v",
}

func translateError(fe validator.FieldError) string {
	field := trimRoot(fe.Namespace())
	if tmpl, ok := errorMessageTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	if tmpl, ok := errorMessageWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field, fe.Param(), fe.Value())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}

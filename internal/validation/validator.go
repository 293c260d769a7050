// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

// Package validation checks decoded request bodies (export requests,
// policy replacements, alert rule sets) with go-playground/validator.
//
// Failures name fields by their JSON key, so a client sees "indexPattern"
// rather than the Go field name:
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    ...
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const codeValidation = "VALIDATION_ERROR"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the shared validator. It caches struct metadata,
// so every caller uses the same instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonFieldName)
		// Only an empty tag or a nil func can fail here.
		_ = v.RegisterValidation("indexpattern", func(fl validator.FieldLevel) bool {
			return IsValidIndexPattern(fl.Field().String())
		})
		validate = v
	})
	return validate
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	}
	return name
}

// IsValidIndexPattern reports whether p is a comma-separated list of
// index names, each optionally containing * wildcards. Characters the
// engine rejects in index names, and anything that could escape the
// request path, are refused.
func IsValidIndexPattern(p string) bool {
	if p == "" || len(p) > 1024 {
		return false
	}
	for _, name := range strings.Split(p, ",") {
		switch name {
		case "", ".", "..":
			return false
		}
		if strings.ContainsAny(name, "\\/\"<>|? #") {
			return false
		}
	}
	return true
}

// ValidationError is one failed constraint on one field.
type ValidationError struct {
	field   string
	tag     string
	param   string
	value   interface{}
	message string
}

func (e *ValidationError) Field() string      { return e.field }
func (e *ValidationError) Tag() string        { return e.tag }
func (e *ValidationError) Param() string      { return e.param }
func (e *ValidationError) Value() interface{} { return e.value }
func (e *ValidationError) Error() string      { return e.message }

// RequestValidationError collects every failed constraint of a request.
type RequestValidationError struct {
	errors []ValidationError
}

// Errors returns the individual field failures.
func (ve *RequestValidationError) Errors() []ValidationError {
	return ve.errors
}

func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(ve.errors))
	for i := range ve.errors {
		msgs[i] = ve.errors[i].message
	}
	return strings.Join(msgs, "; ")
}

// APIError is the envelope error shape. It is duplicated from models to
// keep this package free of imports.
type APIError struct {
	Code    string
	Message string
	Details map[string]interface{}
}

// ToAPIError renders the failures as a VALIDATION_ERROR. A single failure
// keeps its plain message; several are prefixed with their field names.
func (ve *RequestValidationError) ToAPIError() *APIError {
	switch len(ve.errors) {
	case 0:
		return &APIError{Code: codeValidation, Message: "Validation failed"}
	case 1:
		e := ve.errors[0]
		return &APIError{
			Code:    codeValidation,
			Message: e.message,
			Details: map[string]interface{}{"field": e.field, "tag": e.tag, "value": e.value},
		}
	}

	fields := make([]map[string]interface{}, 0, len(ve.errors))
	msgs := make([]string, 0, len(ve.errors))
	for _, e := range ve.errors {
		fields = append(fields, map[string]interface{}{"field": e.field, "tag": e.tag, "message": e.message})
		msgs = append(msgs, e.field+": "+e.message)
	}
	return &APIError{
		Code:    codeValidation,
		Message: strings.Join(msgs, "; "),
		Details: map[string]interface{}{"fields": fields},
	}
}

// ValidateStruct validates s and returns nil when every constraint holds.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// InvalidValidationError: s was nil or not a struct.
		return &RequestValidationError{errors: []ValidationError{{
			field:   "unknown",
			tag:     "unknown",
			message: err.Error(),
		}}}
	}

	out := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			field:   fe.Field(),
			tag:     fe.Tag(),
			param:   fe.Param(),
			value:   fe.Value(),
			message: describe(fe),
		})
	}
	return &RequestValidationError{errors: out}
}

// describe turns a failed tag into a sentence about the field.
func describe(fe validator.FieldError) string {
	f, p := fe.Field(), fe.Param()
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}

	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "email":
		return f + " must be a valid email address"
	case "datetime":
		return f + " must be a valid date/time in RFC3339 format"
	case "indexpattern":
		return f + " must be a valid index pattern"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", f, p)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", f, p)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", f, p)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", f, p)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", f, p)
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", f, p, unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", f, p, unit)
	case "unique":
		return f + " must not contain duplicates"
	case "dive":
		return f + " contains an invalid entry"
	}
	return fmt.Sprintf("%s failed %s validation", f, fe.Tag())
}

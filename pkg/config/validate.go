// sam9boot
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of sam9boot.
//
// sam9boot is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// sam9boot is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with sam9boot.  If not, see <http://www.gnu.org/licenses/>.

package config

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DevicePrefix is the path prefix required of serial devices on unix.
const DevicePrefix = "/dev/"

// ValidationError wraps validation failures with formatted messages.
type ValidationError struct {
	Fields []FieldError
}

// FieldError represents a single field validation failure.
type FieldError struct {
	Value   any
	Field   string
	Tag     string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, fe := range e.Fields {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

func newValidationError(errs validator.ValidationErrors) *ValidationError {
	ve := &ValidationError{
		Fields: make([]FieldError, len(errs)),
	}
	for i, fe := range errs {
		ve.Fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Value:   fe.Value(),
			Message: formatFieldError(fe),
		}
	}
	return ve
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their command line flag when they have one.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("flag"); name != "" {
			return "-" + name
		}
		if name, _, _ := strings.Cut(f.Tag.Get("toml"), ","); name != "" {
			return name
		}
		return strings.ToLower(f.Name)
	})

	_ = v.RegisterValidation("devpath", validateDevicePath)
	_ = v.RegisterValidation("duration", validateDuration)
	v.RegisterStructValidation(validateRunFlags, Run{})

	return v
}

var defaultValidator = newValidator()

// Validate checks a settings or run struct and returns a *ValidationError
// describing every failed rule.
func Validate(s any) error {
	if err := defaultValidator.Struct(s); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return newValidationError(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// validateDevicePath checks the serial device lives under /dev/. Windows
// port names are not checked.
func validateDevicePath(fl validator.FieldLevel) bool {
	if runtime.GOOS == "windows" {
		return true
	}
	return strings.HasPrefix(fl.Field().String(), DevicePrefix)
}

// validateDuration checks if string is a valid positive Go duration.
func validateDuration(fl validator.FieldLevel) bool {
	d, err := time.ParseDuration(fl.Field().String())
	return err == nil && d > 0
}

func formatFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "devpath":
		return fmt.Sprintf("invalid parameter '%s=%v', device must be under %s", field, fe.Value(), DevicePrefix)
	case "duration":
		return fmt.Sprintf("%s must be a positive duration (e.g. 4ms), got %q", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "url":
		return field + " must be a valid URL"
	case tagExclusive:
		return fmt.Sprintf("parameters '%s' and '%s' may not both be specified", field, fe.Param())
	case tagRequiresFile:
		return fmt.Sprintf("parameter '%s' requires '-f'", field)
	case tagRequiresCount:
		return fmt.Sprintf("parameter '%s' requires '-n'", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

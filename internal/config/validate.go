package config

import (
	"fmt"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ValidationError represents a Setupfile validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the Setupfile for valid values.
func Validate(s *Setupfile) error {
	var errors []string

	if err := validateURL("payload_url", s.PayloadURL); err != nil {
		errors = append(errors, err.Error())
	}

	if err := validateURL("bundle_url", s.BundleURL); err != nil {
		errors = append(errors, err.Error())
	}

	if s.Telemetry.IsEnabled() {
		if err := validateURL("telemetry.host", s.Telemetry.Host); err != nil {
			errors = append(errors, err.Error())
		}
		if strings.TrimSpace(s.Telemetry.AppKey) == "" {
			errors = append(errors, ValidationError{
				Field:   "telemetry.app_key",
				Message: "app key is required when telemetry is enabled",
			}.Error())
		}
	}

	if _, err := log.ParseLevel(s.Log.Level); err != nil {
		errors = append(errors, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s'", s.Log.Level),
		}.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func validateURL(field, raw string) error {
	if raw == "" {
		return ValidationError{Field: field, Message: "URL is required"}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ValidationError{Field: field, Message: fmt.Sprintf("invalid URL: %v", err)}
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return ValidationError{Field: field, Message: fmt.Sprintf("unsupported scheme '%s' (must be http or https)", u.Scheme)}
	}

	if u.Host == "" {
		return ValidationError{Field: field, Message: "URL must be absolute"}
	}

	return nil
}

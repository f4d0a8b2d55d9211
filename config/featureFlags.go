package config

import (
	"os"
	"strings"
)

// StrictPhoneValidation rejects party and broker mobile numbers that are not
// valid for PhoneRegion. When off, any non-empty value is stored as typed.
//
// Set via env:
// - STRICT_PHONE_VALIDATION=true
func StrictPhoneValidation() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STRICT_PHONE_VALIDATION")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// PhoneRegion is the default region used to parse numbers without a country prefix.
//
// Set via env:
// - PHONE_REGION=IN
func PhoneRegion() string {
	v := strings.ToUpper(strings.TrimSpace(os.Getenv("PHONE_REGION")))
	if v == "" {
		return "IN"
	}
	return v
}

// SkipMigrations disables AutoMigrate on server startup.
//
// Set via env:
// - SKIP_MIGRATIONS=true
func SkipMigrations() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true")
}

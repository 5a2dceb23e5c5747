package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

var keyPattern = regexp.MustCompile(`^[a-zA-Z0-9._:/-]+$`)

// ConfigEntry is a tenant-scoped configuration value.
type ConfigEntry struct {
	TenantID  string
	Key       string
	Value     json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c ConfigEntry) Validate() error {
	if err := ValidateKey(c.TenantID); err != nil {
		return err
	}
	if err := ValidateKey(c.Key); err != nil {
		return err
	}
	if !json.Valid(c.Value) {
		return fmt.Errorf("%w: value must be valid json", ErrInvalidValue)
	}
	return nil
}

func ValidateKey(key string) error {
	if key == "" || len(key) > 255 || !keyPattern.MatchString(key) {
		return ErrInvalidKey
	}
	return nil
}

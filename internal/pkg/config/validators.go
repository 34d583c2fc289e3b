// internal/pkg/config/validators.go
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrMissingRequiredConfig marks a required setting that was not provided
var ErrMissingRequiredConfig = errors.New("missing required configuration")

// Validator checks one aspect of a loaded configuration
type Validator interface {
	Validate(cfg *Config) error
}

// BasicValidator performs basic configuration validation
type BasicValidator struct{}

// Validate performs basic validation
func (v *BasicValidator) Validate(cfg *Config) error {
	if err := requiredFields(reflect.ValueOf(cfg).Elem(), ""); err != nil {
		return err
	}

	if cfg.Database.MaxConnections < cfg.Database.MinConnections {
		return fmt.Errorf("database max_connections must be >= min_connections")
	}
	if cfg.Redis.PoolSize <= 0 {
		return fmt.Errorf("redis pool_size must be positive")
	}
	if cfg.Security.RateLimitRequests <= 0 {
		return fmt.Errorf("rate_limit_requests must be positive")
	}

	if cfg.Sync.DefaultPageSize <= 0 {
		return fmt.Errorf("sync default_page_size must be positive")
	}
	if cfg.Sync.MaxPageSize < cfg.Sync.DefaultPageSize {
		return fmt.Errorf("sync max_page_size must be >= default_page_size")
	}
	if cfg.Sync.AuditQueueSize <= 0 {
		return fmt.Errorf("sync audit_queue_size must be positive")
	}
	if cfg.Sync.ImportBatchSize <= 0 {
		return fmt.Errorf("sync import_batch_size must be positive")
	}
	if cfg.Sync.AuditRetention < 0 {
		return fmt.Errorf("sync audit_retention cannot be negative")
	}

	return nil
}

// ProductionValidator performs strict validation for production environments
type ProductionValidator struct{}

// Validate performs production-specific validation
func (v *ProductionValidator) Validate(cfg *Config) error {
	if cfg.Database.Password == "" || strings.HasPrefix(cfg.Database.Password, "MISSING_") {
		return fmt.Errorf("%w: database password", ErrMissingRequiredConfig)
	}
	if cfg.Database.Password == "stockmirror_dev" {
		return fmt.Errorf("default database password cannot be used in production")
	}

	if cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("database SSL must be enabled in production")
	}

	if !cfg.Security.SecureHeaders {
		return fmt.Errorf("secure headers must be enabled in production")
	}

	for _, origin := range cfg.Security.AllowedOrigins {
		if origin == "*" {
			return fmt.Errorf("wildcard origin (*) not allowed in production")
		}
	}

	if cfg.Server.TLSEnabled {
		if cfg.Server.TLSCertFile == "" || cfg.Server.TLSKeyFile == "" {
			return fmt.Errorf("TLS cert and key files must be provided when TLS is enabled")
		}
	}

	return nil
}

// requiredFields walks v and reports the first string field tagged
// required:"true" that is empty or still holds a MISSING_ placeholder.
func requiredFields(v reflect.Value, prefix string) error {
	t := v.Type()
	for i := range v.NumField() {
		field, name := v.Field(i), prefix+t.Field(i).Name
		switch {
		case field.Kind() == reflect.Struct:
			if err := requiredFields(field, name+"."); err != nil {
				return err
			}
		case field.Kind() == reflect.String && t.Field(i).Tag.Get("required") == "true":
			if s := field.String(); s == "" || strings.HasPrefix(s, "MISSING_") {
				return fmt.Errorf("%w: %s", ErrMissingRequiredConfig, name)
			}
		}
	}
	return nil
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Load builds the configuration from the environment, filling unset
// variables from the default tags, and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := fill(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// fill walks the config sections and sets every field carrying an env tag.
func fill(v reflect.Value) error {
	t := v.Type()
	for i := range t.NumField() {
		f, fv := t.Field(i), v.Field(i)
		if f.Type.Kind() == reflect.Struct {
			if err := fill(fv); err != nil {
				return err
			}
			continue
		}

		name := f.Tag.Get("env")
		if name == "" {
			continue
		}
		raw := lookup(name, f.Tag.Get("envAlt"), f.Tag.Get("default"))
		if raw == "" {
			continue
		}
		if err := assign(fv, raw); err != nil {
			return fmt.Errorf("%s=%q: %w", name, raw, err)
		}
	}
	return nil
}

// lookup returns the first non-empty of the primary variable, the legacy
// alias and the default.
func lookup(name, alt, def string) string {
	if s := os.Getenv(name); s != "" {
		return s
	}
	if alt != "" {
		if s := os.Getenv(alt); s != "" {
			return s
		}
	}
	return def
}

// assign stores raw in a string or time.Duration field.
func assign(fv reflect.Value, raw string) error {
	switch {
	case fv.Type() == durationType:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		fv.SetInt(int64(d))
	case fv.Kind() == reflect.String:
		fv.SetString(raw)
	default:
		return fmt.Errorf("unsupported field type %s", fv.Type())
	}
	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	if c.API.BaseURL == "" {
		errs = append(errs, "CSVEDIT_BASE_URL is required")
	} else if u, err := url.Parse(c.API.BaseURL); err != nil {
		errs = append(errs, fmt.Sprintf("CSVEDIT_BASE_URL (%q) is not a valid URL: %v", c.API.BaseURL, err))
	} else if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Sprintf("CSVEDIT_BASE_URL (%q) must be an absolute http(s) URL", redactedURL(c.API.BaseURL)))
	}
	if c.API.RequestTimeout < 0 {
		errs = append(errs, "CSVEDIT_REQUEST_TIMEOUT must be non-negative")
	}
	if !strings.HasPrefix(c.API.RefreshPath, "/") {
		errs = append(errs, fmt.Sprintf("CSVEDIT_REFRESH_PATH (%q) must start with /", c.API.RefreshPath))
	}

	if strings.TrimSpace(c.Upload.FieldName) == "" {
		errs = append(errs, "CSVEDIT_UPLOAD_FIELD must not be blank")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// Credentials embedded in the base URL are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("API: {BaseURL: %q, RequestTimeout: %s, RefreshPath: %q}, ",
		redactedURL(c.API.BaseURL), c.API.RequestTimeout, c.API.RefreshPath))
	b.WriteString(fmt.Sprintf("Upload: {FieldName: %q}, ", c.Upload.FieldName))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}

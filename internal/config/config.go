// Package config provides centralized configuration for the csvedit client.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net/url"
	"time"
)

// Config holds all client configuration.
// All settings can be configured via environment variables.
type Config struct {
	API     APIConfig
	Upload  UploadConfig
	Logging LoggingConfig
}

// APIConfig holds settings for talking to the CSV server.
type APIConfig struct {
	// BaseURL is the root of the CSV server (default: http://localhost:8000)
	BaseURL string `env:"CSVEDIT_BASE_URL" envAlt:"API_URL" default:"http://localhost:8000"`

	// RequestTimeout bounds a single request; 0 waits indefinitely (default: 0s)
	RequestTimeout time.Duration `env:"CSVEDIT_REQUEST_TIMEOUT" default:"0s"`

	// UserAgent is sent on every request (default: csvedit)
	UserAgent string `env:"CSVEDIT_USER_AGENT" default:"csvedit"`

	// RefreshPath is fetched to rebuild view state after a change (default: /list/)
	RefreshPath string `env:"CSVEDIT_REFRESH_PATH" default:"/list/"`
}

// UploadConfig holds multipart upload settings.
type UploadConfig struct {
	// FieldName is the form field the file is sent under (default: csv_file)
	FieldName string `env:"CSVEDIT_UPLOAD_FIELD" default:"csv_file"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: warn)
	Level string `env:"LOG_LEVEL" default:"warn"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// redactedURL hides any password embedded in a URL.
func redactedURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[INVALID]"
	}
	return u.Redacted()
}

package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/conneroisu/contactbook/internal/logging"
)

var dangerousChars = []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}

// ValidationError names the offending setting.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return err
	}
	if config.Notifications.AutoClose <= 0 {
		return &ValidationError{
			Field:   "notifications.auto_close",
			Value:   config.Notifications.AutoClose,
			Message: "must be a positive duration",
		}
	}
	if config.Contacts.SeedFile != "" {
		if err := validatePath(config.Contacts.SeedFile); err != nil {
			return &ValidationError{Field: "contacts.seed_file", Value: config.Contacts.SeedFile, Message: err.Error()}
		}
	}
	return validateLogConfig(&config.Log)
}

func validateServerConfig(config *ServerConfig) error {
	// 0 asks the OS for a free port.
	if config.Port < 0 || config.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Value:   config.Port,
			Message: fmt.Sprintf("port %d is not in valid range 0-65535", config.Port),
		}
	}

	if strings.ContainsAny(config.Host, " \t\r\n") {
		return &ValidationError{Field: "server.host", Value: config.Host, Message: "host contains whitespace"}
	}
	for _, char := range dangerousChars {
		if strings.Contains(config.Host, char) {
			return &ValidationError{
				Field:   "server.host",
				Value:   config.Host,
				Message: "host contains dangerous character: " + char,
			}
		}
	}

	switch config.Environment {
	case "development", "production", "test":
	default:
		return &ValidationError{
			Field:   "server.environment",
			Value:   config.Environment,
			Message: "must be one of development, production, test",
		}
	}

	for _, origin := range config.AllowedOrigins {
		u, err := url.Parse(origin)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return &ValidationError{
				Field:   "server.allowed_origins",
				Value:   origin,
				Message: "origin must be an http or https URL such as https://contacts.example.com",
			}
		}
	}

	return nil
}

func validateLogConfig(config *LogConfig) error {
	if _, err := logging.ParseLevel(config.Level); err != nil {
		return &ValidationError{Field: "log.level", Value: config.Level, Message: err.Error()}
	}
	if config.Format != "text" && config.Format != "json" {
		return &ValidationError{Field: "log.format", Value: config.Format, Message: "must be text or json"}
	}
	return nil
}

// validatePath rejects traversal and shell metacharacters.
func validatePath(path string) error {
	cleanPath := filepath.Clean(path)

	for _, part := range strings.Split(filepath.ToSlash(cleanPath), "/") {
		if part == ".." {
			return fmt.Errorf("path contains traversal: %s", path)
		}
	}

	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}

// Package config reads all runtime settings from environment variables
// using viper, with local-development defaults.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// SMTP holds mail relay settings. Host and User are both required for the
// mailer to be considered configured; everything else has a usable default.
type SMTP struct {
	Host       string
	Port       int
	User       string
	Pass       string
	From       string
	SkipVerify bool
}

// Configured reports whether enough relay settings are present to attempt
// a real delivery.
func (s SMTP) Configured() bool {
	return s.Host != "" && s.User != ""
}

// FromAddress resolves the sender identity: an explicit override wins,
// then the authenticated user when it looks like an email address, then a
// fixed default.
func (s SMTP) FromAddress() string {
	if s.From != "" {
		return s.From
	}
	if strings.Contains(s.User, "@") {
		return s.User
	}
	return "no-reply@practicehub.app"
}

// Config is the full application configuration.
type Config struct {
	Port        string
	Environment string
	DBPath      string
	SMTP        SMTP
}

// Load builds a Config from the environment.
func Load() Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_PATH", "practicehub.db")
	v.SetDefault("SMTP_PORT", 587)

	return Config{
		Port:        v.GetString("PORT"),
		Environment: v.GetString("APP_ENV"),
		DBPath:      v.GetString("DB_PATH"),
		SMTP: SMTP{
			Host:       v.GetString("SMTP_HOST"),
			Port:       v.GetInt("SMTP_PORT"),
			User:       v.GetString("SMTP_USER"),
			Pass:       v.GetString("SMTP_PASS"),
			From:       v.GetString("SMTP_FROM"),
			SkipVerify: v.GetBool("SMTP_SKIP_VERIFY"),
		},
	}
}

// Package config provides environment-based configuration.
//
// Values come from environment variables (a .env file is loaded at startup
// in development). Required fields are validated at load time so a
// misconfigured deployment fails fast instead of at first request.
package config

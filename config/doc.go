// Package config loads the application configuration from config.yml and
// the environment. The Metlink API key is usually supplied via the
// METLINK_API_KEY environment variable (or a .env file) rather than the
// YAML file, so it stays out of version control.
package config

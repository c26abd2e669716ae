// Package config defines the application configuration structure and loading
// logic. Configuration is sourced from environment variables (DRAFTMILL_
// prefix) and an optional config.yaml file, with env vars taking precedence,
// and validated with struct tags before use.
package config

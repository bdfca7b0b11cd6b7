// Package config loads runtime configuration for the composer from multiple
// sources (YAML files, environment variables, CLI flags) with precedence:
// CLI flags > YAML config > Environment variables > Defaults. It exposes
// strongly typed settings to the CLI and the HTTP service.
package config

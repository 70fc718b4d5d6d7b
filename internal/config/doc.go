// Package config provides 12-factor configuration management for remconsd.
//
// Configuration is loaded in three layers, each overriding the last:
// built-in defaults, an optional TOML config file, and environment
// variables. CLI flags may override individual values on top.
//
// Configuration Sections:
//   - Listen: telnet listener settings (host, port)
//   - Admin: admin/metrics HTTP server settings
//   - Terminal: shell, geometry and service namespace for sessions
//   - Logging: log level and output format
//   - RateLimit: accept-loop rate limiting
//
// Environment Variables:
//   - REMCONS_LISTEN_HOST, REMCONS_LISTEN_PORT
//   - REMCONS_ADMIN_ENABLED, REMCONS_ADMIN_HOST, REMCONS_ADMIN_PORT
//   - REMCONS_SHELL, REMCONS_ROWS, REMCONS_COLS, REMCONS_NAMESPACE
//   - REMCONS_LOG_LEVEL, REMCONS_LOG_DEV
//   - REMCONS_RATE_LIMIT_RPS, REMCONS_RATE_LIMIT_BURST, REMCONS_RATE_LIMIT_ENABLED
package config

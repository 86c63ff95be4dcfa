// Package config loads, normalizes, and validates Courier configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and sanitizes agent and queue declarations.
// The Config type centralizes every knob the daemon and CLI need, from the
// control API bind address to per-agent queue topology and routing rules.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical queue names, and clear validation errors.
package config

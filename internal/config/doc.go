// Package config loads, normalizes, and validates spinefetch configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SPINEFETCH_USER_AGENT. The Config type centralizes every knob the download
// orchestrator and the manifest engine need, so neither reads process-wide
// state implicitly.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical priorities, and clear validation errors.
package config

// Package config loads, normalizes, and validates the phonogram TOML
// configuration file.
package config

// Package config loads, normalizes, and validates sipforge configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files from ~/.config/sipforge/config.toml or a
// project-local sipforge.toml. The Config type centralizes every knob the CLI
// needs: workspace and output directories, the series registry endpoint, and
// the e-depot upload target.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

// Package config loads, normalizes, and validates tubeq configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TUBEQ_PROXY and TUBEQ_COOKIES_FILE. The Config type centralizes every knob
// the download workflow and CLI need, so the download directory, retry
// budget, and engine options are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

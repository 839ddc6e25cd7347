// Package config loads, normalizes, and validates Slidecast configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SLIDECAST_LLM_API_KEY. The Config type centralizes every knob the daemon
// and CLI need: storage directories, transcription and generation service
// settings, export rendering, upload limits, and pipeline retry budgets.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

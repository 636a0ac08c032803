// Package config loads and merges revlens configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (REVLENS_PROVIDER, REVLENS_MODEL, REVLENS_FAIL_ON, etc.)
//  3. Config file ($XDG_CONFIG_HOME/revlens/config.json)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Save] to write a config file, and
// [SetField] to update a single key by its config-file name.
package config

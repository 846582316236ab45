// Package config loads, normalizes, and validates the TOML configuration used
// by the LinguaFlow server daemon.
//
// Load resolves the config path (explicit flag, then the default user config,
// then a project-local linguaflow.toml), applies defaults for missing values,
// expands ~ paths, and validates the result. A sample configuration document
// is embedded for "config init" style commands.
package config

// Package config loads the extraction layer's configuration from defaults,
// an optional YAML file, and SOUSCHEF_* environment overrides, in that
// order of precedence.
package config

// Package config loads and validates strand.yaml, the application-level
// configuration file. Missing files fall back to defaults; malformed
// files fail loudly with a registered error code.
package config

// Package config loads service settings from defaults, an optional YAML file,
// a .env file and REPORTD_* environment variables, and validates them before
// any component is constructed.
package config

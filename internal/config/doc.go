// Package config loads client configuration from YAML files.
//
// Files may reference environment variables with ${VAR} syntax; the
// session identifier in particular is expected to come from the
// environment rather than be committed to disk.
package config

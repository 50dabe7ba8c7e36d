// Package config builds the bootstrap configuration once at startup from
// multiple sources (YAML manifest, environment variables, CLI flags) with
// precedence: CLI flags > YAML manifest > Environment variables > Defaults.
// It also captures the environment snapshot that placeholders resolve from,
// so nothing downstream reads the process environment directly.
package config

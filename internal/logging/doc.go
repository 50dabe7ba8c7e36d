// Package logging configures the zap logger used during bootstrap.
package logging

// Package application wires configuration, rendering and the server hand-off.
// It keeps the main package focused on CLI parsing and exit handling.
package application

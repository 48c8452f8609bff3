// Package app wires configuration, sources, the line store and the
// analysis engines into one core, and drives the command-line entry point.
package app

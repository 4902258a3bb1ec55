// Package types defines the shared constants, configuration, and standard
// error types for the internal link annotation system: the annotation
// attribute key and its wire tag, the lookup URL placeholders, and the
// sentinel errors returned by commands and configuration validation.
package types

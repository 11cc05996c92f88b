// Package config defines the presence controller settings and provides
// helpers to load, validate and save them in YAML format.
//
// Validation collects every missing or malformed property into a single
// *Error so an operator can fix the file in one pass; the server refuses to
// accept triggers until the configuration is valid.
package config

// Package integration holds end-to-end tests that run the real server
// against an in-process SwitchBot API.
package integration

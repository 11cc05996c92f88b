// Package common holds helpers shared by the server and the trigger command.
//
// It provides a gRPC client for the presence service with per-call timeouts
// and detects the current system actor (hostname/username) sent along with
// every trigger.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

// Package state implements persistence for the cleaning schedule.
//
// The FileRepository stores the time of the last cleaning run as a protobuf
// JSON timestamp on disk, so a restart does not reopen the debounce window.
package state

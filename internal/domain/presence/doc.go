// Package presence contains the core domain types of the household presence
// model.
//
// It defines Member (one person of the fixed roster and where they are),
// Transition (the household-wide change derived after every event) and
// Snapshot (a point-in-time copy of the roster) with Clone helpers to avoid
// leaking internal references.
package presence

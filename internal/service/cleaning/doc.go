// Package cleaning implements the debounced robot-vacuum scheduler.
//
// A Scheduler starts the cleaning scene at most once per minimum interval and
// only when the vacuum reports online. The last run time is recorded before
// the scene call and may be persisted through a Store.
package cleaning

// Package automation routes presence triggers to scene sequences.
//
// The Dispatcher is the single boundary where failures become notifications:
// every error from a hook, a scene call or the cleaning scheduler is logged
// and handed to the notifier, and no trigger method returns an error.
//
// Member-specific behaviour is registered once at construction through Hooks,
// a table keyed by member name. A hook is any value implementing one of the
// ArrivalHook, DepartureHook or WorkplaceExitHook interfaces.
package automation

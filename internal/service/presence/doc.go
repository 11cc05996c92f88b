// Package presence implements the household presence tracker.
//
// The Tracker owns the fixed roster built from configuration, applies
// arrival and departure events, recounts the members at home after every
// event and classifies the result as a household-wide transition.
package presence

package presence

import "time"

// State is where a member currently is.
type State int

const (
	// AtHome means the member is inside the geofence.
	AtHome State = iota
	// Away means the member left the geofence.
	Away
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case AtHome:
		return "at_home"
	case Away:
		return "away"
	default:
		return "unknown"
	}
}

// Transition is a household-wide change derived from the AtHome count.
type Transition int

const (
	// NoTransition means the event did not produce an aggregate change.
	NoTransition Transition = iota
	// FirstArrival fires when exactly one member is home after an event.
	FirstArrival
	// LastDeparture fires when nobody is home after an event.
	LastDeparture
)

// String implements fmt.Stringer.
func (t Transition) String() string {
	switch t {
	case NoTransition:
		return "none"
	case FirstArrival:
		return "first_arrival"
	case LastDeparture:
		return "last_departure"
	default:
		return "unknown"
	}
}

// Member is one person of the fixed household roster.
type Member struct {
	// Name is the stable identifier triggers refer to.
	Name string
	// DisplayName is the human-readable name.
	DisplayName string
	// State is the current presence state.
	State State
	// UpdatedAt is when State was last written. Zero until the first event.
	UpdatedAt time.Time
}

// IsHome reports whether the member is AtHome.
func (m *Member) IsHome() bool {
	return m.State == AtHome
}

// Clone returns a copy of the member.
func (m *Member) Clone() *Member {
	if m == nil {
		return nil
	}

	cloned := *m

	return &cloned
}

// Snapshot is a point-in-time copy of the roster.
type Snapshot struct {
	// Members lists the roster in configuration order.
	Members []*Member
	// AtHome is the number of members currently home.
	AtHome int
	// TakenAt is when the snapshot was taken.
	TakenAt time.Time
}

// Total returns the roster size.
func (s *Snapshot) Total() int {
	return len(s.Members)
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}

	members := make([]*Member, 0, len(s.Members))
	for _, m := range s.Members {
		members = append(members, m.Clone())
	}

	return &Snapshot{
		Members: members,
		AtHome:  s.AtHome,
		TakenAt: s.TakenAt,
	}
}

// Event is an individual presence event.
type Event int

const (
	// Arrival moves a member to AtHome.
	Arrival Event = iota
	// Departure moves a member to Away.
	Departure
)

// String implements fmt.Stringer.
func (e Event) String() string {
	switch e {
	case Arrival:
		return "arrive"
	case Departure:
		return "depart"
	default:
		return "unknown"
	}
}

// Target returns the state the event moves a member to.
func (e Event) Target() State {
	if e == Departure {
		return Away
	}

	return AtHome
}

// Classify derives the aggregate transition from the AtHome count after an event.
// Arrivals can only yield FirstArrival and departures only LastDeparture.
// The count before the event is not consulted, so a repeated arrival while
// exactly one member is home fires FirstArrival again.
func Classify(event Event, atHome int) Transition {
	switch {
	case event == Arrival && atHome == 1:
		return FirstArrival
	case event == Departure && atHome == 0:
		return LastDeparture
	default:
		return NoTransition
	}
}

package presence

import (
	"sync"
	"time"

	domain "github.com/Pulsar1722/homeIoTServer/internal/domain/presence"
)

// Result describes the outcome of one applied event.
type Result struct {
	// Member is a copy of the member after the event.
	Member *domain.Member
	// AtHome is the number of members at home after the event.
	AtHome int
	// Total is the roster size.
	Total int
	// Transition is the household-wide change the event produced.
	Transition domain.Transition
	// Snapshot is the roster right after the event, taken under the same lock.
	Snapshot *domain.Snapshot
}

// Tracker holds the roster. It is safe for concurrent use.
type Tracker struct {
	// mu serializes mutation with the recount that follows it.
	mu sync.Mutex
	// members keeps configuration order.
	members []*domain.Member
	// index maps member names to roster entries.
	index map[string]*domain.Member
	// now stamps member updates.
	now func() time.Time
}

// Option configures the tracker.
type Option func(*Tracker)

// WithClock replaces the time source used to stamp updates.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// New builds a tracker over the given roster. Entries are copied;
// duplicate names keep the first occurrence.
func New(members []*domain.Member, opts ...Option) *Tracker {
	t := &Tracker{
		members: make([]*domain.Member, 0, len(members)),
		index:   make(map[string]*domain.Member, len(members)),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(t)
	}

	for _, m := range members {
		if m == nil {
			continue
		}

		if _, ok := t.index[m.Name]; ok {
			continue
		}

		cloned := m.Clone()
		t.members = append(t.members, cloned)
		t.index[cloned.Name] = cloned
	}

	return t
}

// Arrive marks the member as AtHome. It reports false for unknown names.
func (t *Tracker) Arrive(name string) (Result, bool) {
	return t.apply(name, domain.Arrival)
}

// Depart marks the member as Away. It reports false for unknown names.
func (t *Tracker) Depart(name string) (Result, bool) {
	return t.apply(name, domain.Departure)
}

// Has reports whether the name belongs to the roster.
func (t *Tracker) Has(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.index[name]

	return ok
}

// Snapshot returns a copy of the roster and the current count.
func (t *Tracker) Snapshot() *domain.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.snapshotLocked()
}

// snapshotLocked copies the roster. The caller must hold mu.
func (t *Tracker) snapshotLocked() *domain.Snapshot {
	snapshot := &domain.Snapshot{
		Members: make([]*domain.Member, 0, len(t.members)),
		AtHome:  t.countLocked(),
		TakenAt: t.now(),
	}

	for _, m := range t.members {
		snapshot.Members = append(snapshot.Members, m.Clone())
	}

	return snapshot
}

func (t *Tracker) apply(name string, event domain.Event) (Result, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	member, ok := t.index[name]
	if !ok {
		return Result{}, false
	}

	// Same-state events are applied again and recounted.
	member.State = event.Target()
	member.UpdatedAt = t.now()

	snapshot := t.snapshotLocked()

	return Result{
		Member:     member.Clone(),
		AtHome:     snapshot.AtHome,
		Total:      len(t.members),
		Transition: domain.Classify(event, snapshot.AtHome),
		Snapshot:   snapshot,
	}, true
}

// countLocked recounts members at home. The caller must hold mu.
func (t *Tracker) countLocked() int {
	count := 0

	for _, m := range t.members {
		if m.IsHome() {
			count++
		}
	}

	return count
}

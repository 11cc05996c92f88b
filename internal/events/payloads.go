package events

import (
	"encoding/json"
	"time"

	"github.com/Pulsar1722/homeIoTServer/internal/domain/presence"
)

// memberPayload is published on the presence topic.
type memberPayload struct {
	Member      string    `json:"member"`
	DisplayName string    `json:"display_name"`
	State       string    `json:"state"`
	Timestamp   time.Time `json:"timestamp"`
}

// householdPayload is published on the household topic.
type householdPayload struct {
	AtHome    int       `json:"at_home"`
	Total     int       `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

// transitionPayload is published on the event topics.
type transitionPayload struct {
	Transition string    `json:"transition"`
	Member     string    `json:"member"`
	AtHome     int       `json:"at_home"`
	Timestamp  time.Time `json:"timestamp"`
}

// statusPayload is published on the system status topic.
type statusPayload struct {
	Status    string    `json:"status"`
	ClientID  string    `json:"client_id"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func encodeMember(m *presence.Member, now time.Time) ([]byte, error) {
	return json.Marshal(memberPayload{
		Member:      m.Name,
		DisplayName: m.DisplayName,
		State:       m.State.String(),
		Timestamp:   now.UTC(),
	})
}

func encodeHousehold(s *presence.Snapshot, now time.Time) ([]byte, error) {
	return json.Marshal(householdPayload{
		AtHome:    s.AtHome,
		Total:     s.Total(),
		Timestamp: now.UTC(),
	})
}

func encodeTransition(t presence.Transition, member string, atHome int, now time.Time) ([]byte, error) {
	return json.Marshal(transitionPayload{
		Transition: t.String(),
		Member:     member,
		AtHome:     atHome,
		Timestamp:  now.UTC(),
	})
}

func encodeStatus(status, clientID, reason string, now time.Time) []byte {
	// Marshal of this struct cannot fail.
	data, _ := json.Marshal(statusPayload{
		Status:    status,
		ClientID:  clientID,
		Reason:    reason,
		Timestamp: now.UTC(),
	})

	return data
}

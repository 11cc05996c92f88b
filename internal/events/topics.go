package events

import (
	"strings"

	"github.com/Pulsar1722/homeIoTServer/internal/domain/presence"
)

// Topics builds topic names under a fixed prefix.
type Topics struct {
	prefix string
}

// NewTopics returns builders rooted at prefix. Trailing slashes are dropped.
func NewTopics(prefix string) Topics {
	return Topics{prefix: strings.TrimRight(prefix, "/")}
}

// Presence returns the retained state topic of one member.
//
// Example: homeiot/presence/Haruki
func (t Topics) Presence(member string) string {
	return t.prefix + "/presence/" + sanitizeLevel(member)
}

// Household returns the retained AtHome count topic.
func (t Topics) Household() string {
	return t.prefix + "/household"
}

// Event returns the topic of a household transition.
//
// Example: homeiot/events/last_departure
func (t Topics) Event(transition presence.Transition) string {
	return t.prefix + "/events/" + transition.String()
}

// SystemStatus returns the online/offline status topic.
func (t Topics) SystemStatus() string {
	return t.prefix + "/system/status"
}

// sanitizeLevel replaces characters that are not allowed inside one topic level.
func sanitizeLevel(level string) string {
	return strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(level)
}

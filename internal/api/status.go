// Package api holds representations shared by the HTTP and gRPC transports.
package api

import (
	"time"

	domain "github.com/Pulsar1722/homeIoTServer/internal/domain/presence"
)

// MemberView is the transport form of one member.
type MemberView struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	State       string `json:"state"`
	IsInHome    bool   `json:"is_in_home"`
	// UpdatedAt is RFC 3339, empty until the first event.
	UpdatedAt string `json:"updated_at,omitempty"`
}

// StatusView is the transport form of the household status.
type StatusView struct {
	Members []MemberView `json:"members"`
	AtHome  int          `json:"at_home"`
	Total   int          `json:"total"`
}

// NewStatusView converts a snapshot. A nil snapshot yields an empty view.
func NewStatusView(snapshot *domain.Snapshot) StatusView {
	view := StatusView{Members: []MemberView{}}
	if snapshot == nil {
		return view
	}

	for _, m := range snapshot.Members {
		mv := MemberView{
			Name:        m.Name,
			DisplayName: m.DisplayName,
			State:       m.State.String(),
			IsInHome:    m.IsHome(),
		}

		if !m.UpdatedAt.IsZero() {
			mv.UpdatedAt = m.UpdatedAt.UTC().Format(time.RFC3339)
		}

		view.Members = append(view.Members, mv)
	}

	view.AtHome = snapshot.AtHome
	view.Total = snapshot.Total()

	return view
}

// Map returns the view as JSON-compatible values, e.g. for structpb.NewStruct.
func (v StatusView) Map() map[string]any {
	members := make([]any, 0, len(v.Members))

	for _, m := range v.Members {
		member := map[string]any{
			"name":         m.Name,
			"display_name": m.DisplayName,
			"state":        m.State,
			"is_in_home":   m.IsInHome,
		}

		if m.UpdatedAt != "" {
			member["updated_at"] = m.UpdatedAt
		}

		members = append(members, member)
	}

	return map[string]any{
		"members": members,
		"at_home": v.AtHome,
		"total":   v.Total,
	}
}

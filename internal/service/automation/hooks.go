package automation

import (
	"context"
	"time"

	"github.com/Pulsar1722/homeIoTServer/internal/logger"
)

// ArrivalHook runs before a member's arrival is applied.
type ArrivalHook interface {
	OnArrival(ctx context.Context, member string) error
}

// DepartureHook runs before a member's departure is applied.
type DepartureHook interface {
	OnDeparture(ctx context.Context, member string) error
}

// WorkplaceExitHook runs when a member leaves the workplace.
type WorkplaceExitHook interface {
	OnWorkplaceExit(ctx context.Context, member string) error
}

// Hooks is the behaviour registered for one member. Nil fields are skipped.
type Hooks struct {
	Arrival       ArrivalHook
	Departure     DepartureHook
	WorkplaceExit WorkplaceExitHook
}

// SceneHook executes one named scene for any trigger.
type SceneHook struct {
	// Scenes executes the scene.
	Scenes SceneExecutor
	// Scene is the catalog name to run.
	Scene string
}

// OnArrival implements ArrivalHook.
func (h SceneHook) OnArrival(ctx context.Context, _ string) error {
	return h.Scenes.ExecuteSceneByName(ctx, h.Scene)
}

// OnDeparture implements DepartureHook.
func (h SceneHook) OnDeparture(ctx context.Context, _ string) error {
	return h.Scenes.ExecuteSceneByName(ctx, h.Scene)
}

// OnWorkplaceExit implements WorkplaceExitHook.
func (h SceneHook) OnWorkplaceExit(ctx context.Context, _ string) error {
	return h.Scenes.ExecuteSceneByName(ctx, h.Scene)
}

// MessageHook sends a fixed message through the notification channel.
type MessageHook struct {
	// Sender delivers the message to the notification recipients.
	Sender MessageSender
	// Title is the mail subject.
	Title string
	// Body is the mail text.
	Body string
}

// OnWorkplaceExit implements WorkplaceExitHook.
func (h MessageHook) OnWorkplaceExit(ctx context.Context, _ string) error {
	h.Sender.Notify(ctx, h.Title, h.Body)

	return nil
}

// GatedHook runs Hook only when the local time has reached NotBefore.
type GatedHook struct {
	// Hook runs once the cutoff is reached.
	Hook WorkplaceExitHook
	// NotBefore is the local time-of-day cutoff; earlier exits are skipped.
	NotBefore TimeOfDay
	// Location defaults to time.Local.
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
}

// OnWorkplaceExit implements WorkplaceExitHook.
func (h GatedHook) OnWorkplaceExit(ctx context.Context, member string) error {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}

	loc := h.Location
	if loc == nil {
		loc = time.Local
	}

	current := now()
	if !h.NotBefore.Reached(current, loc) {
		logger.InfoKV(ctx, "Workplace exit before cutoff, skipping",
			"not_before", h.NotBefore.String(),
			"local_time", current.In(loc).Format("15:04"),
		)

		return nil
	}

	return h.Hook.OnWorkplaceExit(ctx, member)
}

// WorkplaceExitChain runs hooks in order and stops at the first error.
type WorkplaceExitChain []WorkplaceExitHook

// OnWorkplaceExit implements WorkplaceExitHook.
func (c WorkplaceExitChain) OnWorkplaceExit(ctx context.Context, member string) error {
	for _, hook := range c {
		if err := hook.OnWorkplaceExit(ctx, member); err != nil {
			return err
		}
	}

	return nil
}

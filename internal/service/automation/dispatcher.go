package automation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	domain "github.com/Pulsar1722/homeIoTServer/internal/domain/presence"
	"github.com/Pulsar1722/homeIoTServer/internal/logger"
	tracker "github.com/Pulsar1722/homeIoTServer/internal/service/presence"
)

// SceneExecutor runs scenes by catalog name.
type SceneExecutor interface {
	ExecuteSceneByName(ctx context.Context, name string) error
}

// CleaningTrigger starts the debounced cleaning routine.
type CleaningTrigger interface {
	Trigger(ctx context.Context) error
}

// FailureNotifier receives every error the dispatcher catches.
type FailureNotifier interface {
	NotifyFailure(ctx context.Context, err error)
}

// MessageSender delivers a free-form notification.
type MessageSender interface {
	Notify(ctx context.Context, title, body string)
}

// Tracker is the presence state the dispatcher drives.
type Tracker interface {
	Arrive(name string) (tracker.Result, bool)
	Depart(name string) (tracker.Result, bool)
	Has(name string) bool
	Snapshot() *domain.Snapshot
}

// Scenes names the household-wide scenes.
type Scenes struct {
	// LivingRoomOn runs first on FirstArrival.
	LivingRoomOn string
	// EndCleaning runs second on FirstArrival.
	EndCleaning string
	// ShutdownAppliances runs on LastDeparture, before cleaning.
	ShutdownAppliances string
}

// Dispatcher maps triggers to ordered action sequences. It is safe for concurrent use.
type Dispatcher struct {
	// tracker owns the roster and classifies transitions.
	tracker Tracker
	// scenes runs household and hook scenes.
	scenes SceneExecutor
	// cleaning is the last LastDeparture step.
	cleaning CleaningTrigger
	// notifier receives hook and sequence failures.
	notifier FailureNotifier
	// publisher receives every applied event.
	publisher EventPublisher
	// names are the household scene names.
	names Scenes
	// hooks is read-only after New.
	hooks map[string]Hooks
	// recordMu keeps tracker updates and their publications in the same order.
	recordMu sync.Mutex
}

// Option configures the dispatcher.
type Option func(*Dispatcher)

// WithHooks registers behaviour for one member.
func WithHooks(member string, hooks Hooks) Option {
	return func(d *Dispatcher) {
		d.hooks[member] = hooks
	}
}

// WithPublisher sends presence changes to p.
func WithPublisher(p EventPublisher) Option {
	return func(d *Dispatcher) {
		if p != nil {
			d.publisher = p
		}
	}
}

// New creates a dispatcher.
func New(
	t Tracker,
	scenes SceneExecutor,
	cleaning CleaningTrigger,
	notifier FailureNotifier,
	names Scenes,
	opts ...Option,
) *Dispatcher {
	d := &Dispatcher{
		tracker:   t,
		scenes:    scenes,
		cleaning:  cleaning,
		notifier:  notifier,
		publisher: NopPublisher{},
		names:     names,
		hooks:     make(map[string]Hooks),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// OnArrive handles a member reaching home.
func (d *Dispatcher) OnArrive(ctx context.Context, name string) {
	ctx = d.eventContext(ctx, name, domain.Arrival.String())

	if !d.known(ctx, name) {
		return
	}

	if hook := d.hooks[name].Arrival; hook != nil {
		d.runHook(ctx, "arrival", func() error { return hook.OnArrival(ctx, name) })
	}

	res := d.record(ctx, "Member came home", d.tracker.Arrive, name)

	if res.Transition != domain.FirstArrival {
		return
	}

	d.runSequence(ctx, res.Transition,
		d.sceneStep(d.names.LivingRoomOn),
		d.sceneStep(d.names.EndCleaning),
	)
}

// OnDepart handles a member leaving home.
func (d *Dispatcher) OnDepart(ctx context.Context, name string) {
	ctx = d.eventContext(ctx, name, domain.Departure.String())

	if !d.known(ctx, name) {
		return
	}

	if hook := d.hooks[name].Departure; hook != nil {
		d.runHook(ctx, "departure", func() error { return hook.OnDeparture(ctx, name) })
	}

	res := d.record(ctx, "Member left home", d.tracker.Depart, name)

	if res.Transition != domain.LastDeparture {
		return
	}

	d.runSequence(ctx, res.Transition,
		d.sceneStep(d.names.ShutdownAppliances),
		d.cleaning.Trigger,
	)
}

// OnLeftWorkplace runs the member's workplace exit hook, if one is registered.
// Home presence is not affected.
func (d *Dispatcher) OnLeftWorkplace(ctx context.Context, name string) {
	ctx = d.eventContext(ctx, name, "left_workplace")

	if !d.known(ctx, name) {
		return
	}

	hook := d.hooks[name].WorkplaceExit
	if hook == nil {
		logger.Info(ctx, "No workplace exit behaviour registered, skipping")

		return
	}

	d.runHook(ctx, "workplace exit", func() error { return hook.OnWorkplaceExit(ctx, name) })
}

// HomeStatus returns the current roster.
func (d *Dispatcher) HomeStatus(ctx context.Context) *domain.Snapshot {
	snapshot := d.tracker.Snapshot()

	logger.DebugKV(ctx, "Home status requested", "status", formatStatus(snapshot))

	return snapshot
}

func (d *Dispatcher) eventContext(ctx context.Context, name, event string) context.Context {
	ctx = logger.WithName(ctx, "dispatcher")

	return logger.WithFields(ctx, "member", name, "event", event)
}

// known logs and reports unknown member names.
func (d *Dispatcher) known(ctx context.Context, name string) bool {
	if d.tracker.Has(name) {
		return true
	}

	logger.Info(ctx, "Unknown member, ignoring trigger")

	return false
}

// runHook reports a hook failure without stopping the caller.
func (d *Dispatcher) runHook(ctx context.Context, kind string, run func() error) {
	if err := run(); err != nil {
		logger.ErrorKV(ctx, "Member hook failed", "hook", kind, "error", err)
		d.notifier.NotifyFailure(ctx, err)
	}
}

// sceneStep returns a sequence step executing one scene.
func (d *Dispatcher) sceneStep(scene string) func(context.Context) error {
	return func(ctx context.Context) error {
		return d.scenes.ExecuteSceneByName(ctx, scene)
	}
}

// runSequence runs steps in order, stopping at and reporting the first error.
func (d *Dispatcher) runSequence(ctx context.Context, transition domain.Transition, steps ...func(context.Context) error) {
	ctx = logger.WithKV(ctx, "transition", transition.String())

	logger.Info(ctx, "Running household sequence")

	for i, step := range steps {
		if err := step(ctx); err != nil {
			logger.ErrorKV(ctx, "Household sequence aborted", "step", i+1, "of", len(steps), "error", err)
			d.notifier.NotifyFailure(ctx, err)

			return
		}
	}
}

// record applies one tracker event, logs the roster it produced and publishes it.
// Concurrent events are published in the order the tracker applied them.
func (d *Dispatcher) record(
	ctx context.Context,
	msg string,
	apply func(name string) (tracker.Result, bool),
	name string,
) tracker.Result {
	d.recordMu.Lock()
	defer d.recordMu.Unlock()

	res, _ := apply(name)
	logger.InfoKV(ctx, msg, "at_home", res.AtHome, "total", res.Total)
	logger.InfoKV(ctx, "Home status", "status", formatStatus(res.Snapshot))

	if err := d.publisher.PublishPresence(ctx, res.Member, res.Snapshot, res.Transition); err != nil {
		logger.WarnKV(ctx, "Failed to publish presence change", "error", err)
	}

	return res
}

// formatStatus renders "Haruki:true, Kako:false".
func formatStatus(snapshot *domain.Snapshot) string {
	if snapshot == nil {
		return ""
	}

	parts := make([]string, 0, len(snapshot.Members))

	for _, m := range snapshot.Members {
		parts = append(parts, fmt.Sprintf("%s:%t", m.Name, m.IsHome()))
	}

	return strings.Join(parts, ", ")
}

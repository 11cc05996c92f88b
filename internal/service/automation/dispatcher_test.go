package automation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domain "github.com/Pulsar1722/homeIoTServer/internal/domain/presence"
	"github.com/Pulsar1722/homeIoTServer/internal/service/cleaning"
	tracker "github.com/Pulsar1722/homeIoTServer/internal/service/presence"
	"github.com/Pulsar1722/homeIoTServer/internal/switchbot"
)

const (
	sceneLivingRoomOn = "Living room on"
	sceneEndCleaning  = "End cleaning"
	sceneShutdown     = "Shutdown appliances"
)

var errTestScene = errors.New("scene failed")

func testScenes() Scenes {
	return Scenes{
		LivingRoomOn:       sceneLivingRoomOn,
		EndCleaning:        sceneEndCleaning,
		ShutdownAppliances: sceneShutdown,
	}
}

// bothHome returns a tracker where Haruki and Kako are AtHome.
func bothHome() *tracker.Tracker {
	return tracker.New([]*domain.Member{
		{Name: "Haruki", State: domain.AtHome},
		{Name: "Kako", State: domain.AtHome},
	})
}

// TestDispatcher_HouseholdScenario walks depart, depart, arrive and checks the scene order.
func TestDispatcher_HouseholdScenario(t *testing.T) {
	t.Parallel()

	scenes := new(MockScenes)
	scenes.On("ExecuteSceneByName", mock.Anything, mock.Anything).Return(nil)

	clean := new(MockCleaning)
	clean.On("Trigger", mock.Anything).Return(nil)

	notifier := new(MockNotifier)
	d := New(bothHome(), scenes, clean, notifier, testScenes())
	ctx := context.Background()

	d.OnDepart(ctx, "Haruki")
	scenes.AssertNotCalled(t, "ExecuteSceneByName", mock.Anything, mock.Anything)
	clean.AssertNotCalled(t, "Trigger", mock.Anything)

	d.OnDepart(ctx, "Kako")
	clean.AssertNumberOfCalls(t, "Trigger", 1)

	d.OnArrive(ctx, "Haruki")

	var executed []string
	for _, call := range scenes.Calls {
		executed = append(executed, call.Arguments.String(1))
	}

	require.Equal(t, []string{sceneShutdown, sceneLivingRoomOn, sceneEndCleaning}, executed)
	require.Equal(t, 1, d.HomeStatus(ctx).AtHome)
	notifier.AssertNotCalled(t, "NotifyFailure", mock.Anything, mock.Anything)
}

// TestDispatcher_SequenceAbortsOnError stops at the failing scene and notifies.
func TestDispatcher_SequenceAbortsOnError(t *testing.T) {
	t.Parallel()

	scenes := new(MockScenes)
	scenes.On("ExecuteSceneByName", mock.Anything, sceneShutdown).Return(errTestScene)

	clean := new(MockCleaning)

	notifier := new(MockNotifier)
	notifier.On("NotifyFailure", mock.Anything, errTestScene).Return()

	d := New(tracker.New([]*domain.Member{{Name: "Haruki", State: domain.AtHome}}), scenes, clean, notifier, testScenes())

	d.OnDepart(context.Background(), "Haruki")

	clean.AssertNotCalled(t, "Trigger", mock.Anything)
	notifier.AssertNumberOfCalls(t, "NotifyFailure", 1)
	require.Equal(t, 0, d.HomeStatus(context.Background()).AtHome)
}

// TestDispatcher_OfflineCleaningIsNotified forwards DeviceOfflineError to the notifier.
func TestDispatcher_OfflineCleaningIsNotified(t *testing.T) {
	t.Parallel()

	scenes := new(MockScenes)
	scenes.On("ExecuteSceneByName", mock.Anything, sceneShutdown).Return(nil)

	offline := &cleaning.DeviceOfflineError{Device: "Robot Vacuum K10+", Status: switchbot.Offline}

	clean := new(MockCleaning)
	clean.On("Trigger", mock.Anything).Return(offline)

	notifier := new(MockNotifier)
	notifier.On("NotifyFailure", mock.Anything, mock.Anything).Return()

	d := New(tracker.New([]*domain.Member{{Name: "Kako", State: domain.AtHome}}), scenes, clean, notifier, testScenes())

	d.OnDepart(context.Background(), "Kako")

	notifier.AssertNumberOfCalls(t, "NotifyFailure", 1)

	err, ok := notifier.Calls[0].Arguments.Get(1).(error)
	require.True(t, ok)
	require.ErrorIs(t, err, cleaning.ErrDeviceOffline)
}

// TestDispatcher_DepartureHookRunsFirst runs the member hook before the aggregate sequence.
func TestDispatcher_DepartureHookRunsFirst(t *testing.T) {
	t.Parallel()

	var order []string

	hook := new(MockDepartureHook)
	hook.On("OnDeparture", mock.Anything, "Haruki").
		Run(func(mock.Arguments) { order = append(order, "hook") }).
		Return(errTestScene)

	scenes := new(MockScenes)
	scenes.On("ExecuteSceneByName", mock.Anything, sceneShutdown).
		Run(func(mock.Arguments) { order = append(order, "shutdown") }).
		Return(nil)

	clean := new(MockCleaning)
	clean.On("Trigger", mock.Anything).Return(nil)

	notifier := new(MockNotifier)
	notifier.On("NotifyFailure", mock.Anything, errTestScene).Return()

	d := New(
		tracker.New([]*domain.Member{{Name: "Haruki", State: domain.AtHome}}),
		scenes, clean, notifier, testScenes(),
		WithHooks("Haruki", Hooks{Departure: hook}),
	)

	d.OnDepart(context.Background(), "Haruki")

	// A failing hook is reported but the departure still counts.
	require.Equal(t, []string{"hook", "shutdown"}, order)
	notifier.AssertNumberOfCalls(t, "NotifyFailure", 1)
	clean.AssertNumberOfCalls(t, "Trigger", 1)
}

// TestDispatcher_ArrivalHook runs on every arrival, even without a transition.
func TestDispatcher_ArrivalHook(t *testing.T) {
	t.Parallel()

	hook := new(MockArrivalHook)
	hook.On("OnArrival", mock.Anything, "Kako").Return(nil)

	d := New(bothHome(), new(MockScenes), new(MockCleaning), new(MockNotifier), testScenes(),
		WithHooks("Kako", Hooks{Arrival: hook}),
	)

	d.OnArrive(context.Background(), "Kako")

	hook.AssertNumberOfCalls(t, "OnArrival", 1)
}

// TestDispatcher_UnknownMember is a logged no-op.
func TestDispatcher_UnknownMember(t *testing.T) {
	t.Parallel()

	scenes := new(MockScenes)
	publisher := new(MockPublisher)

	d := New(tracker.New([]*domain.Member{{Name: "Haruki", State: domain.Away}}),
		scenes, new(MockCleaning), new(MockNotifier), testScenes(),
		WithPublisher(publisher),
	)

	d.OnArrive(context.Background(), "Stranger")
	d.OnDepart(context.Background(), "Stranger")
	d.OnLeftWorkplace(context.Background(), "Stranger")

	scenes.AssertNotCalled(t, "ExecuteSceneByName", mock.Anything, mock.Anything)
	publisher.AssertNotCalled(t, "PublishPresence", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	require.Equal(t, 0, d.HomeStatus(context.Background()).AtHome)
}

// TestDispatcher_RepeatedArrivalRefires preserves the recount-after-every-event behaviour.
func TestDispatcher_RepeatedArrivalRefires(t *testing.T) {
	t.Parallel()

	scenes := new(MockScenes)
	scenes.On("ExecuteSceneByName", mock.Anything, mock.Anything).Return(nil)

	d := New(tracker.New([]*domain.Member{{Name: "Haruki", State: domain.Away}, {Name: "Kako", State: domain.Away}}),
		scenes, new(MockCleaning), new(MockNotifier), testScenes(),
	)

	d.OnArrive(context.Background(), "Haruki")
	d.OnArrive(context.Background(), "Haruki")

	scenes.AssertNumberOfCalls(t, "ExecuteSceneByName", 4)
}

// TestDispatcher_PublishesEvents sends every applied event and ignores publish errors.
func TestDispatcher_PublishesEvents(t *testing.T) {
	t.Parallel()

	scenes := new(MockScenes)
	scenes.On("ExecuteSceneByName", mock.Anything, mock.Anything).Return(nil)

	clean := new(MockCleaning)
	clean.On("Trigger", mock.Anything).Return(nil)

	publisher := new(MockPublisher)
	publisher.On("PublishPresence", mock.Anything, mock.Anything, mock.Anything, domain.NoTransition).
		Return(errors.New("broker down"))
	publisher.On("PublishPresence", mock.Anything, mock.Anything, mock.Anything, domain.LastDeparture).Return(nil)

	notifier := new(MockNotifier)

	d := New(bothHome(), scenes, clean, notifier, testScenes(), WithPublisher(publisher))

	d.OnDepart(context.Background(), "Haruki")
	d.OnDepart(context.Background(), "Kako")

	publisher.AssertNumberOfCalls(t, "PublishPresence", 2)

	member, ok := publisher.Calls[1].Arguments.Get(1).(*domain.Member)
	require.True(t, ok)
	require.Equal(t, "Kako", member.Name)
	require.Equal(t, domain.Away, member.State)

	notifier.AssertNotCalled(t, "NotifyFailure", mock.Anything, mock.Anything)
}

// orderedPublisher records every published household snapshot in call order.
type orderedPublisher struct {
	mu sync.Mutex
	// snapshots are the published rosters.
	snapshots []*domain.Snapshot
	// members are the published members, index-aligned with snapshots.
	members []*domain.Member
}

func (p *orderedPublisher) PublishPresence(
	_ context.Context,
	member *domain.Member,
	snapshot *domain.Snapshot,
	_ domain.Transition,
) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.members = append(p.members, member)
	p.snapshots = append(p.snapshots, snapshot)

	return nil
}

// TestDispatcher_PublishesLatestHousehold leaves the last published roster equal to the tracker state.
func TestDispatcher_PublishesLatestHousehold(t *testing.T) {
	t.Parallel()

	scenes := new(MockScenes)
	scenes.On("ExecuteSceneByName", mock.Anything, mock.Anything).Return(nil)

	clean := new(MockCleaning)
	clean.On("Trigger", mock.Anything).Return(nil)

	publisher := new(orderedPublisher)
	d := New(bothHome(), scenes, clean, new(MockNotifier), testScenes(), WithPublisher(publisher))

	var wg sync.WaitGroup

	for i := range 60 {
		wg.Go(func() {
			name := []string{"Haruki", "Kako"}[i%2]

			if i%3 == 0 {
				d.OnArrive(context.Background(), name)
			} else {
				d.OnDepart(context.Background(), name)
			}
		})
	}

	wg.Wait()

	publisher.mu.Lock()
	defer publisher.mu.Unlock()

	require.Len(t, publisher.snapshots, 60)

	for i, snapshot := range publisher.snapshots {
		member := publisher.members[i]

		for _, m := range snapshot.Members {
			if m.Name == member.Name {
				require.Equal(t, member.State, m.State)
			}
		}
	}

	last := publisher.snapshots[len(publisher.snapshots)-1]
	current := d.HomeStatus(context.Background())

	require.Equal(t, current.AtHome, last.AtHome)

	for i, m := range current.Members {
		require.Equal(t, m.State, last.Members[i].State)
	}
}

// TestDispatcher_LeftWorkplace runs only registered workplace hooks and keeps presence untouched.
func TestDispatcher_LeftWorkplace(t *testing.T) {
	t.Parallel()

	scenes := new(MockScenes)
	scenes.On("ExecuteSceneByName", mock.Anything, "Haruki room preheat").Return(errTestScene)

	notifier := new(MockNotifier)
	notifier.On("NotifyFailure", mock.Anything, errTestScene).Return()

	d := New(bothHome(), scenes, new(MockCleaning), notifier, testScenes(),
		WithHooks("Haruki", Hooks{WorkplaceExit: SceneHook{Scenes: scenes, Scene: "Haruki room preheat"}}),
	)

	d.OnLeftWorkplace(context.Background(), "Kako")
	scenes.AssertNotCalled(t, "ExecuteSceneByName", mock.Anything, mock.Anything)

	d.OnLeftWorkplace(context.Background(), "Haruki")
	scenes.AssertNumberOfCalls(t, "ExecuteSceneByName", 1)
	notifier.AssertNumberOfCalls(t, "NotifyFailure", 1)

	require.Equal(t, 2, d.HomeStatus(context.Background()).AtHome)
}

// TestFormatStatus renders the roster log line.
func TestFormatStatus(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Haruki:true, Kako:true", formatStatus(bothHome().Snapshot()))
}

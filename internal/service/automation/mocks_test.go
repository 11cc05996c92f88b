package automation

import (
	"context"

	"github.com/stretchr/testify/mock"

	domain "github.com/Pulsar1722/homeIoTServer/internal/domain/presence"
)

type MockScenes struct {
	mock.Mock
}

func (m *MockScenes) ExecuteSceneByName(ctx context.Context, name string) error {
	args := m.Called(ctx, name)

	return args.Error(0)
}

type MockCleaning struct {
	mock.Mock
}

func (m *MockCleaning) Trigger(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyFailure(ctx context.Context, err error) {
	m.Called(ctx, err)
}

func (m *MockNotifier) Notify(ctx context.Context, title, body string) {
	m.Called(ctx, title, body)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishPresence(
	ctx context.Context,
	member *domain.Member,
	snapshot *domain.Snapshot,
	transition domain.Transition,
) error {
	args := m.Called(ctx, member, snapshot, transition)

	return args.Error(0)
}

type MockDepartureHook struct {
	mock.Mock
}

func (m *MockDepartureHook) OnDeparture(ctx context.Context, member string) error {
	args := m.Called(ctx, member)

	return args.Error(0)
}

type MockArrivalHook struct {
	mock.Mock
}

func (m *MockArrivalHook) OnArrival(ctx context.Context, member string) error {
	args := m.Called(ctx, member)

	return args.Error(0)
}

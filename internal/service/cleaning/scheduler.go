package cleaning

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Pulsar1722/homeIoTServer/internal/logger"
	repo "github.com/Pulsar1722/homeIoTServer/internal/repository/state"
	"github.com/Pulsar1722/homeIoTServer/internal/switchbot"
)

// API is the part of the SwitchBot client the scheduler needs.
type API interface {
	DeviceStatusByName(ctx context.Context, name string) (switchbot.OnlineStatus, error)
	ExecuteSceneByName(ctx context.Context, name string) error
}

// Store persists the last run between restarts.
type Store interface {
	Load(ctx context.Context) (time.Time, error)
	Save(ctx context.Context, lastRun time.Time) error
}

// Scheduler debounces cleaning requests. It is safe for concurrent use.
type Scheduler struct {
	// api checks the device and starts the scene.
	api API
	// device is the vacuum's catalog name.
	device string
	// scene is the cleaning scene's catalog name.
	scene string
	// interval is the minimum time between two runs.
	interval time.Duration
	// store is optional.
	store Store
	// now is the clock.
	now func() time.Time

	// mu guards lastRun and inFlight.
	mu sync.Mutex
	// lastRun is zero until the first run.
	lastRun time.Time
	// inFlight is set while a trigger is between the interval check and the lastRun update.
	inFlight bool
}

// Option configures the scheduler.
type Option func(*Scheduler)

// WithStore persists lastRun through store.
func WithStore(store Store) Option {
	return func(s *Scheduler) {
		s.store = store
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a scheduler for the given device and scene.
func New(api API, device, scene string, interval time.Duration, opts ...Option) *Scheduler {
	s := &Scheduler{
		api:      api,
		device:   device,
		scene:    scene,
		interval: interval,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Restore loads lastRun from the store. A missing record is not an error.
func (s *Scheduler) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	lastRun, err := s.store.Load(ctx)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Debug(ctx, "No persisted cleaning run, starting fresh")

			return nil
		}

		return fmt.Errorf("restore last cleaning run: %w", err)
	}

	s.mu.Lock()
	s.lastRun = lastRun
	s.mu.Unlock()

	logger.InfoKV(ctx, "Restored last cleaning run", "last_run", lastRun)

	return nil
}

// LastRun returns the time of the last started run, zero if none.
func (s *Scheduler) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastRun
}

// Trigger starts cleaning unless the last run is too recent or the device is offline.
// A debounced call returns nil. An offline or unknown device yields *DeviceOfflineError
// and leaves lastRun unchanged.
func (s *Scheduler) Trigger(ctx context.Context) error {
	now, ok := s.claim(ctx)
	if !ok {
		return nil
	}

	status, err := s.api.DeviceStatusByName(ctx, s.device)
	if err != nil {
		s.release()

		return fmt.Errorf("check cleaning device: %w", err)
	}

	if status != switchbot.Online {
		s.release()

		return &DeviceOfflineError{Device: s.device, Status: status}
	}

	// lastRun is committed before the scene call, so a failing call still debounces.
	s.commit(now)
	s.persist(ctx, now)

	logger.InfoKV(ctx, "Starting cleaning", "device", s.device, "scene", s.scene)

	if err = s.api.ExecuteSceneByName(ctx, s.scene); err != nil {
		return fmt.Errorf("start cleaning: %w", err)
	}

	return nil
}

// claim checks the interval and marks a trigger as in flight.
func (s *Scheduler) claim(ctx context.Context) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if s.inFlight {
		logger.Debug(ctx, "Cleaning check already in progress, skipping")

		return now, false
	}

	if !s.lastRun.IsZero() {
		if elapsed := now.Sub(s.lastRun); elapsed < s.interval {
			logger.DebugKV(ctx, "Cleaning debounced",
				"elapsed", elapsed,
				"min_interval", s.interval,
			)

			return now, false
		}
	}

	s.inFlight = true

	return now, true
}

func (s *Scheduler) release() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}

func (s *Scheduler) commit(now time.Time) {
	s.mu.Lock()
	s.lastRun = now
	s.inFlight = false
	s.mu.Unlock()
}

// persist saves lastRun; failures are only logged.
func (s *Scheduler) persist(ctx context.Context, lastRun time.Time) {
	if s.store == nil {
		return
	}

	if err := s.store.Save(ctx, lastRun); err != nil {
		logger.WarnKV(ctx, "Failed to persist last cleaning run", "error", err)
	}
}

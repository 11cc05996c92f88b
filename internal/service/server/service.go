package server

import (
	"context"
	"fmt"
	"time"

	"github.com/Pulsar1722/homeIoTServer/internal/config"
	domain "github.com/Pulsar1722/homeIoTServer/internal/domain/presence"
	"github.com/Pulsar1722/homeIoTServer/internal/events"
	"github.com/Pulsar1722/homeIoTServer/internal/logger"
	"github.com/Pulsar1722/homeIoTServer/internal/notify"
	repository "github.com/Pulsar1722/homeIoTServer/internal/repository/state"
	"github.com/Pulsar1722/homeIoTServer/internal/service/automation"
	"github.com/Pulsar1722/homeIoTServer/internal/service/cleaning"
	"github.com/Pulsar1722/homeIoTServer/internal/service/presence"
	"github.com/Pulsar1722/homeIoTServer/internal/switchbot"
)

// workplaceExitTitle is the notification title of workplace-exit messages.
const workplaceExitTitle = "<homeIotServer> workplace exit"

// service is the assembled controller behind both transports.
type service struct {
	// dispatcher handles every trigger.
	dispatcher *automation.Dispatcher
	// scheduler debounces cleaning runs.
	scheduler *cleaning.Scheduler
	// publisher is nil when MQTT is disabled.
	publisher *events.Publisher
}

// newService wires the SwitchBot client, presence tracker, cleaning scheduler,
// notifier and optional MQTT publisher into a dispatcher.
func newService(ctx context.Context, cfg *config.Config, stateFile string) (*service, error) {
	api, err := switchbot.New(
		cfg.SwitchBot.Token,
		cfg.SwitchBot.Secret,
		cfg.SwitchBot.Nonce,
		switchbot.WithBaseURL(cfg.SwitchBot.BaseURL),
		switchbot.WithCallTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("create switchbot client: %w", err)
	}

	mailer, err := notify.NewSMTPMailer(cfg.Mail.SMTPHost, cfg.Mail.SMTPPort, cfg.Mail.From, cfg.Mail.Password)
	if err != nil {
		return nil, fmt.Errorf("create mailer: %w", err)
	}

	notifier := notify.New(mailer, cfg.Mail.Recipients)

	schedulerOpts := []cleaning.Option{}
	if stateFile != "" {
		schedulerOpts = append(schedulerOpts, cleaning.WithStore(repository.NewFileRepository(stateFile)))
	}

	scheduler := cleaning.New(
		api,
		cfg.Cleaning.Device,
		cfg.Scenes.StartCleaning,
		cfg.SwitchBot.CleaningInterval(),
		schedulerOpts...,
	)

	if err = scheduler.Restore(ctx); err != nil {
		return nil, fmt.Errorf("restore cleaning state: %w", err)
	}

	hookOpts, err := buildHooks(cfg, api, notifier)
	if err != nil {
		return nil, err
	}

	s := &service{scheduler: scheduler}

	if cfg.MQTT.Enabled {
		s.publisher, err = events.Connect(ctx, cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("connect mqtt: %w", err)
		}

		hookOpts = append(hookOpts, automation.WithPublisher(s.publisher))
	}

	s.dispatcher = automation.New(
		presence.New(buildMembers(cfg.Members)),
		api,
		scheduler,
		notifier,
		automation.Scenes{
			LivingRoomOn:       cfg.Scenes.LivingRoomOn,
			EndCleaning:        cfg.Scenes.EndCleaning,
			ShutdownAppliances: cfg.Scenes.ShutdownAppliances,
		},
		hookOpts...,
	)

	return s, nil
}

// close releases the outbound connections.
func (s *service) close(ctx context.Context) {
	if s.publisher != nil {
		s.publisher.Close(ctx)
	}

	logger.Debug(ctx, "Service closed")
}

// buildMembers converts the configured roster to domain members.
func buildMembers(members []config.MemberConfig) []*domain.Member {
	out := make([]*domain.Member, 0, len(members))

	for _, m := range members {
		state := domain.AtHome
		if m.InitialState == config.StateAway {
			state = domain.Away
		}

		out = append(out, &domain.Member{
			Name:        m.Name,
			DisplayName: m.DisplayName,
			State:       state,
		})
	}

	return out
}

// buildHooks turns the per-member configuration into dispatcher options.
func buildHooks(
	cfg *config.Config,
	scenes automation.SceneExecutor,
	sender automation.MessageSender,
) ([]automation.Option, error) {
	opts := make([]automation.Option, 0, len(cfg.Members))

	for _, m := range cfg.Members {
		var hooks automation.Hooks

		if m.ArrivalScene != "" {
			hooks.Arrival = automation.SceneHook{Scenes: scenes, Scene: m.ArrivalScene}
		}

		if m.DepartureScene != "" {
			hooks.Departure = automation.SceneHook{Scenes: scenes, Scene: m.DepartureScene}
		}

		if m.WorkplaceExit != nil {
			hook, err := buildWorkplaceExit(m, scenes, sender, cfg.Location())
			if err != nil {
				return nil, err
			}

			hooks.WorkplaceExit = hook
		}

		if hooks.Arrival == nil && hooks.Departure == nil && hooks.WorkplaceExit == nil {
			continue
		}

		opts = append(opts, automation.WithHooks(m.Name, hooks))
	}

	return opts, nil
}

// buildWorkplaceExit chains the scene and the message of a member, gated by not_before.
//
//nolint:ireturn // The hook is one of several implementations.
func buildWorkplaceExit(
	m config.MemberConfig,
	scenes automation.SceneExecutor,
	sender automation.MessageSender,
	loc *time.Location,
) (automation.WorkplaceExitHook, error) {
	exit := m.WorkplaceExit

	var chain automation.WorkplaceExitChain

	if exit.Scene != "" {
		chain = append(chain, automation.SceneHook{Scenes: scenes, Scene: exit.Scene})
	}

	if exit.Message != "" {
		chain = append(chain, automation.MessageHook{
			Sender: sender,
			Title:  workplaceExitTitle,
			Body:   fmt.Sprintf("%s: %s", m.DisplayName, exit.Message),
		})
	}

	if exit.NotBefore == "" {
		return chain, nil
	}

	notBefore, err := automation.ParseTimeOfDay(exit.NotBefore)
	if err != nil {
		return nil, fmt.Errorf("member %s: %w", m.Name, err)
	}

	return automation.GatedHook{
		Hook:      chain,
		NotBefore: notBefore,
		Location:  loc,
	}, nil
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"

	"github.com/Pulsar1722/homeIoTServer/internal/api/grpc/presence"
	"github.com/Pulsar1722/homeIoTServer/internal/api/rest"
	"github.com/Pulsar1722/homeIoTServer/internal/config"
	"github.com/Pulsar1722/homeIoTServer/internal/logger"
)

// Options controls the homeiot-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// LogLevel overrides the level from the settings file.
	LogLevel string
	// HTTPAddress overrides the trigger route listen address.
	HTTPAddress string
	// GRPCAddress overrides the gRPC listen address.
	GRPCAddress string
	// StateFile overrides the path of the persisted cleaning state.
	StateFile string
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the HTTP and gRPC listeners and blocks until ctx is cancelled or a listener fails.
//
//nolint:funlen // Sequential wiring reads best in one place.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "homeiot-server")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	levelName := settings.LogLevel
	if opts.LogLevel != "" {
		levelName = opts.LogLevel
	}

	if err = logger.Configure(levelName); err != nil {
		return err
	}

	logger.InstallGRPCLogger(zapcore.WarnLevel)

	httpAddress, grpcAddress, err := resolveListenAddresses(settings.Server, opts)
	if err != nil {
		return err
	}

	stateFile := settings.Cleaning.StateFile
	if opts.StateFile != "" {
		stateFile = opts.StateFile
	}

	svc, err := newService(ctx, settings, stateFile)
	if err != nil {
		return fmt.Errorf("initialise service: %w", err)
	}

	defer svc.close(context.WithoutCancel(ctx))

	lc := net.ListenConfig{}

	httpLis, err := lc.Listen(ctx, "tcp", httpAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", httpAddress, err)
	}

	httpServer := rest.NewServer(ctx, svc.dispatcher, settings.Server.TriggerToken)

	var grpcServer *grpc.Server

	var grpcLis net.Listener

	if grpcAddress != "" {
		grpcLis, err = lc.Listen(ctx, "tcp", grpcAddress)
		if err != nil {
			_ = httpLis.Close()

			return fmt.Errorf("listen on %s: %w", grpcAddress, err)
		}

		grpcServer = grpc.NewServer(grpc.UnaryInterceptor(presence.UnaryInterceptor(ctx, settings.Server.TriggerToken)))
		presence.RegisterPresenceServiceServer(grpcServer, presence.NewServer(svc.dispatcher))
	}

	logger.InfoKV(ctx, "Home IoT server listening",
		"http_address", httpAddress,
		"grpc_address", grpcAddress,
		"state_file", stateFile,
		"members", len(settings.Members),
	)

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, 2)

	var wg sync.WaitGroup

	wg.Go(func() {
		if err := httpServer.Serve(httpLis); err != nil {
			errs <- err

			cancel()
		}
	})

	if grpcServer != nil {
		wg.Go(func() {
			if err := grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errs <- fmt.Errorf("serve gRPC: %w", err)

				cancel()
			}
		})
	}

	<-serveCtx.Done()
	logger.Info(ctx, "Shutting down servers")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), settings.Timeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WarnKV(ctx, "HTTP shutdown incomplete", "error", err)
	}

	if grpcServer != nil {
		grpcServer.GracefulStop()
	}

	wg.Wait()
	close(errs)

	logger.Info(ctx, "Servers stopped")

	return errors.Join(collect(errs)...)
}

// collect drains a closed error channel.
func collect(errs <-chan error) []error {
	var out []error
	for err := range errs {
		out = append(out, err)
	}

	return out
}

// resolveListenAddresses applies the command-line overrides to the configured addresses.
// The HTTP address is required, an empty gRPC address disables that listener.
func resolveListenAddresses(cfg config.ServerConfig, opts *Options) (string, string, error) {
	httpAddress := cfg.HTTPAddress
	if opts.HTTPAddress != "" {
		httpAddress = opts.HTTPAddress
	}

	grpcAddress := cfg.GRPCAddress
	if opts.GRPCAddress != "" {
		grpcAddress = opts.GRPCAddress
	}

	if httpAddress == "" {
		return "", "", ErrNoServerAddress
	}

	for _, address := range []string{httpAddress, grpcAddress} {
		if address == "" {
			continue
		}

		if _, _, err := net.SplitHostPort(address); err != nil {
			return "", "", fmt.Errorf("invalid listen address format %q: %w", address, err)
		}
	}

	return httpAddress, grpcAddress, nil
}

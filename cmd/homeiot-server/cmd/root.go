package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Pulsar1722/homeIoTServer/internal/config"
	"github.com/Pulsar1722/homeIoTServer/internal/logger"
	"github.com/Pulsar1722/homeIoTServer/internal/service/server"
	"github.com/Pulsar1722/homeIoTServer/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// stateFile overrides where the last cleaning run is persisted.
	stateFile string
	// logLevel overrides the configured log level.
	logLevel string
	// grpcAddress overrides the configured gRPC listen address.
	grpcAddress string

	// rootCmd represents the base command for running the controller.
	rootCmd = &cobra.Command{
		Use:   "homeiot-server [http-listen-address]",
		Short: "Run the presence-triggered home automation controller.",
		Long: `Starts the home automation controller.

Geofencing triggers arrive on the HTTP routes /arrivedHome/{name}, /leftHome/{name}
and /leftWorkplace/{name}, or through the gRPC PresenceService. When the first member
comes home the living-room scene runs and cleaning ends. When the last member leaves
the appliances are shut down and the robot vacuum starts, at most once per interval.
Failures are mailed to the configured recipients.

The HTTP listen address can be provided as argument to override the config (e.g. :3000).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			defer logger.Sync()

			var httpAddress string
			if len(args) > 0 {
				httpAddress = args[0]
			}

			options := &server.Options{
				ConfigPath:  configPath,
				LogLevel:    logLevel,
				HTTPAddress: httpAddress,
				GRPCAddress: grpcAddress,
				StateFile:   stateFile,
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the homeiot-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&stateFile, "state-file", "s", "", "path to persist the last cleaning run")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "log level (debug, info, warn, error)")
	rootCmd.Flags().StringVarP(&grpcAddress, "grpc-addr", "g", "", "gRPC listen address override")
}

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Pulsar1722/homeIoTServer/internal/config"
	client "github.com/Pulsar1722/homeIoTServer/internal/service/client"
	"github.com/Pulsar1722/homeIoTServer/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverAddress overrides the gRPC address from the configuration.
	serverAddress string

	// rootCmd represents the base command for sending triggers.
	rootCmd = &cobra.Command{
		Use:   "homeiot-trigger <arrive|depart|left-workplace|status> [member]",
		Short: "Send a presence trigger to homeiot-server.",
		Long: `Sends one presence trigger to homeiot-server over gRPC and prints the household status.

Actions:
  arrive <member>          the member arrived home
  depart <member>          the member left home
  left-workplace <member>  the member left the workplace
  status                   only print the household status

The caller's username and hostname are sent along for the server's audit log.`,
		Args: cobra.RangeArgs(1, 2), //nolint:mnd // Action plus optional member.
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			action, err := client.ParseAction(args[0])
			if err != nil {
				return err
			}

			var member string
			if len(args) > 1 {
				member = args[1]
			}

			return client.Run(ctx, &client.Options{
				ConfigPath:    cfgPath,
				ServerAddress: serverAddress,
				Action:        action,
				Member:        member,
			})
		},
	}
)

// Execute runs the homeiot-trigger CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&serverAddress, "server", "a", "", "gRPC server address override")
}

package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Pulsar1722/homeIoTServer/internal/config"
	"github.com/Pulsar1722/homeIoTServer/internal/logger"
	"github.com/Pulsar1722/homeIoTServer/internal/service/common"
)

// Action is the trigger sent to the server.
type Action string

const (
	// ActionArrive reports an arrival.
	ActionArrive Action = "arrive"
	// ActionDepart reports a departure.
	ActionDepart Action = "depart"
	// ActionLeftWorkplace reports a workplace exit.
	ActionLeftWorkplace Action = "left-workplace"
	// ActionStatus only queries the household status.
	ActionStatus Action = "status"
)

// errUnknownAction is returned for actions the server does not understand.
var errUnknownAction = errors.New("unknown action")

// Options configures a single trigger invocation.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// ServerAddress overrides the gRPC address from config when specified.
	ServerAddress string

	// Action is the trigger to send.
	Action Action

	// Member is the member the trigger refers to. Ignored for ActionStatus.
	Member string
}

// presenceClient is the subset of common.Client used by Run.
type presenceClient interface {
	Arrive(ctx context.Context, member string) (*structpb.Struct, error)
	Depart(ctx context.Context, member string) (*structpb.Struct, error)
	LeftWorkplace(ctx context.Context, member string) (*structpb.Struct, error)
	HomeStatus(ctx context.Context) (*structpb.Struct, error)
}

// Run sends the requested trigger once and logs the resulting household status.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "homeiot-trigger")

	cfg, err := config.LoadClient(opts.ConfigPath)
	if err != nil {
		return err
	}

	serverAddress := cfg.GRPCAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	// Identify current user and hostname for the server's audit log.
	actor, err := common.DetectActor()
	if err != nil {
		return err
	}

	client, err := common.Dial(ctx, serverAddress,
		common.WithCallTimeout(cfg.Timeout),
		common.WithActor(actor),
		common.WithTriggerToken(cfg.TriggerToken),
	)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	logger.InfoKV(ctx, "Sending trigger",
		"server_address", serverAddress,
		"action", opts.Action,
		"member", opts.Member,
	)

	status, err := send(ctx, client, opts.Action, opts.Member)
	if err != nil {
		return err
	}

	logger.Infof(ctx, "Home status: %s", formatStatus(status))

	return nil
}

// send dispatches the action to the matching client call.
func send(ctx context.Context, client presenceClient, action Action, member string) (*structpb.Struct, error) {
	switch action {
	case ActionArrive:
		return client.Arrive(ctx, member)
	case ActionDepart:
		return client.Depart(ctx, member)
	case ActionLeftWorkplace:
		return client.LeftWorkplace(ctx, member)
	case ActionStatus:
		return client.HomeStatus(ctx)
	default:
		return nil, fmt.Errorf("%w %q", errUnknownAction, action)
	}
}

// formatStatus converts the status response to a readable log message,
// e.g. "1/2 at home (Haruki:true, Kako:false)".
func formatStatus(status *structpb.Struct) string {
	if status == nil {
		return "<nil status>"
	}

	fields := status.GetFields()

	members := fields["members"].GetListValue().GetValues()
	parts := make([]string, 0, len(members))

	for _, value := range members {
		member := value.GetStructValue().GetFields()
		parts = append(parts, fmt.Sprintf("%s:%t", member["name"].GetStringValue(), member["is_in_home"].GetBoolValue()))
	}

	return fmt.Sprintf("%d/%d at home (%s)",
		int(fields["at_home"].GetNumberValue()),
		int(fields["total"].GetNumberValue()),
		strings.Join(parts, ", "),
	)
}

// ParseAction validates a command-line action name.
func ParseAction(s string) (Action, error) {
	action := Action(strings.ToLower(strings.TrimSpace(s)))

	switch action {
	case ActionArrive, ActionDepart, ActionLeftWorkplace, ActionStatus:
		return action, nil
	default:
		return "", fmt.Errorf("%w %q", errUnknownAction, s)
	}
}

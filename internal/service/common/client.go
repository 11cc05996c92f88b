//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/Pulsar1722/homeIoTServer/internal/api/grpc/presence"
	"github.com/Pulsar1722/homeIoTServer/internal/config"
)

// Client wraps the gRPC PresenceService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the server.
	conn *grpc.ClientConn
	// api is the PresenceService client.
	api presence.PresenceServiceClient

	// callTimeout bounds status calls; trigger calls get triggerTimeoutFactor times it.
	callTimeout time.Duration
	// actor is sent with every call when set.
	actor string
	// token is the shared trigger token sent with every call when set.
	token string
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithActor attaches the actor to every call.
func WithActor(actor Actor) Option {
	return func(c *Client) {
		c.actor = actor.String()
	}
}

// WithTriggerToken attaches the shared trigger token to every call.
func WithTriggerToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// triggerTimeoutFactor scales the call timeout for trigger RPCs.
// A depart can chain eight SwitchBot calls on the server, each bounded by the same timeout,
// before a failure mail is sent.
const triggerTimeoutFactor = 10

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errMemberRequired is returned when a trigger is sent without a member name.
	errMemberRequired = errors.New("member must be provided")
)

// Dial establishes a gRPC connection to the presence server.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy until native TLS is added.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(DialAddress(address), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial presence server: %w", err)
	}

	return newClient(conn, opts...), nil
}

// newClient binds the helpers to an established connection.
func newClient(conn *grpc.ClientConn, opts ...Option) *Client {
	client := &Client{
		conn:        conn,
		api:         presence.NewPresenceServiceClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// DialAddress turns a listen address such as ":50051" into one a client can dial.
func DialAddress(address string) string {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host != "" {
		return address
	}

	return net.JoinHostPort("127.0.0.1", port)
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// Arrive reports that the member arrived home.
func (c *Client) Arrive(ctx context.Context, member string) (*structpb.Struct, error) {
	return c.trigger(ctx, "arrive", member, c.api.Arrive)
}

// Depart reports that the member left home.
func (c *Client) Depart(ctx context.Context, member string) (*structpb.Struct, error) {
	return c.trigger(ctx, "depart", member, c.api.Depart)
}

// LeftWorkplace reports that the member left the workplace.
func (c *Client) LeftWorkplace(ctx context.Context, member string) (*structpb.Struct, error) {
	return c.trigger(ctx, "left workplace", member, c.api.LeftWorkplace)
}

// HomeStatus retrieves the household status.
func (c *Client) HomeStatus(ctx context.Context) (*structpb.Struct, error) {
	callCtx, cancel := c.callContext(ctx, c.callTimeout)
	defer cancel()

	resp, err := c.api.GetHomeStatus(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("get home status: %w", err)
	}

	return resp, nil
}

// triggerCall is the shape of the generated trigger methods.
type triggerCall func(context.Context, *wrapperspb.StringValue, ...grpc.CallOption) (*structpb.Struct, error)

func (c *Client) trigger(ctx context.Context, op, member string, call triggerCall) (*structpb.Struct, error) {
	if member == "" {
		return nil, errMemberRequired
	}

	callCtx, cancel := c.callContext(ctx, c.triggerTimeout())
	defer cancel()

	resp, err := call(callCtx, wrapperspb.String(member))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return resp, nil
}

// triggerTimeout is the deadline of one trigger RPC, long enough for the server's
// whole scene sequence.
func (c *Client) triggerTimeout() time.Duration {
	return c.callTimeout * triggerTimeoutFactor
}

// callContext returns a context with the given timeout if positive,
// otherwise a cancellable child context without a deadline.
// The actor and token are attached as outgoing metadata.
func (c *Client) callContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if c.actor != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, presence.MetadataActor, c.actor)
	}

	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, presence.MetadataTriggerToken, c.token)
	}

	if timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, timeout)
}

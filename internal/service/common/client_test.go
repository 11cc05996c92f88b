//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/Pulsar1722/homeIoTServer/internal/api/grpc/presence"
)

// fakePresence records what each call received.
type fakePresence struct {
	mu sync.Mutex
	// methods records "method:member" in order.
	methods []string
	// md is the metadata of the last call.
	md metadata.MD
	// deadlines maps each method to the deadline its last call carried.
	deadlines map[string]time.Time
}

func (f *fakePresence) record(ctx context.Context, method, member string) (*structpb.Struct, error) {
	md, _ := metadata.FromIncomingContext(ctx)

	f.mu.Lock()
	f.methods = append(f.methods, method+":"+member)
	f.md = md

	if deadline, ok := ctx.Deadline(); ok {
		if f.deadlines == nil {
			f.deadlines = make(map[string]time.Time)
		}

		f.deadlines[method] = deadline
	}
	f.mu.Unlock()

	return structpb.NewStruct(map[string]any{"at_home": 1, "total": 2})
}

func (f *fakePresence) Arrive(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	return f.record(ctx, "arrive", in.GetValue())
}

func (f *fakePresence) Depart(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	return f.record(ctx, "depart", in.GetValue())
}

func (f *fakePresence) LeftWorkplace(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	return f.record(ctx, "left_workplace", in.GetValue())
}

func (f *fakePresence) GetHomeStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return f.record(ctx, "status", "")
}

// dialFake connects a Client to an in-memory server.
func dialFake(t *testing.T, fake *fakePresence, opts ...Option) *Client {
	t.Helper()

	ln := bufconn.Listen(1 << 20)

	srv := grpc.NewServer()
	presence.RegisterPresenceServiceServer(srv, fake)

	go func() {
		_ = srv.Serve(ln)
	}()

	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return ln.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	client := newClient(conn, opts...)

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

// TestDial_ValidatesAddress verifies that Dial rejects empty addresses.
func TestDial_ValidatesAddress(t *testing.T) {
	t.Parallel()

	c, err := Dial(context.Background(), "")
	require.Error(t, err)
	require.Nil(t, c)
}

// TestDialAddress fills in the loopback host for wildcard listen addresses.
func TestDialAddress(t *testing.T) {
	t.Parallel()

	require.Equal(t, "127.0.0.1:50051", DialAddress(":50051"))
	require.Equal(t, "home.lan:50051", DialAddress("home.lan:50051"))
	require.Equal(t, "dns:///home.lan", DialAddress("dns:///home.lan"))
}

// TestClient_callContext checks timeout vs cancel-only behavior of callContext.
func TestClient_callContext(t *testing.T) {
	t.Parallel()

	c := new(Client)

	ctx, cancel := c.callContext(context.Background(), 0)
	cancel()

	require.NotNil(t, ctx)

	ctx, cancel = c.callContext(context.Background(), 10*time.Millisecond)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, 30*time.Millisecond)
}

// TestClient_EmptyMember asserts that an empty member is rejected by the client.
func TestClient_EmptyMember(t *testing.T) {
	t.Parallel()

	c := new(Client)

	_, err := c.Arrive(context.Background(), "")
	require.ErrorIs(t, err, errMemberRequired)
}

// TestClient_Calls sends every trigger with the actor and token metadata.
func TestClient_Calls(t *testing.T) {
	t.Parallel()

	fake := new(fakePresence)
	client := dialFake(t, fake,
		WithActor(Actor{Hostname: "phone", Username: "haruki"}),
		WithTriggerToken("s3cret"),
	)

	ctx := context.Background()

	resp, err := client.Arrive(ctx, "Kako")
	require.NoError(t, err)
	require.InDelta(t, 1, resp.GetFields()["at_home"].GetNumberValue(), 0)

	_, err = client.Depart(ctx, "Haruki")
	require.NoError(t, err)

	_, err = client.LeftWorkplace(ctx, "Haruki")
	require.NoError(t, err)

	_, err = client.HomeStatus(ctx)
	require.NoError(t, err)

	fake.mu.Lock()
	defer fake.mu.Unlock()

	require.Equal(t, []string{"arrive:Kako", "depart:Haruki", "left_workplace:Haruki", "status:"}, fake.methods)
	require.Equal(t, []string{"haruki@phone"}, fake.md.Get(presence.MetadataActor))
	require.Equal(t, []string{"s3cret"}, fake.md.Get(presence.MetadataTriggerToken))
}

// TestClient_TriggerOutlivesCallTimeout gives trigger RPCs room for the server's scene sequence.
func TestClient_TriggerOutlivesCallTimeout(t *testing.T) {
	t.Parallel()

	fake := new(fakePresence)
	client := dialFake(t, fake, WithCallTimeout(time.Second))

	ctx := context.Background()
	start := time.Now()

	_, err := client.Depart(ctx, "Haruki")
	require.NoError(t, err)

	_, err = client.HomeStatus(ctx)
	require.NoError(t, err)

	fake.mu.Lock()
	defer fake.mu.Unlock()

	require.WithinDuration(t, start.Add(triggerTimeoutFactor*time.Second), fake.deadlines["depart"], time.Second)
	require.WithinDuration(t, start.Add(time.Second), fake.deadlines["status"], time.Second)
	require.Greater(t, fake.deadlines["depart"].Sub(start), 8*time.Second)
}

package presence

import (
	"context"
	"crypto/subtle"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/Pulsar1722/homeIoTServer/internal/api"
	domain "github.com/Pulsar1722/homeIoTServer/internal/domain/presence"
	"github.com/Pulsar1722/homeIoTServer/internal/logger"
)

// Dispatcher abstracts the automation operations the transport layer depends on.
type Dispatcher interface {
	OnArrive(ctx context.Context, name string)
	OnDepart(ctx context.Context, name string)
	OnLeftWorkplace(ctx context.Context, name string)
	HomeStatus(ctx context.Context) *domain.Snapshot
}

// Server implements PresenceService over a Dispatcher.
type Server struct {
	// dispatcher handles the triggers.
	dispatcher Dispatcher
}

var _ PresenceServiceServer = (*Server)(nil)

// NewServer wires the dispatcher into a gRPC handler.
func NewServer(dispatcher Dispatcher) *Server {
	return &Server{
		dispatcher: dispatcher,
	}
}

// Arrive records an arrival and returns the resulting household status.
func (s *Server) Arrive(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	return s.trigger(ctx, in, s.dispatcher.OnArrive)
}

// Depart records a departure and returns the resulting household status.
func (s *Server) Depart(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	return s.trigger(ctx, in, s.dispatcher.OnDepart)
}

// LeftWorkplace runs the member's workplace-exit hook.
func (s *Server) LeftWorkplace(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	return s.trigger(ctx, in, s.dispatcher.OnLeftWorkplace)
}

// GetHomeStatus returns the household status without changing it.
func (s *Server) GetHomeStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toProtoStatus(s.dispatcher.HomeStatus(ctx))
}

func (s *Server) trigger(
	ctx context.Context,
	in *wrapperspb.StringValue,
	handle func(context.Context, string),
) (*structpb.Struct, error) {
	name := strings.TrimSpace(in.GetValue())
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "member name is required")
	}

	// Automations run to completion even if the caller goes away.
	handle(context.WithoutCancel(ctx), name)

	return toProtoStatus(s.dispatcher.HomeStatus(ctx))
}

// toProtoStatus converts a snapshot to a google.protobuf.Struct.
func toProtoStatus(snapshot *domain.Snapshot) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(api.NewStatusView(snapshot).Map())
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode status")
	}

	return out, nil
}

// UnaryInterceptor logs each call with its actor and enforces the trigger token.
// An empty token disables the check.
func UnaryInterceptor(ctx context.Context, token string) grpc.UnaryServerInterceptor {
	base := logger.WithName(ctx, "grpc")

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)

		actor := firstValue(md, MetadataActor)
		if actor == "" {
			actor = "unknown"
		}

		// Carry the process logger; request contexts from grpc have none.
		ctx = logger.ToContext(ctx, logger.FromContext(base))
		ctx = logger.WithFields(ctx, "method", info.FullMethod, "actor", actor)

		if token != "" && subtle.ConstantTimeCompare([]byte(firstValue(md, MetadataTriggerToken)), []byte(token)) != 1 {
			logger.Warn(ctx, "Rejected call with invalid trigger token")

			return nil, status.Error(codes.Unauthenticated, "invalid trigger token")
		}

		resp, err := handler(ctx, req)
		if err != nil {
			logger.InfoKV(ctx, "Call failed", "code", status.Code(err).String())

			return nil, err
		}

		logger.Debug(ctx, "Call served")

		return resp, nil
	}
}

func firstValue(md metadata.MD, key string) string {
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}

	return ""
}

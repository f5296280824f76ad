package rpc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/feeling-system/internal/emotion"
	"github.com/danielpatrickdp/feeling-system/internal/errs"
	"github.com/danielpatrickdp/feeling-system/internal/feeling"
	"github.com/danielpatrickdp/feeling-system/internal/memory"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "feeling.v1.FeelingService"

// #region service-desc

// FeelingServer is the server API. Every message is a google.protobuf.Struct
// holding the JSON form of the request or response type.
type FeelingServer interface {
	Process(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CurrentState(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Snapshot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RestoreEmbodied(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Recall(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func unaryHandler(method string, call func(FeelingServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(FeelingServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(FeelingServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes FeelingService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FeelingServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("Process", FeelingServer.Process),
		unaryHandler("CurrentState", FeelingServer.CurrentState),
		unaryHandler("Snapshot", FeelingServer.Snapshot),
		unaryHandler("RestoreEmbodied", FeelingServer.RestoreEmbodied),
		unaryHandler("Recall", FeelingServer.Recall),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "feeling/v1/feeling.proto",
}

// Register attaches srv to s.
func Register(s *grpc.Server, srv FeelingServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// #endregion service-desc

// #region server

// Server serializes every call onto one coordinator.
type Server struct {
	mu     sync.Mutex
	sys    *feeling.System
	logger zerolog.Logger
	clock  func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) { s.logger = logger.With().Str("component", "rpc").Logger() }
}

// WithClock replaces the clock used when a request omits its timestamp.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) { s.clock = clock }
}

// NewServer wraps sys. The caller must not use sys directly afterwards.
func NewServer(sys *feeling.System, opts ...Option) *Server {
	s := &Server{sys: sys, logger: zerolog.Nop(), clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process runs one interaction through the system.
func (s *Server) Process(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req ProcessRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	inter, err := req.interaction(s.clock)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	s.mu.Lock()
	res, err := s.sys.Process(ctx, inter)
	s.mu.Unlock()
	if err != nil {
		s.logger.Debug().Err(err).Str("peer_id", req.PeerID).Msg("process rejected")
		return nil, toStatus(err)
	}
	return encode(res)
}

// CurrentState returns the latest emotional response.
func (s *Server) CurrentState(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	s.mu.Lock()
	cur := s.sys.CurrentState()
	s.mu.Unlock()
	return encode(cur)
}

// Snapshot returns the full structured state.
func (s *Server) Snapshot(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	s.mu.Lock()
	snap := s.sys.Snapshot()
	s.mu.Unlock()
	return encode(snap)
}

// RestoreEmbodied regenerates body resources for the given hours.
func (s *Server) RestoreEmbodied(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req RestoreRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	s.mu.Lock()
	err := s.sys.RestoreEmbodiedResources(req.Hours)
	s.mu.Unlock()
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(empty{})
}

// Recall returns memories by emotion or by peer.
func (s *Server) Recall(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req RecallRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if (req.Emotion == "") == (req.PeerID == "") {
		return nil, status.Error(codes.InvalidArgument, "exactly one of emotion and peer_id is required")
	}
	if req.Limit <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "limit must be > 0, got %d", req.Limit)
	}
	now, err := parseNow(req.Now, s.clock)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	s.mu.Lock()
	var out []memory.Entry
	if req.Emotion != "" {
		out = s.sys.RecallByEmotion(emotion.Label(req.Emotion), req.Limit, now)
	} else {
		out = s.sys.RecallByPeer(req.PeerID, req.Limit, now)
	}
	s.mu.Unlock()
	if out == nil {
		out = []memory.Entry{}
	}
	return encode(RecallResponse{Memories: out})
}

// #endregion server

// #region errors

// toStatus maps the error taxonomy onto gRPC codes.
func toStatus(err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		code = codes.InvalidArgument
	case errors.Is(err, errs.ErrResourceExceeded):
		code = codes.FailedPrecondition
	case errors.Is(err, errs.ErrStateCorruption):
		code = codes.DataLoss
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}

func encode(v any) (*structpb.Struct, error) {
	s, err := toStruct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	return s, nil
}

// #endregion errors

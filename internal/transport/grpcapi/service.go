// Package grpcapi exposes a session as the dicestats.v1.Simulator gRPC
// service. Payloads are google.protobuf.Struct values carrying the same JSON
// shapes as the HTTP API, so no generated code is needed.
package grpcapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/dicestats/internal/app"
)

const ServiceName = "dicestats.v1.Simulator"

const (
	methodDispatch = "/" + ServiceName + "/Dispatch"
	methodSnapshot = "/" + ServiceName + "/Snapshot"
	methodWatch    = "/" + ServiceName + "/Watch"
)

// SimulatorServer is the server side of dicestats.v1.Simulator. Snapshots
// have the HTTP shape with "rolls" replaced by the count "rollsHeld".
type SimulatorServer interface {
	// Dispatch takes {"actions": [...]} and returns the resulting snapshot.
	Dispatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Snapshot(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// Watch streams the current snapshot, then one per dispatched batch.
	Watch(*emptypb.Empty, grpc.ServerStream) error
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SimulatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Dispatch", Handler: dispatchHandler},
		{MethodName: "Snapshot", Handler: snapshotHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Watch", Handler: watchHandler, ServerStreams: true},
	},
	Metadata: "dicestats/v1/simulator.proto",
}

// Register attaches srv to s.
func Register(s grpc.ServiceRegistrar, srv SimulatorServer) {
	s.RegisterService(&serviceDesc, srv)
}

func dispatchHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SimulatorServer).Dispatch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodDispatch}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SimulatorServer).Dispatch(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func snapshotHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SimulatorServer).Snapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodSnapshot}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SimulatorServer).Snapshot(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(SimulatorServer).Watch(in, stream)
}

// Service implements SimulatorServer over a session.
type Service struct {
	session *app.Session
	log     *slog.Logger
}

func NewService(session *app.Session, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{session: session, log: logger}
}

func (s *Service) Dispatch(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "dispatch request is required")
	}
	raw, ok := in.GetFields()["actions"]
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "actions is required")
	}
	data, err := json.Marshal(raw.AsInterface())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "actions: %v", err)
	}
	actions, err := app.DecodeActions(data)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	snap, err := s.session.Dispatch(ctx, actions...)
	if err != nil {
		if errors.Is(err, app.ErrLimit) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		s.log.Warn("dispatch failed", "err", err, "actions", len(actions))
		return nil, status.Errorf(codes.Internal, "dispatch: %v", err)
	}
	return snapshotToStruct(snap)
}

func (s *Service) Snapshot(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return snapshotToStruct(s.session.Snapshot())
}

func (s *Service) Watch(_ *emptypb.Empty, stream grpc.ServerStream) error {
	updates, cancel := s.session.Subscribe()
	defer cancel()

	send := func(snap app.Snapshot) error {
		msg, err := snapshotToStruct(snap)
		if err != nil {
			return err
		}
		return stream.SendMsg(msg)
	}
	if err := send(s.session.Snapshot()); err != nil {
		return err
	}
	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			if err := send(snap); err != nil {
				return err
			}
		}
	}
}

// snapshotToStruct encodes snap without the raw roll list, which can exceed
// the message size limit; the histogram carries the distribution and
// rollsHeld the number of rolls behind it.
func snapshotToStruct(snap app.Snapshot) (*structpb.Struct, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode snapshot: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, status.Errorf(codes.Internal, "encode snapshot: %v", err)
	}
	delete(payload, "rolls")
	payload["rollsHeld"] = len(snap.Rolls)
	out, err := structpb.NewStruct(payload)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode snapshot: %v", err)
	}
	return out, nil
}

func structFromJSON(data []byte) (*structpb.Struct, error) {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return structpb.NewStruct(payload)
}

// Client calls dicestats.v1.Simulator.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Dispatch sends actions as one batch.
func (c *Client) Dispatch(ctx context.Context, actions ...app.Action) (*structpb.Struct, error) {
	list := make([]json.RawMessage, len(actions))
	for i, a := range actions {
		data, err := app.EncodeAction(a)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		list[i] = data
	}
	data, err := json.Marshal(map[string]any{"actions": list})
	if err != nil {
		return nil, err
	}
	in, err := structFromJSON(data)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodDispatch, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Snapshot(ctx context.Context) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodSnapshot, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Watch opens the snapshot stream. Each call to the returned func blocks
// for the next snapshot.
func (c *Client) Watch(ctx context.Context) (func() (*structpb.Struct, error), error) {
	stream, err := c.cc.NewStream(ctx, &serviceDesc.Streams[0], methodWatch)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return func() (*structpb.Struct, error) {
		out := new(structpb.Struct)
		if err := stream.RecvMsg(out); err != nil {
			return nil, err
		}
		return out, nil
	}, nil
}

package grpc

import (
	"context"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mr1hm/quake-explorer/internal/dashboard"
)

const (
	serviceName     = "quakeview.v1.Dashboard"
	getSnapshotPath = "/" + serviceName + "/GetSnapshot"
	streamPath      = "/" + serviceName + "/StreamSnapshots"
)

// SnapshotSource provides the latest snapshot.
type SnapshotSource interface {
	Current() *dashboard.Snapshot
}

type SnapshotRequest struct{}

type StreamRequest struct {
	// DistinctOnly suppresses snapshots whose fingerprint matches the one
	// sent just before.
	DistinctOnly bool `json:"distinct_only"`
}

// DashboardServer is the service implemented by Server.
type DashboardServer interface {
	GetSnapshot(ctx context.Context, req *SnapshotRequest) (*dashboard.Snapshot, error)
	StreamSnapshots(req *StreamRequest, stream grpc.ServerStream) error
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*DashboardServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetSnapshot", Handler: getSnapshotHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "StreamSnapshots", Handler: streamSnapshotsHandler, ServerStreams: true},
	},
	Metadata: "quakeview/v1/dashboard",
}

func getSnapshotHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SnapshotRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DashboardServer).GetSnapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getSnapshotPath}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DashboardServer).GetSnapshot(ctx, req.(*SnapshotRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func streamSnapshotsHandler(srv any, stream grpc.ServerStream) error {
	in := new(StreamRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(DashboardServer).StreamSnapshots(in, stream)
}

type Server struct {
	source      SnapshotSource
	broadcaster *Broadcaster
	grpcServer  *grpc.Server
}

func NewServer(source SnapshotSource, broadcaster *Broadcaster) *Server {
	s := &Server{
		source:      source,
		broadcaster: broadcaster,
		grpcServer:  grpc.NewServer(),
	}
	s.grpcServer.RegisterService(&serviceDesc, s)
	return s
}

func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	slog.Info("gRPC server listening", "addr", addr)
	return s.Serve(lis)
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}

func (s *Server) GetSnapshot(ctx context.Context, req *SnapshotRequest) (*dashboard.Snapshot, error) {
	snap := s.source.Current()
	if snap == nil {
		return nil, status.Error(codes.Unavailable, "no snapshot yet")
	}
	return snap, nil
}

// StreamSnapshots sends the current snapshot and then every new one until
// the client goes away or the broadcaster closes.
func (s *Server) StreamSnapshots(req *StreamRequest, stream grpc.ServerStream) error {
	id, ch := s.broadcaster.Subscribe()
	defer s.broadcaster.Unsubscribe(id)

	slog.Info("client subscribed to snapshot stream", "subscriber_id", id)

	var last string
	send := func(snap *dashboard.Snapshot) error {
		if req.DistinctOnly && snap.Fingerprint == last {
			return nil
		}
		if err := stream.SendMsg(snap); err != nil {
			slog.Error("failed to send snapshot to stream", "error", err, "subscriber_id", id)
			return err
		}
		last = snap.Fingerprint
		return nil
	}

	if snap := s.source.Current(); snap != nil {
		if err := send(snap); err != nil {
			return err
		}
	}

	for {
		select {
		case <-stream.Context().Done():
			slog.Info("client disconnected from snapshot stream", "subscriber_id", id)
			return nil
		case snap, ok := <-ch:
			if !ok {
				return nil
			}
			if err := send(snap); err != nil {
				return err
			}
		}
	}
}

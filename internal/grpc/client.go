package grpc

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"

	"github.com/mr1hm/quake-explorer/internal/dashboard"
)

// Client calls the dashboard service over an existing connection.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) GetSnapshot(ctx context.Context) (*dashboard.Snapshot, error) {
	out := new(dashboard.Snapshot)
	if err := c.conn.Invoke(ctx, getSnapshotPath, &SnapshotRequest{}, out, grpc.CallContentSubtype(codecName)); err != nil {
		return nil, err
	}
	return out, nil
}

// StreamSnapshots calls fn for every received snapshot until the stream
// ends, ctx is cancelled or fn returns an error.
func (c *Client) StreamSnapshots(ctx context.Context, req *StreamRequest, fn func(*dashboard.Snapshot) error) error {
	stream, err := c.conn.NewStream(ctx, &serviceDesc.Streams[0], streamPath, grpc.CallContentSubtype(codecName))
	if err != nil {
		return err
	}
	if err := stream.SendMsg(req); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}

	for {
		snap := new(dashboard.Snapshot)
		if err := stream.RecvMsg(snap); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := fn(snap); err != nil {
			return err
		}
	}
}

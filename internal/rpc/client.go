package rpc

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/feeling-system/internal/feeling"
	"github.com/danielpatrickdp/feeling-system/internal/memory"
	"github.com/danielpatrickdp/feeling-system/internal/synthesis"
)

// #region client-struct
// Client wraps a gRPC connection to a feelingd server.
type Client struct {
	conn *grpc.ClientConn
	cc   grpc.ClientConnInterface
}

// #endregion client-struct

// #region constructor
// NewClient connects to a feelingd server.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, cc: conn}, nil
}

// NewClientWithConn creates a Client over an existing connection, which the
// caller keeps ownership of.
func NewClientWithConn(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection if the client owns it.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region calls

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	in, err := toStruct(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out); err != nil {
		return err
	}
	if resp == nil {
		return nil
	}
	return fromStruct(out, resp)
}

// Process runs one interaction on the server. The returned error carries a
// gRPC status; use status.Code to classify it.
func (c *Client) Process(ctx context.Context, in feeling.Interaction) (feeling.Result, error) {
	req := ProcessRequest{PeerID: in.PeerID, Text: in.Text, Signals: in.Signals}
	if !in.Now.IsZero() {
		req.Now = in.Now.UTC().Format(time.RFC3339Nano)
	}
	var res feeling.Result
	if err := c.invoke(ctx, "Process", req, &res); err != nil {
		return feeling.Result{}, fmt.Errorf("process rpc: %w", err)
	}
	return res, nil
}

// CurrentState returns the server's latest response descriptor.
func (c *Client) CurrentState(ctx context.Context) (synthesis.Response, error) {
	var res synthesis.Response
	if err := c.invoke(ctx, "CurrentState", empty{}, &res); err != nil {
		return synthesis.Response{}, fmt.Errorf("current state rpc: %w", err)
	}
	return res, nil
}

// Snapshot returns the server's full state.
func (c *Client) Snapshot(ctx context.Context) (feeling.Snapshot, error) {
	var snap feeling.Snapshot
	if err := c.invoke(ctx, "Snapshot", empty{}, &snap); err != nil {
		return feeling.Snapshot{}, fmt.Errorf("snapshot rpc: %w", err)
	}
	return snap, nil
}

// RestoreEmbodied regenerates the server's resource pools.
func (c *Client) RestoreEmbodied(ctx context.Context, hours float64) error {
	if err := c.invoke(ctx, "RestoreEmbodied", RestoreRequest{Hours: hours}, nil); err != nil {
		return fmt.Errorf("restore embodied rpc: %w", err)
	}
	return nil
}

// Recall fetches memories by emotion or by peer.
func (c *Client) Recall(ctx context.Context, req RecallRequest) ([]memory.Entry, error) {
	var res RecallResponse
	if err := c.invoke(ctx, "Recall", req, &res); err != nil {
		return nil, fmt.Errorf("recall rpc: %w", err)
	}
	return res.Memories, nil
}

// #endregion calls

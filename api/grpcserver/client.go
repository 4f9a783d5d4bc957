package grpcserver

import (
	"context"

	"google.golang.org/grpc"

	"tradebook/api/wire"
)

// Client calls ServiceName over cc using wire.Codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out wire.Message, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(wire.Name)}, opts...)
	return c.cc.Invoke(ctx, fullMethod(method), in, out, opts...)
}

func (c *Client) AddSymbol(ctx context.Context, in *wire.Symbol, opts ...grpc.CallOption) (*wire.Ack, error) {
	out := new(wire.Ack)
	if err := c.invoke(ctx, "AddSymbol", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteSymbol(ctx context.Context, in *wire.SymbolRef, opts ...grpc.CallOption) (*wire.Ack, error) {
	out := new(wire.Ack)
	if err := c.invoke(ctx, "DeleteSymbol", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddOrder(ctx context.Context, in *wire.Order, opts ...grpc.CallOption) (*wire.Ack, error) {
	out := new(wire.Ack)
	if err := c.invoke(ctx, "AddOrder", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CancelOrder(ctx context.Context, in *wire.CancelRequest, opts ...grpc.CallOption) (*wire.Ack, error) {
	out := new(wire.Ack)
	if err := c.invoke(ctx, "CancelOrder", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteOrder(ctx context.Context, in *wire.OrderRef, opts ...grpc.CallOption) (*wire.Ack, error) {
	out := new(wire.Ack)
	if err := c.invoke(ctx, "DeleteOrder", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetOrder(ctx context.Context, in *wire.OrderRef, opts ...grpc.CallOption) (*wire.OrderReply, error) {
	out := new(wire.OrderReply)
	if err := c.invoke(ctx, "GetOrder", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetOrderBook(ctx context.Context, in *wire.BookRequest, opts ...grpc.CallOption) (*wire.BookReply, error) {
	out := new(wire.BookReply)
	if err := c.invoke(ctx, "GetOrderBook", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

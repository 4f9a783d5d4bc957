package grpcserver

import (
	"context"

	"google.golang.org/grpc"

	"tradebook/api/wire"
)

const ServiceName = "tradebook.v1.OrderBookService"

// OrderBookServer is the server side of ServiceName.
type OrderBookServer interface {
	AddSymbol(context.Context, *wire.Symbol) (*wire.Ack, error)
	DeleteSymbol(context.Context, *wire.SymbolRef) (*wire.Ack, error)
	AddOrder(context.Context, *wire.Order) (*wire.Ack, error)
	CancelOrder(context.Context, *wire.CancelRequest) (*wire.Ack, error)
	DeleteOrder(context.Context, *wire.OrderRef) (*wire.Ack, error)
	GetOrder(context.Context, *wire.OrderRef) (*wire.OrderReply, error)
	GetOrderBook(context.Context, *wire.BookRequest) (*wire.BookReply, error)
}

// ServiceDesc describes the service for grpc.Server.RegisterService.
// Messages are encoded by wire.Codec, so clients must call with
// grpc.CallContentSubtype(wire.Name).
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OrderBookServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AddSymbol", Handler: unary("AddSymbol", OrderBookServer.AddSymbol)},
		{MethodName: "DeleteSymbol", Handler: unary("DeleteSymbol", OrderBookServer.DeleteSymbol)},
		{MethodName: "AddOrder", Handler: unary("AddOrder", OrderBookServer.AddOrder)},
		{MethodName: "CancelOrder", Handler: unary("CancelOrder", OrderBookServer.CancelOrder)},
		{MethodName: "DeleteOrder", Handler: unary("DeleteOrder", OrderBookServer.DeleteOrder)},
		{MethodName: "GetOrder", Handler: unary("GetOrder", OrderBookServer.GetOrder)},
		{MethodName: "GetOrderBook", Handler: unary("GetOrderBook", OrderBookServer.GetOrderBook)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/wire/tradebook.proto",
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

func unary[Req any, PReq interface {
	*Req
	wire.Message
}, Resp wire.Message](
	name string,
	call func(OrderBookServer, context.Context, PReq) (Resp, error),
) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(OrderBookServer)
		if interceptor == nil {
			return call(s, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(s, ctx, req.(PReq))
		})
	}
}

// Register adds srv to s.
func Register(s grpc.ServiceRegistrar, srv OrderBookServer) {
	s.RegisterService(&ServiceDesc, srv)
}

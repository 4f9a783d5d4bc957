package grpcserver

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tradebook/api/wire"
	"tradebook/domain/market"
	"tradebook/domain/orderbook"
	"tradebook/service"
)

// Engine is the part of service.Engine the server needs.
type Engine interface {
	Submit(ctx context.Context, cmd service.Command) (service.Result, error)
	Order(ctx context.Context, id uint64) (orderbook.Order, bool, error)
	Book(ctx context.Context, symbolID uint32, depth int) (service.BookView, bool, error)
}

// Server adapts the engine to gRPC.
type Server struct {
	eng Engine
	log *zap.Logger
}

var _ OrderBookServer = (*Server)(nil)

func NewServer(eng Engine, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{eng: eng, log: logger.Named("grpc")}
}

// -------------------- Commands --------------------

func (s *Server) AddSymbol(ctx context.Context, req *wire.Symbol) (*wire.Ack, error) {
	sym, err := req.Domain()
	if err != nil {
		return nil, toStatus(err)
	}
	return s.submit(ctx, service.AddSymbol(sym))
}

func (s *Server) DeleteSymbol(ctx context.Context, req *wire.SymbolRef) (*wire.Ack, error) {
	return s.submit(ctx, service.DeleteSymbol(req.ID))
}

func (s *Server) AddOrder(ctx context.Context, req *wire.Order) (*wire.Ack, error) {
	return s.submit(ctx, service.AddOrder(req.Domain()))
}

func (s *Server) CancelOrder(ctx context.Context, req *wire.CancelRequest) (*wire.Ack, error) {
	return s.submit(ctx, service.CancelOrder(req.OrderID, req.Quantity).WithSymbol(req.SymbolID))
}

func (s *Server) DeleteOrder(ctx context.Context, req *wire.OrderRef) (*wire.Ack, error) {
	return s.submit(ctx, service.DeleteOrder(req.ID).WithSymbol(req.SymbolID))
}

func (s *Server) submit(ctx context.Context, cmd service.Command) (*wire.Ack, error) {
	res, err := s.eng.Submit(ctx, cmd)
	if err != nil {
		return nil, toStatus(err)
	}
	ack := wire.AckOf(cmd, res, nil)
	return &ack, nil
}

// -------------------- Queries --------------------

// GetOrder answers Found=false for an id that is not resting.
func (s *Server) GetOrder(ctx context.Context, req *wire.OrderRef) (*wire.OrderReply, error) {
	o, found, err := s.eng.Order(ctx, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	if !found {
		return &wire.OrderReply{}, nil
	}
	return &wire.OrderReply{Found: true, Order: wire.OrderOf(o)}, nil
}

// GetOrderBook answers Found=false for an unregistered symbol.
func (s *Server) GetOrderBook(ctx context.Context, req *wire.BookRequest) (*wire.BookReply, error) {
	v, found, err := s.eng.Book(ctx, req.SymbolID, int(req.Depth))
	if err != nil {
		return nil, toStatus(err)
	}
	reply := wire.BookReplyOf(v, found)
	return &reply, nil
}

// -------------------- Errors --------------------

func toStatus(err error) error {
	switch {
	case errors.Is(err, market.ErrPrecondition):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, wire.ErrInvalid):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrClosed):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

package grpcserver

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"tradebook/api/wire"
	"tradebook/service"
)

type harness struct {
	client *Client
	conn   *grpc.ClientConn
	eng    *service.Engine
	logs   *observer.ObservedLogs
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	eng := service.New(service.DefaultConfig(), nil)
	go func() { _ = eng.Run(context.Background()) }()
	t.Cleanup(eng.Close)

	core, logs := observer.New(zap.DebugLevel)
	srv, _ := New(NewServer(eng, nil), zap.New(core))

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &harness{client: NewClient(conn), conn: conn, eng: eng, logs: logs}
}

func TestServerRoundTrip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ack, err := h.client.AddSymbol(ctx, &wire.Symbol{ID: 1, Name: "AAPL"})
	require.NoError(t, err)
	assert.Equal(t, wire.StatusOK, ack.Status)
	assert.Equal(t, uint32(1), ack.SymbolID)

	ack, err = h.client.AddOrder(ctx, &wire.Order{ID: 10, SymbolID: 1, Side: wire.SideBuy, Price: 100, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, wire.Ack{Seq: 2, Kind: wire.KindAddOrder, Status: wire.StatusOK, OrderID: 10, SymbolID: 1, Quantity: 5}, *ack)

	_, err = h.client.AddOrder(ctx, &wire.Order{ID: 11, SymbolID: 1, Side: wire.SideBuy, Price: 101, Quantity: 2})
	require.NoError(t, err)
	_, err = h.client.AddOrder(ctx, &wire.Order{ID: 12, SymbolID: 1, Side: wire.SideSell, Price: 103, Quantity: 7})
	require.NoError(t, err)

	ack, err = h.client.CancelOrder(ctx, &wire.CancelRequest{OrderID: 10, Quantity: 3, SymbolID: 1})
	require.NoError(t, err)
	assert.Equal(t, wire.Ack{Seq: 5, Kind: wire.KindCancelOrder, Status: wire.StatusOK, OrderID: 10, SymbolID: 1, Quantity: 3}, *ack)

	o, err := h.client.GetOrder(ctx, &wire.OrderRef{ID: 10})
	require.NoError(t, err)
	assert.True(t, o.Found)
	assert.Equal(t, wire.Order{ID: 10, SymbolID: 1, Side: wire.SideBuy, Price: 100, Quantity: 2}, o.Order)

	book, err := h.client.GetOrderBook(ctx, &wire.BookRequest{SymbolID: 1, Depth: 1})
	require.NoError(t, err)
	assert.Equal(t, "AAPL", book.Symbol.Name)
	assert.Equal(t, []wire.LevelEntry{{Price: 101, Volume: 2, Count: 1}}, book.Bids)
	assert.Equal(t, []wire.LevelEntry{{Price: 103, Volume: 7, Count: 1}}, book.Asks)
	assert.Equal(t, uint64(3), book.Orders)

	ack, err = h.client.DeleteOrder(ctx, &wire.OrderRef{ID: 12})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), ack.Quantity)

	ack, err = h.client.DeleteSymbol(ctx, &wire.SymbolRef{ID: 1})
	require.NoError(t, err)
	assert.Equal(t, wire.StatusOK, ack.Status)

	o, err = h.client.GetOrder(ctx, &wire.OrderRef{ID: 11})
	require.NoError(t, err)
	assert.False(t, o.Found, "purged with its symbol")
	assert.Equal(t, wire.Order{}, o.Order)
}

func TestServerStatusCodes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.client.AddSymbol(ctx, &wire.Symbol{ID: 1, Name: "MSFT"})
	require.NoError(t, err)

	_, err = h.client.AddSymbol(ctx, &wire.Symbol{ID: 1, Name: "MSFT"})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = h.client.DeleteSymbol(ctx, &wire.SymbolRef{ID: 2})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = h.client.AddOrder(ctx, &wire.Order{ID: 1, SymbolID: 1, Price: 1, Quantity: 1})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err), "unspecified side")

	_, err = h.client.AddSymbol(ctx, &wire.Symbol{ID: 3, Name: "WAYTOOLONG"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	book, err := h.client.GetOrderBook(ctx, &wire.BookRequest{SymbolID: 9})
	require.NoError(t, err, "unknown symbol is a null book, not an error")
	assert.False(t, book.Found)
	assert.Empty(t, book.Bids)

	ack, err := h.client.AddOrder(ctx, &wire.Order{ID: 2, SymbolID: 9, Side: wire.SideSell, Price: 1, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, wire.StatusIgnored, ack.Status, "unknown symbol is dropped, not an error")

	ack, err = h.client.CancelOrder(ctx, &wire.CancelRequest{OrderID: 404, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, wire.StatusIgnored, ack.Status)

	assert.Equal(t, 4, h.logs.FilterMessage("rpc failed").Len())
}

func TestServerEngineClosed(t *testing.T) {
	h := newHarness(t)
	h.eng.Close()

	_, err := h.client.AddSymbol(context.Background(), &wire.Symbol{ID: 1, Name: "A"})
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestHealth(t *testing.T) {
	h := newHarness(t)

	resp, err := healthpb.NewHealthClient(h.conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestToStatus(t *testing.T) {
	assert.Equal(t, codes.Canceled, status.Code(toStatus(context.Canceled)))
	assert.Equal(t, codes.DeadlineExceeded, status.Code(toStatus(context.DeadlineExceeded)))
	assert.Equal(t, codes.Internal, status.Code(toStatus(assert.AnError)))
}

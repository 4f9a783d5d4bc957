package service

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"tradebook/domain/market"
	"tradebook/domain/orderbook"
)

type Config struct {
	// CommandBuffer is the size of the inbound command channel.
	CommandBuffer int
	Market        market.Config
	// Verify cross-checks every book against the order index after each
	// mutation. O(n); for debugging only.
	Verify bool
}

func DefaultConfig() Config {
	return Config{
		CommandBuffer: 1024,
		Market:        market.DefaultConfig(),
	}
}

type request struct {
	fn   func(*market.Manager)
	done chan struct{}
}

// Engine owns a market.Manager and serializes every access to it.
type Engine struct {
	cfg Config
	log *zap.Logger
	mgr *market.Manager

	// seq is the last sequence number issued. Every submitted command
	// takes the next one, whatever its status.
	seq atomic.Uint64

	// verify runs after each applied mutation when cfg.Verify is set.
	verify func(*market.Manager) error

	reqCh chan request

	running   atomic.Bool
	breaches  atomic.Uint64
	quit      chan struct{}
	quitOnce  sync.Once
	stopped   chan struct{}
	closeOnce sync.Once
}

func New(cfg Config, logger *zap.Logger) *Engine {
	if cfg.CommandBuffer <= 0 {
		cfg.CommandBuffer = DefaultConfig().CommandBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:     cfg,
		log:     logger.Named("engine"),
		mgr:     market.NewManager(cfg.Market),
		verify:  (*market.Manager).Verify,
		reqCh:   make(chan request, cfg.CommandBuffer),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Run applies commands until ctx is done or Close is called. It must be
// called exactly once.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		select {
		case <-e.quit:
			return nil
		default:
			return ErrRunning
		}
	}
	defer e.closeOnce.Do(func() { close(e.stopped) })
	defer e.mgr.Close()

	e.log.Info("engine started",
		zap.Int("command_buffer", e.cfg.CommandBuffer),
		zap.Bool("verify", e.cfg.Verify),
	)
	for {
		select {
		case <-ctx.Done():
			e.log.Info("engine stopped", zap.Uint64("seq", e.seq.Load()), zap.Error(ctx.Err()))
			return nil
		case <-e.quit:
			e.log.Info("engine stopped", zap.Uint64("seq", e.seq.Load()))
			return nil
		case r := <-e.reqCh:
			r.fn(e.mgr)
			close(r.done)
		}
	}
}

// Close stops Run and waits for it to return. After Close, Run returns
// immediately.
func (e *Engine) Close() {
	e.quitOnce.Do(func() { close(e.quit) })
	if e.running.CompareAndSwap(false, true) {
		e.closeOnce.Do(func() { close(e.stopped) })
		return
	}
	<-e.stopped
}

// do runs fn on the engine goroutine. A request accepted before ctx
// expires may still run after do has returned.
func (e *Engine) do(ctx context.Context, fn func(*market.Manager)) error {
	r := request{fn: fn, done: make(chan struct{})}

	select {
	case <-e.quit:
		return ErrClosed
	default:
	}
	select {
	case <-e.quit:
		return ErrClosed
	case <-e.stopped:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	case e.reqCh <- r:
	}

	select {
	case <-r.done:
		return nil
	case <-e.stopped:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

//
// ──────────────────────────────────────────────────────────
// Commands
// ──────────────────────────────────────────────────────────
//

// Submit applies cmd. Precondition violations come back as an error
// wrapping market.ErrPrecondition together with a Result whose status is
// StatusRejected; any other error means the command was not applied.
func (e *Engine) Submit(ctx context.Context, cmd Command) (Result, error) {
	var (
		res    Result
		cmdErr error
	)
	if err := e.do(ctx, func(m *market.Manager) { res, cmdErr = e.apply(m, cmd) }); err != nil {
		return Result{}, err
	}
	return res, cmdErr
}

func (e *Engine) apply(m *market.Manager, cmd Command) (Result, error) {
	res := Result{Seq: e.seq.Add(1), Kind: cmd.Kind}

	var err error
	switch cmd.Kind {
	case KindAddSymbol:
		if err = m.AddSymbol(cmd.Symbol); err == nil {
			e.log.Info("symbol added", zap.Uint32("symbol_id", cmd.Symbol.ID), zap.Stringer("name", cmd.Symbol))
		}

	case KindDeleteSymbol:
		if err = m.DeleteSymbol(cmd.SymbolID); err == nil {
			e.log.Info("symbol deleted", zap.Uint32("symbol_id", cmd.SymbolID))
		}

	case KindAddOrder:
		var added bool
		added, err = m.AddOrder(cmd.Order)
		if added {
			res.Quantity = cmd.Order.Quantity
		} else if err == nil {
			res.Status = StatusIgnored
			e.log.Debug("order dropped",
				zap.Uint64("order_id", cmd.Order.ID),
				zap.Uint32("symbol_id", cmd.Order.SymbolID),
				zap.Uint64("quantity", cmd.Order.Quantity),
			)
		}

	case KindCancelOrder:
		res.Quantity = m.CancelOrder(cmd.OrderID, cmd.Quantity)
		if res.Quantity == 0 {
			res.Status = StatusIgnored
			e.log.Debug("cancel ignored", zap.Uint64("order_id", cmd.OrderID), zap.Uint64("quantity", cmd.Quantity))
		}

	case KindDeleteOrder:
		res.Quantity = m.DeleteOrder(cmd.OrderID)
		if res.Quantity == 0 {
			res.Status = StatusIgnored
			e.log.Debug("delete ignored", zap.Uint64("order_id", cmd.OrderID))
		}

	default:
		err = errors.Wrapf(ErrUnknownCommand, "kind %d", cmd.Kind)
	}

	if err != nil {
		res.Status = StatusRejected
		res.Quantity = 0
		e.log.Warn("command rejected", zap.Uint64("seq", res.Seq), zap.Stringer("kind", cmd.Kind), zap.Error(err))
		return res, err
	}

	if e.cfg.Verify && res.Status == StatusOK {
		if verr := e.verify(m); verr != nil {
			e.breaches.Add(1)
			e.log.Error("market invariant broken", zap.Uint64("seq", res.Seq), zap.Stringer("kind", cmd.Kind), zap.Error(verr))
		}
	}
	return res, nil
}

//
// ──────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────
//

// Order returns a copy of the resting order.
func (e *Engine) Order(ctx context.Context, id uint64) (orderbook.Order, bool, error) {
	var (
		out   orderbook.Order
		found bool
	)
	err := e.do(ctx, func(m *market.Manager) {
		if o := m.GetOrder(id); o != nil {
			out, found = *o, true
		}
	})
	return out, found, err
}

// Book copies up to depth levels per side, best first. depth <= 0 copies
// every level.
func (e *Engine) Book(ctx context.Context, symbolID uint32, depth int) (BookView, bool, error) {
	var (
		out   BookView
		found bool
	)
	err := e.do(ctx, func(m *market.Manager) {
		b := m.GetOrderBook(symbolID)
		if b == nil {
			return
		}
		found = true
		out.Symbol, _ = m.Symbol(symbolID)
		out.Bids, out.Asks = b.Depth(depth)
		out.Orders = b.OrderCount()
	})
	return out, found, err
}

// Symbols lists registered symbols ordered by name.
func (e *Engine) Symbols(ctx context.Context) ([]market.Symbol, error) {
	var out []market.Symbol
	err := e.do(ctx, func(m *market.Manager) { out = m.Symbols() })
	return out, err
}

func (e *Engine) Digest(ctx context.Context) (uint64, error) {
	var d uint64
	err := e.do(ctx, func(m *market.Manager) { d = m.Digest() })
	return d, err
}

// Verify runs the full consistency check on the engine goroutine.
func (e *Engine) Verify(ctx context.Context) error {
	var verr error
	if err := e.do(ctx, func(m *market.Manager) { verr = m.Verify() }); err != nil {
		return err
	}
	return verr
}

// Stats may be read from any goroutine.
func (e *Engine) Stats() *market.Stats { return e.mgr.Stats() }

// QueueDepth is the number of requests waiting for the engine goroutine.
func (e *Engine) QueueDepth() int { return len(e.reqCh) }

// Sequence is the last sequence number handed to a command.
func (e *Engine) Sequence() uint64 { return e.seq.Load() }

// Breaches counts failed consistency checks in verify mode.
func (e *Engine) Breaches() uint64 { return e.breaches.Load() }

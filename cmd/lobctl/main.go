// Command lobctl talks to a running tradebook server and edits the
// symbol catalog.
//
//	lobctl [flags] symbols list|add <id> <name> <tick>|rm <id>
//	lobctl [flags] register <id> <name>
//	lobctl [flags] unregister <id>
//	lobctl [flags] add <order-id> <symbol-id> buy|sell <price> <qty>
//	lobctl [flags] cancel <order-id> <symbol-id> <qty>
//	lobctl [flags] delete <order-id> <symbol-id>
//	lobctl [flags] order <order-id>
//	lobctl [flags] book <symbol-id> [depth]
//
// With -tick, prices are decimals converted to ticks of that size;
// otherwise they are raw ticks. With -brokers, add, cancel and delete are
// published to the command topic instead of sent over gRPC, keyed by
// symbol id.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"tradebook/api/grpcserver"
	"tradebook/api/wire"
	"tradebook/domain/price"
	"tradebook/infra/catalog"
	"tradebook/infra/kafka"
)

var errUsage = errors.New("usage: lobctl [flags] symbols|register|unregister|add|cancel|delete|order|book ...")

type options struct {
	addr    string
	catalog string
	tick    string
	brokers string
	topic   string
	timeout time.Duration
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "lobctl:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var opts options
	fs := flag.NewFlagSet("lobctl", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&opts.addr, "addr", "localhost:50051", "server gRPC address")
	fs.StringVar(&opts.catalog, "catalog", "./catalog", "symbol catalog directory")
	fs.StringVar(&opts.tick, "tick", "", "tick size; prices are raw ticks when empty")
	fs.StringVar(&opts.brokers, "brokers", "", "comma-separated Kafka brokers; publish commands instead of calling gRPC")
	fs.StringVar(&opts.topic, "topic", "tradebook.commands", "Kafka command topic")
	fs.DurationVar(&opts.timeout, "timeout", 5*time.Second, "request timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	args = fs.Args()
	if len(args) == 0 {
		return errUsage
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	c := &cli{opts: opts, out: out}
	if args[0] == "symbols" {
		return c.symbols(args[1:])
	}
	defer c.close()
	return c.dispatch(ctx, args[0], args[1:])
}

type cli struct {
	opts options
	out  io.Writer

	conn     *grpc.ClientConn
	client   *grpcserver.Client
	producer *kafka.Producer
}

func (c *cli) close() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
	if c.producer != nil {
		_ = c.producer.Close()
	}
}

func (c *cli) rpc() (*grpcserver.Client, error) {
	if c.client != nil {
		return c.client, nil
	}
	conn, err := grpc.NewClient(c.opts.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", c.opts.addr)
	}
	c.conn = conn
	c.client = grpcserver.NewClient(conn)
	return c.client, nil
}

// -------------------- Catalog --------------------

func (c *cli) symbols(args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cat, err := catalog.Open(c.opts.catalog)
	if err != nil {
		return err
	}
	defer cat.Close()

	switch args[0] {
	case "list":
		entries, err := cat.Entries()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tTICK")
		for _, e := range entries {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", e.Symbol.ID, e.Symbol, e.TickSize)
		}
		return tw.Flush()

	case "add":
		if len(args) != 4 {
			return errUsage
		}
		id, err := parseUint32(args[1])
		if err != nil {
			return err
		}
		ws := wire.Symbol{ID: id, Name: args[2]}
		sym, err := ws.Domain()
		if err != nil {
			return err
		}
		tick, err := price.ParseTick(args[3])
		if err != nil {
			return err
		}
		if err := cat.Put(catalog.Entry{Symbol: sym, TickSize: tick}); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "symbol %d %s tick %s saved\n", id, sym, tick)
		return nil

	case "rm":
		if len(args) != 2 {
			return errUsage
		}
		id, err := parseUint32(args[1])
		if err != nil {
			return err
		}
		if err := cat.Delete(id); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "symbol %d removed\n", id)
		return nil
	}
	return errUsage
}

// -------------------- Engine --------------------

func (c *cli) dispatch(ctx context.Context, name string, args []string) error {
	switch name {
	case "register":
		if len(args) != 2 {
			return errUsage
		}
		id, err := parseUint32(args[0])
		if err != nil {
			return err
		}
		return c.mutate(ctx, wire.Command{Kind: wire.KindAddSymbol, Symbol: wire.Symbol{ID: id, Name: args[1]}})

	case "unregister":
		if len(args) != 1 {
			return errUsage
		}
		id, err := parseUint32(args[0])
		if err != nil {
			return err
		}
		return c.mutate(ctx, wire.Command{Kind: wire.KindDeleteSymbol, SymbolID: id})

	case "add":
		if len(args) != 5 {
			return errUsage
		}
		o, err := c.parseOrder(args)
		if err != nil {
			return err
		}
		return c.mutate(ctx, wire.Command{Kind: wire.KindAddOrder, Order: o})

	case "cancel":
		if len(args) != 3 {
			return errUsage
		}
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return errors.Wrapf(err, "order id %q", args[0])
		}
		sym, err := parseUint32(args[1])
		if err != nil {
			return err
		}
		qty, err := strconv.ParseUint(args[2], 10, 64)
		if err != nil {
			return errors.Wrapf(err, "quantity %q", args[2])
		}
		return c.mutate(ctx, wire.Command{Kind: wire.KindCancelOrder, OrderID: id, Quantity: qty, SymbolID: sym})

	case "delete":
		if len(args) != 2 {
			return errUsage
		}
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return errors.Wrapf(err, "order id %q", args[0])
		}
		sym, err := parseUint32(args[1])
		if err != nil {
			return err
		}
		return c.mutate(ctx, wire.Command{Kind: wire.KindDeleteOrder, OrderID: id, SymbolID: sym})

	case "order":
		if len(args) != 1 {
			return errUsage
		}
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return errors.Wrapf(err, "order id %q", args[0])
		}
		return c.order(ctx, id)

	case "book":
		if len(args) < 1 || len(args) > 2 {
			return errUsage
		}
		id, err := parseUint32(args[0])
		if err != nil {
			return err
		}
		var depth uint32
		if len(args) == 2 {
			if depth, err = parseUint32(args[1]); err != nil {
				return err
			}
		}
		return c.book(ctx, id, depth)
	}
	return errUsage
}

// mutate sends cmd over gRPC, or to Kafka when brokers are configured.
func (c *cli) mutate(ctx context.Context, cmd wire.Command) error {
	if c.opts.brokers != "" && cmd.Kind != wire.KindAddSymbol && cmd.Kind != wire.KindDeleteSymbol {
		if c.producer == nil {
			c.producer = kafka.NewProducer(strings.Split(c.opts.brokers, ","), c.opts.topic)
		}
		if err := c.producer.Send(ctx, cmd); err != nil {
			return errors.Wrap(err, "publish")
		}
		fmt.Fprintf(c.out, "published %s\n", kafka.CommandKey(&cmd))
		return nil
	}

	client, err := c.rpc()
	if err != nil {
		return err
	}

	var ack *wire.Ack
	switch cmd.Kind {
	case wire.KindAddSymbol:
		ack, err = client.AddSymbol(ctx, &cmd.Symbol)
	case wire.KindDeleteSymbol:
		ack, err = client.DeleteSymbol(ctx, &wire.SymbolRef{ID: cmd.SymbolID})
	case wire.KindAddOrder:
		ack, err = client.AddOrder(ctx, &cmd.Order)
	case wire.KindCancelOrder:
		ack, err = client.CancelOrder(ctx, &wire.CancelRequest{OrderID: cmd.OrderID, Quantity: cmd.Quantity, SymbolID: cmd.SymbolID})
	case wire.KindDeleteOrder:
		ack, err = client.DeleteOrder(ctx, &wire.OrderRef{ID: cmd.OrderID, SymbolID: cmd.SymbolID})
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "seq=%d status=%s quantity=%d\n", ack.Seq, statusName(ack.Status), ack.Quantity)
	return nil
}

func (c *cli) order(ctx context.Context, id uint64) error {
	client, err := c.rpc()
	if err != nil {
		return err
	}
	r, err := client.GetOrder(ctx, &wire.OrderRef{ID: id})
	if err != nil {
		return err
	}
	if !r.Found {
		return errors.Newf("order %d not found", id)
	}
	side := "buy"
	if r.Order.Side == wire.SideSell {
		side = "sell"
	}
	fmt.Fprintf(c.out, "order %d symbol %d %s %s x %d\n",
		r.Order.ID, r.Order.SymbolID, side, c.formatPrice(r.Order.Price), r.Order.Quantity)
	return nil
}

func (c *cli) book(ctx context.Context, id, depth uint32) error {
	client, err := c.rpc()
	if err != nil {
		return err
	}
	r, err := client.GetOrderBook(ctx, &wire.BookRequest{SymbolID: id, Depth: depth})
	if err != nil {
		return err
	}
	if !r.Found {
		return errors.Newf("symbol %d not found", id)
	}

	fmt.Fprintf(c.out, "%s (%d) orders=%d\n", r.Symbol.Name, r.Symbol.ID, r.Orders)
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "BID COUNT\tBID VOL\tBID\tASK\tASK VOL\tASK COUNT\t")
	for i := 0; i < max(len(r.Bids), len(r.Asks)); i++ {
		var bid, ask [3]string
		if i < len(r.Bids) {
			l := r.Bids[i]
			bid = [3]string{strconv.FormatUint(l.Count, 10), strconv.FormatUint(l.Volume, 10), c.formatPrice(l.Price)}
		}
		if i < len(r.Asks) {
			l := r.Asks[i]
			ask = [3]string{c.formatPrice(l.Price), strconv.FormatUint(l.Volume, 10), strconv.FormatUint(l.Count, 10)}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n", bid[0], bid[1], bid[2], ask[0], ask[1], ask[2])
	}
	return tw.Flush()
}

// -------------------- Parsing --------------------

func (c *cli) parseOrder(args []string) (wire.Order, error) {
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return wire.Order{}, errors.Wrapf(err, "order id %q", args[0])
	}
	sym, err := parseUint32(args[1])
	if err != nil {
		return wire.Order{}, err
	}
	var side wire.Side
	switch strings.ToLower(args[2]) {
	case "buy", "b", "bid":
		side = wire.SideBuy
	case "sell", "s", "ask":
		side = wire.SideSell
	default:
		return wire.Order{}, errors.Newf("side %q must be buy or sell", args[2])
	}
	px, err := c.parsePrice(args[3])
	if err != nil {
		return wire.Order{}, err
	}
	qty, err := strconv.ParseUint(args[4], 10, 64)
	if err != nil {
		return wire.Order{}, errors.Wrapf(err, "quantity %q", args[4])
	}
	return wire.Order{ID: id, SymbolID: sym, Side: side, Price: px, Quantity: qty}, nil
}

func (c *cli) parsePrice(s string) (uint64, error) {
	if c.opts.tick == "" {
		v, err := strconv.ParseUint(s, 10, 64)
		return v, errors.Wrapf(err, "price %q", s)
	}
	tick, err := price.ParseTick(c.opts.tick)
	if err != nil {
		return 0, err
	}
	px, err := decimal.NewFromString(s)
	if err != nil {
		return 0, errors.Wrapf(err, "price %q", s)
	}
	return price.ToTicks(px, tick)
}

func (c *cli) formatPrice(ticks uint64) string {
	if c.opts.tick == "" {
		return strconv.FormatUint(ticks, 10)
	}
	tick, err := price.ParseTick(c.opts.tick)
	if err != nil {
		return strconv.FormatUint(ticks, 10)
	}
	return price.FromTicks(ticks, tick).String()
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "%q", s)
	}
	return uint32(v), nil
}

func statusName(s wire.Status) string {
	switch s {
	case wire.StatusOK:
		return "ok"
	case wire.StatusIgnored:
		return "ignored"
	case wire.StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

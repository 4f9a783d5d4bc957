// Package catalog keeps symbol metadata on disk in pebble. The server
// registers every catalog entry with the engine at boot; lobctl edits the
// catalog offline.
package catalog

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tradebook/domain/market"
	"tradebook/domain/price"
)

var ErrNotFound = errors.New("catalog: symbol not found")

// Entry is a symbol and the price increment its ticks stand for.
type Entry struct {
	Symbol   market.Symbol
	TickSize decimal.Decimal
}

type Catalog struct {
	db *pebble.DB
}

type Option func(*pebble.Options)

// WithFS runs the catalog on fs, e.g. vfs.NewMem() in tests.
func WithFS(fs vfs.FS) Option {
	return func(o *pebble.Options) { o.FS = fs }
}

// WithLogger routes pebble's own logging to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *pebble.Options) { o.Logger = logger.Named("pebble").Sugar() }
}

func Open(dir string, opts ...Option) (*Catalog, error) {
	o := &pebble.Options{}
	for _, fn := range opts {
		fn(o)
	}
	db, err := pebble.Open(dir, o)
	if err != nil {
		return nil, errors.Wrapf(err, "open catalog %s", dir)
	}
	return &Catalog{db: db}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// -------------------- API --------------------

// Put inserts or replaces the entry for e.Symbol.ID.
func (c *Catalog) Put(e Entry) error {
	if e.Symbol.String() == "" {
		return errors.Newf("catalog: symbol %d has no name", e.Symbol.ID)
	}
	if !e.TickSize.IsPositive() {
		return errors.Wrapf(price.ErrInvalidTick, "symbol %d tick %s", e.Symbol.ID, e.TickSize)
	}
	return c.db.Set(keyFor(e.Symbol.ID), encodeEntry(e), pebble.Sync)
}

func (c *Catalog) Delete(id uint32) error {
	if _, err := c.Get(id); err != nil {
		return err
	}
	return c.db.Delete(keyFor(id), pebble.Sync)
}

func (c *Catalog) Get(id uint32) (Entry, error) {
	val, closer, err := c.db.Get(keyFor(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return Entry{}, errors.Wrapf(ErrNotFound, "symbol %d", id)
	}
	if err != nil {
		return Entry{}, err
	}
	defer closer.Close()

	return decodeEntry(id, val)
}

// Scan visits every entry in id order.
func (c *Catalog) Scan(fn func(Entry) error) error {
	iter, err := c.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		id, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		e, err := decodeEntry(id, iter.Value())
		if err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Entries returns every entry in id order.
func (c *Catalog) Entries() ([]Entry, error) {
	var out []Entry
	err := c.Scan(func(e Entry) error {
		out = append(out, e)
		return nil
	})
	return out, err
}

// -------------------- Encoding --------------------

const keyPrefix = "symbol/"

func keyFor(id uint32) []byte {
	return []byte(fmt.Sprintf("%s%010d", keyPrefix, id))
}

func parseKey(b []byte) (uint32, error) {
	id, err := strconv.ParseUint(string(bytes.TrimPrefix(b, []byte(keyPrefix))), 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "catalog: bad key %q", b)
	}
	return uint32(id), nil
}

// [nameLen:1][name][tick as decimal string]
func encodeEntry(e Entry) []byte {
	name := e.Symbol.String()
	buf := make([]byte, 0, 1+len(name)+8)
	buf = append(buf, byte(len(name)))
	buf = append(buf, name...)
	return append(buf, e.TickSize.String()...)
}

func decodeEntry(id uint32, b []byte) (Entry, error) {
	if len(b) < 1 || int(b[0]) > market.SymbolNameLen || len(b) < 1+int(b[0]) {
		return Entry{}, errors.Newf("catalog: corrupt entry for symbol %d", id)
	}
	n := int(b[0])
	tick, err := price.ParseTick(string(b[1+n:]))
	if err != nil {
		return Entry{}, errors.Wrapf(err, "catalog: symbol %d", id)
	}
	return Entry{
		Symbol:   market.NewSymbol(id, string(b[1:1+n])),
		TickSize: tick,
	}, nil
}

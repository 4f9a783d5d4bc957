// Package orderbook implements the resting side of a limit order book
// for a single symbol.
//
// Each side is a red-black tree of price levels and each level is a FIFO
// queue of orders. Orders and levels live in shared memory.Pool storage
// and reference each other by handle, so a caller holding an order handle
// can cancel or delete it without searching the tree. Levels exist only
// while they hold orders; the best bid and best ask are cached and only
// move when a level is created or destroyed.
//
// An OrderBook is single-writer. It does not match crossing orders.
package orderbook

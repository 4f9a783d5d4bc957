// Package market routes order operations to per-symbol order books.
//
// Manager owns the symbol registry, the books (vended from a pool and
// indexed by symbol id) and the process-wide OrderIndex that maps an
// order id straight to its record. Cancels and deletes never search a
// price tree: the index entry already names the book and the order slot,
// and the order slot names its level.
//
// Programmer errors (duplicate symbol, unknown symbol on delete,
// duplicate order id) are returned wrapped in ErrPrecondition and leave
// state untouched. Everything else that cannot apply (zero quantity,
// unknown symbol on add, unknown order id) is dropped silently and only
// counted in Stats.
//
// Manager is single-writer; see package service for a goroutine-safe
// front.
package market

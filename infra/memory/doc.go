// Package memory provides the object pools behind the order book.
//
// A Pool hands out integer handles instead of pointers. Storage is
// carved into fixed-size chunks that are never reallocated, so a
// handle (and any pointer obtained from it) stays valid until the
// slot is freed, no matter how much the pool grows afterwards.
//
// Pools are not safe for concurrent use; the engine that owns them
// is single-writer.
package memory

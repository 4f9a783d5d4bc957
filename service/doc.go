// Package service runs the market on a single goroutine.
//
// Engine is the only write entry point. Transports (gRPC, Kafka) hand it
// commands; it applies them in arrival order, stamps each with a sequence
// number and answers with value copies, so nothing owned by the books
// leaves the engine goroutine.
package service

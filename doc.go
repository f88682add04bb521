// Package eventry is an event-sourcing persistence runtime: it stores the
// state of aggregates as append-only sequences of immutable domain events
// and replays those sequences to reconstruct aggregate state.
//
// # Pipeline
//
// Domain events cross the persistence boundary through a Mapper, which
// applies a Transcoder (required), an optional Compressor, and an optional
// Cipher, in that order, to produce a StoredEvent:
//
//	domain event -> transcoder.Encode -> compressor.Compress? -> cipher.Encrypt? -> StoredEvent
//
// Reading reverses the pipeline exactly. Transcoder, Compressor, and Cipher
// are all stateless after construction and safe for concurrent use from any
// number of goroutines; the only suspension points in the whole system are
// inside a Recorder's I/O.
//
// # Recorders
//
// Three recorder contracts build on each other: AggregateRecorder gives a
// per-aggregate append-only log with optimistic concurrency,
// ApplicationRecorder adds a global, gap-free, monotonically assigned
// notification log, and ProcessRecorder adds durable tracking of upstream
// positions for idempotent cross-application processing.
//
// # Construction
//
// The factory package builds a Mapper and a recorder stack from a plain
// map[string]string configuration; see package eventry/factory.
package eventry

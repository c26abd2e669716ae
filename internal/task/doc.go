// Package task implements the durable task layer of the content pipeline:
// a persisted Task abstraction with a buffered queue and worker-pool runner,
// a bounded retry envelope for individual pipeline steps, and a fan-out/fan-in
// batch primitive used by the workflow orchestrators.
//
// Tasks are persisted before execution and their status transitions
// (pending, processing, completed, failed, cancelled) are recorded through a
// TaskStore, so interrupted work is recovered on restart and completion is
// observable by querying task state.
package task

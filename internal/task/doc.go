// Package task runs short-lived background work on a bounded pool of
// goroutines. Callers fill a TaskQueue, close it, and let a WorkerPool
// drain it; the pool reports failures through an error handler.
package task

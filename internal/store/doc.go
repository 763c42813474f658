// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic. Implementations live in internal/platform;
// an in-memory implementation for tests lives in internal/mocks.
package store

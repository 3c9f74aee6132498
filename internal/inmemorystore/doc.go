// Package inmemorystore provides a thread-safe, in-memory implementation
// of the nodestore.Store interface. The module graph never outlives the
// process that built it, so nothing here is persisted.
package inmemorystore

// Package inmemorytopology provides a thread-safe, in-memory implementation
// of the topologystore.Store interface.
package inmemorytopology

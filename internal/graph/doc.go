// Package graph provides the module graph: a facade that combines the stage of
// every module (nodestore) with the import edges between modules
// (topologystore) and drives modules through the analysis pipeline.
//
// # Architecture: The Facade Pattern
//
//	┌─────────────────────────────────────┐
//	│              Manager                │
//	│  worklists: Pending(), Analysis()   │
//	│  pushes:    SetText(), Supply...()  │
//	└──────────┬────────────┬─────────────┘
//	           │            │
//	           ▼            ▼
//	  ┌────────────┐  ┌────────────┐
//	  │  Topology  │  │    Node    │
//	  │   Store    │  │   Store    │
//	  │  (imports) │  │  (stages)  │
//	  └────────────┘  └────────────┘
//
// # Pipeline
//
// Every module moves through the stages declared in package node:
//
//	Pending ─SetText─▶ Read | Lexed | Parsed ─SupplySemantic─▶ Analyzed
//	Pending ─SetFetchError─▶ Unavailable
//
// The graph never reads files and never typechecks. A driver asks what work
// is available, performs it, and pushes the result back:
//
//	for {
//	    for _, id := range g.Pending(ctx) { g.SetText(ctx, id, fetch(id)) }
//	    for _, job := range g.Analysis(ctx) { g.SupplySemantic(ctx, job, check(job)) }
//	    // stop when both are empty
//	}
//
// Lexing and parsing happen inside SetText because they are cheap and their
// result decides which new modules exist. Fetching and typechecking are left to
// the driver so it can run them in parallel.
//
// # Invariants
//
//   - A module becomes Parsed only after a node exists for each of its imports.
//   - A module becomes Analyzed only when each of its imports is Analyzed.
//   - There is exactly one node per identity, however many modules import it.
//
// Modules on an import cycle stay Parsed forever; Stuck and Imports report
// them.
//
// # Thread-Safety
//
// Manager methods are safe for concurrent use. Each node has its own lock;
// edges sit behind a read/write lock. No call holds two node locks at once.
package graph

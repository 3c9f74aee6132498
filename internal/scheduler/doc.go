// Package scheduler drives a module graph to its fixpoint.
//
// # How It Works
//
// The scheduler runs two interleaved loops until neither has work:
//
//  1. **Fetch:** take every module from Pending(), fetch its text through the
//     resolver and push it with SetText (or SetFetchError). New imports show
//     up as new pending modules, so this loop repeats until Pending() is
//     empty.
//  2. **Check:** take every job from Analysis(), typecheck it against its
//     analyzed imports and push the result with SupplySemantic. Analyzing a
//     module can make its importers ready, so this loop repeats until
//     Analysis() is empty.
//
// Each Pending() or Analysis() result is one round: its items are independent
// and run in parallel on an executor.Executor. The executor returns only when
// the whole round is done, so every round sees the effects of the previous
// one.
//
// # Policies
//
// **Tolerant** (default) drains everything and reports every failure through
// the graph. **FailFast** stops at the first stored error, matching the
// original command-line behaviour where one bad module aborts the run.
//
// Modules left Parsed at the fixpoint are never retried; they are reported in
// Report.Stuck as being on an import cycle or blocked by a broken import.
package scheduler

// Package executor defines the interface for running one round of analysis
// work.
//
// A round is a set of tasks that do not depend on each other: the modules
// returned by one Pending() call, or the jobs returned by one Analysis() call.
// Run returns only after every started task has finished, which is the
// barrier the scheduler relies on between rounds.
package executor

import "context"

// Task is one unit of work in a round.
type Task func(ctx context.Context) error

// Executor runs rounds of independent tasks.
type Executor interface {
	// Run executes tasks and waits for them. The first task error cancels the
	// context passed to the remaining tasks and is returned.
	Run(ctx context.Context, tasks []Task) error
}

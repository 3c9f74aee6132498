package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/adroit-lang/adroit/internal/ctxlog"
	"github.com/adroit-lang/adroit/internal/executor"
	"github.com/adroit-lang/adroit/internal/fetch"
	"github.com/adroit-lang/adroit/internal/graph"
	"github.com/adroit-lang/adroit/internal/moduleid"
	"github.com/adroit-lang/adroit/internal/node"
	"github.com/adroit-lang/adroit/internal/typecheck"
)

var tracer = otel.Tracer("adroit.scheduler")

// Policy decides what a stored error does to the drain.
type Policy uint8

const (
	Tolerant Policy = iota
	FailFast
)

func (p Policy) String() string {
	if p == FailFast {
		return "fail-fast"
	}
	return "tolerant"
}

// ParsePolicy accepts "tolerant" and "fail-fast".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "", "tolerant":
		return Tolerant, nil
	case "fail-fast", "failfast", "fail_fast":
		return FailFast, nil
	}
	return Tolerant, fmt.Errorf("unknown driver mode %q (want tolerant or fail-fast)", s)
}

// CheckFunc typechecks one job.
type CheckFunc func(ctx context.Context, job *graph.Job) (*typecheck.Module, []typecheck.Error)

// Typecheck is the default CheckFunc.
func Typecheck(ctx context.Context, job *graph.Job) (*typecheck.Module, []typecheck.Error) {
	syn := job.Syntax
	return typecheck.Check(syn.Text, syn.Tokens, syn.Tree, job.Modules())
}

// ModuleError is returned by a fail-fast drain for the first module that
// stored an error.
type ModuleError struct {
	ID    moduleid.ID
	Stage node.Kind
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("%s: %s", e.ID.Path(), failureVerb(e.Stage))
}

// IsStored reports whether err is a fail-fast stop at an error the graph
// already holds, as opposed to a failure of the drain itself.
func IsStored(err error) bool {
	var modErr *ModuleError
	var cycleErr *graph.CycleError
	return errors.As(err, &modErr) || errors.As(err, &cycleErr)
}

func failureVerb(k node.Kind) string {
	switch k {
	case node.KindUnavailable:
		return "failed to read"
	case node.KindRead:
		return "failed to tokenize"
	case node.KindLexed:
		return "failed to parse"
	default:
		return "failed to typecheck"
	}
}

// Report summarizes a drain.
type Report struct {
	FetchRounds int
	CheckRounds int
	Fetched     int
	Analyzed    int
	// Stuck lists modules left Parsed at the fixpoint.
	Stuck []graph.Stuck
}

// Scheduler drives a graph to its fixpoint.
type Scheduler interface {
	Drain(ctx context.Context) (*Report, error)
}

// Option configures a DefaultScheduler.
type Option func(*DefaultScheduler)

// WithPolicy sets the failure policy.
func WithPolicy(p Policy) Option {
	return func(s *DefaultScheduler) { s.policy = p }
}

// WithCheck replaces the typechecker.
func WithCheck(fn CheckFunc) Option {
	return func(s *DefaultScheduler) { s.check = fn }
}

// DefaultScheduler is the reference implementation of Scheduler.
type DefaultScheduler struct {
	graph    graph.Graph
	resolver fetch.Resolver
	fetchers executor.Executor
	checkers executor.Executor
	check    CheckFunc
	policy   Policy
}

// New creates a scheduler. Fetch rounds run on fetchers, check rounds on
// checkers, so I/O and CPU bound work can be limited separately.
func New(g graph.Graph, r fetch.Resolver, fetchers, checkers executor.Executor, opts ...Option) *DefaultScheduler {
	s := &DefaultScheduler{
		graph:    g,
		resolver: r,
		fetchers: fetchers,
		checkers: checkers,
		check:    Typecheck,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Scheduler = (*DefaultScheduler)(nil)

// Drain runs fetch and check rounds until neither has work. With FailFast
// the returned error is a *ModuleError or a *graph.CycleError; in both
// policies a cancelled context or a graph contract violation is returned as
// is.
func (s *DefaultScheduler) Drain(ctx context.Context) (*Report, error) {
	ctx, span := tracer.Start(ctx, "scheduler.Drain", trace.WithAttributes(attribute.String("policy", s.policy.String())))
	defer span.End()
	logger := ctxlog.FromContext(ctx)

	report := &Report{}
	for {
		progressed := false
		for {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			pending := s.graph.Pending(ctx)
			if len(pending) == 0 {
				break
			}
			progressed = true
			if err := s.fetchRound(ctx, report, pending); err != nil {
				span.SetStatus(codes.Error, err.Error())
				return report, err
			}
		}
		for {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			jobs := s.graph.Analysis(ctx)
			if len(jobs) == 0 {
				break
			}
			progressed = true
			if err := s.checkRound(ctx, report, jobs); err != nil {
				span.SetStatus(codes.Error, err.Error())
				return report, err
			}
		}
		if !progressed {
			break
		}
	}

	report.Stuck = s.graph.Stuck(ctx)
	span.SetAttributes(
		attribute.Int("fetched", report.Fetched),
		attribute.Int("analyzed", report.Analyzed),
		attribute.Int("stuck", len(report.Stuck)),
	)
	logger.Debug("Drain finished.",
		"fetched", report.Fetched,
		"analyzed", report.Analyzed,
		"stuck", len(report.Stuck),
		"fetch_rounds", report.FetchRounds,
		"check_rounds", report.CheckRounds,
	)

	if s.policy == FailFast {
		for _, st := range report.Stuck {
			if st.Reason == graph.OnCycle {
				err := &graph.CycleError{Path: st.Cycle}
				span.SetStatus(codes.Error, err.Error())
				return report, err
			}
		}
	}
	return report, nil
}

func (s *DefaultScheduler) fetchRound(ctx context.Context, report *Report, pending []moduleid.ID) error {
	ctx, span := tracer.Start(ctx, "scheduler.fetch_round", trace.WithAttributes(attribute.Int("modules", len(pending))))
	defer span.End()
	report.FetchRounds++
	report.Fetched += len(pending)

	tasks := make([]executor.Task, len(pending))
	for i, id := range pending {
		tasks[i] = func(ctx context.Context) error {
			return s.fetchOne(ctx, id)
		}
	}
	return s.fetchers.Run(ctx, tasks)
}

func (s *DefaultScheduler) fetchOne(ctx context.Context, id moduleid.ID) error {
	text, err := s.resolver.Fetch(ctx, id)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		ctxlog.FromContext(ctx).Debug("Fetch failed.", "module", id, "error", err)
		if err := s.graph.SetFetchError(ctx, id, err); err != nil {
			return err
		}
		return s.stop(&ModuleError{ID: id, Stage: node.KindUnavailable})
	}
	if err := s.graph.SetText(ctx, id, text); err != nil {
		return err
	}
	st, _ := s.graph.Stage(ctx, id)
	if st != nil && node.Failed(st) {
		return s.stop(&ModuleError{ID: id, Stage: st.Kind()})
	}
	return nil
}

func (s *DefaultScheduler) checkRound(ctx context.Context, report *Report, jobs []*graph.Job) error {
	ctx, span := tracer.Start(ctx, "scheduler.check_round", trace.WithAttributes(attribute.Int("jobs", len(jobs))))
	defer span.End()
	report.CheckRounds++
	report.Analyzed += len(jobs)

	tasks := make([]executor.Task, len(jobs))
	for i, job := range jobs {
		tasks[i] = func(ctx context.Context) error {
			mod, errs := s.check(ctx, job)
			if err := s.graph.SupplySemantic(ctx, job, mod, errs); err != nil {
				if errors.Is(err, graph.ErrStaleJob) {
					return fmt.Errorf("internal error: %w", err)
				}
				return err
			}
			if len(errs) > 0 {
				return s.stop(&ModuleError{ID: job.ID, Stage: node.KindAnalyzed})
			}
			return nil
		}
	}
	return s.checkers.Run(ctx, tasks)
}

// stop returns err under FailFast and nil otherwise.
func (s *DefaultScheduler) stop(err error) error {
	if s.policy == FailFast {
		return err
	}
	return nil
}

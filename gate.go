package knifesql

import (
	"context"
	"log/slog"
	"sync"

	"github.com/knifesql/knifesql/internal/observability"
)

type GateState uint8

const (
	StateIdle GateState = iota
	StateAwaitingConfirmation
)

func (s GateState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	default:
		return "unknown"
	}
}

// Executor runs raw SQL. Every Client is an Executor.
type Executor interface {
	ExecuteQuery(ctx context.Context, query string) ([]ResultRow, error)
}

// Outcome reports what Submit did with a query.
type Outcome struct {
	// Verdict is the classification of the submitted text.
	Verdict Verdict
	// Rows holds the execution result when Executed is true.
	Rows []ResultRow
	// Executed is false when the query was withheld and the database untouched.
	Executed bool
	// Confirmed is true when a dangerous query ran because it was resubmitted verbatim.
	Confirmed bool
}

// Gate sits between a caller and an Executor and withholds dangerous
// queries until the identical text is submitted a second time. One Gate
// serves one editing session; Submit calls are serialized.
type Gate struct {
	exec   Executor
	strict bool
	logger *slog.Logger

	mu      sync.Mutex
	state   GateState
	pending string
}

type GateOption func(*Gate)

// WithStrict makes the gate refuse dangerous queries outright, with no
// confirmation by resubmission.
func WithStrict(strict bool) GateOption {
	return func(g *Gate) { g.strict = strict }
}

func WithGateLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) { g.logger = logger }
}

func NewGate(exec Executor, opts ...GateOption) *Gate {
	g := &Gate{exec: exec}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = observability.Discard()
	}
	return g
}

// Submit classifies query and either executes it or withholds it.
//
// A query equal to the pending one is executed as confirmed and the gate
// returns to idle. Any other query discards the pending confirmation and is
// judged afresh: safe queries execute, dangerous ones are withheld and become
// pending unless the gate is strict. A withheld query returns a nil error.
func (g *Gate) Submit(ctx context.Context, query string) (Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == StateAwaitingConfirmation && query == g.pending {
		g.clear()
		verdict := Classify(query)
		observability.IncrementConfirmations()
		g.logger.WarnContext(ctx, "dangerous_query_confirmed",
			slog.String("category", string(verdict.Category)),
			slog.String("query", query),
		)
		rows, err := g.exec.ExecuteQuery(ctx, query)
		if err != nil {
			return Outcome{Verdict: verdict, Executed: true, Confirmed: true}, err
		}
		return Outcome{Verdict: verdict, Rows: rows, Executed: true, Confirmed: true}, nil
	}

	g.clear()
	verdict := Classify(query)
	observability.RecordVerdict(verdictLabel(verdict))

	if !verdict.Safe() {
		g.logger.WarnContext(ctx, "dangerous_query_blocked",
			slog.String("category", string(verdict.Category)),
			slog.Bool("strict", g.strict),
			slog.String("query", query),
		)
		if !g.strict {
			g.state = StateAwaitingConfirmation
			g.pending = query
		}
		return Outcome{Verdict: verdict}, nil
	}

	rows, err := g.exec.ExecuteQuery(ctx, query)
	if err != nil {
		return Outcome{Verdict: verdict, Executed: true}, err
	}
	return Outcome{Verdict: verdict, Rows: rows, Executed: true}, nil
}

func (g *Gate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Pending returns the query awaiting confirmation, or "" when idle.
func (g *Gate) Pending() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}

// Reset drops any pending confirmation.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clear()
}

func (g *Gate) clear() {
	g.state = StateIdle
	g.pending = ""
}

func verdictLabel(v Verdict) string {
	if v.Safe() {
		return "safe"
	}
	return string(v.Category)
}

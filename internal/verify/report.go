package verify

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Failure is a case whose accelerated result did not match.
type Failure struct {
	Case       string
	Diagnostic string
	Mismatches []Mismatch
}

// Skip is a case left out of the run.
type Skip struct {
	Case   string
	Reason string
}

// Report aggregates the outcomes of a verification run. It is safe for
// concurrent use.
type Report struct {
	// RunID correlates all log lines of one run.
	RunID   uuid.UUID
	Started time.Time

	mu       sync.Mutex
	cases    int
	passed   []string
	failures []Failure
	skipped  []Skip
}

// NewReport starts an empty report with a fresh RunID.
func NewReport() *Report {
	return &Report{RunID: uuid.New(), Started: time.Now()}
}

// Record adds the outcome of op to r and reports whether it passed.
func Record[R any](r *Report, name string, op Operation[R], o Outcome[R]) bool {
	if o.Passed() {
		r.Pass(name)
		return true
	}
	r.Fail(name, o.Diagnostic(op), o.Mismatches)
	return false
}

// Pass records a passing case.
func (r *Report) Pass(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cases++
	r.passed = append(r.passed, name)
}

// Fail records a failing case.
func (r *Report) Fail(name, diagnostic string, mismatches []Mismatch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cases++
	r.failures = append(r.failures, Failure{Case: name, Diagnostic: diagnostic, Mismatches: mismatches})
}

// Skip records a case that was not run.
func (r *Report) Skip(name, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped = append(r.skipped, Skip{Case: name, Reason: reason})
}

// OK reports whether no case failed.
func (r *Report) OK() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.failures) == 0
}

// Cases returns the number of cases run.
func (r *Report) Cases() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cases
}

// Passed returns the names of passing cases in the order they were recorded.
func (r *Report) Passed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.passed...)
}

// Failures returns a copy of the recorded failures.
func (r *Report) Failures() []Failure {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Failure(nil), r.failures...)
}

// Skipped returns a copy of the recorded skips.
func (r *Report) Skipped() []Skip {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Skip(nil), r.skipped...)
}

// Summary renders a one-line result.
func (r *Report) Summary() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := "PASS"
	if len(r.failures) > 0 {
		status = "FAIL"
	}
	return fmt.Sprintf("%s: %d cases, %d failed, %d skipped (run %s, %s)",
		status, r.cases, len(r.failures), len(r.skipped), r.RunID, time.Since(r.Started).Round(time.Millisecond))
}

// LogValue implements slog.LogValuer.
func (r *Report) LogValue() slog.Value {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slog.GroupValue(
		slog.String("run_id", r.RunID.String()),
		slog.Int("cases", r.cases),
		slog.Int("failed", len(r.failures)),
		slog.Int("skipped", len(r.skipped)),
		slog.Duration("elapsed", time.Since(r.Started)),
	)
}

package metrics

import (
	"time"

	"github.com/emiliopalmerini/onboardtrack/internal/domain"
	"github.com/emiliopalmerini/onboardtrack/internal/util"
)

// Assembler evaluates a whole metric table for one user at a time.
// It holds no per-user state and is safe for concurrent use.
type Assembler struct {
	table []Spec
	eval  *Evaluator
}

// NewAssembler validates table and takes a private copy of it.
func NewAssembler(table []Spec, now func() time.Time) (*Assembler, error) {
	eval, err := NewEvaluator(table, now)
	if err != nil {
		return nil, err
	}
	own := make([]Spec, len(table))
	for i, s := range table {
		own[i] = s.clone()
	}
	return &Assembler{table: own, eval: eval}, nil
}

// Columns returns the report column names in table order.
func (a *Assembler) Columns() []string {
	cols := make([]string, len(a.table))
	for i, s := range a.table {
		cols[i] = s.Column
	}
	return cols
}

// ActiveDays is the inclusive number of calendar days between signup and last update.
func ActiveDays(b domain.UserBundle) int {
	return util.DaysBetween(b.CreatedAt, b.UpdatedAt)
}

// Assemble builds the report row for one user: one result per spec, in table order.
func (a *Assembler) Assemble(b domain.UserBundle) domain.UserReport {
	active := ActiveDays(b)
	metrics := make([]domain.MetricResult, len(a.table))
	for i, s := range a.table {
		metrics[i] = a.eval.Evaluate(s, &b, active)
	}
	return domain.UserReport{
		UserID:    b.UserID,
		PrimaryOS: []string{domain.PrimaryOS(b.Devices)},
		Metrics:   metrics,
	}
}

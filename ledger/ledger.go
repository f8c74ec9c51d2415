// Package ledger records priced provider calls for one research session.
package ledger

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/fwojciec/research"
	"github.com/shopspring/decimal"
)

var _ research.CostRecorder = (*Ledger)(nil)

// Dimension selects how costs are grouped by Breakdown.
type Dimension string

// Dimension constants.
const (
	ByOperation Dimension = "operation"
	ByProvider  Dimension = "provider"
	ByModel     Dimension = "model"
)

// Ledger is an append-only, concurrency-safe record of cost events.
// Create one per session and pass it to every component that makes paid calls.
type Ledger struct {
	mu     sync.Mutex
	events []research.CostEvent
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// Record appends a validated event. Events whose total does not match
// units x unit price are rejected with EINTEGRITY.
func (l *Ledger) Record(event research.CostEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

// Events returns a copy of the recorded events in record order.
func (l *Ledger) Events() []research.CostEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.events)
}

// Len returns the number of recorded events.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// SessionTotal returns the exact sum of all recorded event totals.
func (l *Ledger) SessionTotal() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := decimal.Zero
	for _, e := range l.events {
		total = total.Add(e.TotalCost)
	}
	return total
}

// Breakdown groups event totals by dimension. The group sums always add up
// to SessionTotal.
func (l *Ledger) Breakdown(by Dimension) (map[string]decimal.Decimal, error) {
	key, err := keyFunc(by)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]decimal.Decimal)
	for _, e := range l.events {
		k := key(e)
		out[k] = out[k].Add(e.TotalCost)
	}
	return out, nil
}

func keyFunc(by Dimension) (func(research.CostEvent) string, error) {
	switch by {
	case ByOperation:
		return func(e research.CostEvent) string { return string(e.Operation) }, nil
	case ByProvider:
		return func(e research.CostEvent) string { return e.Provider }, nil
	case ByModel:
		return func(e research.CostEvent) string {
			if e.Model == "" {
				return e.Provider
			}
			return e.Model
		}, nil
	}
	return nil, research.Errorf(research.EINVALID, "unknown breakdown dimension %q", by)
}

// Summary renders the session total and per-dimension breakdowns for display.
func (l *Ledger) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session cost: $%s (%d calls)\n", l.SessionTotal().StringFixed(4), l.Len())
	for _, by := range []Dimension{ByOperation, ByProvider, ByModel} {
		groups, _ := l.Breakdown(by)
		if len(groups) == 0 {
			continue
		}
		fmt.Fprintf(&b, "By %s:\n", by)
		for _, k := range slices.Sorted(maps.Keys(groups)) {
			v := groups[k]
			fmt.Fprintf(&b, "  %s: $%s\n", k, v.StringFixed(4))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

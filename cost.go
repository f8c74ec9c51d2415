package research

import (
	"time"

	"github.com/shopspring/decimal"
)

// Operation is the kind of paid provider call.
type Operation string

// Operation constants.
const (
	OperationEmbedding  Operation = "embedding"
	OperationGeneration Operation = "generation"
	OperationSearch     Operation = "search"
)

// Valid reports whether op is a known operation.
func (op Operation) Valid() bool {
	switch op {
	case OperationEmbedding, OperationGeneration, OperationSearch:
		return true
	}
	return false
}

// Price is a provider's declared cost per billable unit.
type Price struct {
	Provider string
	Model    string

	// Unit names what is being counted, e.g. "token" or "query".
	Unit    string
	PerUnit decimal.Decimal
}

// CostEvent is one priced provider call. TotalCost always equals
// Units x UnitPrice exactly.
type CostEvent struct {
	Provider  string          `json:"provider"`
	Model     string          `json:"model,omitempty"`
	Operation Operation       `json:"operation"`
	Unit      string          `json:"unit,omitempty"`
	Units     int64           `json:"units"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	TotalCost decimal.Decimal `json:"totalCost"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewCostEvent prices units at p and stamps the event with the current time.
func NewCostEvent(p Price, op Operation, units int64) CostEvent {
	return CostEvent{
		Provider:  p.Provider,
		Model:     p.Model,
		Operation: op,
		Unit:      p.Unit,
		Units:     units,
		UnitPrice: p.PerUnit,
		TotalCost: p.PerUnit.Mul(decimal.NewFromInt(units)),
		Timestamp: time.Now(),
	}
}

// Validate returns an error if the event is malformed. A total that does
// not match units x unit price is an EINTEGRITY error.
func (e *CostEvent) Validate() error {
	if e.Provider == "" {
		return Errorf(EINVALID, "cost event provider required")
	}
	if !e.Operation.Valid() {
		return Errorf(EINVALID, "cost event operation %q not recognized", e.Operation)
	}
	if e.Units < 0 {
		return Errorf(EINVALID, "cost event units must not be negative, got %d", e.Units)
	}
	if e.UnitPrice.IsNegative() {
		return Errorf(EINVALID, "cost event unit price must not be negative, got %s", e.UnitPrice)
	}
	if want := e.UnitPrice.Mul(decimal.NewFromInt(e.Units)); !want.Equal(e.TotalCost) {
		return Errorf(EINTEGRITY, "cost event total %s does not equal %d x %s", e.TotalCost, e.Units, e.UnitPrice)
	}
	return nil
}

// CostRecorder accepts cost events. Implementations must be safe for
// concurrent use.
type CostRecorder interface {
	Record(event CostEvent) error
}

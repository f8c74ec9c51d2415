package mock

import (
	"context"

	"github.com/fwojciec/research"
)

var _ research.Generator = (*Generator)(nil)

// Generator is a mock implementation of research.Generator.
type Generator struct {
	GenerateFn func(ctx context.Context, question string, sources []research.Source) (string, error)
}

func (g *Generator) Generate(ctx context.Context, question string, sources []research.Source) (string, error) {
	return g.GenerateFn(ctx, question, sources)
}

var _ research.CostRecorder = (*CostRecorder)(nil)

// CostRecorder is a mock implementation of research.CostRecorder.
type CostRecorder struct {
	RecordFn func(event research.CostEvent) error
}

func (r *CostRecorder) Record(event research.CostEvent) error {
	return r.RecordFn(event)
}

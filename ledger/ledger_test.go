package ledger_test

import (
	"sync"
	"testing"

	"github.com/fwojciec/research"
	"github.com/fwojciec/research/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(provider, model, perUnit string) research.Price {
	return research.Price{Provider: provider, Model: model, Unit: "token", PerUnit: decimal.RequireFromString(perUnit)}
}

func TestLedger(t *testing.T) {
	t.Parallel()

	t.Run("empty ledger totals zero", func(t *testing.T) {
		t.Parallel()

		l := ledger.New()

		assert.True(t, l.SessionTotal().IsZero())
		assert.Empty(t, l.Events())
	})

	t.Run("session total is the exact sum of events", func(t *testing.T) {
		t.Parallel()

		l := ledger.New()
		for range 10 {
			require.NoError(t, l.Record(research.NewCostEvent(price("gemini", "m", "0.1"), research.OperationEmbedding, 1)))
		}
		for range 10 {
			require.NoError(t, l.Record(research.NewCostEvent(price("gemini", "m", "0.2"), research.OperationEmbedding, 1)))
		}

		assert.Equal(t, "3", l.SessionTotal().String())
	})

	t.Run("breakdowns sum to session total", func(t *testing.T) {
		t.Parallel()

		l := ledger.New()
		require.NoError(t, l.Record(research.NewCostEvent(price("gemini", "embed", "0.00000015"), research.OperationEmbedding, 1200)))
		require.NoError(t, l.Record(research.NewCostEvent(price("gemini", "flash", "0.0000003"), research.OperationGeneration, 900)))
		require.NoError(t, l.Record(research.NewCostEvent(price("tavily", "", "0.01"), research.OperationSearch, 1)))

		for _, by := range []ledger.Dimension{ledger.ByOperation, ledger.ByProvider, ledger.ByModel} {
			groups, err := l.Breakdown(by)
			require.NoError(t, err)

			sum := decimal.Zero
			for _, v := range groups {
				sum = sum.Add(v)
			}
			assert.True(t, l.SessionTotal().Equal(sum), "dimension %s", by)
		}

		byOp, err := l.Breakdown(ledger.ByOperation)
		require.NoError(t, err)
		assert.Equal(t, "0.00018", byOp["embedding"].String())
		assert.Equal(t, "0.00027", byOp["generation"].String())
		assert.Equal(t, "0.01", byOp["search"].String())

		byProvider, err := l.Breakdown(ledger.ByProvider)
		require.NoError(t, err)
		assert.Len(t, byProvider, 2)
	})

	t.Run("rejects unknown dimension", func(t *testing.T) {
		t.Parallel()

		_, err := ledger.New().Breakdown("color")

		assert.Equal(t, research.EINVALID, research.ErrorCode(err))
	})

	t.Run("rejects events with inconsistent totals", func(t *testing.T) {
		t.Parallel()

		l := ledger.New()
		event := research.NewCostEvent(price("gemini", "m", "0.5"), research.OperationGeneration, 2)
		event.TotalCost = decimal.RequireFromString("0.9")

		err := l.Record(event)

		assert.Equal(t, research.EINTEGRITY, research.ErrorCode(err))
		assert.Zero(t, l.Len())
	})

	t.Run("concurrent records are all kept", func(t *testing.T) {
		t.Parallel()

		l := ledger.New()
		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = l.Record(research.NewCostEvent(price("gemini", "m", "0.01"), research.OperationEmbedding, 1))
			}()
		}
		wg.Wait()

		assert.Equal(t, 50, l.Len())
		assert.Equal(t, "0.5", l.SessionTotal().String())
	})

	t.Run("summary lists totals", func(t *testing.T) {
		t.Parallel()

		l := ledger.New()
		require.NoError(t, l.Record(research.NewCostEvent(price("tavily", "", "0.01"), research.OperationSearch, 1)))

		summary := l.Summary()

		assert.Contains(t, summary, "Session cost: $0.0100 (1 calls)")
		assert.Contains(t, summary, "search: $0.0100")
		assert.Contains(t, summary, "tavily: $0.0100")
	})
}

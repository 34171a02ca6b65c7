package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSpendInsights(t *testing.T) (*SpendInsights, *Engine) {
	t.Helper()
	db := newTestDB(t)
	s := &SpendInsights{DB: db, Log: zap.NewNop(), Fmtr: NewFormatter("₹", time.UTC), Now: fixedNow}
	eng := New(db, Options{Now: fixedNow, Location: time.UTC, Enricher: s})
	return s, eng
}

func TestEnrichNoInsightLeavesAnswerAlone(t *testing.T) {
	t.Parallel()
	s, _ := newSpendInsights(t)

	res := &Result{Answer: "base", Type: "spending-summary", Data: map[string]any{"total": float64(500)}}
	s.Enrich(context.Background(), res, Intent{Domain: DomainMoney})
	require.Equal(t, "base", res.Answer)
}

func TestEnrichAbsoluteOutlier(t *testing.T) {
	t.Parallel()
	s, _ := newSpendInsights(t)

	res := &Result{Answer: "base", Type: "drill-down", Data: map[string]any{"total": float64(2_000_000)}}
	s.Enrich(context.Background(), res, Intent{Domain: DomainMoney})
	require.Contains(t, res.Answer, "unusually high")
}

func TestEnrichRelativeOutlier(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	s := &SpendInsights{DB: db, Log: zap.NewNop(), Fmtr: NewFormatter("₹", time.UTC), Now: fixedNow}

	// monthly average over the trailing window is ~1,000
	insertTxn(t, db, "t1", "swiggy", "food", 1000, "UPI", time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC).Unix())
	insertTxn(t, db, "t2", "swiggy", "food", 1000, "UPI", time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC).Unix())

	res := &Result{Answer: "base", Type: "drill-down", Data: map[string]any{"total": float64(8000)}}
	s.Enrich(context.Background(), res, Intent{Domain: DomainMoney})
	require.Contains(t, res.Answer, "higher than your 3-month average")
}

func TestEnrichDeviationNote(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	s := &SpendInsights{DB: db, Log: zap.NewNop(), Fmtr: NewFormatter("₹", time.UTC), Now: fixedNow}
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `
	INSERT INTO behavior_metrics(id, category, weekly_spend, rolling_4week_avg, deviation_percent, period_start)
	VALUES('m1', 'food', 3200, 2000, 60, ?)`, daysAgo(2))
	require.NoError(t, err)

	res := &Result{Answer: "base", Type: "spending-summary", Data: map[string]any{"total": float64(3200)}}
	s.Enrich(ctx, res, Intent{Domain: DomainMoney})
	require.Contains(t, res.Answer, "food is running 60% above its usual weekly pace")
}

func TestEnrichSkipsErrorResults(t *testing.T) {
	t.Parallel()
	s, _ := newSpendInsights(t)

	res := &Result{Answer: "Error processing query: boom", Type: "error"}
	s.Enrich(context.Background(), res, Intent{Domain: DomainMoney})
	require.Equal(t, "Error processing query: boom", res.Answer)
}

func TestEngineAppliesEnricherToMoneyAnswers(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	s := &SpendInsights{DB: db, Log: zap.NewNop(), Fmtr: NewFormatter("₹", time.UTC), Now: fixedNow}
	eng := New(db, Options{Now: fixedNow, Location: time.UTC, Enricher: s})
	ctx := context.Background()

	insertTxn(t, db, "t1", "swiggy", "food", 500, "UPI", daysAgo(2))
	_, err := db.ExecContext(ctx, `
	INSERT INTO behavior_metrics(id, category, weekly_spend, rolling_4week_avg, deviation_percent, period_start)
	VALUES('m1', 'travel', 900, 2000, -55, ?)`, daysAgo(3))
	require.NoError(t, err)

	res := eng.ProcessQuery(ctx, "how much did I spend this month", nil)
	require.NotNil(t, res)
	require.Contains(t, res.Answer, "Insight: travel is running 55% below")

	// non-money domains are never enriched
	res = eng.ProcessQuery(ctx, "any unread emails", nil)
	require.NotNil(t, res)
	require.NotContains(t, res.Answer, "Insight:")
}

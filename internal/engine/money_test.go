package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func daysAgo(n int) int64 { return testNow.AddDate(0, 0, -n).Unix() }

func TestMoneySummary(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &moneyHandler{db: db, fmtr: NewFormatter("₹", time.UTC), now: fixedNow}

	insertTxn(t, db, "t1", "swiggy", "food", 400, "UPI", daysAgo(2))
	insertTxn(t, db, "t2", "uber", "travel", 250, "UPI", daysAgo(5))
	insertSpendLog(t, db, "s1", "food", 150, "chai", daysAgo(1))

	res, err := h.handle(context.Background(), Intent{Domain: DomainMoney, Action: ActionSummary})
	require.NoError(t, err)
	require.Equal(t, "spending-summary", res.Type)
	require.Contains(t, res.Answer, "₹800")
	require.Contains(t, res.Answer, "3 transactions")
	require.Contains(t, res.Answer, "food")
	require.Equal(t, float64(800), res.Data["total"])
}

func TestMoneySummaryEmpty(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &moneyHandler{db: db, fmtr: NewFormatter("₹", time.UTC), now: fixedNow}

	res, err := h.handle(context.Background(), Intent{Domain: DomainMoney, Action: ActionSummary})
	require.NoError(t, err)
	require.Equal(t, "No spending recorded in this period.", res.Answer)
	require.NotContains(t, res.Answer, "%")
	require.NotContains(t, res.Answer, "NaN")
}

func TestMoneyDrillDownMerchant(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &moneyHandler{db: db, fmtr: NewFormatter("₹", time.UTC), now: fixedNow}
	ctx := context.Background()

	insertTxn(t, db, "t1", "swiggy", "food", 400, "UPI", daysAgo(2))
	insertTxn(t, db, "t2", "swiggy", "food", 300, "UPI", daysAgo(8))
	insertTxn(t, db, "t3", "uber", "travel", 250, "UPI", daysAgo(5))
	insertSpendLog(t, db, "s1", "food", 100, "swiggy lunch order", daysAgo(1))

	res, err := h.handle(ctx, Intent{Domain: DomainMoney, Action: ActionTotal, Params: Params{Merchant: "swiggy"}})
	require.NoError(t, err)
	require.Contains(t, res.Answer, "₹800")
	require.Contains(t, res.Answer, "swiggy")
	require.Contains(t, res.Answer, "3 transactions")

	res, err = h.handle(ctx, Intent{Domain: DomainMoney, Action: ActionCount, Params: Params{Merchant: "swiggy"}})
	require.NoError(t, err)
	require.Contains(t, res.Answer, "3 swiggy transactions")
}

func TestMoneyDrillDownLast(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &moneyHandler{db: db, fmtr: NewFormatter("₹", time.UTC), now: fixedNow}

	insertTxn(t, db, "t1", "swiggy", "food", 400, "UPI", daysAgo(9))
	insertTxn(t, db, "t2", "swiggy", "food", 275, "UPI", daysAgo(1))

	res, err := h.handle(context.Background(),
		Intent{Domain: DomainMoney, Action: ActionLast, Params: Params{Merchant: "swiggy", Limit: 1}})
	require.NoError(t, err)
	require.Contains(t, res.Answer, "Last swiggy transaction")
	require.Contains(t, res.Answer, "₹275")
	require.NotContains(t, res.Answer, "₹400")
}

func TestMoneyDrillDownCategoryEmpty(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &moneyHandler{db: db, fmtr: NewFormatter("₹", time.UTC), now: fixedNow}

	res, err := h.handle(context.Background(),
		Intent{Domain: DomainMoney, Action: ActionSummary, Params: Params{Category: "fuel"}})
	require.NoError(t, err)
	require.Equal(t, "No fuel spending recorded in this period.", res.Answer)
}

func TestMoneyDrillDownListTruncates(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &moneyHandler{db: db, fmtr: NewFormatter("₹", time.UTC), now: fixedNow}

	for i := 0; i < 5; i++ {
		insertTxn(t, db, string(rune('a'+i)), "swiggy", "food", 100, "UPI", daysAgo(i+1))
	}
	res, err := h.handle(context.Background(),
		Intent{Domain: DomainMoney, Action: ActionList, Params: Params{Merchant: "swiggy", Limit: 3}})
	require.NoError(t, err)
	require.Contains(t, res.Answer, "...and 2 more")
}

func TestMoneyCompareMerchants(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &moneyHandler{db: db, fmtr: NewFormatter("₹", time.UTC), now: fixedNow}

	insertTxn(t, db, "t1", "swiggy", "food", 600, "UPI", daysAgo(2))
	insertTxn(t, db, "t2", "zomato", "food", 400, "UPI", daysAgo(3))

	res, err := h.handle(context.Background(), Intent{
		Domain: DomainMoney, Action: ActionCompare,
		Params: Params{Merchants: []string{"swiggy", "zomato"}, Comparison: true},
	})
	require.NoError(t, err)
	require.Equal(t, "merchant-comparison", res.Type)
	require.Contains(t, res.Answer, "swiggy is ahead by ₹200")
	require.Contains(t, res.Answer, "50.0%")
}

func TestMoneyCompareMerchantsOneSided(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &moneyHandler{db: db, fmtr: NewFormatter("₹", time.UTC), now: fixedNow}

	insertTxn(t, db, "t1", "swiggy", "food", 600, "UPI", daysAgo(2))

	res, err := h.handle(context.Background(), Intent{
		Domain: DomainMoney, Action: ActionCompare,
		Params: Params{Merchants: []string{"swiggy", "chaipoint"}, Comparison: true},
	})
	require.NoError(t, err)
	require.Contains(t, res.Answer, "No data for chaipoint in this period")
	require.Contains(t, res.Answer, "nothing to compare against")
	require.NotContains(t, res.Answer, "%")
}

func TestMoneyCompareMerchantsNoData(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &moneyHandler{db: db, fmtr: NewFormatter("₹", time.UTC), now: fixedNow}

	res, err := h.handle(context.Background(), Intent{
		Domain: DomainMoney, Action: ActionCompare,
		Params: Params{Merchants: []string{"chaipoint", "teavilla"}, Comparison: true},
	})
	require.NoError(t, err)
	require.Contains(t, res.Answer, "No data for")
	require.Contains(t, res.Answer, "ingested transactions")
}

func TestMoneyCompareCategories(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &moneyHandler{db: db, fmtr: NewFormatter("₹", time.UTC), now: fixedNow}

	insertTxn(t, db, "t1", "swiggy", "food", 500, "UPI", daysAgo(2))
	insertTxn(t, db, "t2", "zomato", "food", 300, "UPI", daysAgo(4))
	insertTxn(t, db, "t3", "uber", "travel", 200, "UPI", daysAgo(3))
	insertSpendLog(t, db, "s1", "travel", 50, "auto", daysAgo(1))

	res, err := h.handle(context.Background(), Intent{
		Domain: DomainMoney, Action: ActionCompare,
		Params: Params{Categories: []string{"food", "travel"}, Comparison: true},
	})
	require.NoError(t, err)
	require.Equal(t, "category-comparison", res.Type)
	require.Contains(t, res.Answer, "food: ₹800")
	require.Contains(t, res.Answer, "travel: ₹250")
	require.Contains(t, res.Answer, "mostly swiggy")
	require.Contains(t, res.Answer, "food is ahead by ₹550")
}

func TestMoneyCardAnalysis(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &moneyHandler{db: db, fmtr: NewFormatter("₹", time.UTC), now: fixedNow}
	ctx := context.Background()

	insertTxn(t, db, "t1", "swiggy", "food", 900, "HDFC Credit Card", daysAgo(2))
	insertTxn(t, db, "t2", "uber", "travel", 300, "UPI", daysAgo(3))
	insertTxn(t, db, "t3", "zomato", "food", 200, "HDFC Credit Card", daysAgo(5))

	res, err := h.handle(ctx, Intent{Domain: DomainMoney, Params: Params{CardQuery: true}})
	require.NoError(t, err)
	require.Equal(t, "card-analysis", res.Type)
	require.Contains(t, res.Answer, "Most used: HDFC Credit Card — ₹1,100")
	require.Contains(t, res.Answer, "UPI: ₹300")

	// category filter narrows the grouping
	res, err = h.handle(ctx, Intent{Domain: DomainMoney, Params: Params{CardQuery: true, Category: "travel"}})
	require.NoError(t, err)
	require.Contains(t, res.Answer, "Most used: UPI")
	require.Contains(t, res.Answer, "on travel")
}

func TestMoneyCardAnalysisNoMethods(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &moneyHandler{db: db, fmtr: NewFormatter("₹", time.UTC), now: fixedNow}

	res, err := h.handle(context.Background(), Intent{Domain: DomainMoney, Params: Params{CardQuery: true}})
	require.NoError(t, err)
	require.Contains(t, res.Answer, "can't group by card")
}

func TestMoneyMultiPeriod(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &moneyHandler{db: db, fmtr: NewFormatter("₹", time.UTC), now: fixedNow}

	// May and June totals
	insertTxn(t, db, "t1", "swiggy", "food", 1000, "UPI", time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC).Unix())
	insertTxn(t, db, "t2", "swiggy", "food", 1500, "UPI", time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC).Unix())

	res, err := h.handle(context.Background(), Intent{
		Domain: DomainMoney, Action: ActionCompare,
		Params: Params{Comparison: true, MultiPeriod: BuildPeriods(testNow, 3, "month")},
	})
	require.NoError(t, err)
	require.Equal(t, "multi-period", res.Type)
	require.Contains(t, res.Answer, "May '25")
	require.Contains(t, res.Answer, "Jun '25")
	require.Contains(t, res.Answer, "up 50.0%")
	require.Contains(t, res.Answer, "Total ₹2,500")
	require.NotContains(t, res.Answer, "NaN")
}

func TestMoneyWeeklyTrend(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &moneyHandler{db: db, fmtr: NewFormatter("₹", time.UTC), now: fixedNow}

	insertTxn(t, db, "t1", "swiggy", "food", 200, "UPI", daysAgo(20))
	insertTxn(t, db, "t2", "swiggy", "food", 250, "UPI", daysAgo(12))
	insertTxn(t, db, "t3", "swiggy", "food", 900, "UPI", daysAgo(1))

	res, err := h.handle(context.Background(), Intent{Domain: DomainMoney, Action: ActionTrend})
	require.NoError(t, err)
	require.Equal(t, "trend", res.Type)
	require.Contains(t, res.Answer, "Weekly spending")
	require.Contains(t, res.Answer, "weekly average")
	require.Contains(t, res.Answer, "running above")
}

func TestMoneyWeeklyTrendEmpty(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &moneyHandler{db: db, fmtr: NewFormatter("₹", time.UTC), now: fixedNow}

	res, err := h.handle(context.Background(), Intent{Domain: DomainMoney, Action: ActionTrend})
	require.NoError(t, err)
	require.Contains(t, res.Answer, "no trend to show")
	require.NotContains(t, res.Answer, "NaN")
}

func TestMoneyPeriodCompare(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &moneyHandler{db: db, fmtr: NewFormatter("₹", time.UTC), now: fixedNow}

	// default 60-day range splits at 30 days back
	insertTxn(t, db, "t1", "swiggy", "food", 1000, "UPI", daysAgo(45))
	insertTxn(t, db, "t2", "swiggy", "food", 1500, "UPI", daysAgo(10))

	res, err := h.handle(context.Background(), Intent{Domain: DomainMoney, Action: ActionCompare, Params: Params{Comparison: true}})
	require.NoError(t, err)
	require.Equal(t, "period-compare", res.Type)
	require.Contains(t, res.Answer, "This period ₹1,500")
	require.Contains(t, res.Answer, "previous period ₹1,000")
	require.Contains(t, res.Answer, "up ₹500 (50.0%)")
	require.Contains(t, res.Answer, "food")
}

func TestMoneyPeriodCompareEmpty(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &moneyHandler{db: db, fmtr: NewFormatter("₹", time.UTC), now: fixedNow}

	res, err := h.handle(context.Background(), Intent{Domain: DomainMoney, Action: ActionCompare, Params: Params{Comparison: true}})
	require.NoError(t, err)
	require.Equal(t, "No spending recorded in either period.", res.Answer)
}

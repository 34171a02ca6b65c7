package engine

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"
)

const defaultWindowDays = 30

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// moneyHandler answers everything financial: totals, comparisons, card
// analysis, multi-period breakdowns, trends and drill-downs. It reads both
// the structured transactions table and the free-text spend log.
type moneyHandler struct {
	db   *sql.DB
	fmtr *Formatter
	now  func() time.Time
}

func (h *moneyHandler) handle(ctx context.Context, in Intent) (*Result, error) {
	switch {
	case len(in.Params.MultiPeriod) >= 2:
		return h.multiPeriodBreakdown(ctx, in)
	case len(in.Params.Merchants) >= 2:
		return h.compareMerchants(ctx, in)
	case len(in.Params.Categories) >= 2:
		return h.compareCategories(ctx, in)
	case in.Params.CardQuery:
		return h.cardAnalysis(ctx, in)
	case in.Action == ActionTrend:
		return h.weeklyTrend(ctx, in)
	case in.Action == ActionCompare:
		return h.periodCompare(ctx, in)
	case in.Params.Merchant != "" || in.Params.Category != "":
		return h.drillDown(ctx, in)
	default:
		return h.summary(ctx, in)
	}
}

// resolvedRange applies the default window when the message had no time
// phrase.
func (h *moneyHandler) resolvedRange(in Intent, defaultDays int) TimeRange {
	if in.Params.TimeRange != nil {
		return *in.Params.TimeRange
	}
	now := h.now()
	return TimeRange{Start: now.AddDate(0, 0, -defaultDays).Unix(), End: now.Unix()}
}

// entityTotal sums matching rows across transactions and the spend log,
// substring-matching needle against merchant and description.
func (h *moneyHandler) entityTotal(ctx context.Context, needle string, tr TimeRange) (float64, int, error) {
	like := "%" + strings.ToLower(needle) + "%"
	var total float64
	var count int
	row := h.db.QueryRowContext(ctx, `
	SELECT COALESCE(SUM(amount),0), COUNT(*) FROM transactions
	WHERE LOWER(merchant) LIKE ? AND timestamp >= ? AND timestamp <= ?`,
		like, tr.Start, tr.End)
	if err := row.Scan(&total, &count); err != nil {
		return 0, 0, err
	}
	var logTotal float64
	var logCount int
	row = h.db.QueryRowContext(ctx, `
	SELECT COALESCE(SUM(amount_raw),0), COUNT(*) FROM spend_log
	WHERE LOWER(description) LIKE ? AND occurred_at >= ? AND occurred_at <= ?`,
		like, tr.Start, tr.End)
	if err := row.Scan(&logTotal, &logCount); err != nil {
		return 0, 0, err
	}
	return total + logTotal, count + logCount, nil
}

// categoryTotal sums a canonical category across both tables.
func (h *moneyHandler) categoryTotal(ctx context.Context, category string, tr TimeRange) (float64, int, error) {
	var total float64
	var count int
	row := h.db.QueryRowContext(ctx, `
	SELECT COALESCE(SUM(amount),0), COUNT(*) FROM transactions
	WHERE LOWER(category) = ? AND timestamp >= ? AND timestamp <= ?`,
		category, tr.Start, tr.End)
	if err := row.Scan(&total, &count); err != nil {
		return 0, 0, err
	}
	var logTotal float64
	var logCount int
	row = h.db.QueryRowContext(ctx, `
	SELECT COALESCE(SUM(amount_raw),0), COUNT(*) FROM spend_log
	WHERE LOWER(category) = ? AND occurred_at >= ? AND occurred_at <= ?`,
		category, tr.Start, tr.End)
	if err := row.Scan(&logTotal, &logCount); err != nil {
		return 0, 0, err
	}
	return total + logTotal, count + logCount, nil
}

type comparisonSide struct {
	Name  string
	Total float64
	Count int
}

// compareMerchants totals each merchant across both tables and contrasts the
// top two. Zero-data and one-sided outcomes get explicit call-outs instead
// of a misleading delta.
func (h *moneyHandler) compareMerchants(ctx context.Context, in Intent) (*Result, error) {
	tr := h.resolvedRange(in, defaultWindowDays)
	sides := make([]comparisonSide, 0, len(in.Params.Merchants))
	for _, m := range in.Params.Merchants {
		total, count, err := h.entityTotal(ctx, m, tr)
		if err != nil {
			return nil, fmt.Errorf("merchant total %q: %w", m, err)
		}
		sides = append(sides, comparisonSide{Name: m, Total: total, Count: count})
	}
	return h.renderComparison(sides, "merchant-comparison", tr, nil), nil
}

// compareCategories is the same shape, with each category's top merchant
// reported alongside.
func (h *moneyHandler) compareCategories(ctx context.Context, in Intent) (*Result, error) {
	tr := h.resolvedRange(in, defaultWindowDays)
	sides := make([]comparisonSide, 0, len(in.Params.Categories))
	topMerchants := map[string]string{}
	for _, c := range in.Params.Categories {
		total, count, err := h.categoryTotal(ctx, c, tr)
		if err != nil {
			return nil, fmt.Errorf("category total %q: %w", c, err)
		}
		sides = append(sides, comparisonSide{Name: c, Total: total, Count: count})

		var merchant string
		var merchantTotal float64
		row := h.db.QueryRowContext(ctx, `
		SELECT LOWER(merchant), SUM(amount) AS t FROM transactions
		WHERE LOWER(category) = ? AND timestamp >= ? AND timestamp <= ?
		GROUP BY LOWER(merchant) ORDER BY t DESC LIMIT 1`,
			c, tr.Start, tr.End)
		if err := row.Scan(&merchant, &merchantTotal); err == nil && merchant != "" {
			topMerchants[c] = fmt.Sprintf("%s (%s)", merchant, h.fmtr.Money(merchantTotal))
		}
	}
	return h.renderComparison(sides, "category-comparison", tr, topMerchants), nil
}

func (h *moneyHandler) renderComparison(sides []comparisonSide, typ string, tr TimeRange, topMerchants map[string]string) *Result {
	sort.Slice(sides, func(i, j int) bool { return sides[i].Total > sides[j].Total })

	withData := 0
	for _, s := range sides {
		if s.Total > 0 {
			withData++
		}
	}

	names := make([]string, len(sides))
	for i, s := range sides {
		names[i] = s.Name
	}

	data := map[string]any{"sides": sides, "range": tr}

	if withData == 0 {
		return &Result{
			Answer: fmt.Sprintf("No data for %s in this period. I learn merchants and categories from your ingested transactions, so this will improve as data comes in.",
				strings.Join(names, " or ")),
			Type: typ,
			Data: data,
		}
	}

	var b strings.Builder
	for _, s := range sides {
		line := fmt.Sprintf("%s: %s across %d %s", s.Name, h.fmtr.Money(s.Total), s.Count, h.fmtr.Plural(s.Count, "transaction"))
		if tm, ok := topMerchants[s.Name]; ok {
			line += ", mostly " + tm
		}
		b.WriteString("• " + line + "\n")
	}

	if withData == 1 {
		var missing []string
		for _, s := range sides {
			if s.Total == 0 {
				missing = append(missing, s.Name)
			}
		}
		b.WriteString(fmt.Sprintf("\nNo data for %s in this period, so there is nothing to compare against.",
			strings.Join(missing, " or ")))
		return &Result{Answer: strings.TrimRight(b.String(), "\n"), Type: typ, Data: data}
	}

	top, second := sides[0], sides[1]
	diff := top.Total - second.Total
	b.WriteString(fmt.Sprintf("\n%s is ahead by %s", top.Name, h.fmtr.Money(diff)))
	if second.Total > 0 {
		pct := diff / second.Total * 100
		b.WriteString(fmt.Sprintf(" (%s more than %s)", h.fmtr.Percent(pct), second.Name))
	}
	b.WriteString(".")
	return &Result{Answer: b.String(), Type: typ, Data: data}
}

// cardAnalysis groups matching transactions by payment method.
func (h *moneyHandler) cardAnalysis(ctx context.Context, in Intent) (*Result, error) {
	tr := h.resolvedRange(in, defaultWindowDays)
	where := []string{"payment_method IS NOT NULL", "payment_method != ''", "timestamp >= ?", "timestamp <= ?"}
	args := []any{tr.Start, tr.End}
	if in.Params.Category != "" {
		where = append(where, "LOWER(category) = ?")
		args = append(args, in.Params.Category)
	}
	rows, err := h.db.QueryContext(ctx, `
	SELECT payment_method, SUM(amount) AS total, COUNT(*) FROM transactions
	WHERE `+strings.Join(where, " AND ")+`
	GROUP BY payment_method ORDER BY total DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("card analysis: %w", err)
	}
	defer rows.Close()

	type methodTotal struct {
		Method string
		Total  float64
		Count  int
	}
	var methods []methodTotal
	for rows.Next() {
		var m methodTotal
		if err := rows.Scan(&m.Method, &m.Total, &m.Count); err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(methods) == 0 {
		return &Result{
			Answer: "None of the matching transactions carry a payment method, so I can't group by card. Payment methods appear once statement imports include them.",
			Type:   "card-analysis",
			Data:   map[string]any{"range": tr},
		}, nil
	}

	var b strings.Builder
	suffix := ""
	if in.Params.Category != "" {
		suffix = " on " + in.Params.Category
	}
	b.WriteString(fmt.Sprintf("Most used: %s — %s%s across %d %s.\n",
		methods[0].Method, h.fmtr.Money(methods[0].Total), suffix,
		methods[0].Count, h.fmtr.Plural(methods[0].Count, "transaction")))
	for _, m := range methods {
		b.WriteString(fmt.Sprintf("• %s: %s (%d)\n", m.Method, h.fmtr.Money(m.Total), m.Count))
	}
	return &Result{
		Answer: strings.TrimRight(b.String(), "\n"),
		Type:   "card-analysis",
		Data:   map[string]any{"methods": methods, "range": tr},
	}, nil
}

// multiPeriodBreakdown sums each window independently and renders one bar
// per period, then the delta between the two most recent periods.
func (h *moneyHandler) multiPeriodBreakdown(ctx context.Context, in Intent) (*Result, error) {
	type periodTotal struct {
		Period
		Total float64
	}
	totals := make([]periodTotal, 0, len(in.Params.MultiPeriod))
	var max, sum float64
	for _, p := range in.Params.MultiPeriod {
		where := []string{"timestamp >= ?", "timestamp < ?"}
		args := []any{p.Start, p.End}
		if in.Params.Category != "" {
			where = append(where, "LOWER(category) = ?")
			args = append(args, in.Params.Category)
		}
		if in.Params.Merchant != "" {
			where = append(where, "LOWER(merchant) LIKE ?")
			args = append(args, "%"+in.Params.Merchant+"%")
		}
		var total float64
		row := h.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount),0) FROM transactions WHERE `+strings.Join(where, " AND "), args...)
		if err := row.Scan(&total); err != nil {
			return nil, fmt.Errorf("period total %s: %w", p.Label, err)
		}
		totals = append(totals, periodTotal{Period: p, Total: total})
		sum += total
		if total > max {
			max = total
		}
	}

	subject := "Spending"
	if in.Params.Category != "" {
		subject = capitalize(in.Params.Category) + " spending"
	} else if in.Params.Merchant != "" {
		subject = capitalize(in.Params.Merchant) + " spending"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s across the last %d periods:\n", subject, len(totals)))
	for _, pt := range totals {
		bar := h.fmtr.Bar(pt.Total, max, 12)
		b.WriteString(fmt.Sprintf("%s  %-12s %s\n", pt.Label, bar, h.fmtr.Money(pt.Total)))
	}

	last := totals[len(totals)-1]
	prev := totals[len(totals)-2]
	if prev.Total > 0 {
		pct := (last.Total - prev.Total) / prev.Total * 100
		dir := "up"
		if pct < 0 {
			dir = "down"
		}
		b.WriteString(fmt.Sprintf("\n%s vs %s: %s %s.", last.Label, prev.Label, dir, h.fmtr.Percent(pct)))
	} else if last.Total > 0 {
		b.WriteString(fmt.Sprintf("\nNo data for %s to compare %s against.", prev.Label, last.Label))
	}
	avg := sum / float64(len(totals))
	b.WriteString(fmt.Sprintf("\nTotal %s, averaging %s per period.", h.fmtr.Money(sum), h.fmtr.Money(avg)))

	return &Result{
		Answer: b.String(),
		Type:   "multi-period",
		Data:   map[string]any{"periods": totals, "total": sum, "average": avg},
	}, nil
}

// drillDown answers a single merchant or category question by unioning rows
// from both tables, newest first.
func (h *moneyHandler) drillDown(ctx context.Context, in Intent) (*Result, error) {
	tr := h.resolvedRange(in, defaultWindowDays)

	txnWhere := []string{"timestamp >= ?", "timestamp <= ?"}
	logWhere := []string{"occurred_at >= ?", "occurred_at <= ?"}
	txnArgs := []any{tr.Start, tr.End}
	logArgs := []any{tr.Start, tr.End}
	subject := in.Params.Category
	if in.Params.Merchant != "" {
		subject = in.Params.Merchant
		like := "%" + in.Params.Merchant + "%"
		txnWhere = append(txnWhere, "LOWER(merchant) LIKE ?")
		txnArgs = append(txnArgs, like)
		logWhere = append(logWhere, "LOWER(description) LIKE ?")
		logArgs = append(logArgs, like)
	} else {
		txnWhere = append(txnWhere, "LOWER(category) = ?")
		txnArgs = append(txnArgs, in.Params.Category)
		logWhere = append(logWhere, "LOWER(category) = ?")
		logArgs = append(logArgs, in.Params.Category)
	}

	query := `
	SELECT label, amount, ts FROM (
	  SELECT LOWER(merchant) AS label, amount, timestamp AS ts FROM transactions WHERE ` + strings.Join(txnWhere, " AND ") + `
	  UNION ALL
	  SELECT COALESCE(description,'') AS label, amount_raw AS amount, occurred_at AS ts FROM spend_log WHERE ` + strings.Join(logWhere, " AND ") + `
	) ORDER BY ts DESC`
	args := append(append([]any{}, txnArgs...), logArgs...)

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("drill down %q: %w", subject, err)
	}
	defer rows.Close()

	type spendRow struct {
		Label  string
		Amount float64
		TS     int64
	}
	var all []spendRow
	var total float64
	for rows.Next() {
		var r spendRow
		if err := rows.Scan(&r.Label, &r.Amount, &r.TS); err != nil {
			return nil, err
		}
		all = append(all, r)
		total += r.Amount
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	data := map[string]any{"subject": subject, "total": total, "count": len(all), "range": tr}

	if len(all) == 0 {
		return &Result{
			Answer: fmt.Sprintf("No %s spending recorded in this period.", subject),
			Type:   "drill-down",
			Data:   data,
		}, nil
	}

	switch in.Action {
	case ActionLast:
		r := all[0]
		return &Result{
			Answer: fmt.Sprintf("Last %s transaction: %s on %s (%s).",
				subject, h.fmtr.Money(r.Amount), h.fmtr.Date(r.TS), r.Label),
			Type: "drill-down",
			Data: data,
		}, nil
	case ActionTotal:
		return &Result{
			Answer: fmt.Sprintf("%s on %s across %d %s.",
				h.fmtr.Money(total), subject, len(all), h.fmtr.Plural(len(all), "transaction")),
			Type: "drill-down",
			Data: data,
		}, nil
	case ActionCount:
		return &Result{
			Answer: fmt.Sprintf("%d %s %s in this period.",
				len(all), subject, h.fmtr.Plural(len(all), "transaction")),
			Type: "drill-down",
			Data: data,
		}, nil
	}

	limit := in.Params.Limit
	if limit <= 0 {
		limit = 10
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s on %s across %d %s",
		h.fmtr.Money(total), subject, len(all), h.fmtr.Plural(len(all), "transaction")))
	if len(all) > 1 {
		b.WriteString(fmt.Sprintf(", averaging %s", h.fmtr.Money(total/float64(len(all)))))
	}
	b.WriteString(".\n")
	lines := make([]string, 0, len(all))
	for _, r := range all {
		lines = append(lines, fmt.Sprintf("• %s — %s (%s)", h.fmtr.Date(r.TS), h.fmtr.Money(r.Amount), r.Label))
	}
	for _, l := range h.fmtr.Truncate(lines, limit) {
		b.WriteString(l + "\n")
	}
	return &Result{Answer: strings.TrimRight(b.String(), "\n"), Type: "drill-down", Data: data}, nil
}

// weeklyTrend buckets transactions into week-aligned buckets over the
// resolved range and classifies the latest week against the bucket mean.
func (h *moneyHandler) weeklyTrend(ctx context.Context, in Intent) (*Result, error) {
	tr := h.resolvedRange(in, defaultWindowDays)

	type bucket struct {
		Start int64
		Total float64
	}
	var buckets []bucket
	cur := startOfWeek(time.Unix(tr.Start, 0).UTC())
	for cur.Unix() < tr.End {
		next := cur.AddDate(0, 0, 7)
		where := []string{"timestamp >= ?", "timestamp < ?"}
		args := []any{cur.Unix(), next.Unix()}
		if in.Params.Category != "" {
			where = append(where, "LOWER(category) = ?")
			args = append(args, in.Params.Category)
		}
		var total float64
		row := h.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount),0) FROM transactions WHERE `+strings.Join(where, " AND "), args...)
		if err := row.Scan(&total); err != nil {
			return nil, fmt.Errorf("trend bucket: %w", err)
		}
		buckets = append(buckets, bucket{Start: cur.Unix(), Total: total})
		cur = next
	}

	var sum, max float64
	for _, b := range buckets {
		sum += b.Total
		if b.Total > max {
			max = b.Total
		}
	}
	if len(buckets) == 0 || sum == 0 {
		return &Result{
			Answer: "No spending recorded in this period, so there is no trend to show.",
			Type:   "trend",
			Data:   map[string]any{"range": tr},
		}, nil
	}

	var b strings.Builder
	b.WriteString("Weekly spending:\n")
	for _, bk := range buckets {
		bar := h.fmtr.Bar(bk.Total, max, 12)
		b.WriteString(fmt.Sprintf("wk of %s  %-12s %s\n", h.fmtr.Date(bk.Start), bar, h.fmtr.Money(bk.Total)))
	}

	mean := sum / float64(len(buckets))
	latest := buckets[len(buckets)-1].Total
	verdict := "steady, in line with"
	if latest > mean*1.2 {
		verdict = "running above"
	} else if latest < mean*0.8 {
		verdict = "running below"
	}
	b.WriteString(fmt.Sprintf("\nThis week is %s your weekly average of %s.", verdict, h.fmtr.Money(mean)))

	return &Result{
		Answer: b.String(),
		Type:   "trend",
		Data:   map[string]any{"buckets": buckets, "mean": mean},
	}, nil
}

// periodCompare splits the resolved range into two equal halves and
// contrasts them, including per-category deltas.
func (h *moneyHandler) periodCompare(ctx context.Context, in Intent) (*Result, error) {
	tr := h.resolvedRange(in, 2*defaultWindowDays)
	mid := tr.Start + (tr.End-tr.Start)/2
	current := TimeRange{Start: mid, End: tr.End}
	previous := TimeRange{Start: tr.Start, End: mid}

	sumRange := func(r TimeRange) (float64, error) {
		var total float64
		row := h.db.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(amount),0) FROM transactions WHERE timestamp >= ? AND timestamp < ?`,
			r.Start, r.End)
		return total, row.Scan(&total)
	}
	curTotal, err := sumRange(current)
	if err != nil {
		return nil, fmt.Errorf("period compare: %w", err)
	}
	prevTotal, err := sumRange(previous)
	if err != nil {
		return nil, fmt.Errorf("period compare: %w", err)
	}

	data := map[string]any{"current": curTotal, "previous": prevTotal}
	if curTotal == 0 && prevTotal == 0 {
		return &Result{
			Answer: "No spending recorded in either period.",
			Type:   "period-compare",
			Data:   data,
		}, nil
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("This period %s · previous period %s.\n", h.fmtr.Money(curTotal), h.fmtr.Money(prevTotal)))
	diff := curTotal - prevTotal
	if prevTotal > 0 {
		pct := diff / prevTotal * 100
		dir := "up"
		if diff < 0 {
			dir = "down"
		}
		b.WriteString(fmt.Sprintf("That's %s %s (%s).\n", dir, h.fmtr.Money(diff), h.fmtr.Percent(pct)))
	} else {
		b.WriteString("Nothing recorded in the previous period to compare against.\n")
	}

	// per-category deltas, biggest current categories first
	rows, err := h.db.QueryContext(ctx, `
	SELECT LOWER(category),
	       COALESCE(SUM(CASE WHEN timestamp >= ? THEN amount END),0) AS cur,
	       COALESCE(SUM(CASE WHEN timestamp < ? THEN amount END),0) AS prev
	FROM transactions
	WHERE timestamp >= ? AND timestamp < ? AND category IS NOT NULL AND category != ''
	GROUP BY LOWER(category) ORDER BY cur DESC LIMIT 5`,
		mid, mid, tr.Start, tr.End)
	if err != nil {
		return nil, fmt.Errorf("period compare categories: %w", err)
	}
	defer rows.Close()

	var catLines []string
	for rows.Next() {
		var cat string
		var cur, prev float64
		if err := rows.Scan(&cat, &cur, &prev); err != nil {
			return nil, err
		}
		line := fmt.Sprintf("• %s: %s", cat, h.fmtr.Money(cur))
		if prev > 0 {
			pct := (cur - prev) / prev * 100
			dir := "+"
			if pct < 0 {
				dir = "-"
			}
			line += fmt.Sprintf(" (%s%s)", dir, h.fmtr.Percent(pct))
		}
		catLines = append(catLines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(catLines) > 0 {
		b.WriteString("Top categories:\n" + strings.Join(catLines, "\n"))
	}

	return &Result{Answer: strings.TrimRight(b.String(), "\n"), Type: "period-compare", Data: data}, nil
}

// summary is the default money answer: total + count, then breakdowns.
func (h *moneyHandler) summary(ctx context.Context, in Intent) (*Result, error) {
	tr := h.resolvedRange(in, defaultWindowDays)

	var total float64
	var count int
	row := h.db.QueryRowContext(ctx, `
	SELECT COALESCE(SUM(amount),0), COUNT(*) FROM transactions
	WHERE timestamp >= ? AND timestamp <= ?`, tr.Start, tr.End)
	if err := row.Scan(&total, &count); err != nil {
		return nil, fmt.Errorf("spend summary: %w", err)
	}
	var logTotal float64
	var logCount int
	row = h.db.QueryRowContext(ctx, `
	SELECT COALESCE(SUM(amount_raw),0), COUNT(*) FROM spend_log
	WHERE occurred_at >= ? AND occurred_at <= ?`, tr.Start, tr.End)
	if err := row.Scan(&logTotal, &logCount); err != nil {
		return nil, fmt.Errorf("spend summary: %w", err)
	}
	total += logTotal
	count += logCount

	data := map[string]any{"total": total, "count": count, "range": tr}
	if count == 0 {
		return &Result{
			Answer: "No spending recorded in this period.",
			Type:   "spending-summary",
			Data:   data,
		}, nil
	}

	if in.Action == ActionTotal || in.Action == ActionCount {
		return &Result{
			Answer: fmt.Sprintf("%s across %d %s in this period.",
				h.fmtr.Money(total), count, h.fmtr.Plural(count, "transaction")),
			Type: "spending-summary",
			Data: data,
		}, nil
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s across %d %s.\n",
		h.fmtr.Money(total), count, h.fmtr.Plural(count, "transaction")))

	rows, err := h.db.QueryContext(ctx, `
	SELECT LOWER(category), SUM(amount) AS t, COUNT(*) FROM transactions
	WHERE timestamp >= ? AND timestamp <= ? AND category IS NOT NULL AND category != ''
	GROUP BY LOWER(category) ORDER BY t DESC LIMIT 8`, tr.Start, tr.End)
	if err != nil {
		return nil, fmt.Errorf("category breakdown: %w", err)
	}
	defer rows.Close()
	var catLines []string
	for rows.Next() {
		var cat string
		var t float64
		var c int
		if err := rows.Scan(&cat, &t, &c); err != nil {
			return nil, err
		}
		catLines = append(catLines, fmt.Sprintf("• %s: %s (%d)", cat, h.fmtr.Money(t), c))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(catLines) > 0 {
		b.WriteString("By category:\n" + strings.Join(catLines, "\n"))
	}

	return &Result{Answer: strings.TrimRight(b.String(), "\n"), Type: "spending-summary", Data: data}, nil
}

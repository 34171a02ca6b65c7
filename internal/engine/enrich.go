package engine

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

// spendOutlierCeiling is the absolute per-period total above which a total
// is flagged regardless of history.
const spendOutlierCeiling = 1_000_000

// SpendInsights is the default Enricher: it appends outlier warnings and
// behavior-metric deviations to money answers. Enrichment failures are
// logged at debug and swallowed.
type SpendInsights struct {
	DB   *sql.DB
	Log  *zap.Logger
	Fmtr *Formatter
	Now  func() time.Time
}

func (s *SpendInsights) Enrich(ctx context.Context, res *Result, in Intent) {
	if res == nil || res.Type == "error" {
		return
	}
	total, ok := res.Data["total"].(float64)
	if ok {
		if warn := s.outlierWarning(ctx, total); warn != "" {
			res.Answer += "\n" + warn
		}
	}
	if res.Type == "spending-summary" {
		if note := s.deviationNote(ctx); note != "" {
			res.Answer += "\n" + note
		}
	}
}

// outlierWarning flags a total that is either absurdly large in absolute
// terms or more than 5x the trailing 90-day monthly average.
func (s *SpendInsights) outlierWarning(ctx context.Context, total float64) string {
	if total > spendOutlierCeiling {
		return fmt.Sprintf("⚠ %s looks unusually high — verify data integrity.", s.Fmtr.Money(total))
	}
	cutoff := s.Now().AddDate(0, 0, -90).Unix()
	var avg sql.NullFloat64
	row := s.DB.QueryRowContext(ctx, `
	SELECT AVG(monthly_total) FROM (
	  SELECT SUM(amount) AS monthly_total FROM transactions
	  WHERE timestamp >= ?
	  GROUP BY strftime('%Y-%m', datetime(timestamp, 'unixepoch'))
	)`, cutoff)
	if err := row.Scan(&avg); err != nil {
		s.Log.Debug("outlier check failed", zap.Error(err))
		return ""
	}
	if avg.Valid && avg.Float64 > 0 && total > avg.Float64*5 {
		return fmt.Sprintf("⚠ This is %.1f× higher than your 3-month average (%s/mo).",
			total/avg.Float64, s.Fmtr.Money(avg.Float64))
	}
	return ""
}

// deviationNote surfaces the most recent behavior metric whose weekly spend
// deviates more than 30% from its rolling average.
func (s *SpendInsights) deviationNote(ctx context.Context) string {
	var category string
	var deviation, weekly float64
	row := s.DB.QueryRowContext(ctx, `
	SELECT category, deviation_percent, weekly_spend FROM behavior_metrics
	WHERE ABS(deviation_percent) > 30
	ORDER BY period_start DESC LIMIT 1`)
	if err := row.Scan(&category, &deviation, &weekly); err != nil {
		if err != sql.ErrNoRows {
			s.Log.Debug("deviation check failed", zap.Error(err))
		}
		return ""
	}
	dir := "above"
	if deviation < 0 {
		dir = "below"
	}
	return fmt.Sprintf("Insight: %s is running %.0f%% %s its usual weekly pace (%s this week).",
		category, math.Abs(deviation), dir, s.Fmtr.Money(weekly))
}

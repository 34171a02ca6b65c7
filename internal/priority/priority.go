// Package priority ranks what deserves the user's attention right now from
// the same read-only store the query engine answers from. Scoring is fully
// deterministic; no model is involved.
package priority

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"
)

const day = 86400

// silenceThreshold: below this top score there is nothing worth surfacing.
const silenceThreshold = 40

// maxPriorities is the number of entries returned.
const maxPriorities = 8

// Priority is one ranked attention item.
type Priority struct {
	ID          string
	Domain      string
	Title       string
	Description string
	Score       int
}

// Report is the full ranked result.
type Report struct {
	Priorities []Priority
	Silence    bool
	Stats      Stats
}

// Stats is the cross-domain snapshot rendered alongside priorities.
type Stats struct {
	OpenTasks    int
	UnreadEmails int
	MonthSpend   float64
}

// Engine computes priority reports.
type Engine struct {
	DB  *sql.DB
	Now func() time.Time
}

var financialSubjectWords = []string{"payment", "invoice", "bill", "transaction", "subscription", "renewal"}

// Compute reads the store and returns the ranked report.
func (e *Engine) Compute(ctx context.Context) (*Report, error) {
	now := e.Now()
	nowTS := now.Unix()

	var priorities []Priority
	collect := func(items []Priority, err error, what string) error {
		if err != nil {
			return fmt.Errorf("%s: %w", what, err)
		}
		priorities = append(priorities, items...)
		return nil
	}

	items, err := e.overdueTasks(ctx, nowTS)
	if err := collect(items, err, "overdue tasks"); err != nil {
		return nil, err
	}
	items, err = e.urgentEmails(ctx)
	if err := collect(items, err, "urgent emails"); err != nil {
		return nil, err
	}
	items, err = e.renewingSubscriptions(ctx, nowTS)
	if err := collect(items, err, "renewing subscriptions"); err != nil {
		return nil, err
	}
	items, err = e.imminentEvents(ctx, nowTS)
	if err := collect(items, err, "imminent events"); err != nil {
		return nil, err
	}
	items, err = e.staleActionEmails(ctx, nowTS)
	if err := collect(items, err, "stale action emails"); err != nil {
		return nil, err
	}
	items, err = e.spendingSpike(ctx, now)
	if err := collect(items, err, "spending spike"); err != nil {
		return nil, err
	}

	// stable sort: score desc, then id for determinism
	for i := 1; i < len(priorities); i++ {
		for j := i; j > 0; j-- {
			a, b := priorities[j-1], priorities[j]
			if b.Score > a.Score || (b.Score == a.Score && b.ID < a.ID) {
				priorities[j-1], priorities[j] = b, a
			} else {
				break
			}
		}
	}
	if len(priorities) > maxPriorities {
		priorities = priorities[:maxPriorities]
	}

	stats, err := e.stats(ctx, now)
	if err != nil {
		return nil, err
	}

	return &Report{
		Priorities: priorities,
		Silence:    len(priorities) == 0 || priorities[0].Score < silenceThreshold,
		Stats:      stats,
	}, nil
}

// overdueTasks: base 80, +5 per day late, cap 99.
func (e *Engine) overdueTasks(ctx context.Context, nowTS int64) ([]Priority, error) {
	rows, err := e.DB.QueryContext(ctx, `
	SELECT id, title, due_at FROM reminders
	WHERE completed = 0 AND archived_at IS NULL AND due_at IS NOT NULL AND due_at < ?
	ORDER BY due_at ASC LIMIT 10`, nowTS)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Priority
	for rows.Next() {
		var id, title string
		var dueAt int64
		if err := rows.Scan(&id, &title, &dueAt); err != nil {
			return nil, err
		}
		daysLate := (nowTS - dueAt) / day
		if daysLate < 1 {
			daysLate = 1
		}
		score := 80 + int(daysLate)*5
		if score > 99 {
			score = 99
		}
		out = append(out, Priority{
			ID:          "task-" + id,
			Domain:      "task",
			Title:       title,
			Description: fmt.Sprintf("%dd overdue", daysLate),
			Score:       score,
		})
	}
	return out, rows.Err()
}

// urgentEmails: base 70, +10 for a financial subject, +5 for urgent category.
func (e *Engine) urgentEmails(ctx context.Context) ([]Priority, error) {
	rows, err := e.DB.QueryContext(ctx, `
	SELECT id, COALESCE(subject, '(no subject)'), COALESCE(from_name, from_email, 'unknown'), category
	FROM email_cache
	WHERE category IN ('urgent', 'action') AND is_read = 0
	ORDER BY cached_at DESC LIMIT 10`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Priority
	for rows.Next() {
		var id, subject, sender, category string
		if err := rows.Scan(&id, &subject, &sender, &category); err != nil {
			return nil, err
		}
		score := 70
		low := strings.ToLower(subject)
		for _, w := range financialSubjectWords {
			if strings.Contains(low, w) {
				score += 10
				break
			}
		}
		if category == "urgent" {
			score += 5
		}
		out = append(out, Priority{
			ID:          "email-" + id,
			Domain:      "email",
			Title:       subject,
			Description: "From " + sender,
			Score:       score,
		})
	}
	return out, rows.Err()
}

// renewingSubscriptions: within 3 days, base 75, +20 when already overdue.
func (e *Engine) renewingSubscriptions(ctx context.Context, nowTS int64) ([]Priority, error) {
	rows, err := e.DB.QueryContext(ctx, `
	SELECT id, name, amount, period, next_renewal FROM subscriptions
	WHERE next_renewal IS NOT NULL AND next_renewal > 0 AND next_renewal <= ?
	ORDER BY next_renewal ASC LIMIT 5`, nowTS+3*day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Priority
	for rows.Next() {
		var id, name, period string
		var amount float64
		var renewal int64
		if err := rows.Scan(&id, &name, &amount, &period, &renewal); err != nil {
			return nil, err
		}
		score := 75
		desc := fmt.Sprintf("%.0f/%s", amount, period)
		if renewal < nowTS {
			score += 20
			desc += " — OVERDUE"
		}
		out = append(out, Priority{
			ID:          "sub-" + id,
			Domain:      "finance",
			Title:       name + " renewal",
			Description: desc,
			Score:       score,
		})
	}
	return out, rows.Err()
}

// imminentEvents: within 2 hours, base 85, +10 under 30 minutes.
func (e *Engine) imminentEvents(ctx context.Context, nowTS int64) ([]Priority, error) {
	rows, err := e.DB.QueryContext(ctx, `
	SELECT id, title, start_at, COALESCE(location, '') FROM calendar_events
	WHERE start_at > ? AND start_at <= ?
	ORDER BY start_at ASC LIMIT 5`, nowTS, nowTS+2*3600)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Priority
	for rows.Next() {
		var id, title, location string
		var startAt int64
		if err := rows.Scan(&id, &title, &startAt, &location); err != nil {
			return nil, err
		}
		minsAway := (startAt - nowTS) / 60
		score := 85
		if minsAway < 30 {
			score += 10
		}
		desc := fmt.Sprintf("In %dm", minsAway)
		if location != "" {
			desc += " · " + location
		}
		out = append(out, Priority{
			ID:          "cal-" + id,
			Domain:      "calendar",
			Title:       title,
			Description: desc,
			Score:       score,
		})
	}
	return out, rows.Err()
}

// staleActionEmails: unread action emails older than 48 hours, base 60.
func (e *Engine) staleActionEmails(ctx context.Context, nowTS int64) ([]Priority, error) {
	rows, err := e.DB.QueryContext(ctx, `
	SELECT id, COALESCE(subject, '(no subject)'), COALESCE(from_name, from_email, 'unknown')
	FROM email_cache
	WHERE category = 'action' AND is_read = 0 AND cached_at < ? LIMIT 5`, nowTS-2*day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Priority
	for rows.Next() {
		var id, subject, sender string
		if err := rows.Scan(&id, &subject, &sender); err != nil {
			return nil, err
		}
		out = append(out, Priority{
			ID:          "stale-" + id,
			Domain:      "email",
			Title:       subject,
			Description: "Action needed — " + sender,
			Score:       60,
		})
	}
	return out, rows.Err()
}

// spendingSpike: this month more than 30% over last month, base 55.
func (e *Engine) spendingSpike(ctx context.Context, now time.Time) ([]Priority, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prevStart := monthStart.AddDate(0, -1, 0)

	var thisTotal, lastTotal float64
	row := e.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_raw), 0) FROM spend_log WHERE occurred_at >= ?`, monthStart.Unix())
	if err := row.Scan(&thisTotal); err != nil {
		return nil, err
	}
	row = e.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_raw), 0) FROM spend_log WHERE occurred_at >= ? AND occurred_at < ?`,
		prevStart.Unix(), monthStart.Unix())
	if err := row.Scan(&lastTotal); err != nil {
		return nil, err
	}

	if lastTotal <= 0 || thisTotal <= lastTotal*1.3 {
		return nil, nil
	}
	pct := math.Round((thisTotal - lastTotal) / lastTotal * 100)
	return []Priority{{
		ID:          "spend-spike",
		Domain:      "finance",
		Title:       "Spending spike detected",
		Description: fmt.Sprintf("Up %.0f%% vs last month", pct),
		Score:       55,
	}}, nil
}

func (e *Engine) stats(ctx context.Context, now time.Time) (Stats, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).Unix()
	var s Stats
	if err := e.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reminders WHERE completed = 0 AND archived_at IS NULL`).Scan(&s.OpenTasks); err != nil {
		return s, fmt.Errorf("stats tasks: %w", err)
	}
	if err := e.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM email_cache WHERE is_read = 0`).Scan(&s.UnreadEmails); err != nil {
		return s, fmt.Errorf("stats emails: %w", err)
	}
	if err := e.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_raw), 0) FROM spend_log WHERE occurred_at >= ?`, monthStart).Scan(&s.MonthSpend); err != nil {
		return s, fmt.Errorf("stats spend: %w", err)
	}
	return s, nil
}

package engine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// domainHandler answers questions outside the money domain. Each method
// interprets the action/params against its own tables and returns a polite
// empty-state message when nothing matches.
type domainHandler struct {
	db   *sql.DB
	fmtr *Formatter
	now  func() time.Time
}

func (h *domainHandler) subscriptions(ctx context.Context, in Intent) (*Result, error) {
	now := h.now().Unix()
	rows, err := h.db.QueryContext(ctx, `
	SELECT name, amount, period, COALESCE(next_renewal, 0) FROM subscriptions
	ORDER BY CASE WHEN next_renewal IS NULL OR next_renewal = 0 THEN 1 ELSE 0 END, next_renewal`)
	if err != nil {
		return nil, fmt.Errorf("subscriptions: %w", err)
	}
	defer rows.Close()

	type sub struct {
		Name    string
		Amount  float64
		Period  string
		Renewal int64
	}
	var subs []sub
	var monthly float64
	for rows.Next() {
		var s sub
		if err := rows.Scan(&s.Name, &s.Amount, &s.Period, &s.Renewal); err != nil {
			return nil, err
		}
		subs = append(subs, s)
		switch s.Period {
		case "yearly":
			monthly += s.Amount / 12
		case "weekly":
			monthly += s.Amount * 4
		default:
			monthly += s.Amount
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	data := map[string]any{"count": len(subs), "monthly": monthly}
	if len(subs) == 0 {
		return &Result{Answer: "No subscriptions tracked yet.", Type: "subscriptions", Data: data}, nil
	}

	switch in.Action {
	case ActionCount:
		return &Result{
			Answer: fmt.Sprintf("You have %d %s, roughly %s per month.",
				len(subs), h.fmtr.Plural(len(subs), "subscription"), h.fmtr.Money(monthly)),
			Type: "subscriptions", Data: data,
		}, nil
	case ActionTotal:
		return &Result{
			Answer: fmt.Sprintf("Subscriptions cost about %s per month across %d services.",
				h.fmtr.Money(monthly), len(subs)),
			Type: "subscriptions", Data: data,
		}, nil
	}

	var b strings.Builder
	soon := 0
	for _, s := range subs {
		if s.Renewal > 0 && s.Renewal <= now+7*86400 {
			soon++
		}
	}
	if soon > 0 {
		b.WriteString(fmt.Sprintf("%d renewing within a week:\n", soon))
	} else {
		b.WriteString(fmt.Sprintf("%d active %s:\n", len(subs), h.fmtr.Plural(len(subs), "subscription")))
	}
	for _, s := range subs {
		line := fmt.Sprintf("• %s — %s/%s", s.Name, h.fmtr.Money(s.Amount), s.Period)
		if s.Renewal > 0 {
			if s.Renewal < now {
				line += " (renewal overdue)"
			} else {
				line += fmt.Sprintf(" (renews %s)", h.fmtr.Date(s.Renewal))
			}
		}
		b.WriteString(line + "\n")
	}
	b.WriteString(fmt.Sprintf("About %s per month in total.", h.fmtr.Money(monthly)))
	return &Result{Answer: b.String(), Type: "subscriptions", Data: data}, nil
}

func (h *domainHandler) email(ctx context.Context, in Intent) (*Result, error) {
	if in.Action == ActionSearch && in.Params.SearchTerm != "" {
		return h.emailSearch(ctx, in.Params.SearchTerm)
	}

	var total, unread int
	row := h.db.QueryRowContext(ctx, `
	SELECT COUNT(*), COALESCE(SUM(CASE WHEN is_read = 0 THEN 1 ELSE 0 END), 0) FROM email_cache`)
	if err := row.Scan(&total, &unread); err != nil {
		return nil, fmt.Errorf("email counts: %w", err)
	}
	data := map[string]any{"total": total, "unread": unread}
	if total == 0 {
		return &Result{Answer: "Inbox cache is empty — sync emails first.", Type: "email", Data: data}, nil
	}
	if in.Action == ActionCount {
		return &Result{
			Answer: fmt.Sprintf("%d unread of %d cached emails.", unread, total),
			Type:   "email", Data: data,
		}, nil
	}

	limit := in.Params.Limit
	if limit <= 0 {
		limit = 5
	}
	rows, err := h.db.QueryContext(ctx, `
	SELECT COALESCE(subject, '(no subject)'), COALESCE(from_name, from_email, 'unknown'), received_at
	FROM email_cache WHERE is_read = 0 ORDER BY received_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("unread emails: %w", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var subject, from string
		var ts int64
		if err := rows.Scan(&subject, &from, &ts); err != nil {
			return nil, err
		}
		lines = append(lines, fmt.Sprintf("• %s: %s (%s)", from, subject, h.fmtr.Date(ts)))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return &Result{Answer: "No unread emails. Inbox is clear.", Type: "email", Data: data}, nil
	}
	return &Result{
		Answer: fmt.Sprintf("%d unread of %d cached:\n%s", unread, total, strings.Join(lines, "\n")),
		Type:   "email", Data: data,
	}, nil
}

func (h *domainHandler) emailSearch(ctx context.Context, term string) (*Result, error) {
	like := "%" + strings.ToLower(term) + "%"
	rows, err := h.db.QueryContext(ctx, `
	SELECT COALESCE(subject, '(no subject)'), COALESCE(from_name, from_email, 'unknown'), received_at
	FROM email_cache
	WHERE LOWER(subject) LIKE ? OR LOWER(from_name) LIKE ? OR LOWER(from_email) LIKE ? OR LOWER(body_preview) LIKE ?
	ORDER BY received_at DESC LIMIT 10`, like, like, like, like)
	if err != nil {
		return nil, fmt.Errorf("email search: %w", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var subject, from string
		var ts int64
		if err := rows.Scan(&subject, &from, &ts); err != nil {
			return nil, err
		}
		lines = append(lines, fmt.Sprintf("• %s: %s (%s)", from, subject, h.fmtr.Date(ts)))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return &Result{
			Answer: fmt.Sprintf("No cached emails matching %q.", term),
			Type:   "email", Data: map[string]any{"term": term},
		}, nil
	}
	return &Result{
		Answer: fmt.Sprintf("Emails matching %q:\n%s", term, strings.Join(lines, "\n")),
		Type:   "email", Data: map[string]any{"term": term, "count": len(lines)},
	}, nil
}

func (h *domainHandler) tasks(ctx context.Context, in Intent) (*Result, error) {
	now := h.now().Unix()
	rows, err := h.db.QueryContext(ctx, `
	SELECT title, COALESCE(due_at, 0), COALESCE(category, '') FROM reminders
	WHERE completed = 0 AND archived_at IS NULL
	ORDER BY CASE WHEN due_at IS NULL THEN 1 ELSE 0 END, due_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("tasks: %w", err)
	}
	defer rows.Close()

	type task struct {
		Title    string
		DueAt    int64
		Category string
	}
	var open []task
	overdue := 0
	for rows.Next() {
		var t task
		if err := rows.Scan(&t.Title, &t.DueAt, &t.Category); err != nil {
			return nil, err
		}
		open = append(open, t)
		if t.DueAt > 0 && t.DueAt < now {
			overdue++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	data := map[string]any{"open": len(open), "overdue": overdue}
	if len(open) == 0 {
		return &Result{Answer: "No open tasks — all clear.", Type: "tasks", Data: data}, nil
	}
	if in.Action == ActionCount {
		return &Result{
			Answer: fmt.Sprintf("%d open %s, %d overdue.", len(open), h.fmtr.Plural(len(open), "task"), overdue),
			Type:   "tasks", Data: data,
		}, nil
	}

	limit := in.Params.Limit
	if limit <= 0 {
		limit = 8
	}
	var lines []string
	for _, t := range open {
		line := "• " + t.Title
		if t.Category != "" {
			line = fmt.Sprintf("• [%s] %s", t.Category, t.Title)
		}
		if t.DueAt > 0 {
			if t.DueAt < now {
				line += fmt.Sprintf(" — overdue since %s", h.fmtr.Date(t.DueAt))
			} else {
				line += fmt.Sprintf(" — due %s", h.fmtr.Date(t.DueAt))
			}
		}
		lines = append(lines, line)
	}
	header := fmt.Sprintf("%d open %s", len(open), h.fmtr.Plural(len(open), "task"))
	if overdue > 0 {
		header += fmt.Sprintf(" (%d overdue)", overdue)
	}
	return &Result{
		Answer: header + ":\n" + strings.Join(h.fmtr.Truncate(lines, limit), "\n"),
		Type:   "tasks", Data: data,
	}, nil
}

func (h *domainHandler) focus(ctx context.Context, in Intent) (*Result, error) {
	tr := in.Params.TimeRange
	now := h.now()
	if tr == nil {
		tr = &TimeRange{Start: now.AddDate(0, 0, -7).Unix(), End: now.Unix()}
	}
	startDate := time.Unix(tr.Start, 0).UTC().Format("2006-01-02")
	endDate := time.Unix(tr.End, 0).UTC().Format("2006-01-02")

	var sessions int
	var totalSeconds int64
	row := h.db.QueryRowContext(ctx, `
	SELECT COUNT(*), COALESCE(SUM(duration_seconds), 0) FROM focus_sessions
	WHERE date >= ? AND date <= ?`, startDate, endDate)
	if err := row.Scan(&sessions, &totalSeconds); err != nil {
		return nil, fmt.Errorf("focus: %w", err)
	}

	data := map[string]any{"sessions": sessions, "seconds": totalSeconds}
	if sessions == 0 {
		return &Result{Answer: "No focus sessions logged in this period.", Type: "focus", Data: data}, nil
	}
	days := int((tr.End-tr.Start)/86400) + 1
	perDay := totalSeconds / int64(days)
	return &Result{
		Answer: fmt.Sprintf("%s of focus across %d %s, about %s per day.",
			h.fmtr.Duration(totalSeconds), sessions, h.fmtr.Plural(sessions, "session"), h.fmtr.Duration(perDay)),
		Type: "focus", Data: data,
	}, nil
}

func (h *domainHandler) habits(ctx context.Context, in Intent) (*Result, error) {
	today := h.now().Format("2006-01-02")
	rows, err := h.db.QueryContext(ctx, `
	SELECT h.name, COALESCE(hl.done, 0) FROM habits h
	LEFT JOIN habit_log hl ON hl.habit_id = h.id AND hl.date = ?
	ORDER BY h.name`, today)
	if err != nil {
		return nil, fmt.Errorf("habits: %w", err)
	}
	defer rows.Close()

	var done, pending []string
	for rows.Next() {
		var name string
		var d int
		if err := rows.Scan(&name, &d); err != nil {
			return nil, err
		}
		if d == 1 {
			done = append(done, name)
		} else {
			pending = append(pending, name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	data := map[string]any{"done": len(done), "pending": len(pending)}
	if len(done)+len(pending) == 0 {
		return &Result{Answer: "No habits tracked yet.", Type: "habits", Data: data}, nil
	}
	var parts []string
	if len(done) > 0 {
		parts = append(parts, "✓ Done: "+strings.Join(done, ", "))
	}
	if len(pending) > 0 {
		parts = append(parts, "✗ Pending: "+strings.Join(pending, ", "))
	}
	return &Result{
		Answer: "Habits today:\n" + strings.Join(parts, "\n"),
		Type:   "habits", Data: data,
	}, nil
}

func (h *domainHandler) calendar(ctx context.Context, in Intent) (*Result, error) {
	now := h.now()
	start, end := now.Unix(), now.AddDate(0, 0, 7).Unix()
	if in.Params.TimeRange != nil {
		start, end = in.Params.TimeRange.Start, in.Params.TimeRange.End
	}
	rows, err := h.db.QueryContext(ctx, `
	SELECT title, start_at, COALESCE(location, '') FROM calendar_events
	WHERE start_at >= ? AND start_at <= ? ORDER BY start_at ASC LIMIT 10`, start, end)
	if err != nil {
		return nil, fmt.Errorf("calendar: %w", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var title, location string
		var ts int64
		if err := rows.Scan(&title, &ts, &location); err != nil {
			return nil, err
		}
		line := fmt.Sprintf("• %s — %s", h.fmtr.DateTime(ts), title)
		if location != "" {
			line += " @ " + location
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	data := map[string]any{"count": len(lines)}
	if len(lines) == 0 {
		return &Result{Answer: "Nothing on the calendar in this period.", Type: "calendar", Data: data}, nil
	}
	return &Result{
		Answer: fmt.Sprintf("%d upcoming %s:\n%s", len(lines), h.fmtr.Plural(len(lines), "event"), strings.Join(lines, "\n")),
		Type:   "calendar", Data: data,
	}, nil
}

// stats is the cross-domain overview: open tasks, unread emails, month
// spend.
func (h *domainHandler) stats(ctx context.Context, in Intent) (*Result, error) {
	now := h.now()
	monthStart := startOfMonth(now).Unix()

	var tasks int
	if err := h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reminders WHERE completed = 0 AND archived_at IS NULL`).Scan(&tasks); err != nil {
		return nil, fmt.Errorf("stats tasks: %w", err)
	}
	var unread int
	if err := h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM email_cache WHERE is_read = 0`).Scan(&unread); err != nil {
		return nil, fmt.Errorf("stats email: %w", err)
	}
	var monthSpend float64
	if err := h.db.QueryRowContext(ctx, `
	SELECT COALESCE((SELECT SUM(amount) FROM transactions WHERE timestamp >= ?), 0) +
	       COALESCE((SELECT SUM(amount_raw) FROM spend_log WHERE occurred_at >= ?), 0)`,
		monthStart, monthStart).Scan(&monthSpend); err != nil {
		return nil, fmt.Errorf("stats spend: %w", err)
	}
	var events int
	if err := h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM calendar_events WHERE start_at >= ? AND start_at <= ?`,
		now.Unix(), now.AddDate(0, 0, 7).Unix()).Scan(&events); err != nil {
		return nil, fmt.Errorf("stats calendar: %w", err)
	}

	answer := fmt.Sprintf(
		"Right now: %d open %s, %d unread %s, %s spent this month, %d %s in the next 7 days.",
		tasks, h.fmtr.Plural(tasks, "task"),
		unread, h.fmtr.Plural(unread, "email"),
		h.fmtr.Money(monthSpend),
		events, h.fmtr.Plural(events, "event"))
	return &Result{
		Answer: answer,
		Type:   "stats",
		Data:   map[string]any{"tasks": tasks, "unread": unread, "monthSpend": monthSpend, "events": events},
	}, nil
}

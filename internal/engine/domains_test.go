package engine

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newDomainHandler(t *testing.T) (*domainHandler, *sql.DB) {
	t.Helper()
	db := newTestDB(t)
	return &domainHandler{db: db, fmtr: NewFormatter("₹", time.UTC), now: fixedNow}, db
}

func execSQL(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	_, err := db.ExecContext(context.Background(), query, args...)
	require.NoError(t, err)
}

func TestSubscriptionsMonthlyNormalization(t *testing.T) {
	t.Parallel()
	h, db := newDomainHandler(t)

	execSQL(t, db, `INSERT INTO subscriptions(id, name, amount, period, next_renewal) VALUES
	('s1', 'Netflix', 100, 'monthly', ?),
	('s2', 'Prime', 1200, 'yearly', ?),
	('s3', 'Box', 50, 'weekly', ?)`,
		testNow.AddDate(0, 0, 3).Unix(), testNow.AddDate(0, 0, 90).Unix(), testNow.AddDate(0, 0, 2).Unix())

	res, err := h.subscriptions(context.Background(), Intent{Domain: DomainSubscriptions, Action: ActionTotal})
	require.NoError(t, err)
	// 100 + 1200/12 + 50*4
	require.Contains(t, res.Answer, "₹400")
	require.Contains(t, res.Answer, "3 services")
}

func TestSubscriptionsRenewalFlags(t *testing.T) {
	t.Parallel()
	h, db := newDomainHandler(t)

	execSQL(t, db, `INSERT INTO subscriptions(id, name, amount, period, next_renewal) VALUES
	('s1', 'Netflix', 649, 'monthly', ?),
	('s2', 'Gym', 1200, 'monthly', ?)`,
		testNow.AddDate(0, 0, 2).Unix(), testNow.AddDate(0, 0, -3).Unix())

	res, err := h.subscriptions(context.Background(), Intent{Domain: DomainSubscriptions, Action: ActionList})
	require.NoError(t, err)
	require.Contains(t, res.Answer, "2 renewing within a week")
	require.Contains(t, res.Answer, "(renewal overdue)")
	require.Contains(t, res.Answer, "renews 22 Jun")
}

func TestSubscriptionsEmpty(t *testing.T) {
	t.Parallel()
	h, _ := newDomainHandler(t)

	res, err := h.subscriptions(context.Background(), Intent{Domain: DomainSubscriptions})
	require.NoError(t, err)
	require.Equal(t, "No subscriptions tracked yet.", res.Answer)
}

func insertEmail(t *testing.T, db *sql.DB, id, subject, from, category string, ts int64, isRead int) {
	t.Helper()
	execSQL(t, db, `INSERT INTO email_cache(id, subject, from_name, from_email, body_preview, category, received_at, cached_at, is_read)
	VALUES(?, ?, ?, '', '', ?, ?, ?, ?)`, id, subject, from, category, ts, ts, isRead)
}

func TestEmailUnreadList(t *testing.T) {
	t.Parallel()
	h, db := newDomainHandler(t)
	ctx := context.Background()

	insertEmail(t, db, "e1", "Invoice due", "Acme", "urgent", daysAgo(0), 0)
	insertEmail(t, db, "e2", "Team lunch", "Rohan", "fyi", daysAgo(1), 1)
	insertEmail(t, db, "e3", "Statement ready", "HDFC Bank", "action", daysAgo(2), 0)

	res, err := h.email(ctx, Intent{Domain: DomainEmail})
	require.NoError(t, err)
	require.Contains(t, res.Answer, "2 unread of 3 cached")
	require.Contains(t, res.Answer, "Acme: Invoice due")
	require.NotContains(t, res.Answer, "Team lunch")

	res, err = h.email(ctx, Intent{Domain: DomainEmail, Action: ActionCount})
	require.NoError(t, err)
	require.Equal(t, "2 unread of 3 cached emails.", res.Answer)
}

func TestEmailSearch(t *testing.T) {
	t.Parallel()
	h, db := newDomainHandler(t)
	ctx := context.Background()

	insertEmail(t, db, "e1", "Your credit card statement", "HDFC Bank", "action", daysAgo(1), 0)
	insertEmail(t, db, "e2", "Weekend plans", "Priya", "fyi", daysAgo(2), 1)

	res, err := h.email(ctx, Intent{Domain: DomainEmail, Action: ActionSearch, Params: Params{SearchTerm: "statement"}})
	require.NoError(t, err)
	require.Contains(t, res.Answer, `Emails matching "statement"`)
	require.Contains(t, res.Answer, "HDFC Bank")
	require.NotContains(t, res.Answer, "Priya")

	res, err = h.email(ctx, Intent{Domain: DomainEmail, Action: ActionSearch, Params: Params{SearchTerm: "lottery"}})
	require.NoError(t, err)
	require.Contains(t, res.Answer, "No cached emails matching")
}

func TestEmailEmptyCache(t *testing.T) {
	t.Parallel()
	h, _ := newDomainHandler(t)

	res, err := h.email(context.Background(), Intent{Domain: DomainEmail})
	require.NoError(t, err)
	require.Contains(t, res.Answer, "sync emails first")
}

func insertReminder(t *testing.T, db *sql.DB, id, title string, dueAt int64, completed int, category string) {
	t.Helper()
	execSQL(t, db, `INSERT INTO reminders(id, title, due_at, completed, category, priority_score)
	VALUES(?, ?, ?, ?, ?, 0)`, id, title, dueAt, completed, category)
}

func TestTasksOverdue(t *testing.T) {
	t.Parallel()
	h, db := newDomainHandler(t)
	ctx := context.Background()

	insertReminder(t, db, "r1", "Submit report", daysAgo(3), 0, "work")
	insertReminder(t, db, "r2", "Pay bill", testNow.AddDate(0, 0, 2).Unix(), 0, "finance")
	insertReminder(t, db, "r3", "Book tickets", daysAgo(1), 1, "")

	res, err := h.tasks(ctx, Intent{Domain: DomainTasks})
	require.NoError(t, err)
	require.Contains(t, res.Answer, "2 open tasks (1 overdue)")
	require.Contains(t, res.Answer, "[work] Submit report — overdue since 17 Jun")
	require.Contains(t, res.Answer, "due 22 Jun")
	require.NotContains(t, res.Answer, "Book tickets")

	res, err = h.tasks(ctx, Intent{Domain: DomainTasks, Action: ActionCount})
	require.NoError(t, err)
	require.Equal(t, "2 open tasks, 1 overdue.", res.Answer)
}

func TestTasksEmpty(t *testing.T) {
	t.Parallel()
	h, _ := newDomainHandler(t)

	res, err := h.tasks(context.Background(), Intent{Domain: DomainTasks})
	require.NoError(t, err)
	require.Equal(t, "No open tasks — all clear.", res.Answer)
}

func TestFocusWeek(t *testing.T) {
	t.Parallel()
	h, db := newDomainHandler(t)

	execSQL(t, db, `INSERT INTO focus_sessions(id, date, duration_seconds) VALUES
	('f1', '2025-06-19', 5400),
	('f2', '2025-06-18', 3600),
	('f3', '2025-05-01', 7200)`)

	res, err := h.focus(context.Background(), Intent{Domain: DomainFocus})
	require.NoError(t, err)
	// default window is the trailing 7 days, so the May session is excluded
	require.Contains(t, res.Answer, "2h 30m")
	require.Contains(t, res.Answer, "2 sessions")
	require.Contains(t, res.Answer, "per day")
}

func TestFocusEmpty(t *testing.T) {
	t.Parallel()
	h, _ := newDomainHandler(t)

	res, err := h.focus(context.Background(), Intent{Domain: DomainFocus})
	require.NoError(t, err)
	require.Equal(t, "No focus sessions logged in this period.", res.Answer)
}

func TestHabitsToday(t *testing.T) {
	t.Parallel()
	h, db := newDomainHandler(t)

	execSQL(t, db, `INSERT INTO habits(id, name) VALUES ('h1', 'Meditate'), ('h2', 'Run'), ('h3', 'Read')`)
	execSQL(t, db, `INSERT INTO habit_log(habit_id, date, done) VALUES
	('h1', '2025-06-20', 1),
	('h2', '2025-06-20', 0)`)

	res, err := h.habits(context.Background(), Intent{Domain: DomainHabits})
	require.NoError(t, err)
	require.Contains(t, res.Answer, "✓ Done: Meditate")
	require.Contains(t, res.Answer, "✗ Pending: Read, Run")
}

func TestHabitsEmpty(t *testing.T) {
	t.Parallel()
	h, _ := newDomainHandler(t)

	res, err := h.habits(context.Background(), Intent{Domain: DomainHabits})
	require.NoError(t, err)
	require.Equal(t, "No habits tracked yet.", res.Answer)
}

func TestCalendarUpcoming(t *testing.T) {
	t.Parallel()
	h, db := newDomainHandler(t)

	execSQL(t, db, `INSERT INTO calendar_events(id, title, start_at, end_at, location) VALUES
	('c1', 'Standup', ?, NULL, 'Meet room 2'),
	('c2', 'Old meeting', ?, NULL, ''),
	('c3', 'Far future', ?, NULL, '')`,
		testNow.Add(2*time.Hour).Unix(), daysAgo(2), testNow.AddDate(0, 1, 0).Unix())

	res, err := h.calendar(context.Background(), Intent{Domain: DomainCalendar})
	require.NoError(t, err)
	require.Contains(t, res.Answer, "1 upcoming event")
	require.Contains(t, res.Answer, "Standup @ Meet room 2")
	require.NotContains(t, res.Answer, "Old meeting")
	require.NotContains(t, res.Answer, "Far future")
}

func TestCalendarEmpty(t *testing.T) {
	t.Parallel()
	h, _ := newDomainHandler(t)

	res, err := h.calendar(context.Background(), Intent{Domain: DomainCalendar})
	require.NoError(t, err)
	require.Equal(t, "Nothing on the calendar in this period.", res.Answer)
}

func TestStatsOverview(t *testing.T) {
	t.Parallel()
	h, db := newDomainHandler(t)

	insertReminder(t, db, "r1", "Submit report", daysAgo(1), 0, "")
	insertEmail(t, db, "e1", "Invoice", "Acme", "urgent", daysAgo(1), 0)
	insertTxn(t, db, "t1", "swiggy", "food", 1200, "UPI", daysAgo(2))
	insertSpendLog(t, db, "s1", "food", 300, "chai", daysAgo(1))
	execSQL(t, db, `INSERT INTO calendar_events(id, title, start_at, end_at, location)
	VALUES('c1', 'Standup', ?, NULL, '')`, testNow.AddDate(0, 0, 1).Unix())

	res, err := h.stats(context.Background(), Intent{Domain: DomainStats})
	require.NoError(t, err)
	require.Equal(t, "stats", res.Type)
	require.Contains(t, res.Answer, "1 open task")
	require.Contains(t, res.Answer, "1 unread email")
	require.Contains(t, res.Answer, "₹1,500 spent this month")
	require.Contains(t, res.Answer, "1 event in the next 7 days")
}

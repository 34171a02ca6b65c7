package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SeedDemo populates a small realistic dataset so the CLI works out of the
// box. It is idempotent and safe to run on every startup: row IDs are derived
// from the row contents, and inserts are INSERT OR IGNORE.
func SeedDemo(ctx context.Context, db *sql.DB, now time.Time) error {
	return WithTx(db, func(tx *sql.Tx) error {
		if err := seedTransactions(ctx, tx, now); err != nil {
			return fmt.Errorf("seed transactions: %w", err)
		}
		if err := seedSpendLog(ctx, tx, now); err != nil {
			return fmt.Errorf("seed spend log: %w", err)
		}
		if err := seedSubscriptions(ctx, tx, now); err != nil {
			return fmt.Errorf("seed subscriptions: %w", err)
		}
		if err := seedPersonal(ctx, tx, now); err != nil {
			return fmt.Errorf("seed personal: %w", err)
		}
		return nil
	})
}

func seedID(kind, key string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(kind+":"+key)).String()
}

type demoTxn struct {
	merchant string
	category string
	amount   float64
	method   string
	daysAgo  int
}

func seedTransactions(ctx context.Context, tx *sql.Tx, now time.Time) error {
	rows := []demoTxn{
		{"swiggy", "food", 420, "HDFC Credit Card", 1},
		{"swiggy", "food", 310, "HDFC Credit Card", 4},
		{"zomato", "food", 560, "UPI", 2},
		{"zomato", "food", 275, "UPI", 9},
		{"dominos", "food", 799, "HDFC Credit Card", 6},
		{"uber", "travel", 240, "UPI", 1},
		{"uber", "travel", 185, "UPI", 5},
		{"uber", "travel", 320, "HDFC Credit Card", 12},
		{"rapido", "travel", 85, "UPI", 3},
		{"rapido", "travel", 110, "UPI", 8},
		{"amazon", "shopping", 1499, "ICICI Debit Card", 7},
		{"amazon", "shopping", 2350, "HDFC Credit Card", 21},
		{"flipkart", "shopping", 899, "ICICI Debit Card", 15},
		{"myntra", "shopping", 1899, "HDFC Credit Card", 33},
		{"bigbasket", "groceries", 1240, "UPI", 4},
		{"bigbasket", "groceries", 980, "UPI", 18},
		{"blinkit", "groceries", 430, "UPI", 2},
		{"zepto", "groceries", 365, "UPI", 10},
		{"netflix", "entertainment", 649, "HDFC Credit Card", 11},
		{"spotify", "entertainment", 119, "HDFC Credit Card", 11},
		{"hotstar", "entertainment", 299, "UPI", 26},
		{"airtel", "utilities", 599, "UPI", 14},
		{"jio", "recharge", 239, "UPI", 20},
		{"practo", "health", 600, "ICICI Debit Card", 24},
		{"pharmeasy", "health", 455, "UPI", 16},
		{"lic", "insurance", 2150, "ICICI Debit Card", 28},
		{"zerodha", "investments", 5000, "UPI", 30},
		{"makemytrip", "travel", 4850, "HDFC Credit Card", 41},
		{"dmart", "groceries", 1675, "ICICI Debit Card", 47},
		{"starbucks", "food", 540, "HDFC Credit Card", 55},
		{"uber", "travel", 410, "UPI", 63},
		{"swiggy", "food", 385, "UPI", 70},
	}
	for _, r := range rows {
		ts := now.AddDate(0, 0, -r.daysAgo).Unix()
		key := fmt.Sprintf("%s|%s|%.0f|%d", r.merchant, r.category, r.amount, ts)
		_, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO transactions(id, merchant, category, amount, currency, payment_method, timestamp, source_ref)
		VALUES(?, ?, ?, ?, 'INR', ?, ?, 'seed');
		`, seedID("txn", key), r.merchant, r.category, r.amount, r.method, ts)
		if err != nil {
			return err
		}
	}
	return nil
}

func seedSpendLog(ctx context.Context, tx *sql.Tx, now time.Time) error {
	rows := []struct {
		category    string
		amount      float64
		description string
		daysAgo     int
	}{
		{"food", 180, "chai and samosa near office", 1},
		{"travel", 60, "auto to station", 3},
		{"food", 250, "lunch with Priya", 6},
		{"other", 500, "gift for cousin", 13},
		{"groceries", 320, "vegetables from market", 5},
		{"fuel", 1100, "petrol top-up", 9},
	}
	for _, r := range rows {
		ts := now.AddDate(0, 0, -r.daysAgo).Unix()
		key := fmt.Sprintf("%s|%.0f|%d", r.description, r.amount, ts)
		_, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO spend_log(id, category, amount_raw, description, occurred_at, source_ref)
		VALUES(?, ?, ?, ?, ?, 'seed');
		`, seedID("spend", key), r.category, r.amount, r.description, ts)
		if err != nil {
			return err
		}
	}
	return nil
}

func seedSubscriptions(ctx context.Context, tx *sql.Tx, now time.Time) error {
	rows := []struct {
		name       string
		amount     float64
		period     string
		renewsDays int
	}{
		{"Netflix", 649, "monthly", 6},
		{"Spotify", 119, "monthly", 2},
		{"Amazon Prime", 1499, "yearly", 92},
		{"Gym membership", 1200, "monthly", 18},
	}
	for _, r := range rows {
		renewal := now.AddDate(0, 0, r.renewsDays).Unix()
		_, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO subscriptions(id, name, amount, period, next_renewal)
		VALUES(?, ?, ?, ?, ?);
		`, seedID("sub", r.name), r.name, r.amount, r.period, renewal)
		if err != nil {
			return err
		}
	}
	return nil
}

func seedPersonal(ctx context.Context, tx *sql.Tx, now time.Time) error {
	reminders := []struct {
		title    string
		dueDays  int
		done     int
		category string
		score    int
	}{
		{"Pay electricity bill", 2, 0, "finance", 70},
		{"Call dentist", -1, 0, "health", 60},
		{"Renew car insurance", 9, 0, "finance", 55},
		{"Submit expense report", -3, 0, "work", 80},
		{"Book flight tickets", 5, 1, "personal", 40},
	}
	for _, r := range reminders {
		due := now.AddDate(0, 0, r.dueDays).Unix()
		_, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO reminders(id, title, due_at, completed, category, priority_score)
		VALUES(?, ?, ?, ?, ?, ?);
		`, seedID("rem", r.title), r.title, due, r.done, r.category, r.score)
		if err != nil {
			return err
		}
	}

	emails := []struct {
		subject  string
		from     string
		category string
		daysAgo  int
		isRead   int
	}{
		{"Your HDFC credit card statement", "HDFC Bank", "action", 1, 0},
		{"Invoice #4821 due Friday", "Acme Billing", "urgent", 0, 0},
		{"Team offsite agenda", "Rohan", "fyi", 2, 1},
		{"Netflix renewal reminder", "Netflix", "fyi", 3, 0},
	}
	for _, e := range emails {
		ts := now.AddDate(0, 0, -e.daysAgo).Unix()
		_, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO email_cache(id, subject, from_name, from_email, body_preview, category, received_at, cached_at, is_read)
		VALUES(?, ?, ?, '', '', ?, ?, ?, ?);
		`, seedID("email", e.subject), e.subject, e.from, e.category, ts, ts, e.isRead)
		if err != nil {
			return err
		}
	}

	for daysAgo, mins := range map[int]int{0: 95, 1: 120, 2: 45, 3: 150, 4: 80} {
		date := now.AddDate(0, 0, -daysAgo).Format("2006-01-02")
		_, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO focus_sessions(id, date, duration_seconds)
		VALUES(?, ?, ?);
		`, seedID("focus", date), date, mins*60)
		if err != nil {
			return err
		}
	}

	habits := []string{"Morning run", "Read 20 pages", "Meditate"}
	for _, h := range habits {
		hid := seedID("habit", h)
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO habits(id, name) VALUES(?, ?);`, hid, h); err != nil {
			return err
		}
		for daysAgo := 0; daysAgo < 7; daysAgo++ {
			date := now.AddDate(0, 0, -daysAgo).Format("2006-01-02")
			done := 1
			if (daysAgo+len(h))%3 == 0 {
				done = 0
			}
			_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO habit_log(habit_id, date, done) VALUES(?, ?, ?);
			`, hid, date, done)
			if err != nil {
				return err
			}
		}
	}

	events := []struct {
		title    string
		inDays   int
		hour     int
		location string
	}{
		{"Sprint planning", 1, 10, "Meet room 2"},
		{"Dentist appointment", 3, 17, "Smile Clinic"},
		{"Dinner with family", 5, 20, ""},
	}
	for _, e := range events {
		day := now.AddDate(0, 0, e.inDays)
		start := time.Date(day.Year(), day.Month(), day.Day(), e.hour, 0, 0, 0, time.UTC)
		_, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO calendar_events(id, title, start_at, end_at, location)
		VALUES(?, ?, ?, ?, ?);
		`, seedID("event", e.title), e.title, start.Unix(), start.Add(time.Hour).Unix(), e.location)
		if err != nil {
			return err
		}
	}
	return nil
}

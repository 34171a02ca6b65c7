package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aria-labs/ariaquery/internal/database"
)

// MaintenanceService houses destructive/ops actions.
type MaintenanceService struct {
	DB *sql.DB
}

// Reset wipes all user data. It keeps the schema intact so the app can
// continue running.
func (s *MaintenanceService) Reset(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("maintenance: db not configured")
	}
	if err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		tables := []string{
			"habit_log",
			"habits",
			"transactions",
			"spend_log",
			"subscriptions",
			"reminders",
			"email_cache",
			"focus_sessions",
			"calendar_events",
			"behavior_metrics",
		}
		for _, t := range tables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
				return fmt.Errorf("reset table %s: %w", t, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}
	_, _ = s.DB.ExecContext(ctx, "VACUUM")
	return nil
}

// PruneEmailCache drops read emails cached before cutoff epoch seconds.
func (s *MaintenanceService) PruneEmailCache(ctx context.Context, cutoff int64) (int64, error) {
	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM email_cache WHERE is_read = 1 AND cached_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune email cache: %w", err)
	}
	return res.RowsAffected()
}

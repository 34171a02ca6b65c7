package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aria-labs/ariaquery/internal/config"
	"github.com/aria-labs/ariaquery/internal/database"
	"github.com/aria-labs/ariaquery/internal/database/repository"
	"github.com/aria-labs/ariaquery/internal/engine"
	"github.com/aria-labs/ariaquery/internal/priority"
	"github.com/aria-labs/ariaquery/internal/service"
	"github.com/aria-labs/ariaquery/internal/tui"
)

var (
	verbose bool
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ariaquery",
	Short: "Ask natural-language questions over your personal data store",
	Long: `ariaquery answers questions about spending, subscriptions, tasks,
emails, focus time, habits and calendar events from a local SQLite store.
Intent extraction is pure pattern matching; no model and no network.

Run without arguments to start the interactive chat interface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single question and exit",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		eng, db, err := buildEngine()
		if err != nil {
			return err
		}
		defer db.Close()

		question := strings.Join(args, " ")
		res := eng.ProcessQuery(ctx, question, nil)
		if res == nil {
			fmt.Println("Not a data question I can answer from your records.")
			return nil
		}
		fmt.Println(res.Answer)
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the store with demo data",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, _, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.SeedDemo(ctx, db, database.Now()); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		fmt.Println("Demo data seeded.")
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import [file.csv]",
	Short: "Import transactions from a CSV file",
	Long: `Imports rows of: date, merchant, category, amount, payment_method.
Dates use YYYY-MM-DD in the configured timezone. Re-importing a file
skips rows that are already present.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		eng, db, err := buildEngine()
		if err != nil {
			return err
		}
		defer db.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open csv: %w", err)
		}
		defer f.Close()

		svc := &service.IngestService{Transactions: repository.NewTransactionRepo(db), Resolver: eng.Registry()}
		res, err := svc.ImportCSV(ctx, f, time.Local)
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}
		eng.Registry().Invalidate()

		fmt.Printf("Imported %d, skipped %d duplicates.\n", res.Imported, res.Skipped)
		for _, e := range res.Errors {
			fmt.Fprintln(os.Stderr, "warn:", e)
		}
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Wipe all data from the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, _, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		m := &service.MaintenanceService{DB: db}
		if err := m.Reset(ctx); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		fmt.Println("Store wiped.")
		return nil
	},
}

var prioritiesCmd = &cobra.Command{
	Use:   "priorities",
	Short: "Show what deserves attention right now",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, cfg, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		eng := priority.Engine{DB: db, Now: database.Now}
		report, err := eng.Compute(ctx)
		if err != nil {
			return fmt.Errorf("compute priorities: %w", err)
		}

		if report.Silence {
			fmt.Println("Nothing urgent right now. All clear.")
		} else {
			for i, p := range report.Priorities {
				fmt.Printf("%d. [%s] %s (%d)\n   %s\n", i+1, p.Domain, p.Title, p.Score, p.Description)
			}
		}
		fmt.Printf("\nOpen tasks: %d · Unread emails: %d · This month: %s%.0f\n",
			report.Stats.OpenTasks, report.Stats.UnreadEmails, cfg.UI.CurrencySymbol, report.Stats.MonthSpend)
		return nil
	},
}

func runChat(ctx context.Context) error {
	eng, db, err := buildEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	p := tea.NewProgram(tui.New(ctx, eng), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

func openStore() (*sql.DB, config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, config.Config{}, fmt.Errorf("mkdir db dir: %w", err)
	}
	if err := database.RunMigrations(cfg.Database.Path, "internal/database/migrations"); err != nil {
		return nil, config.Config{}, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("open db: %w", err)
	}
	return db, cfg, nil
}

func buildEngine() (*engine.Engine, *sql.DB, error) {
	db, cfg, err := openStore()
	if err != nil {
		return nil, nil, err
	}

	loc, err := time.LoadLocation(cfg.UI.Timezone)
	if err != nil {
		logger.Warn("falling back to local timezone", zap.Error(err))
		loc = time.Local
	}

	enricher := &engine.SpendInsights{
		DB:   db,
		Log:  logger,
		Fmtr: engine.NewFormatter(cfg.UI.CurrencySymbol, loc),
		Now:  database.Now,
	}

	eng := engine.New(db, engine.Options{
		CacheTTL:       cfg.Registry.CacheTTL,
		CurrencySymbol: cfg.UI.CurrencySymbol,
		Location:       loc,
		Enricher:       enricher,
		Logger:         logger,
		Now:            database.Now,
	})
	return eng, db, nil
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(askCmd, seedCmd, importCmd, resetCmd, prioritiesCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

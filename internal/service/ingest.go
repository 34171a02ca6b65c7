// Package service holds the write-side operations around the store: CSV
// ingest and maintenance. The query engine itself never writes.
package service

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aria-labs/ariaquery/internal/database/repository"
)

// CategoryResolver maps a raw category word to its canonical name.
type CategoryResolver interface {
	ResolveCategory(input string) string
}

// IngestService imports transaction CSVs into the store.
type IngestService struct {
	Transactions *repository.TransactionRepo
	Resolver     CategoryResolver
}

type IngestResult struct {
	Imported int
	Skipped  int
	Errors   []error
}

// ImportCSV ingests rows of: date, merchant, category, amount, payment_method.
// Dates are local to tz and stored as UTC epoch seconds. Row IDs derive from
// row contents, so re-importing the same file skips every row.
func (s *IngestService) ImportCSV(ctx context.Context, r io.Reader, tz *time.Location) (IngestResult, error) {
	if tz == nil {
		tz = time.Local
	}
	res := IngestResult{}
	csvr := csv.NewReader(bufio.NewReader(r))
	csvr.TrimLeadingSpace = true
	csvr.FieldsPerRecord = -1

	line := 0
	for {
		line++
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		if len(rec) < 4 {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: expected at least 4 columns (date, merchant, category, amount)", line))
			continue
		}
		date, err := parseLocalDate(rec[0], tz)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d date: %w", line, err))
			continue
		}
		merchant := strings.ToLower(strings.TrimSpace(rec[1]))
		if merchant == "" {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: merchant required", line))
			continue
		}
		category := strings.ToLower(strings.TrimSpace(rec[2]))
		if s.Resolver != nil {
			if c := s.Resolver.ResolveCategory(category); c != "" {
				category = c
			}
		}
		amount, err := parseAmount(rec[3])
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d amount: %w", line, err))
			continue
		}
		method := ""
		if len(rec) > 4 {
			method = strings.TrimSpace(rec[4])
		}

		ts := date.Unix()
		inserted, err := s.Transactions.InsertIdempotent(ctx, repository.Transaction{
			ID:            rowID(merchant, category, amount, ts),
			Merchant:      merchant,
			Category:      category,
			Amount:        amount,
			PaymentMethod: method,
			Timestamp:     ts,
			SourceRef:     "csv",
		})
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d insert: %w", line, err))
			continue
		}
		if !inserted {
			res.Skipped++
			continue
		}
		res.Imported++
	}
	return res, nil
}

func rowID(merchant, category string, amount float64, ts int64) string {
	key := fmt.Sprintf("%s|%s|%.2f|%d", merchant, category, amount, ts)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("csv:"+key)).String()
}

func parseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		f = -f
	}
	return f, nil
}

func parseLocalDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

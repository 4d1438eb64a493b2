// Package export pushes the full transaction ledger to a Google
// Spreadsheet. Each export rewrites the configured sheet from scratch so
// the spreadsheet always mirrors the store.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"expenso/internal/core"
)

// Exporter is the admin-facing export surface.
type Exporter interface {
	Export(ctx context.Context, users []core.User, transactions []core.Transaction) error
}

type SheetsExporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ Exporter = (*SheetsExporter)(nil)

// Config carries the credentials and target sheet for the exporter.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

// NewSheetsExporter builds an exporter backed by a service account.
func NewSheetsExporter(ctx context.Context, cfg Config) (*SheetsExporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Transactions"
	}

	var credentialsJSON []byte
	switch {
	case cfg.CredentialsJSON != "":
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsExporter{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// Export replaces the sheet contents with a header row plus one row per
// transaction. Owner ids are resolved to full names where known.
func (e *SheetsExporter) Export(ctx context.Context, users []core.User, transactions []core.Transaction) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}

	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.FullName
	}

	rows := make([][]any, 0, len(transactions)+1)
	rows = append(rows, []any{"Date", "Kind", "Title", "Category", "Amount", "Owner"})
	for _, t := range transactions {
		owner := names[t.OwnerID]
		if owner == "" {
			owner = t.OwnerID
		}
		rows = append(rows, []any{
			t.Date.ISO(),
			string(t.Kind),
			t.Title,
			t.Category,
			t.Amount.Dollars(),
			owner,
		})
	}

	clearRange := fmt.Sprintf("%s!A:F", e.sheetName)
	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", e.sheetName, err)
	}

	writeRange := fmt.Sprintf("%s!A1", e.sheetName)
	vr := &gsheet.ValueRange{Values: rows}
	if _, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, writeRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write sheet %s: %w", e.sheetName, err)
	}

	return nil
}

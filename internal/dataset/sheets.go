package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"wastelens/internal/config"
	apperrors "wastelens/internal/errors"
	"wastelens/pkg/contracts/domain"
)

// SheetsImporter pulls a wastage table out of a Google Sheets
// spreadsheet and feeds it through the same normalizer as file uploads.
// The all-or-nothing load policy applies unchanged.
type SheetsImporter struct {
	svc           *gsheet.Service
	loader        *Loader
	logger        *slog.Logger
	spreadsheetID string
	sheetName     string
}

// NewSheetsImporter creates a Sheets importer from configuration.
// Credentials come from the configured inline JSON or credentials file.
func NewSheetsImporter(ctx context.Context, cfg config.SheetsConfig, loader *Loader, logger *slog.Logger) (*SheetsImporter, error) {
	if cfg.SpreadsheetID == "" {
		return nil, apperrors.NewConfigError("sheets spreadsheet id is empty", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, apperrors.NewConfigError("read sheets credentials file", err)
		}
		credentialsJSON = data
	default:
		return nil, apperrors.NewConfigError("missing sheets credentials (set credentials_json or credentials_file)", nil)
	}

	svc, err := gsheet.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, apperrors.NewConfigError("create sheets service", err)
	}

	return &SheetsImporter{
		svc:           svc,
		loader:        loader,
		logger:        logger.With(slog.String("component", "sheets_importer")),
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
	}, nil
}

// Import reads the configured sheet and normalizes it into a dataset.
func (s *SheetsImporter) Import(ctx context.Context) (domain.Dataset, error) {
	rng := fmt.Sprintf("%s!A:Z", s.sheetName)
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return domain.Dataset{}, apperrors.NewLoadError(
			fmt.Sprintf("read sheet range %s", rng), err)
	}
	if len(resp.Values) == 0 {
		return domain.Dataset{}, apperrors.NewLoadError("sheet is empty", nil)
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cols := make([]string, len(row))
		for j, v := range row {
			cols[j] = strings.TrimSpace(fmt.Sprint(v))
		}
		rows[i] = cols
	}

	s.logger.InfoContext(ctx, "sheet values fetched",
		slog.String("spreadsheet_id", s.spreadsheetID),
		slog.String("sheet", s.sheetName),
		slog.Int("rows", len(rows)),
	)

	return s.loader.LoadGrid(ctx, rows)
}

package tablesource

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Sheets is a TableSource backed by one Google spreadsheet, with each table
// mapped to a worksheet. Credentials come from a service-account JSON blob.
type Sheets struct {
	svc           *sheets.Service
	spreadsheetID string
}

// NewSheets builds a Sheets source for the given spreadsheet.
func NewSheets(ctx context.Context, spreadsheetID, credentialsJSON string) (*Sheets, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsJSON([]byte(credentialsJSON)),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("initialize sheets client: %w", err)
	}
	return &Sheets{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// ListRows reads the worksheet's used range. The first row is taken as the
// header, the remainder as data rows.
func (s *Sheets) ListRows(ctx context.Context, table string) ([]map[string]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, worksheetRange(table, "")).Context(ctx).Do()
	if err != nil {
		if isMissingWorksheet(err) {
			return nil, fmt.Errorf("%q: %w", table, ErrTableNotFound)
		}
		return nil, fmt.Errorf("read worksheet %q: %w", table, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}

	header := cellStrings(resp.Values[0])
	grid := make([][]string, 0, len(resp.Values)-1)
	for _, row := range resp.Values[1:] {
		grid = append(grid, cellStrings(row))
	}
	return MapRows(header, grid), nil
}

// Append writes the row immediately after the last populated row of the
// first (timestamp) column, so a header-only worksheet gets its first data
// row at position 2 and no gaps are ever introduced.
func (s *Sheets) Append(ctx context.Context, table string, row []string) error {
	col, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, worksheetRange(table, "A:A")).Context(ctx).Do()
	if err != nil {
		if isMissingWorksheet(err) {
			return fmt.Errorf("%q: %w", table, ErrTableNotFound)
		}
		return fmt.Errorf("locate next row in %q: %w", table, err)
	}

	next := len(col.Values) + 1
	target := worksheetRange(table, fmt.Sprintf("A%d", next))
	values := &sheets.ValueRange{Values: [][]interface{}{cellValues(row)}}
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, target, values).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %q: %w", table, err)
	}
	return nil
}

// Create adds the worksheet and writes its header row. A worksheet that
// already exists is left untouched and treated as success.
func (s *Sheets) Create(ctx context.Context, table string, header []string) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: table},
			},
		}},
	}
	_, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		if isAlreadyExists(err) {
			return nil
		}
		return fmt.Errorf("create worksheet %q: %w", table, err)
	}

	values := &sheets.ValueRange{Values: [][]interface{}{cellValues(header)}}
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, worksheetRange(table, "A1"), values).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header of %q: %w", table, err)
	}
	return nil
}

// worksheetRange builds an A1 reference scoped to one worksheet. Sheet
// titles are single-quoted so titles with spaces or digits parse correctly.
func worksheetRange(table, cells string) string {
	quoted := "'" + strings.ReplaceAll(table, "'", "''") + "'"
	if cells == "" {
		return quoted
	}
	return quoted + "!" + cells
}

func cellStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = fmt.Sprint(cell)
	}
	return out
}

func cellValues(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, cell := range row {
		out[i] = cell
	}
	return out
}

// isMissingWorksheet matches the API error returned when a range references
// a worksheet that does not exist.
func isMissingWorksheet(err error) bool {
	if apiErr, ok := err.(*googleapi.Error); ok {
		return apiErr.Code == 400 && strings.Contains(apiErr.Message, "Unable to parse range")
	}
	return false
}

func isAlreadyExists(err error) bool {
	if apiErr, ok := err.(*googleapi.Error); ok {
		return apiErr.Code == 400 && strings.Contains(apiErr.Message, "already exists")
	}
	return false
}

package tablesource

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

// ErrTableNotFound is returned when the requested table (worksheet,
// relation, ...) does not exist in the backing store.
var ErrTableNotFound = errors.New("table not found")

// TableSource is the narrow view of a tabular backing store that the draw
// service consumes. Implementations must preserve row order.
type TableSource interface {
	// ListRows returns every data row of the table, mapped by the table's
	// header row (see MapRows). A missing table is reported with
	// ErrTableNotFound.
	ListRows(ctx context.Context, table string) ([]map[string]string, error)

	// Append adds one row immediately after the last populated row.
	Append(ctx context.Context, table string, row []string) error

	// Create makes the table with the given header row. Creating a table
	// that already exists is not an error.
	Create(ctx context.Context, table string, header []string) error
}

// FieldValue returns the first non-empty value among the candidate keys,
// trimmed of surrounding whitespace. Callers list keys in preference order,
// lowercase first, with positional keys ("#0", "#1", ...) last so that a
// malformed header still resolves by column order.
func FieldValue(row map[string]string, keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(row[key]); value != "" {
			return value
		}
	}
	return ""
}

// PositionKey names the positional fallback key for a zero-based column
// index, as emitted by MapRows.
func PositionKey(index int) string {
	return "#" + strconv.Itoa(index)
}

// MapRows converts a raw cell grid into header-keyed maps. Each cell is
// stored under its header name (first occurrence wins when headers collide)
// and additionally under its positional key, so readers can fall back to
// column order when header lookup is ambiguous. Rows shorter than the header
// are padded with empty strings.
func MapRows(header []string, rows [][]string) []map[string]string {
	width := len(header)
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	mapped := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		m := make(map[string]string, width*2)
		for i := 0; i < width; i++ {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			m[PositionKey(i)] = cell
			if i < len(header) {
				key := strings.TrimSpace(header[i])
				if key == "" {
					continue
				}
				if _, taken := m[key]; !taken {
					m[key] = cell
				}
			}
		}
		mapped = append(mapped, m)
	}
	return mapped
}

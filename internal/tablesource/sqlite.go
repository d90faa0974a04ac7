package tablesource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SQLite is a TableSource backed by a local SQLite file, for deployments
// without spreadsheet credentials. Every column is stored as TEXT and row
// order follows rowid, i.e. insertion order.
type SQLite struct {
	db *gorm.DB
}

// NewSQLite opens (or creates) the database file at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %q: %w", path, err)
	}
	return &SQLite{db: db}, nil
}

// ListRows returns the table's rows in insertion order, mapped by the
// table's column names.
func (s *SQLite) ListRows(ctx context.Context, table string) ([]map[string]string, error) {
	db := s.db.WithContext(ctx)
	if !db.Migrator().HasTable(table) {
		return nil, fmt.Errorf("%q: %w", table, ErrTableNotFound)
	}

	rows, err := db.Raw(fmt.Sprintf("SELECT * FROM %s ORDER BY rowid", quoteIdent(table))).Rows()
	if err != nil {
		return nil, fmt.Errorf("read table %q: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns of %q: %w", table, err)
	}

	var grid [][]string
	for rows.Next() {
		cells := make([]sql.NullString, len(columns))
		targets := make([]interface{}, len(columns))
		for i := range cells {
			targets[i] = &cells[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("scan row of %q: %w", table, err)
		}
		row := make([]string, len(columns))
		for i, cell := range cells {
			row[i] = cell.String
		}
		grid = append(grid, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read table %q: %w", table, err)
	}
	return MapRows(columns, grid), nil
}

// Append inserts one row at the end of the table. Rows longer than the
// table are truncated, shorter ones padded with empty strings.
func (s *SQLite) Append(ctx context.Context, table string, row []string) error {
	db := s.db.WithContext(ctx)
	if !db.Migrator().HasTable(table) {
		return fmt.Errorf("%q: %w", table, ErrTableNotFound)
	}

	columns, err := tableColumns(db, table)
	if err != nil {
		return err
	}

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, column := range columns {
		quoted[i] = quoteIdent(column)
		placeholders[i] = "?"
		if i < len(row) {
			args[i] = row[i]
		} else {
			args[i] = ""
		}
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
	if err := db.Exec(stmt, args...).Error; err != nil {
		return fmt.Errorf("append to %q: %w", table, err)
	}
	return nil
}

// Create makes the table with one TEXT column per header cell. An existing
// table is left untouched.
func (s *SQLite) Create(ctx context.Context, table string, header []string) error {
	defs := make([]string, len(header))
	for i, column := range header {
		defs[i] = quoteIdent(strings.TrimSpace(column)) + " TEXT"
	}
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		quoteIdent(table), strings.Join(defs, ", "))
	if err := s.db.WithContext(ctx).Exec(stmt).Error; err != nil {
		return fmt.Errorf("create table %q: %w", table, err)
	}
	return nil
}

func tableColumns(db *gorm.DB, table string) ([]string, error) {
	rows, err := db.Raw(fmt.Sprintf("SELECT * FROM %s LIMIT 0", quoteIdent(table))).Rows()
	if err != nil {
		return nil, fmt.Errorf("read columns of %q: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns of %q: %w", table, err)
	}
	return columns, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

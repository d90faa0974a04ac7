package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Backend names for the tabular source.
const (
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
	BackendMock   = "mock"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	Port              string
	Stage             string
	Backend           string
	SheetName         string
	WinnersSheetName  string
	SpreadsheetID     string
	SheetsCredentials string
	SQLitePath        string
	Timezone          string
}

func Default() Config {
	return Config{
		Port:             "8080",
		SheetName:        "entries",
		WinnersSheetName: "winners",
		SQLitePath:       "luckydex.db",
		Timezone:         "Asia/Taipei",
	}
}

// Load builds the configuration from environment variables on top of the
// defaults. When SOURCE_BACKEND is unset, the backend is inferred: sheets if
// spreadsheet credentials are configured, sqlite if a database path was
// given explicitly, mock otherwise.
func Load() Config {
	cfg := Default()
	if raw := os.Getenv("PORT"); raw != "" {
		cfg.Port = raw
	}
	if raw := os.Getenv("STAGE"); raw != "" {
		cfg.Stage = raw
	}
	if raw := os.Getenv("GOOGLE_SHEET_NAME"); raw != "" {
		cfg.SheetName = raw
	}
	if raw := os.Getenv("GOOGLE_WINNERS_SHEET_NAME"); raw != "" {
		cfg.WinnersSheetName = raw
	}
	if raw := os.Getenv("GOOGLE_SPREADSHEET_ID"); raw != "" {
		cfg.SpreadsheetID = raw
	}
	if raw := os.Getenv("GOOGLE_SHEETS_CREDENTIALS"); raw != "" {
		cfg.SheetsCredentials = raw
	}
	if raw := os.Getenv("DRAW_TIMEZONE"); raw != "" {
		cfg.Timezone = raw
	}

	sqlitePath := os.Getenv("SQLITE_PATH")
	if sqlitePath != "" {
		cfg.SQLitePath = sqlitePath
	}

	cfg.Backend = os.Getenv("SOURCE_BACKEND")
	if cfg.Backend == "" {
		switch {
		case cfg.SpreadsheetID != "" && cfg.SheetsCredentials != "":
			cfg.Backend = BackendSheets
		case sqlitePath != "":
			cfg.Backend = BackendSQLite
		default:
			cfg.Backend = BackendMock
		}
	}
	return cfg
}

// DrawLocation resolves the configured civil time zone for winner
// timestamps. If tzdata lookup fails it falls back to a fixed UTC+8 zone so
// records never carry server-local time.
func (c Config) DrawLocation() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.FixedZone("UTC+8", 8*60*60)
	}
	return loc
}

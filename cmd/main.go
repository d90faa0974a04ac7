package main

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"luckydex/internal/config"
	"luckydex/internal/handlers"
	"luckydex/internal/services"
	"luckydex/internal/tablesource"
)

//go:embed all:templates
var templateFS embed.FS

func main() {
	// 1. Load configuration (.env for local development, then environment)
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}
	cfg := config.Load()

	// 2. Initialize logging
	defer logger.Init("luckydex", true, false, io.Discard).Close()

	// 3. Construct the configured table source
	source, mock, err := newTableSource(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize %s table source: %v", cfg.Backend, err)
	}

	// 4. Initialize the draw service and HTTP handler
	drawService := services.NewDrawService(source, cfg.SheetName, cfg.WinnersSheetName, cfg.DrawLocation(), mock)

	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}
	httpHandler := handlers.NewHTTPHandler(drawService, templates, cfg.Stage)

	// 5. Set up the Gin router
	r := gin.Default()
	r.Use(httpHandler.CORSMiddleware())
	httpHandler.RegisterRoutes(r)

	// 6. Run the server
	log.Printf("Server starting on http://localhost:%s (backend: %s)", cfg.Port, cfg.Backend)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}

// newTableSource builds the backing store selected by the configuration.
// The second return value marks mock-mode draws.
func newTableSource(ctx context.Context, cfg config.Config) (tablesource.TableSource, bool, error) {
	switch cfg.Backend {
	case config.BackendSheets:
		source, err := tablesource.NewSheets(ctx, cfg.SpreadsheetID, cfg.SheetsCredentials)
		return source, false, err
	case config.BackendSQLite:
		source, err := tablesource.NewSQLite(cfg.SQLitePath)
		return source, false, err
	case config.BackendMock:
		return tablesource.NewMockSource(cfg.SheetName), true, nil
	default:
		return nil, false, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

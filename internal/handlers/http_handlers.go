package handlers

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	"luckydex/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
)

// HTTPHandler holds the dependencies for the HTTP handlers, like the draw service.
type HTTPHandler struct {
	service   *services.DrawService
	templates *template.Template
	stage     string
}

// NewHTTPHandler creates a new HTTPHandler. stage is prefixed to the API URL
// the home page polls, for deployments behind a path-prefixing gateway.
func NewHTTPHandler(service *services.DrawService, templates *template.Template, stage string) *HTTPHandler {
	return &HTTPHandler{
		service:   service,
		templates: templates,
		stage:     stage,
	}
}

// CORSMiddleware allows the home page (or any origin) to call the API.
func (h *HTTPHandler) CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RegisterRoutes registers all the application routes.
func (h *HTTPHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.ShowIndex)
	router.GET("/health", h.HealthCheck)
	router.GET("/home", h.ShowHome)
	router.GET("/luckydex", h.DrawNumber)
	router.GET("/winners", h.ListWinners)
}

// ShowIndex returns the API welcome message.
func (h *HTTPHandler) ShowIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to Luckydex API",
		"version": "1.0.0",
		"status":  "healthy",
	})
}

// HealthCheck is the monitoring endpoint.
func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "luckydex",
	})
}

// ShowHome renders the HTML page whose script polls /luckydex.
func (h *HTTPHandler) ShowHome(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(c.Writer, "home.html", gin.H{"APIURL": h.stage}); err != nil {
		logger.Errorf("Error executing home template: %v", err)
		c.String(http.StatusInternalServerError, "Template rendering error")
	}
}

// DrawNumber draws one unique random entry. Session exclusions arrive as
// comma-separated exclude_ids and exclude_numbers query parameters.
func (h *HTTPHandler) DrawNumber(c *gin.Context) {
	excludeIDs := splitParam(c.Query("exclude_ids"))
	excludeNumbers := splitParam(c.Query("exclude_numbers"))

	result, err := h.service.DrawUnique(c.Request.Context(), excludeIDs, excludeNumbers)
	if err != nil {
		if errors.Is(err, services.ErrNoEligibleEntries) {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error":   err.Error(),
				"message": "No eligible entries remaining",
			})
			return
		}
		logger.Errorf("Draw failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to draw number from spreadsheet",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"id":            result.ID,
		"number":        result.Number,
		"name":          result.Name,
		"description":   result.Description,
		"total_entries": result.TotalEntries,
		"mock_data":     result.MockData,
		"winner_saved":  result.WinnerSaved,
	})
}

// ListWinners returns the recorded winners, newest first.
func (h *HTTPHandler) ListWinners(c *gin.Context) {
	winners, err := h.service.ListWinners(c.Request.Context())
	if err != nil {
		logger.Errorf("Failed to list winners: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to fetch winners",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"winners": winners,
	})
}

// splitParam splits a comma-separated query value, trimming whitespace and
// dropping empty tokens.
func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	var values []string
	for _, token := range strings.Split(raw, ",") {
		if token = strings.TrimSpace(token); token != "" {
			values = append(values, token)
		}
	}
	return values
}

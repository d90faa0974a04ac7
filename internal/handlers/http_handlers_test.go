package handlers

import (
	"encoding/json"
	"html/template"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"luckydex/internal/services"
	"luckydex/internal/tablesource"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const homeTemplate = `<!DOCTYPE html>
<html><head><title>Luckydex</title></head>
<body><script>async function drawNumber() { await fetch('{{.APIURL}}/luckydex'); }</script></body>
</html>`

func newTestRouter(t *testing.T, source tablesource.TableSource, mock bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	loc := time.FixedZone("UTC+8", 8*60*60)
	service := services.NewDrawService(source, "entries", "winners", loc, mock)
	templates := template.Must(template.New("home.html").Parse(homeTemplate))
	handler := NewHTTPHandler(service, templates, "")

	router := gin.New()
	router.Use(handler.CORSMiddleware())
	handler.RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "body: %s", w.Body.String())
	return w, body
}

func TestIndexAndHealth(t *testing.T) {
	router := newTestRouter(t, tablesource.NewMockSource("entries"), true)

	w, body := doJSON(t, router, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Welcome to Luckydex API", body["message"])
	assert.Equal(t, "healthy", body["status"])

	w, body = doJSON(t, router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "luckydex", body["service"])
	assert.Equal(t, "healthy", body["status"])
}

func TestShowHome(t *testing.T) {
	router := newTestRouter(t, tablesource.NewMockSource("entries"), true)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/home", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "drawNumber")
}

func TestDrawNumber(t *testing.T) {
	t.Run("successful draw", func(t *testing.T) {
		router := newTestRouter(t, tablesource.NewMockSource("entries"), true)

		w, body := doJSON(t, router, "/luckydex")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, body["success"])
		assert.NotEmpty(t, body["id"])
		assert.NotEmpty(t, body["number"])
		assert.Contains(t, body, "name")
		assert.Contains(t, body, "description")
		assert.Equal(t, float64(5), body["total_entries"])
		assert.Equal(t, true, body["mock_data"])
		assert.Equal(t, true, body["winner_saved"])
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("exhaustion returns 409", func(t *testing.T) {
		router := newTestRouter(t, tablesource.NewMockSource("entries"), true)

		for i := 0; i < 5; i++ {
			w, _ := doJSON(t, router, "/luckydex")
			require.Equal(t, http.StatusOK, w.Code)
		}

		w, body := doJSON(t, router, "/luckydex")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "No eligible entries remaining", body["message"])
	})

	t.Run("session exclusions are honored", func(t *testing.T) {
		router := newTestRouter(t, tablesource.NewMockSource("entries"), true)

		w, body := doJSON(t, router, "/luckydex?exclude_numbers=777,%20888%20,333,,&exclude_ids=4")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "111", body["number"], "only entry 5 remains eligible")
	})

	t.Run("missing source returns 500", func(t *testing.T) {
		router := newTestRouter(t, tablesource.NewMemory(), false)

		w, body := doJSON(t, router, "/luckydex")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Failed to draw number from spreadsheet", body["message"])
	})
}

func TestListWinners(t *testing.T) {
	t.Run("empty log", func(t *testing.T) {
		router := newTestRouter(t, tablesource.NewMockSource("entries"), true)

		w, body := doJSON(t, router, "/winners")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, body["success"])
		assert.Empty(t, body["winners"])
	})

	t.Run("draws show up newest first", func(t *testing.T) {
		router := newTestRouter(t, tablesource.NewMockSource("entries"), true)

		for i := 0; i < 3; i++ {
			w, _ := doJSON(t, router, "/luckydex")
			require.Equal(t, http.StatusOK, w.Code)
		}

		w, body := doJSON(t, router, "/winners")
		assert.Equal(t, http.StatusOK, w.Code)
		winners, ok := body["winners"].([]any)
		require.True(t, ok)
		assert.Len(t, winners, 3)
		first, ok := winners[0].(map[string]any)
		require.True(t, ok)
		assert.NotEmpty(t, first["timestamp"])
		assert.NotEmpty(t, first["number"])
	})
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t, tablesource.NewMockSource("entries"), true)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/luckydex", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
}

package api

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellapp/inkwell-server/internal/sync"
)

func TestPushBook(t *testing.T) {
	ts := setupTestServer(t)
	created := createSampleBook(t, ts)

	resp := ts.api.Post("/api/v1/books/" + created.ID + "/push")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	book := decodeBody[BookResponse](t, resp)
	assert.NotNil(t, book.LastSyncedAt)

	_, err := os.Stat(filepath.Join(ts.engine.Dir(), "the-fifth-season.md"))
	assert.NoError(t, err)
}

func TestPushBook_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/books/book-missing/push")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestPullFile(t *testing.T) {
	ts := setupTestServer(t)
	created := createSampleBook(t, ts)

	resp := ts.api.Post("/api/v1/books/" + created.ID + "/push")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/sync/pull", map[string]any{
		"file": "the-fifth-season.md",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	book := decodeBody[BookResponse](t, resp)
	assert.Equal(t, created.ID, book.ID)
}

func TestPullFile_RejectsTraversal(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/sync/pull", map[string]any{
		"file": "../outside.md",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	apiErr := decodeBody[APIError](t, resp)
	assert.Equal(t, "VALIDATION", apiErr.Code)
}

func TestPullFile_Missing(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/sync/pull", map[string]any{
		"file": "nope.md",
	})
	assert.NotEqual(t, http.StatusOK, resp.Code)
}

func TestExportAndImport(t *testing.T) {
	ts := setupTestServer(t)
	createSampleBook(t, ts)

	resp := ts.api.Post("/api/v1/sync/export")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	report := decodeBody[sync.BatchReport](t, resp)
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 0, report.Failed)

	resp = ts.api.Post("/api/v1/sync/import")
	require.Equal(t, http.StatusOK, resp.Code)

	report = decodeBody[sync.BatchReport](t, resp)
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 1, report.Succeeded)
}

func TestSyncStatus(t *testing.T) {
	ts := setupTestServer(t)
	created := createSampleBook(t, ts)

	resp := ts.api.Get("/api/v1/sync/status")
	require.Equal(t, http.StatusOK, resp.Code)

	inv := decodeBody[sync.Inventory](t, resp)
	require.Len(t, inv.Books, 1)
	assert.Equal(t, sync.StateMissingFile, inv.Books[0].State)

	resp = ts.api.Post("/api/v1/books/" + created.ID + "/push")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/sync/status")
	require.Equal(t, http.StatusOK, resp.Code)

	inv = decodeBody[sync.Inventory](t, resp)
	require.Len(t, inv.Books, 1)
	assert.Equal(t, sync.StateInSync, inv.Books[0].State)
	assert.Equal(t, 1, inv.Counts[sync.StateInSync])
}

func TestWatcherStatus_Disabled(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/sync/watcher")
	require.Equal(t, http.StatusOK, resp.Code)

	status := decodeBody[WatcherStatusResponse](t, resp)
	assert.False(t, status.Enabled)
	assert.False(t, status.Watching)
	assert.Equal(t, ts.engine.Dir(), status.Dir)

	resp = ts.api.Post("/api/v1/sync/watcher/start")
	assert.Equal(t, http.StatusConflict, resp.Code)
	resp = ts.api.Post("/api/v1/sync/watcher/stop")
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestWatcherStartStop(t *testing.T) {
	ts := setupTestServer(t)
	w := sync.NewWatcher(ts.engine, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ts.watcher = w
	t.Cleanup(func() { _ = w.Stop() })

	resp := ts.api.Post("/api/v1/sync/watcher/start")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	status := decodeBody[WatcherStatusResponse](t, resp)
	assert.True(t, status.Enabled)
	assert.True(t, status.Watching)

	resp = ts.api.Post("/api/v1/sync/watcher/stop")
	require.Equal(t, http.StatusOK, resp.Code)
	status = decodeBody[WatcherStatusResponse](t, resp)
	assert.True(t, status.Enabled)
	assert.False(t, status.Watching)
}

package api

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/inkwellapp/inkwell-server/internal/errors"
	"github.com/inkwellapp/inkwell-server/internal/sync"
)

func (s *Server) registerSyncRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getSyncStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/sync/status",
		Summary:     "Get sync status",
		Description: "Compares every book against its markdown file and reports per-book state",
		Tags:        []string{"Sync"},
	}, s.handleGetSyncStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "pushBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/push",
		Summary:     "Push book to file",
		Description: "Writes the book's markdown file from the database record",
		Tags:        []string{"Sync"},
	}, s.handlePushBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "pullFile",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/pull",
		Summary:     "Pull file into catalog",
		Description: "Parses one markdown file from the books directory and applies it to the database",
		Tags:        []string{"Sync"},
	}, s.handlePullFile)

	huma.Register(s.api, huma.Operation{
		OperationID: "exportAll",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/export",
		Summary:     "Export all books",
		Description: "Writes a markdown file for every book in the catalog",
		Tags:        []string{"Sync"},
	}, s.handleExportAll)

	huma.Register(s.api, huma.Operation{
		OperationID: "importAll",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/import",
		Summary:     "Import all files",
		Description: "Pulls every markdown file in the books directory into the database",
		Tags:        []string{"Sync"},
	}, s.handleImportAll)

	huma.Register(s.api, huma.Operation{
		OperationID: "startWatcher",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/watcher/start",
		Summary:     "Start watcher",
		Description: "Starts watching the books directory for external edits",
		Tags:        []string{"Sync"},
	}, s.handleStartWatcher)

	huma.Register(s.api, huma.Operation{
		OperationID: "stopWatcher",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/watcher/stop",
		Summary:     "Stop watcher",
		Description: "Stops the books directory watcher",
		Tags:        []string{"Sync"},
	}, s.handleStopWatcher)

	huma.Register(s.api, huma.Operation{
		OperationID: "getWatcherStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/sync/watcher",
		Summary:     "Get watcher status",
		Description: "Reports whether the file watcher is running",
		Tags:        []string{"Sync"},
	}, s.handleGetWatcherStatus)
}

// === DTOs ===

// SyncStatusOutput wraps the sync inventory for Huma.
type SyncStatusOutput struct {
	Body sync.Inventory
}

// PullFileRequest names the file to pull, relative to the books directory.
type PullFileRequest struct {
	File string `json:"file" validate:"required" doc:"Markdown file name inside the books directory"`
}

// PullFileInput wraps the pull file request for Huma.
type PullFileInput struct {
	Body PullFileRequest
}

// BatchOutput wraps a batch sync report for Huma.
type BatchOutput struct {
	Body sync.BatchReport
}

// WatcherStatusResponse contains watcher state in API responses.
type WatcherStatusResponse struct {
	Enabled  bool   `json:"enabled" doc:"Whether the watcher is configured"`
	Watching bool   `json:"watching" doc:"Whether the watcher is currently running"`
	Dir      string `json:"dir" doc:"Watched books directory"`
}

// WatcherStatusOutput wraps the watcher status response for Huma.
type WatcherStatusOutput struct {
	Body WatcherStatusResponse
}

// === Handlers ===

func (s *Server) handleGetSyncStatus(ctx context.Context, _ *struct{}) (*SyncStatusOutput, error) {
	inv, err := s.engine.Status(ctx)
	if err != nil {
		return nil, err
	}

	return &SyncStatusOutput{Body: *inv}, nil
}

// PushBookInput contains parameters for pushing a book to its file.
type PushBookInput struct {
	ID string `path:"id" doc:"Book ID"`
}

func (s *Server) handlePushBook(ctx context.Context, input *PushBookInput) (*BookOutput, error) {
	if err := s.engine.PushToFile(ctx, input.ID); err != nil {
		return nil, err
	}

	book, err := s.books.GetBook(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: toBookResponse(book)}, nil
}

func (s *Server) handlePullFile(ctx context.Context, input *PullFileInput) (*BookOutput, error) {
	// Reject path traversal; only files directly inside the books
	// directory are addressable.
	name := filepath.Base(input.Body.File)
	if name != input.Body.File || name == "." || name == "" {
		return nil, domainerrors.Validationf("invalid file name %q", input.Body.File)
	}

	book, err := s.engine.PullFromFile(ctx, filepath.Join(s.engine.Dir(), name))
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: toBookResponse(book)}, nil
}

func (s *Server) handleExportAll(ctx context.Context, _ *struct{}) (*BatchOutput, error) {
	report, err := s.engine.ExportAll(ctx)
	if err != nil {
		return nil, err
	}

	return &BatchOutput{Body: *report}, nil
}

func (s *Server) handleImportAll(ctx context.Context, _ *struct{}) (*BatchOutput, error) {
	report, err := s.engine.ImportAll(ctx)
	if err != nil {
		return nil, err
	}

	return &BatchOutput{Body: *report}, nil
}

func (s *Server) handleGetWatcherStatus(_ context.Context, _ *struct{}) (*WatcherStatusOutput, error) {
	return &WatcherStatusOutput{Body: s.watcherStatus()}, nil
}

func (s *Server) handleStartWatcher(_ context.Context, _ *struct{}) (*WatcherStatusOutput, error) {
	if s.watcher == nil {
		return nil, domainerrors.Conflict("file watcher is disabled by configuration")
	}
	if err := s.watcher.Start(); err != nil {
		return nil, err
	}
	return &WatcherStatusOutput{Body: s.watcherStatus()}, nil
}

func (s *Server) handleStopWatcher(_ context.Context, _ *struct{}) (*WatcherStatusOutput, error) {
	if s.watcher == nil {
		return nil, domainerrors.Conflict("file watcher is disabled by configuration")
	}
	if err := s.watcher.Stop(); err != nil {
		return nil, err
	}
	return &WatcherStatusOutput{Body: s.watcherStatus()}, nil
}

func (s *Server) watcherStatus() WatcherStatusResponse {
	resp := WatcherStatusResponse{Dir: s.engine.Dir()}
	if s.watcher != nil {
		resp.Enabled = true
		resp.Watching = s.watcher.IsWatching()
	}
	return resp
}

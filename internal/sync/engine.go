// Package sync keeps the catalog database and the markdown book files in
// agreement. The files are authoritative: a push renders a record to its
// file, a pull folds a file's content back into the database. Every
// successful operation in either direction records the same content
// fingerprint on the book, which is what later drift detection compares
// against.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/errors"
	"github.com/inkwellapp/inkwell-server/internal/id"
	"github.com/inkwellapp/inkwell-server/internal/markdown"
	"github.com/inkwellapp/inkwell-server/internal/store"
)

// Engine performs push and pull operations between the store and the
// books directory.
type Engine struct {
	store  store.Store
	codec  *markdown.Codec
	dir    string
	logger *slog.Logger

	// clock is swappable for tests.
	clock func() time.Time
}

func NewEngine(st store.Store, codec *markdown.Codec, dir string, logger *slog.Logger) *Engine {
	return &Engine{
		store:  st,
		codec:  codec,
		dir:    dir,
		logger: logger.With("component", "sync"),
		clock:  time.Now,
	}
}

// Dir returns the books directory the engine syncs against.
func (e *Engine) Dir() string { return e.dir }

// PathFor returns the file path a book syncs to, derived from its title.
func (e *Engine) PathFor(book *domain.Book) string {
	return filepath.Join(e.dir, markdown.Filename(book.Title))
}

// PushToFile renders a book to its markdown file and records the sync.
func (e *Engine) PushToFile(ctx context.Context, bookID string) error {
	book, err := e.store.GetBook(ctx, bookID)
	if err != nil {
		return err
	}
	return e.pushBook(ctx, book)
}

func (e *Engine) pushBook(ctx context.Context, book *domain.Book) error {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return errors.IOError("creating books directory").WithCause(err)
	}

	now := e.clock().UTC()
	doc := markdown.FromRecord(book, now)
	hash := doc.Fingerprint()
	path := e.PathFor(book)

	// When the file already carries this exact content, leave its bytes
	// alone (including the last_synced stamp) and only refresh the sync
	// bookkeeping. Repeated pushes of an unchanged record must not churn
	// the file.
	if current, err := e.codec.Parse(path); err == nil && current.Fingerprint() == hash {
		if err := e.store.UpdateSyncStatus(ctx, book.ID, hash, now); err != nil {
			return errors.StoreError("recording sync status").WithCause(err)
		}
		e.logger.Debug("file already current", "book_id", book.ID, "path", path)
		return nil
	}

	if err := e.codec.Write(path, doc); err != nil {
		return err
	}
	if err := e.store.UpdateSyncStatus(ctx, book.ID, hash, now); err != nil {
		return errors.StoreError("recording sync status").WithCause(err)
	}

	e.logger.Debug("pushed book to file", "book_id", book.ID, "path", path)
	return nil
}

// PullFromFile parses a markdown file and folds its content into the
// catalog. Identity resolves by ISBN-13 first, then ISBN-10; a file with
// no matching book (or no ISBN at all) creates a fresh record. Pulls into
// an existing book never touch its shelf memberships. Returns the book
// the file resolved to.
func (e *Engine) PullFromFile(ctx context.Context, path string) (*domain.Book, error) {
	doc, err := e.codec.Parse(path)
	if err != nil {
		return nil, err
	}

	incoming := doc.ToRecord()
	hash := doc.Fingerprint()
	now := e.clock().UTC()

	existing, err := e.resolve(ctx, incoming)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		book := incoming
		book.ID, err = id.Generate("book")
		if err != nil {
			return nil, errors.Internal("generating book id").WithCause(err)
		}
		book.InitTimestamps()
		book.MarkSynced(hash, now)

		if err := e.store.CreateBook(ctx, book); err != nil {
			return nil, errors.StoreError("creating book from file").WithCause(err)
		}
		e.logger.Info("created book from file", "book_id", book.ID, "title", book.Title, "path", path)
		return book, nil
	}

	// Already in agreement with this file content. Refresh the sync
	// timestamp but leave the content rows alone.
	if existing.SyncHash == hash {
		if err := e.store.UpdateSyncStatus(ctx, existing.ID, hash, now); err != nil {
			return nil, errors.StoreError("recording sync status").WithCause(err)
		}
		existing.MarkSynced(hash, now)
		e.logger.Debug("file unchanged since last sync", "book_id", existing.ID, "path", path)
		return existing, nil
	}

	applyContent(existing, incoming)
	existing.Touch()
	if err := e.store.UpdateBookContent(ctx, existing); err != nil {
		return nil, errors.StoreError("updating book from file").WithCause(err)
	}
	if err := e.store.UpdateSyncStatus(ctx, existing.ID, hash, now); err != nil {
		return nil, errors.StoreError("recording sync status").WithCause(err)
	}
	existing.MarkSynced(hash, now)

	e.logger.Info("updated book from file", "book_id", existing.ID, "title", existing.Title, "path", path)
	return existing, nil
}

// resolve finds the catalog book a parsed file belongs to, or nil when
// the file should create a new one.
func (e *Engine) resolve(ctx context.Context, incoming *domain.Book) (*domain.Book, error) {
	if incoming.ISBN13 != "" {
		book, err := e.store.GetBookByISBN13(ctx, incoming.ISBN13)
		if err == nil {
			return book, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	if incoming.ISBN10 != "" {
		book, err := e.store.GetBookByISBN10(ctx, incoming.ISBN10)
		if err == nil {
			return book, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

// applyContent copies the file-owned content fields onto an existing
// record. Identity, timestamps, date added, sync bookkeeping, and shelf
// memberships are preserved.
func applyContent(dst, src *domain.Book) {
	dst.Title = src.Title
	dst.Author = src.Author
	dst.AdditionalAuthors = src.AdditionalAuthors
	dst.ISBN10 = src.ISBN10
	dst.ISBN13 = src.ISBN13
	dst.Publisher = src.Publisher
	dst.Binding = src.Binding
	dst.Pages = src.Pages
	dst.YearPublished = src.YearPublished
	dst.OriginalPublicationYear = src.OriginalPublicationYear
	dst.GoodreadsID = src.GoodreadsID
	dst.CoverImageURL = src.CoverImageURL
	dst.Reading = src.Reading
	dst.Review = src.Review
}

// BatchReport summarizes a bulk push or pull.
type BatchReport struct {
	Total     int          `json:"total"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Errors    []BatchError `json:"errors,omitempty"`
}

// BatchError records one failure inside a batch; the rest of the batch
// proceeds.
type BatchError struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

func (r *BatchReport) record(name string, err error) {
	r.Total++
	if err == nil {
		r.Succeeded++
		return
	}
	r.Failed++
	r.Errors = append(r.Errors, BatchError{Name: name, Error: err.Error()})
}

// ExportAll pushes every catalog book to its file. Failures are collected
// per book; the batch always runs to completion.
func (e *Engine) ExportAll(ctx context.Context) (*BatchReport, error) {
	books, err := e.store.ListBooks(ctx)
	if err != nil {
		return nil, errors.StoreError("listing books").WithCause(err)
	}

	report := &BatchReport{}
	for _, book := range books {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		err := e.pushBook(ctx, book)
		report.record(book.Title, err)
		if err != nil {
			e.logger.Warn("push failed", "book_id", book.ID, "title", book.Title, "error", err)
		}
	}

	e.logger.Info("export complete",
		"total", report.Total, "succeeded", report.Succeeded, "failed", report.Failed)
	return report, nil
}

// ImportAll pulls every markdown file in the books directory. Failures
// are collected per file; the batch always runs to completion.
func (e *Engine) ImportAll(ctx context.Context) (*BatchReport, error) {
	entries, err := os.ReadDir(e.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return &BatchReport{}, nil
		}
		return nil, errors.IOError("reading books directory").WithCause(err)
	}

	report := &BatchReport{}
	for _, entry := range entries {
		if entry.IsDir() || !isBookFile(entry.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		_, err := e.PullFromFile(ctx, filepath.Join(e.dir, entry.Name()))
		report.record(entry.Name(), err)
		if err != nil {
			e.logger.Warn("pull failed", "file", entry.Name(), "error", err)
		}
	}

	e.logger.Info("import complete",
		"total", report.Total, "succeeded", report.Succeeded, "failed", report.Failed)
	return report, nil
}

// RemoveFile deletes a book's derived markdown file, if present.
// Used when a book is deleted through the API so its file does not linger
// as an orphan.
func (e *Engine) RemoveFile(book *domain.Book) error {
	path := e.PathFor(book)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.IOError(fmt.Sprintf("removing %s", path)).WithCause(err)
	}
	return nil
}

// isBookFile reports whether a directory entry name is a finished book
// file. In-flight temp files are excluded.
func isBookFile(name string) bool {
	return filepath.Ext(name) == markdown.Extension
}

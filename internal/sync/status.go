package sync

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/errors"
	"github.com/inkwellapp/inkwell-server/internal/markdown"
)

// State classifies one book's agreement with its markdown file.
type State string

const (
	// StateInSync covers both a matching fingerprint and a book that has
	// never synced; first sync will establish the baseline.
	StateInSync State = "in_sync"

	// StateMissingFile means the catalog has the book but no file exists.
	StateMissingFile State = "missing_file"

	// StateInvalidFile means the book's file exists but cannot be parsed.
	StateInvalidFile State = "invalid_file"

	// StateHashMismatch means the file's content drifted from the state
	// recorded at the last sync.
	StateHashMismatch State = "hash_mismatch"

	// StateOrphanedFile means a markdown file exists that no catalog
	// book claims.
	StateOrphanedFile State = "orphaned_file"
)

// BookStatus is one book's (or one orphaned file's) entry in the
// inventory. Orphans have no BookID.
type BookStatus struct {
	BookID     string `json:"book_id,omitempty"`
	Title      string `json:"title,omitempty"`
	File       string `json:"file"`
	State      State  `json:"state"`
	StoredHash string `json:"stored_hash,omitempty"`
	FileHash   string `json:"file_hash,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// Inventory is a point-in-time report of every book's sync state plus any
// orphaned files. It is purely diagnostic; building it never writes to
// either side.
type Inventory struct {
	CheckedAt time.Time     `json:"checked_at"`
	Books     []BookStatus  `json:"books"`
	Counts    map[State]int `json:"counts"`
}

// Status builds the sync inventory: every catalog book checked against
// its file, then every file in the directory checked for an owner.
func (e *Engine) Status(ctx context.Context) (*Inventory, error) {
	books, err := e.store.ListBooks(ctx)
	if err != nil {
		return nil, errors.StoreError("listing books").WithCause(err)
	}

	inv := &Inventory{
		CheckedAt: e.clock().UTC(),
		Counts:    make(map[State]int),
	}

	// File names claimed by catalog books. Orphan detection below skips
	// these.
	claimed := make(map[string]bool, len(books))

	for _, book := range books {
		name := markdown.Filename(book.Title)
		claimed[name] = true

		entry := BookStatus{
			BookID:     book.ID,
			Title:      book.Title,
			File:       name,
			StoredHash: book.SyncHash,
		}

		path := filepath.Join(e.dir, name)
		switch doc, err := e.codec.Parse(path); {
		case err != nil && errors.Is(err, errors.ErrIOError):
			if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
				entry.State = StateMissingFile
			} else {
				entry.State = StateInvalidFile
				entry.Detail = err.Error()
			}
		case err != nil:
			entry.State = StateInvalidFile
			entry.Detail = err.Error()
		default:
			entry.FileHash = doc.Fingerprint()
			switch {
			case book.SyncHash == "":
				// Never synced; nothing to disagree with yet.
				entry.State = StateInSync
			case entry.FileHash != book.SyncHash:
				entry.State = StateHashMismatch
			default:
				entry.State = StateInSync
			}
		}

		inv.add(entry)
	}

	entries, err := os.ReadDir(e.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return inv, nil
		}
		return nil, errors.IOError("reading books directory").WithCause(err)
	}

	for _, fe := range entries {
		if fe.IsDir() || !isBookFile(fe.Name()) || claimed[fe.Name()] {
			continue
		}
		inv.add(BookStatus{
			File:  fe.Name(),
			State: StateOrphanedFile,
		})
	}

	return inv, nil
}

func (inv *Inventory) add(entry BookStatus) {
	inv.Books = append(inv.Books, entry)
	inv.Counts[entry.State]++
}

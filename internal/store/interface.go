package store

import (
	"context"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/domain"
)

// Store is the persistence contract the sync engine and services depend
// on. The SQLite implementation in the sqlite subpackage is the only one;
// the interface exists so callers can be tested against fakes.
type Store interface {
	// CreateBook inserts a book with its sub-records and shelf
	// memberships. Unknown shelf names are created on the fly.
	CreateBook(ctx context.Context, book *domain.Book) error

	// GetBook loads a book with its sub-records and ordered shelf names.
	// Returns ErrNotFound if no such book exists.
	GetBook(ctx context.Context, id string) (*domain.Book, error)

	// GetBookByISBN13 and GetBookByISBN10 resolve sync identity.
	// Both return ErrNotFound on no match.
	GetBookByISBN13(ctx context.Context, isbn string) (*domain.Book, error)
	GetBookByISBN10(ctx context.Context, isbn string) (*domain.Book, error)

	// ListBooks returns every book with sub-records and shelves loaded,
	// ordered by title.
	ListBooks(ctx context.Context) ([]*domain.Book, error)

	// UpdateBookContent updates a book's content fields and sub-records.
	// Shelf memberships are left untouched; use ReplaceBookShelves.
	UpdateBookContent(ctx context.Context, book *domain.Book) error

	// ReplaceBookShelves replaces a book's shelf memberships with the
	// given ordered names, creating unknown shelves.
	ReplaceBookShelves(ctx context.Context, bookID string, shelves []string) error

	// UpdateSyncStatus records a successful sync for a book.
	UpdateSyncStatus(ctx context.Context, bookID, hash string, at time.Time) error

	// DeleteBook removes a book and, via cascade, its sub-records and
	// shelf memberships.
	DeleteBook(ctx context.Context, id string) error

	ListShelves(ctx context.Context) ([]*domain.Shelf, error)
	GetShelf(ctx context.Context, id string) (*domain.Shelf, error)
	GetShelfByName(ctx context.Context, name string) (*domain.Shelf, error)
	CreateShelf(ctx context.Context, shelf *domain.Shelf) error
	DeleteShelf(ctx context.Context, id string) error
}

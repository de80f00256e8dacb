// Package service orchestrates catalog operations on top of the store and
// the sync engine.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	domainerrors "github.com/inkwellapp/inkwell-server/internal/errors"
	"github.com/inkwellapp/inkwell-server/internal/id"
	"github.com/inkwellapp/inkwell-server/internal/store"
	"github.com/inkwellapp/inkwell-server/internal/sync"
	"github.com/inkwellapp/inkwell-server/internal/validation"
)

// BookService orchestrates book CRUD. Mutations through this service touch
// only the database; pushing to markdown is a separate, explicit sync
// operation. The one exception is delete, which also removes the book's
// derived file so it does not linger as an orphan.
type BookService struct {
	store     store.Store
	engine    *sync.Engine
	validator *validation.Validator
	logger    *slog.Logger
}

// NewBookService creates a new book service.
func NewBookService(st store.Store, engine *sync.Engine, validator *validation.Validator, logger *slog.Logger) *BookService {
	return &BookService{
		store:     st,
		engine:    engine,
		validator: validator,
		logger:    logger,
	}
}

// BookInput carries the writable fields of a book. Shelves replace the
// book's memberships wholesale; an empty list clears them.
type BookInput struct {
	Title                   string   `json:"title" validate:"required,max=500"`
	Author                  string   `json:"author,omitempty" validate:"max=500"`
	AdditionalAuthors       string   `json:"additional_authors,omitempty" validate:"max=1000"`
	ISBN10                  string   `json:"isbn10,omitempty" validate:"omitempty,len=10"`
	ISBN13                  string   `json:"isbn13,omitempty" validate:"omitempty,len=13"`
	Publisher               string   `json:"publisher,omitempty" validate:"max=500"`
	Binding                 string   `json:"binding,omitempty" validate:"max=100"`
	Pages                   int      `json:"pages,omitempty" validate:"gte=0"`
	YearPublished           int      `json:"year_published,omitempty" validate:"gte=0"`
	OriginalPublicationYear int      `json:"original_publication_year,omitempty" validate:"gte=0"`
	GoodreadsID             string   `json:"goodreads_id,omitempty" validate:"max=100"`
	CoverImageURL           string   `json:"cover_image_url,omitempty" validate:"omitempty,url"`
	Status                  string   `json:"status,omitempty" validate:"omitempty,oneof=to-read currently-reading read"`
	DateStarted             string   `json:"date_started,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DateFinished            string   `json:"date_finished,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ReadCount               int      `json:"read_count,omitempty" validate:"gte=0"`
	Rating                  *int     `json:"rating,omitempty" validate:"omitempty,gte=1,lte=5"`
	ReviewText              string   `json:"review_text,omitempty"`
	PrivateNotes            string   `json:"private_notes,omitempty"`
	Highlights              []string `json:"highlights,omitempty"`
	IsSpoiler               bool     `json:"is_spoiler,omitempty"`
	Shelves                 []string `json:"shelves,omitempty" validate:"dive,required"`
}

// apply copies the input onto a book record.
func (in *BookInput) apply(book *domain.Book) error {
	book.Title = in.Title
	book.Author = in.Author
	book.AdditionalAuthors = in.AdditionalAuthors
	book.ISBN10 = in.ISBN10
	book.ISBN13 = in.ISBN13
	book.Publisher = in.Publisher
	book.Binding = in.Binding
	book.Pages = in.Pages
	book.YearPublished = in.YearPublished
	book.OriginalPublicationYear = in.OriginalPublicationYear
	book.GoodreadsID = in.GoodreadsID
	book.CoverImageURL = in.CoverImageURL
	book.Shelves = in.Shelves

	reading := domain.NewReadingRecord()
	if in.Status != "" {
		reading.Status = domain.ReadingStatus(in.Status)
	}
	if in.ReadCount > 0 {
		reading.ReadCount = in.ReadCount
	}
	if in.DateStarted != "" {
		t, err := time.Parse("2006-01-02", in.DateStarted)
		if err != nil {
			return domainerrors.Validationf("invalid date_started %q", in.DateStarted)
		}
		reading.DateStarted = &t
	}
	if in.DateFinished != "" {
		t, err := time.Parse("2006-01-02", in.DateFinished)
		if err != nil {
			return domainerrors.Validationf("invalid date_finished %q", in.DateFinished)
		}
		reading.DateFinished = &t
	}
	book.Reading = reading

	review := &domain.Review{
		Rating:     in.Rating,
		Text:       in.ReviewText,
		Notes:      in.PrivateNotes,
		Highlights: in.Highlights,
		IsSpoiler:  in.IsSpoiler,
	}
	if review.IsEmpty() {
		book.Review = nil
	} else {
		book.Review = review
	}
	return nil
}

// CreateBook creates a new book in the catalog.
func (s *BookService) CreateBook(ctx context.Context, input *BookInput) (*domain.Book, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	bookID, err := id.Generate("book")
	if err != nil {
		return nil, fmt.Errorf("generate book ID: %w", err)
	}

	book := &domain.Book{ID: bookID}
	if err := input.apply(book); err != nil {
		return nil, err
	}
	book.InitTimestamps()

	if err := s.store.CreateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	s.logger.Info("book created", "book_id", bookID, "title", book.Title)
	return s.store.GetBook(ctx, bookID)
}

// GetBook retrieves a book by ID.
func (s *BookService) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("book %s not found", bookID)
		}
		return nil, err
	}
	return book, nil
}

// BookFilter narrows a catalog listing. Zero-valued fields do not filter.
type BookFilter struct {
	Status string
	Rating int
	Shelf  string
}

func (f BookFilter) matches(b *domain.Book) bool {
	if f.Status != "" && (b.Reading == nil || string(b.Reading.Status) != f.Status) {
		return false
	}
	if f.Rating != 0 && (b.Review == nil || b.Review.Rating == nil || *b.Review.Rating != f.Rating) {
		return false
	}
	if f.Shelf != "" && !slices.Contains(b.Shelves, f.Shelf) {
		return false
	}
	return true
}

// ListBooks returns the catalog ordered by title, narrowed by the filter.
func (s *BookService) ListBooks(ctx context.Context, filter BookFilter) ([]*domain.Book, error) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, err
	}

	if filter == (BookFilter{}) {
		return books, nil
	}

	filtered := books[:0]
	for _, b := range books {
		if filter.matches(b) {
			filtered = append(filtered, b)
		}
	}
	return filtered, nil
}

// UpdateBook replaces a book's content and shelf memberships.
func (s *BookService) UpdateBook(ctx context.Context, bookID string, input *BookInput) (*domain.Book, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	book, err := s.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if err := input.apply(book); err != nil {
		return nil, err
	}
	book.Touch()

	if err := s.store.UpdateBookContent(ctx, book); err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}
	if err := s.store.ReplaceBookShelves(ctx, bookID, input.Shelves); err != nil {
		return nil, fmt.Errorf("update shelves: %w", err)
	}

	s.logger.Info("book updated", "book_id", bookID, "title", book.Title)
	return s.store.GetBook(ctx, bookID)
}

// DeleteBook removes a book and its derived markdown file.
func (s *BookService) DeleteBook(ctx context.Context, bookID string) error {
	book, err := s.GetBook(ctx, bookID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteBook(ctx, bookID); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	// Best effort: the record is gone either way.
	if err := s.engine.RemoveFile(book); err != nil {
		s.logger.Warn("failed to remove book file", "book_id", bookID, "error", err)
	}

	s.logger.Info("book deleted", "book_id", bookID, "title", book.Title)
	return nil
}

package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/errors"
	"github.com/inkwellapp/inkwell-server/internal/store"
)

func intPtr(v int) *int { return &v }

func seedBook(t *testing.T, s *Store, mutate func(*domain.Book)) *domain.Book {
	t.Helper()
	started := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	book := &domain.Book{
		ID:            "book-test1",
		Title:         "Piranesi",
		Author:        "Susanna Clarke",
		ISBN10:        "1635575567",
		ISBN13:        "9781635575569",
		Publisher:     "Bloomsbury",
		Pages:         245,
		YearPublished: 2020,
		Shelves:       []string{"fantasy", "favorites"},
		Reading: &domain.ReadingRecord{
			Status:      domain.StatusCurrentlyReading,
			DateStarted: &started,
			ReadCount:   1,
		},
		Review: &domain.Review{
			Rating:     intPtr(4),
			Text:       "Strange and lovely.",
			Highlights: []string{"The Beauty of the House is immeasurable."},
		},
	}
	book.InitTimestamps()
	if mutate != nil {
		mutate(book)
	}
	if err := s.CreateBook(context.Background(), book); err != nil {
		t.Fatalf("create book: %v", err)
	}
	return book
}

func TestCreateAndGetBook(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedBook(t, s, nil)

	got, err := s.GetBook(ctx, "book-test1")
	if err != nil {
		t.Fatalf("get book: %v", err)
	}

	if got.Title != "Piranesi" {
		t.Errorf("title = %q, want Piranesi", got.Title)
	}
	if got.ISBN13 != "9781635575569" {
		t.Errorf("isbn13 = %q", got.ISBN13)
	}
	if got.Reading == nil {
		t.Fatal("reading record not loaded")
	}
	if got.Reading.Status != domain.StatusCurrentlyReading {
		t.Errorf("status = %q", got.Reading.Status)
	}
	if got.Reading.DateStarted == nil || got.Reading.DateStarted.Format("2006-01-02") != "2024-03-01" {
		t.Errorf("date_started = %v", got.Reading.DateStarted)
	}
	if got.Review == nil {
		t.Fatal("review not loaded")
	}
	if got.Review.Rating == nil || *got.Review.Rating != 4 {
		t.Errorf("rating = %v", got.Review.Rating)
	}
	if len(got.Review.Highlights) != 1 {
		t.Errorf("highlights = %v", got.Review.Highlights)
	}
	if len(got.Shelves) != 2 || got.Shelves[0] != "fantasy" || got.Shelves[1] != "favorites" {
		t.Errorf("shelves = %v, want [fantasy favorites]", got.Shelves)
	}
	if got.SyncHash != "" || got.LastSyncedAt != nil {
		t.Errorf("sync bookkeeping should start empty, got %q / %v", got.SyncHash, got.LastSyncedAt)
	}
}

func TestCreateBook_AutoCreatesShelves(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedBook(t, s, nil)

	sh, err := s.GetShelfByName(ctx, "fantasy")
	if err != nil {
		t.Fatalf("get shelf: %v", err)
	}
	if sh.Color != domain.DefaultShelfColor {
		t.Errorf("color = %q, want %q", sh.Color, domain.DefaultShelfColor)
	}
	if sh.BookCount != 1 {
		t.Errorf("book count = %d, want 1", sh.BookCount)
	}
}

func TestCreateBook_Duplicate(t *testing.T) {
	s := newTestStore(t)
	seedBook(t, s, nil)

	dup := &domain.Book{ID: "book-test1", Title: "Other"}
	dup.InitTimestamps()
	if err := s.CreateBook(context.Background(), dup); !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("error = %v, want ErrAlreadyExists", err)
	}
}

func TestGetBookByISBN(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedBook(t, s, nil)

	by13, err := s.GetBookByISBN13(ctx, "9781635575569")
	if err != nil {
		t.Fatalf("by isbn13: %v", err)
	}
	if by13.ID != "book-test1" {
		t.Errorf("id = %q", by13.ID)
	}

	by10, err := s.GetBookByISBN10(ctx, "1635575567")
	if err != nil {
		t.Fatalf("by isbn10: %v", err)
	}
	if by10.ID != "book-test1" {
		t.Errorf("id = %q", by10.ID)
	}

	if _, err := s.GetBookByISBN13(ctx, "9780000000000"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestUpdateBookContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	book := seedBook(t, s, nil)

	book.Title = "Piranesi (Revised)"
	book.Pages = 272
	book.Reading.Status = domain.StatusRead
	book.Review = &domain.Review{Rating: intPtr(5), Text: "Even better on reread."}
	book.Touch()
	if err := s.UpdateBookContent(ctx, book); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.GetBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Piranesi (Revised)" || got.Pages != 272 {
		t.Errorf("content not updated: %q / %d", got.Title, got.Pages)
	}
	if got.Reading == nil || got.Reading.Status != domain.StatusRead {
		t.Errorf("reading record not replaced: %+v", got.Reading)
	}
	if got.Review == nil || got.Review.Text != "Even better on reread." {
		t.Errorf("review not replaced: %+v", got.Review)
	}
	if len(got.Review.Highlights) != 0 {
		t.Errorf("old highlights survived replace: %v", got.Review.Highlights)
	}

	// Shelves must survive a content update untouched.
	if len(got.Shelves) != 2 {
		t.Errorf("shelves changed by content update: %v", got.Shelves)
	}
}

func TestUpdateBookContent_NotFound(t *testing.T) {
	s := newTestStore(t)
	book := &domain.Book{ID: "book-missing", Title: "Ghost"}
	book.InitTimestamps()
	if err := s.UpdateBookContent(context.Background(), book); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestReplaceBookShelves(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	book := seedBook(t, s, nil)

	if err := s.ReplaceBookShelves(ctx, book.ID, []string{"to-review", "fantasy"}); err != nil {
		t.Fatalf("replace shelves: %v", err)
	}

	got, err := s.GetBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Shelves) != 2 || got.Shelves[0] != "to-review" || got.Shelves[1] != "fantasy" {
		t.Errorf("shelves = %v, want [to-review fantasy]", got.Shelves)
	}

	// The dropped shelf still exists, just empty.
	fav, err := s.GetShelfByName(ctx, "favorites")
	if err != nil {
		t.Fatalf("get favorites: %v", err)
	}
	if fav.BookCount != 0 {
		t.Errorf("favorites count = %d, want 0", fav.BookCount)
	}
}

func TestUpdateSyncStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	book := seedBook(t, s, nil)

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if err := s.UpdateSyncStatus(ctx, book.ID, "ab12cd34ef56ab12", at); err != nil {
		t.Fatalf("update sync status: %v", err)
	}

	got, err := s.GetBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.SyncHash != "ab12cd34ef56ab12" {
		t.Errorf("sync_hash = %q", got.SyncHash)
	}
	if got.LastSyncedAt == nil || !got.LastSyncedAt.Equal(at) {
		t.Errorf("last_synced_at = %v, want %v", got.LastSyncedAt, at)
	}

	if err := s.UpdateSyncStatus(ctx, "book-missing", "x", at); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestDeleteBook(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	book := seedBook(t, s, nil)

	if err := s.DeleteBook(ctx, book.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetBook(ctx, book.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}

	// Cascade removed the membership rows.
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM book_shelves`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("book_shelves rows = %d, want 0", n)
	}

	if err := s.DeleteBook(ctx, book.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestListBooks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedBook(t, s, nil)
	seedBook(t, s, func(b *domain.Book) {
		b.ID = "book-test2"
		b.Title = "Annihilation"
		b.ISBN10 = ""
		b.ISBN13 = ""
		b.Shelves = nil
	})

	books, err := s.ListBooks(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("len = %d, want 2", len(books))
	}
	// Ordered by title.
	if books[0].Title != "Annihilation" || books[1].Title != "Piranesi" {
		t.Errorf("order = [%s, %s]", books[0].Title, books[1].Title)
	}
	if books[1].Reading == nil || books[1].Review == nil {
		t.Error("list did not hydrate sub-records")
	}
}

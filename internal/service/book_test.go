package service

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/inkwellapp/inkwell-server/internal/errors"
	"github.com/inkwellapp/inkwell-server/internal/markdown"
	"github.com/inkwellapp/inkwell-server/internal/store/sqlite"
	"github.com/inkwellapp/inkwell-server/internal/sync"
	"github.com/inkwellapp/inkwell-server/internal/validation"
)

func newTestServices(t *testing.T) (*BookService, *ShelfService, *sync.Engine) {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := sqlite.Open(filepath.Join(dir, "catalog.db"), logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	engine := sync.NewEngine(st, markdown.NewCodec(logger), filepath.Join(dir, "books"), logger)
	v := validation.New()
	return NewBookService(st, engine, v, logger), NewShelfService(st, v, logger), engine
}

func intPtr(v int) *int { return &v }

func sampleInput() *BookInput {
	return &BookInput{
		Title:      "A Wizard of Earthsea",
		Author:     "Ursula K. Le Guin",
		ISBN13:     "9780547773742",
		Pages:      183,
		Status:     "read",
		Rating:     intPtr(5),
		ReviewText: "The true name of a thing is the thing.",
		Shelves:    []string{"fantasy", "reread"},
	}
}

func TestBookService_CreateBook(t *testing.T) {
	books, _, _ := newTestServices(t)
	ctx := context.Background()

	book, err := books.CreateBook(ctx, sampleInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if book.ID == "" {
		t.Error("no ID assigned")
	}
	if book.Title != "A Wizard of Earthsea" {
		t.Errorf("title = %q", book.Title)
	}
	if book.Reading == nil || book.Reading.Status != "read" {
		t.Errorf("reading = %+v", book.Reading)
	}
	if book.Review == nil || book.Review.Rating == nil || *book.Review.Rating != 5 {
		t.Errorf("review = %+v", book.Review)
	}
	if len(book.Shelves) != 2 {
		t.Errorf("shelves = %v", book.Shelves)
	}
	if book.SyncHash != "" {
		t.Error("create should not sync")
	}
}

func TestBookService_CreateBook_Invalid(t *testing.T) {
	books, _, _ := newTestServices(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*BookInput)
	}{
		{"missing title", func(in *BookInput) { in.Title = "" }},
		{"rating too high", func(in *BookInput) { in.Rating = intPtr(6) }},
		{"bad isbn13 length", func(in *BookInput) { in.ISBN13 = "123" }},
		{"bad status", func(in *BookInput) { in.Status = "reading" }},
		{"bad date", func(in *BookInput) { in.DateStarted = "March 1st" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleInput()
			tt.mutate(in)
			if _, err := books.CreateBook(ctx, in); !errors.Is(err, errors.ErrValidation) {
				t.Errorf("error = %v, want VALIDATION", err)
			}
		})
	}
}

func TestBookService_GetBook_NotFound(t *testing.T) {
	books, _, _ := newTestServices(t)
	if _, err := books.GetBook(context.Background(), "book-nope"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestBookService_ListBooks_Filter(t *testing.T) {
	books, _, _ := newTestServices(t)
	ctx := context.Background()

	if _, err := books.CreateBook(ctx, sampleInput()); err != nil {
		t.Fatal(err)
	}

	other := sampleInput()
	other.Title = "The Tombs of Atuan"
	other.ISBN13 = "9780689845352"
	other.Status = "to-read"
	other.Rating = nil
	other.ReviewText = ""
	other.Shelves = []string{"fantasy"}
	if _, err := books.CreateBook(ctx, other); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		filter BookFilter
		want   int
	}{
		{"none", BookFilter{}, 2},
		{"status read", BookFilter{Status: "read"}, 1},
		{"status to-read", BookFilter{Status: "to-read"}, 1},
		{"rating", BookFilter{Rating: 5}, 1},
		{"rating unmatched", BookFilter{Rating: 3}, 0},
		{"shelf shared", BookFilter{Shelf: "fantasy"}, 2},
		{"shelf narrow", BookFilter{Shelf: "reread"}, 1},
		{"combined", BookFilter{Status: "read", Shelf: "fantasy"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := books.ListBooks(ctx, tt.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d books, want %d", len(got), tt.want)
			}
		})
	}
}

func TestBookService_UpdateBook(t *testing.T) {
	books, _, _ := newTestServices(t)
	ctx := context.Background()

	created, err := books.CreateBook(ctx, sampleInput())
	if err != nil {
		t.Fatal(err)
	}

	in := sampleInput()
	in.Title = "A Wizard of Earthsea (50th Anniversary)"
	in.Shelves = []string{"signed-editions"}
	updated, err := books.UpdateBook(ctx, created.ID, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Title != "A Wizard of Earthsea (50th Anniversary)" {
		t.Errorf("title = %q", updated.Title)
	}
	// Unlike file pulls, API updates own the shelf list.
	if len(updated.Shelves) != 1 || updated.Shelves[0] != "signed-editions" {
		t.Errorf("shelves = %v, want [signed-editions]", updated.Shelves)
	}
}

func TestBookService_DeleteBook_RemovesFile(t *testing.T) {
	books, _, engine := newTestServices(t)
	ctx := context.Background()

	created, err := books.CreateBook(ctx, sampleInput())
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.PushToFile(ctx, created.ID); err != nil {
		t.Fatal(err)
	}
	path := engine.PathFor(created)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file not written: %v", err)
	}

	if err := books.DeleteBook(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := books.GetBook(ctx, created.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("book still readable: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("derived file not removed")
	}
}

func TestShelfService_CreateAndList(t *testing.T) {
	_, shelves, _ := newTestServices(t)
	ctx := context.Background()

	shelf, err := shelves.CreateShelf(ctx, &ShelfInput{Name: "poetry"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if shelf.Color == "" {
		t.Error("default color not applied")
	}

	if _, err := shelves.CreateShelf(ctx, &ShelfInput{Name: "poetry"}); !errors.Is(err, errors.ErrAlreadyExists) {
		t.Errorf("duplicate error = %v, want ALREADY_EXISTS", err)
	}

	all, err := shelves.ListShelves(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("len = %d, want 1", len(all))
	}
}

func TestShelfService_CreateShelf_BadColor(t *testing.T) {
	_, shelves, _ := newTestServices(t)
	_, err := shelves.CreateShelf(context.Background(), &ShelfInput{Name: "x", Color: "red-ish"})
	if !errors.Is(err, errors.ErrValidation) {
		t.Errorf("error = %v, want VALIDATION", err)
	}
}

func TestShelfService_Delete(t *testing.T) {
	_, shelves, _ := newTestServices(t)
	ctx := context.Background()

	shelf, err := shelves.CreateShelf(ctx, &ShelfInput{Name: "to-donate"})
	if err != nil {
		t.Fatal(err)
	}
	if err := shelves.DeleteShelf(ctx, shelf.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := shelves.DeleteShelf(ctx, shelf.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

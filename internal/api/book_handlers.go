package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/markdown"
	"github.com/inkwellapp/inkwell-server/internal/service"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns books ordered by title, optionally filtered by status, rating, or shelf",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "createBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/books",
		Summary:     "Create book",
		Description: "Creates a new book with optional reading record, review, and shelves",
		Tags:        []string{"Books"},
	}, s.handleCreateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a book by ID",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBook",
		Method:      http.MethodPut,
		Path:        "/api/v1/books/{id}",
		Summary:     "Update book",
		Description: "Replaces a book's content, reading record, review, and shelf list",
		Tags:        []string{"Books"},
	}, s.handleUpdateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{id}",
		Summary:     "Delete book",
		Description: "Deletes a book and its markdown file",
		Tags:        []string{"Books"},
	}, s.handleDeleteBook)
}

// === DTOs ===

// ReadingResponse contains reading record data in API responses.
type ReadingResponse struct {
	Status       string     `json:"status" doc:"Reading status"`
	DateStarted  *time.Time `json:"date_started,omitempty" doc:"When reading started"`
	DateFinished *time.Time `json:"date_finished,omitempty" doc:"When reading finished"`
	ReadCount    int        `json:"read_count" doc:"Number of times read"`
}

// ReviewResponse contains review data in API responses.
type ReviewResponse struct {
	Rating     *int     `json:"rating,omitempty" doc:"Star rating, 1-5"`
	Text       string   `json:"text,omitempty" doc:"Review text"`
	Notes      string   `json:"notes,omitempty" doc:"Private notes"`
	Highlights []string `json:"highlights,omitempty" doc:"Saved highlights"`
	IsSpoiler  bool     `json:"is_spoiler,omitempty" doc:"Whether the review contains spoilers"`
}

// BookResponse contains book data in API responses.
type BookResponse struct {
	ID                      string           `json:"id" doc:"Book ID"`
	Title                   string           `json:"title" doc:"Title"`
	Author                  string           `json:"author,omitempty" doc:"Primary author"`
	AdditionalAuthors       string           `json:"additional_authors,omitempty" doc:"Additional authors"`
	ISBN10                  string           `json:"isbn10,omitempty" doc:"ISBN-10"`
	ISBN13                  string           `json:"isbn13,omitempty" doc:"ISBN-13"`
	Publisher               string           `json:"publisher,omitempty" doc:"Publisher"`
	Binding                 string           `json:"binding,omitempty" doc:"Binding type"`
	Pages                   int              `json:"pages,omitempty" doc:"Page count"`
	YearPublished           int              `json:"year_published,omitempty" doc:"Edition publication year"`
	OriginalPublicationYear int              `json:"original_publication_year,omitempty" doc:"Original publication year"`
	GoodreadsID             string           `json:"goodreads_id,omitempty" doc:"Goodreads book ID"`
	CoverImageURL           string           `json:"cover_image_url,omitempty" doc:"Cover image URL"`
	DateAdded               time.Time        `json:"date_added" doc:"When the book was added"`
	File                    string           `json:"file" doc:"Markdown file name derived from the title"`
	LastSyncedAt            *time.Time       `json:"last_synced_at,omitempty" doc:"Last successful sync time"`
	Reading                 *ReadingResponse `json:"reading,omitempty" doc:"Reading record"`
	Review                  *ReviewResponse  `json:"review,omitempty" doc:"Review"`
	Shelves                 []string         `json:"shelves,omitempty" doc:"Ordered shelf names"`
	CreatedAt               time.Time        `json:"created_at" doc:"Creation time"`
	UpdatedAt               time.Time        `json:"updated_at" doc:"Last update time"`
}

// ListBooksInput contains optional filters for listing books.
type ListBooksInput struct {
	Status string `query:"status" enum:"to-read,currently-reading,read" required:"false" doc:"Filter by reading status"`
	Rating int    `query:"rating" minimum:"1" maximum:"5" required:"false" doc:"Filter by star rating"`
	Shelf  string `query:"shelf" required:"false" doc:"Filter by shelf name"`
}

// ListBooksResponse contains a list of books.
type ListBooksResponse struct {
	Books []BookResponse `json:"books" doc:"List of books"`
}

// ListBooksOutput wraps the list books response for Huma.
type ListBooksOutput struct {
	Body ListBooksResponse
}

// BookOutput wraps the book response for Huma.
type BookOutput struct {
	Body BookResponse
}

// CreateBookInput wraps the create book request for Huma.
type CreateBookInput struct {
	Body service.BookInput
}

// GetBookInput contains parameters for getting a book.
type GetBookInput struct {
	ID string `path:"id" doc:"Book ID"`
}

// UpdateBookInput wraps the update book request for Huma.
type UpdateBookInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body service.BookInput
}

// DeleteBookInput contains parameters for deleting a book.
type DeleteBookInput struct {
	ID string `path:"id" doc:"Book ID"`
}

func toBookResponse(b *domain.Book) BookResponse {
	resp := BookResponse{
		ID:                      b.ID,
		Title:                   b.Title,
		Author:                  b.Author,
		AdditionalAuthors:       b.AdditionalAuthors,
		ISBN10:                  b.ISBN10,
		ISBN13:                  b.ISBN13,
		Publisher:               b.Publisher,
		Binding:                 b.Binding,
		Pages:                   b.Pages,
		YearPublished:           b.YearPublished,
		OriginalPublicationYear: b.OriginalPublicationYear,
		GoodreadsID:             b.GoodreadsID,
		CoverImageURL:           b.CoverImageURL,
		DateAdded:               b.DateAdded,
		File:                    markdown.Filename(b.Title),
		LastSyncedAt:            b.LastSyncedAt,
		Shelves:                 b.Shelves,
		CreatedAt:               b.CreatedAt,
		UpdatedAt:               b.UpdatedAt,
	}

	if b.Reading != nil {
		resp.Reading = &ReadingResponse{
			Status:       string(b.Reading.Status),
			DateStarted:  b.Reading.DateStarted,
			DateFinished: b.Reading.DateFinished,
			ReadCount:    b.Reading.ReadCount,
		}
	}

	if b.Review != nil {
		resp.Review = &ReviewResponse{
			Rating:     b.Review.Rating,
			Text:       b.Review.Text,
			Notes:      b.Review.Notes,
			Highlights: b.Review.Highlights,
			IsSpoiler:  b.Review.IsSpoiler,
		}
	}

	return resp
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*ListBooksOutput, error) {
	books, err := s.books.ListBooks(ctx, service.BookFilter{
		Status: input.Status,
		Rating: input.Rating,
		Shelf:  input.Shelf,
	})
	if err != nil {
		return nil, err
	}

	resp := make([]BookResponse, len(books))
	for i, b := range books {
		resp[i] = toBookResponse(b)
	}

	return &ListBooksOutput{Body: ListBooksResponse{Books: resp}}, nil
}

func (s *Server) handleCreateBook(ctx context.Context, input *CreateBookInput) (*BookOutput, error) {
	book, err := s.books.CreateBook(ctx, &input.Body)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: toBookResponse(book)}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *GetBookInput) (*BookOutput, error) {
	book, err := s.books.GetBook(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: toBookResponse(book)}, nil
}

func (s *Server) handleUpdateBook(ctx context.Context, input *UpdateBookInput) (*BookOutput, error) {
	book, err := s.books.UpdateBook(ctx, input.ID, &input.Body)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: toBookResponse(book)}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *DeleteBookInput) (*struct{}, error) {
	if err := s.books.DeleteBook(ctx, input.ID); err != nil {
		return nil, err
	}

	return &struct{}{}, nil
}

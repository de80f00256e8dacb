package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/service"
)

func (s *Server) registerShelfRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listShelves",
		Method:      http.MethodGet,
		Path:        "/api/v1/shelves",
		Summary:     "List shelves",
		Description: "Returns all shelves with their book counts",
		Tags:        []string{"Shelves"},
	}, s.handleListShelves)

	huma.Register(s.api, huma.Operation{
		OperationID: "createShelf",
		Method:      http.MethodPost,
		Path:        "/api/v1/shelves",
		Summary:     "Create shelf",
		Description: "Creates a new shelf",
		Tags:        []string{"Shelves"},
	}, s.handleCreateShelf)

	huma.Register(s.api, huma.Operation{
		OperationID: "getShelf",
		Method:      http.MethodGet,
		Path:        "/api/v1/shelves/{id}",
		Summary:     "Get shelf",
		Description: "Returns a shelf by ID",
		Tags:        []string{"Shelves"},
	}, s.handleGetShelf)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteShelf",
		Method:      http.MethodDelete,
		Path:        "/api/v1/shelves/{id}",
		Summary:     "Delete shelf",
		Description: "Deletes a shelf; books on it are kept",
		Tags:        []string{"Shelves"},
	}, s.handleDeleteShelf)
}

// === DTOs ===

// ShelfResponse contains shelf data in API responses.
type ShelfResponse struct {
	ID        string    `json:"id" doc:"Shelf ID"`
	Name      string    `json:"name" doc:"Shelf name"`
	Color     string    `json:"color,omitempty" doc:"Display color"`
	BookCount int       `json:"book_count" doc:"Number of books on this shelf"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
}

// ListShelvesResponse contains a list of shelves.
type ListShelvesResponse struct {
	Shelves []ShelfResponse `json:"shelves" doc:"List of shelves"`
}

// ListShelvesOutput wraps the list shelves response for Huma.
type ListShelvesOutput struct {
	Body ListShelvesResponse
}

// ShelfOutput wraps the shelf response for Huma.
type ShelfOutput struct {
	Body ShelfResponse
}

// CreateShelfInput wraps the create shelf request for Huma.
type CreateShelfInput struct {
	Body service.ShelfInput
}

// GetShelfInput contains parameters for getting a shelf.
type GetShelfInput struct {
	ID string `path:"id" doc:"Shelf ID"`
}

// DeleteShelfInput contains parameters for deleting a shelf.
type DeleteShelfInput struct {
	ID string `path:"id" doc:"Shelf ID"`
}

func toShelfResponse(sh *domain.Shelf) ShelfResponse {
	return ShelfResponse{
		ID:        sh.ID,
		Name:      sh.Name,
		Color:     sh.Color,
		BookCount: sh.BookCount,
		CreatedAt: sh.CreatedAt,
	}
}

// === Handlers ===

func (s *Server) handleListShelves(ctx context.Context, _ *struct{}) (*ListShelvesOutput, error) {
	shelves, err := s.shelves.ListShelves(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]ShelfResponse, len(shelves))
	for i, sh := range shelves {
		resp[i] = toShelfResponse(sh)
	}

	return &ListShelvesOutput{Body: ListShelvesResponse{Shelves: resp}}, nil
}

func (s *Server) handleCreateShelf(ctx context.Context, input *CreateShelfInput) (*ShelfOutput, error) {
	shelf, err := s.shelves.CreateShelf(ctx, &input.Body)
	if err != nil {
		return nil, err
	}

	return &ShelfOutput{Body: toShelfResponse(shelf)}, nil
}

func (s *Server) handleGetShelf(ctx context.Context, input *GetShelfInput) (*ShelfOutput, error) {
	shelf, err := s.shelves.GetShelf(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &ShelfOutput{Body: toShelfResponse(shelf)}, nil
}

func (s *Server) handleDeleteShelf(ctx context.Context, input *DeleteShelfInput) (*struct{}, error) {
	if err := s.shelves.DeleteShelf(ctx, input.ID); err != nil {
		return nil, err
	}

	return &struct{}{}, nil
}

// Package book holds the catalog: entities, search, and the admin CRUD
// surface over books.
package book

import (
	"context"
	"time"
)

// Book is one catalog entry. AvailableCopies is owned by the loan ledger and
// only ever changes inside its transactions; Available is derived from it.
type Book struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Genre           string    `json:"genre"`
	Description     string    `json:"description,omitempty"`
	Quantity        int       `json:"quantity"`
	AvailableCopies int       `json:"available_copies"`
	Available       bool      `json:"available"`
	CoverURL        *string   `json:"cover_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Query defines catalog search filters. All filters are optional and combine
// with AND; zero values mean "no filter".
type Query struct {
	Title         string // case-insensitive substring
	Genre         string // exact
	Author        string // exact
	AvailableOnly bool
}

// Facets are display aggregates computed over the whole catalog, not the
// filtered result.
type Facets struct {
	Genres    []string `json:"genres"`
	Authors   []string `json:"authors"`
	Total     int      `json:"total"`
	Available int      `json:"available"`
}

// Repository defines the contract for catalog storage.
type Repository interface {
	Search(ctx context.Context, q Query) ([]Book, error)
	Facets(ctx context.Context) (Facets, error)
	GetByID(ctx context.Context, id string) (Book, error)
	Create(ctx context.Context, b *Book) error
	Update(ctx context.Context, b *Book) error
	Delete(ctx context.Context, id string) error
}

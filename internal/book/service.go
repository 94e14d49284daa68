package book

import (
	"context"
	"strings"

	"libraryapi/internal/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Search(ctx context.Context, q Query) ([]Book, error) {
	return s.repo.Search(ctx, q)
}

func (s *Service) Facets(ctx context.Context) (Facets, error) {
	return s.repo.Facets(ctx)
}

func (s *Service) GetByID(ctx context.Context, id string) (Book, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, b *Book) error {
	if err := validateBook(b); err != nil {
		return err
	}
	return s.repo.Create(ctx, b)
}

func (s *Service) Update(ctx context.Context, b *Book) error {
	if err := validateBook(b); err != nil {
		return err
	}
	return s.repo.Update(ctx, b)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func validateBook(b *Book) error {
	b.Title = strings.TrimSpace(b.Title)
	b.Author = strings.TrimSpace(b.Author)
	b.Genre = strings.TrimSpace(b.Genre)

	switch {
	case b.Title == "":
		return apperr.InvalidInput("title is required")
	case b.Author == "":
		return apperr.InvalidInput("author is required")
	case b.Genre == "":
		return apperr.InvalidInput("genre is required")
	case b.Quantity < 0:
		return apperr.InvalidInput("quantity must not be negative")
	}
	return nil
}

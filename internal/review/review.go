// Package review stores per-book reviews and computes their average rating.
package review

import (
	"context"
	"time"
)

// Review is one rating+comment a user left on a book.
type Review struct {
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// BookReview is a review joined with the reviewer's display name.
type BookReview struct {
	Review
	ReviewerName    string `json:"reviewer_name"`
	ReviewerSurname string `json:"reviewer_surname"`
}

// Summary is the aggregate shown next to a book's review list. Average is
// nil when the book has no reviews yet.
type Summary struct {
	Average *float64 `json:"average_rating"`
	Count   int      `json:"review_count"`
}

// Policy controls the optional submission restrictions. Both default to off,
// matching the original application's permissive behavior.
type Policy struct {
	RequireReturnedLoan bool
	OnePerUser          bool
}

// Repository defines the review storage contract.
type Repository interface {
	Create(ctx context.Context, rv *Review) error
	ListByBook(ctx context.Context, bookID string) ([]BookReview, error)
	Summary(ctx context.Context, bookID string) (Summary, error)
	HasReview(ctx context.Context, userID, bookID string) (bool, error)
}

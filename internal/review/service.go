package review

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"libraryapi/internal/apperr"
)

// LoanChecker is the slice of the loan ledger the review policy needs.
type LoanChecker interface {
	HasReturnedLoan(ctx context.Context, userID, bookID string) (bool, error)
}

type Service struct {
	repo   Repository
	loans  LoanChecker
	policy Policy
	now    func() time.Time
}

func NewService(repo Repository, loans LoanChecker, policy Policy) *Service {
	return &Service{repo: repo, loans: loans, policy: policy, now: time.Now}
}

// Submit records a review. Rating must be an integer in [1,5]; the optional
// policy knobs add one-per-user and returned-loan checks on top.
func (s *Service) Submit(ctx context.Context, bookID, userID string, rating int, comment string) (Review, error) {
	if rating < 1 || rating > 5 {
		return Review{}, apperr.InvalidInput("rating must be between 1 and 5")
	}

	if s.policy.OnePerUser {
		exists, err := s.repo.HasReview(ctx, userID, bookID)
		if err != nil {
			return Review{}, err
		}
		if exists {
			return Review{}, apperr.Conflict("user already reviewed this book")
		}
	}

	if s.policy.RequireReturnedLoan {
		returned, err := s.loans.HasReturnedLoan(ctx, userID, bookID)
		if err != nil {
			return Review{}, err
		}
		if !returned {
			return Review{}, apperr.Forbidden("reviews require a returned loan of the book")
		}
	}

	rv := Review{
		ID:        uuid.New().String(),
		BookID:    bookID,
		UserID:    userID,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, &rv); err != nil {
		return Review{}, err
	}
	return rv, nil
}

// ListForBook returns the book's reviews with the aggregate summary.
func (s *Service) ListForBook(ctx context.Context, bookID string) ([]BookReview, Summary, error) {
	reviews, err := s.repo.ListByBook(ctx, bookID)
	if err != nil {
		return nil, Summary{}, err
	}
	summary, err := s.repo.Summary(ctx, bookID)
	if err != nil {
		return nil, Summary{}, err
	}
	return reviews, summary, nil
}

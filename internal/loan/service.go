package loan

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Borrow creates a loan for the user, due in 14 days. Availability checks and
// the copy decrement happen atomically in the repository.
func (s *Service) Borrow(ctx context.Context, bookID, userID string) (Loan, error) {
	now := s.now().UTC()
	l := Loan{
		ID:       uuid.New().String(),
		BookID:   bookID,
		UserID:   userID,
		LoanedAt: now,
		DueAt:    now.Add(Period),
	}
	if err := s.repo.Create(ctx, &l); err != nil {
		return Loan{}, err
	}
	l.Status = l.StatusAt(now)
	return l, nil
}

// Return closes the user's active loan for the book.
func (s *Service) Return(ctx context.Context, userID, bookID string) (Loan, error) {
	l, err := s.repo.Close(ctx, userID, bookID, s.now().UTC())
	if err != nil {
		return Loan{}, err
	}
	l.Status = StatusReturned
	return l, nil
}

// ListForUser returns every loan the user ever made, annotated with status.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]UserLoan, error) {
	loans, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	for i := range loans {
		loans[i].Status = loans[i].StatusAt(now)
	}
	return loans, nil
}

// ListAll returns every loan across all users for the admin back-office.
func (s *Service) ListAll(ctx context.Context) ([]AdminLoan, error) {
	loans, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	for i := range loans {
		loans[i].Status = loans[i].StatusAt(now)
	}
	return loans, nil
}

// HasReturnedLoan reports whether the user has ever returned the book. Used
// by the review policy check.
func (s *Service) HasReturnedLoan(ctx context.Context, userID, bookID string) (bool, error) {
	return s.repo.HasReturnedLoan(ctx, userID, bookID)
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.repo.Stats(ctx)
}

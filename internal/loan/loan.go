// Package loan is the borrowing ledger: loan records, due dates, and the
// transactional availability accounting on books.
package loan

import (
	"context"
	"time"
)

// Status of a loan, derived from its dates; OVERDUE is virtual and never
// stored.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusReturned Status = "RETURNED"
	StatusOverdue  Status = "OVERDUE"
)

// Period is the fixed borrowing policy: every loan is due 14 days after it
// is taken out.
const Period = 14 * 24 * time.Hour

// Loan records one book copy checked out by one user. Loans are never
// deleted; returning sets ReturnedAt exactly once.
type Loan struct {
	ID         string     `json:"id"`
	BookID     string     `json:"book_id"`
	UserID     string     `json:"user_id"`
	LoanedAt   time.Time  `json:"loaned_at"`
	DueAt      time.Time  `json:"due_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	Status     Status     `json:"status"`
}

// StatusAt derives the loan status as a pure function of now.
func (l *Loan) StatusAt(now time.Time) Status {
	switch {
	case l.ReturnedAt != nil:
		return StatusReturned
	case now.After(l.DueAt):
		return StatusOverdue
	default:
		return StatusActive
	}
}

// UserLoan is a loan joined with book display fields for the "my loans" view.
type UserLoan struct {
	Loan
	BookTitle  string `json:"book_title"`
	BookAuthor string `json:"book_author"`
}

// AdminLoan additionally carries the borrower's display fields.
type AdminLoan struct {
	UserLoan
	UserName    string `json:"user_name"`
	UserSurname string `json:"user_surname"`
	UserEmail   string `json:"user_email"`
	Returned    bool   `json:"returned"`
}

// Stats is the admin overview aggregate.
type Stats struct {
	TotalBooks    int `json:"total_books"`
	TotalStudents int `json:"total_students"`
	TotalLoans    int `json:"total_loans"`
	ActiveLoans   int `json:"active_loans"`
	ReturnedLoans int `json:"returned_loans"`
}

// Repository is the ledger storage contract. Create and Close are atomic
// with the availability update on the book row.
type Repository interface {
	Create(ctx context.Context, l *Loan) error
	Close(ctx context.Context, userID, bookID string, returnedAt time.Time) (Loan, error)
	ListByUser(ctx context.Context, userID string) ([]UserLoan, error)
	ListAll(ctx context.Context) ([]AdminLoan, error)
	HasReturnedLoan(ctx context.Context, userID, bookID string) (bool, error)
	Stats(ctx context.Context) (Stats, error)
}

package loan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"libraryapi/internal/apperr"
	"libraryapi/internal/store"
)

const uniqueViolation = "23505"

type PostgresRepo struct {
	db      store.DB
	timeout time.Duration
}

func NewPostgresRepo(db store.DB, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// Create inserts the loan and takes one copy off the book inside a single
// transaction. The decrement is conditional on a copy remaining, so two
// concurrent borrows of the last copy cannot both commit.
func (r *PostgresRepo) Create(ctx context.Context, l *Loan) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(timeoutCtx)
	if err != nil {
		return fmt.Errorf("begin borrow tx: %w", err)
	}
	defer func() { _ = tx.Rollback(timeoutCtx) }()

	const decrementSQL = `
		UPDATE books
		SET available_copies = available_copies - 1, updated_at = NOW()
		WHERE id = $1 AND available_copies > 0`
	tag, err := tx.Exec(timeoutCtx, decrementSQL, l.BookID)
	if err != nil {
		return fmt.Errorf("decrement availability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(timeoutCtx, `SELECT EXISTS(SELECT 1 FROM books WHERE id = $1)`, l.BookID).Scan(&exists); err != nil {
			return fmt.Errorf("check book exists: %w", err)
		}
		if !exists {
			return apperr.NotFound("book", l.BookID)
		}
		return apperr.Unavailable("no copies of this book are left")
	}

	const insertSQL = `
		INSERT INTO loans (id, book_id, user_id, loaned_at, due_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.Exec(timeoutCtx, insertSQL, l.ID, l.BookID, l.UserID, l.LoanedAt, l.DueAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperr.Conflict("user already has this book on loan")
		}
		return fmt.Errorf("insert loan: %w", err)
	}

	if err := tx.Commit(timeoutCtx); err != nil {
		return fmt.Errorf("commit borrow tx: %w", err)
	}
	return nil
}

// Close sets the return date on the user's active loan for the book and puts
// the copy back, atomically.
func (r *PostgresRepo) Close(ctx context.Context, userID, bookID string, returnedAt time.Time) (Loan, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(timeoutCtx)
	if err != nil {
		return Loan{}, fmt.Errorf("begin return tx: %w", err)
	}
	defer func() { _ = tx.Rollback(timeoutCtx) }()

	const closeSQL = `
		UPDATE loans
		SET returned_at = $3
		WHERE user_id = $1 AND book_id = $2 AND returned_at IS NULL
		RETURNING id, book_id, user_id, loaned_at, due_at, returned_at`
	var l Loan
	err = tx.QueryRow(timeoutCtx, closeSQL, userID, bookID, returnedAt).Scan(
		&l.ID, &l.BookID, &l.UserID, &l.LoanedAt, &l.DueAt, &l.ReturnedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Loan{}, apperr.NotFound("active loan for book", bookID)
		}
		return Loan{}, fmt.Errorf("close loan: %w", err)
	}

	const incrementSQL = `
		UPDATE books
		SET available_copies = available_copies + 1, updated_at = NOW()
		WHERE id = $1`
	if _, err := tx.Exec(timeoutCtx, incrementSQL, bookID); err != nil {
		return Loan{}, fmt.Errorf("increment availability: %w", err)
	}

	if err := tx.Commit(timeoutCtx); err != nil {
		return Loan{}, fmt.Errorf("commit return tx: %w", err)
	}
	return l, nil
}

func (r *PostgresRepo) ListByUser(ctx context.Context, userID string) ([]UserLoan, error) {
	const sql = `
		SELECT l.id, l.book_id, l.user_id, l.loaned_at, l.due_at, l.returned_at,
		       b.title, b.author
		FROM loans l
		JOIN books b ON b.id = l.book_id
		WHERE l.user_id = $1
		ORDER BY l.loaned_at, l.id`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("list loans for user: %w", err)
	}
	defer rows.Close()

	out := []UserLoan{}
	for rows.Next() {
		var ul UserLoan
		if err := rows.Scan(
			&ul.ID, &ul.BookID, &ul.UserID, &ul.LoanedAt, &ul.DueAt, &ul.ReturnedAt,
			&ul.BookTitle, &ul.BookAuthor,
		); err != nil {
			return nil, fmt.Errorf("scan user loan: %w", err)
		}
		out = append(out, ul)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListAll(ctx context.Context) ([]AdminLoan, error) {
	const sql = `
		SELECT l.id, l.book_id, l.user_id, l.loaned_at, l.due_at, l.returned_at,
		       b.title, b.author,
		       u.name, u.surname, u.email
		FROM loans l
		JOIN books b ON b.id = l.book_id
		JOIN users u ON u.id = l.user_id
		ORDER BY l.loaned_at, l.id`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, sql)
	if err != nil {
		return nil, fmt.Errorf("list all loans: %w", err)
	}
	defer rows.Close()

	out := []AdminLoan{}
	for rows.Next() {
		var al AdminLoan
		if err := rows.Scan(
			&al.ID, &al.BookID, &al.UserID, &al.LoanedAt, &al.DueAt, &al.ReturnedAt,
			&al.BookTitle, &al.BookAuthor,
			&al.UserName, &al.UserSurname, &al.UserEmail,
		); err != nil {
			return nil, fmt.Errorf("scan admin loan: %w", err)
		}
		al.Returned = al.ReturnedAt != nil
		out = append(out, al)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) HasReturnedLoan(ctx context.Context, userID, bookID string) (bool, error) {
	const sql = `
		SELECT EXISTS(
			SELECT 1 FROM loans
			WHERE user_id = $1 AND book_id = $2 AND returned_at IS NOT NULL
		)`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var exists bool
	if err := r.db.QueryRow(timeoutCtx, sql, userID, bookID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check returned loan: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepo) Stats(ctx context.Context) (Stats, error) {
	const sql = `
		SELECT
			(SELECT COUNT(*) FROM books),
			(SELECT COUNT(*) FROM users WHERE role = 'student'),
			(SELECT COUNT(*) FROM loans),
			(SELECT COUNT(*) FROM loans WHERE returned_at IS NULL),
			(SELECT COUNT(*) FROM loans WHERE returned_at IS NOT NULL)`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var s Stats
	err := r.db.QueryRow(timeoutCtx, sql).Scan(
		&s.TotalBooks, &s.TotalStudents, &s.TotalLoans, &s.ActiveLoans, &s.ReturnedLoans,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("loan stats: %w", err)
	}
	return s, nil
}

package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"libraryapi/internal/apperr"
	"libraryapi/internal/store"
)

const foreignKeyViolation = "23503"

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

// Create inserts the review in one statement. The foreign keys carry the
// existence checks, so a book deleted concurrently cannot slip between a
// pre-check and the insert.
func (r *PostgresRepo) Create(ctx context.Context, rv *Review) error {
	const insertSQL = `
		INSERT INTO reviews (id, book_id, user_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if _, err := r.db.Exec(timeoutCtx, insertSQL, rv.ID, rv.BookID, rv.UserID, rv.Rating, rv.Comment, rv.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			if strings.Contains(pgErr.ConstraintName, "user") {
				return apperr.NotFound("user", rv.UserID)
			}
			return apperr.NotFound("book", rv.BookID)
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (r *PostgresRepo) ListByBook(ctx context.Context, bookID string) ([]BookReview, error) {
	existsCtx, cancelExists := r.withTimeout(ctx)
	defer cancelExists()
	var exists bool
	if err := r.db.QueryRow(existsCtx, `SELECT EXISTS(SELECT 1 FROM books WHERE id = $1)`, bookID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check book exists: %w", err)
	}
	if !exists {
		return nil, apperr.NotFound("book", bookID)
	}

	const query = `
		SELECT rv.id, rv.book_id, rv.user_id, rv.rating, rv.comment, rv.created_at,
		       u.name, u.surname
		FROM reviews rv
		JOIN users u ON u.id = rv.user_id
		WHERE rv.book_id = $1
		ORDER BY rv.created_at, rv.id`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, bookID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	out := []BookReview{}
	for rows.Next() {
		var br BookReview
		if err := rows.Scan(
			&br.ID, &br.BookID, &br.UserID, &br.Rating, &br.Comment, &br.CreatedAt,
			&br.ReviewerName, &br.ReviewerSurname,
		); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, br)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Summary(ctx context.Context, bookID string) (Summary, error) {
	const query = `
		SELECT ROUND(AVG(rating)::numeric, 2)::float8, COUNT(*)
		FROM reviews
		WHERE book_id = $1`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var average sql.NullFloat64
	var count int
	if err := r.db.QueryRow(timeoutCtx, query, bookID).Scan(&average, &count); err != nil {
		return Summary{}, fmt.Errorf("review summary: %w", err)
	}
	if !average.Valid {
		return Summary{Count: 0}, nil
	}
	return Summary{Average: &average.Float64, Count: count}, nil
}

func (r *PostgresRepo) HasReview(ctx context.Context, userID, bookID string) (bool, error) {
	const query = `
		SELECT EXISTS(SELECT 1 FROM reviews WHERE user_id = $1 AND book_id = $2)`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var exists bool
	if err := r.db.QueryRow(timeoutCtx, query, userID, bookID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check review exists: %w", err)
	}
	return exists, nil
}

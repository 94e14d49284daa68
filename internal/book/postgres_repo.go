package book

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"libraryapi/internal/apperr"
	"libraryapi/internal/store"
)

const bookColumns = `id, title, author, genre, description, quantity, available_copies, cover_url, created_at, updated_at`

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

func scanBook(row pgx.Row, b *Book) error {
	if err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.Genre, &b.Description,
		&b.Quantity, &b.AvailableCopies, &b.CoverURL,
		&b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return err
	}
	b.Available = b.AvailableCopies > 0
	return nil
}

func (r *PostgresRepo) Search(ctx context.Context, q Query) ([]Book, error) {
	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	if q.Title != "" {
		clauses = append(clauses, fmt.Sprintf("title ILIKE $%d", argn))
		args = append(args, "%"+q.Title+"%")
		argn++
	}

	if q.Genre != "" {
		clauses = append(clauses, fmt.Sprintf("genre = $%d", argn))
		args = append(args, q.Genre)
		argn++
	}

	if q.Author != "" {
		clauses = append(clauses, fmt.Sprintf("author = $%d", argn))
		args = append(args, q.Author)
		argn++
	}

	if q.AvailableOnly {
		clauses = append(clauses, "available_copies > 0")
	}

	sql := fmt.Sprintf(`
		SELECT %s
		FROM books
		WHERE %s
		ORDER BY created_at, id`, bookColumns, strings.Join(clauses, " AND "))

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		var b Book
		if err := scanBook(rows, &b); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Facets(ctx context.Context) (Facets, error) {
	facets := Facets{Genres: []string{}, Authors: []string{}}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	const distinctSQL = `
		SELECT DISTINCT genre, author
		FROM books`
	rows, err := r.db.Query(timeoutCtx, distinctSQL)
	if err != nil {
		return Facets{}, fmt.Errorf("facet query: %w", err)
	}
	defer rows.Close()

	genreSet := map[string]bool{}
	authorSet := map[string]bool{}
	for rows.Next() {
		var genre, author string
		if err := rows.Scan(&genre, &author); err != nil {
			return Facets{}, fmt.Errorf("scan facet row: %w", err)
		}
		genreSet[genre] = true
		authorSet[author] = true
	}
	if err := rows.Err(); err != nil {
		return Facets{}, err
	}

	for g := range genreSet {
		facets.Genres = append(facets.Genres, g)
	}
	for a := range authorSet {
		facets.Authors = append(facets.Authors, a)
	}
	sort.Strings(facets.Genres)
	sort.Strings(facets.Authors)

	const countSQL = `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE available_copies > 0)
		FROM books`
	countCtx, cancelCount := r.withTimeout(ctx)
	defer cancelCount()
	if err := r.db.QueryRow(countCtx, countSQL).Scan(&facets.Total, &facets.Available); err != nil {
		return Facets{}, fmt.Errorf("facet counts: %w", err)
	}

	return facets, nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Book, error) {
	sql := fmt.Sprintf(`
		SELECT %s
		FROM books
		WHERE id = $1`, bookColumns)

	var b Book
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := scanBook(r.db.QueryRow(timeoutCtx, sql, id), &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, apperr.NotFound("book", id)
		}
		return Book{}, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

func (r *PostgresRepo) Create(ctx context.Context, b *Book) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}

	const sql = `
		INSERT INTO books (id, title, author, genre, description, quantity, available_copies, cover_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, sql,
		b.ID, b.Title, b.Author, b.Genre, b.Description, b.Quantity, b.CoverURL,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	b.AvailableCopies = b.Quantity
	b.Available = b.AvailableCopies > 0
	return nil
}

func (r *PostgresRepo) Update(ctx context.Context, b *Book) error {
	// Quantity changes shift available_copies by the same delta so
	// outstanding loans stay accounted for; the floor keeps the count
	// from going negative.
	const sql = `
		UPDATE books
		SET title = $2,
		    author = $3,
		    genre = $4,
		    description = $5,
		    available_copies = GREATEST(available_copies + ($6 - quantity), 0),
		    quantity = $6,
		    cover_url = $7,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING available_copies, created_at, updated_at`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, sql,
		b.ID, b.Title, b.Author, b.Genre, b.Description, b.Quantity, b.CoverURL,
	).Scan(&b.AvailableCopies, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("book", b.ID)
		}
		return fmt.Errorf("update book: %w", err)
	}
	b.Available = b.AvailableCopies > 0
	return nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	const activeLoansSQL = `
		SELECT COUNT(*)
		FROM loans
		WHERE book_id = $1 AND returned_at IS NULL`
	var active int
	if err := r.db.QueryRow(timeoutCtx, activeLoansSQL, id).Scan(&active); err != nil {
		return fmt.Errorf("count active loans: %w", err)
	}
	if active > 0 {
		return apperr.Conflict("book has active loans")
	}

	deleteCtx, cancelDelete := r.withTimeout(ctx)
	defer cancelDelete()
	tag, err := r.db.Exec(deleteCtx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return apperr.Conflict("book has active loans")
		}
		return fmt.Errorf("delete book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("book", id)
	}
	return nil
}

package book

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryapi/internal/apperr"
)

func newMockRepo(t *testing.T) (*PostgresRepo, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresRepo(mock, time.Second), mock
}

func bookRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "title", "author", "genre", "description",
		"quantity", "available_copies", "cover_url", "created_at", "updated_at",
	})
}

func TestSearchFiltersByGenreAndAvailability(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT .+ FROM books`).
		WithArgs("Science Fiction").
		WillReturnRows(bookRows().
			AddRow("b1", "Dune", "Frank Herbert", "Science Fiction", "", 5, 2, nil, now, now))

	books, err := repo.Search(context.Background(), Query{Genre: "Science Fiction", AvailableOnly: true})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)
	assert.True(t, books[0].Available)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchTitleSubstring(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT .+ FROM books`).
		WithArgs("%dune%").
		WillReturnRows(bookRows())

	books, err := repo.Search(context.Background(), Query{Title: "dune"})
	require.NoError(t, err)
	assert.Empty(t, books)
	assert.NotNil(t, books, "empty result must encode as [], not null")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDMapsNoRowsToNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT .+ FROM books`).
		WithArgs("missing").
		WillReturnRows(bookRows())

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInitializesAvailableCopies(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now().UTC()
	b := Book{Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction", Quantity: 4}

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO books`)).
		WithArgs(pgxmock.AnyArg(), "Dune", "Frank Herbert", "Science Fiction", "", 4, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	require.NoError(t, repo.Create(context.Background(), &b))
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, 4, b.AvailableCopies)
	assert.True(t, b.Available)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateShiftsAvailability(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now().UTC()
	b := Book{ID: "b1", Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction", Quantity: 6}

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE books`)).
		WithArgs("b1", "Dune", "Frank Herbert", "Science Fiction", "", 6, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"available_copies", "created_at", "updated_at"}).
			AddRow(3, now, now))

	require.NoError(t, repo.Update(context.Background(), &b))
	assert.Equal(t, 3, b.AvailableCopies)
	assert.True(t, b.Available)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRefusedWhileOnLoan(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*)`)).
		WithArgs("b1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))

	err := repo.Delete(context.Background(), "b1")
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMapsForeignKeyRaceToConflict(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*)`)).
		WithArgs("b1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM books`)).
		WithArgs("b1").
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "loans_book_id_fkey"})

	err := repo.Delete(context.Background(), "b1")
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*)`)).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM books`)).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFacetsSortedAndCounted(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT genre, author`)).
		WillReturnRows(pgxmock.NewRows([]string{"genre", "author"}).
			AddRow("Science Fiction", "Frank Herbert").
			AddRow("Fiction", "George Orwell").
			AddRow("Fiction", "Aldous Huxley"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*)`)).
		WillReturnRows(pgxmock.NewRows([]string{"total", "available"}).AddRow(3, 2))

	facets, err := repo.Facets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Fiction", "Science Fiction"}, facets.Genres)
	assert.Equal(t, []string{"Aldous Huxley", "Frank Herbert", "George Orwell"}, facets.Authors)
	assert.Equal(t, 3, facets.Total)
	assert.Equal(t, 2, facets.Available)
	assert.NoError(t, mock.ExpectationsWereMet())
}

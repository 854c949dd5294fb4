package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voyagery/voyagery-api/internal/apperrors"
	"github.com/voyagery/voyagery-api/internal/database"
)

func setupPostgresSessionStore(t *testing.T) (*PostgresSessionStore, pgxmock.PgxPoolIface, time.Time) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store := NewPostgresSessionStore(&database.DB{Pool: mock}, time.Hour)
	store.now = func() time.Time { return now }
	return store, mock, now
}

func TestPostgresSessionStore_Create(t *testing.T) {
	store, mock, now := setupPostgresSessionStore(t)
	id := uuid.New()

	mock.ExpectQuery(`INSERT INTO sessions \(expires_at\)`).
		WithArgs(now.Add(time.Hour)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "created_at", "expires_at"}).
			AddRow(id, nil, now, now.Add(time.Hour)))

	session, err := store.Create(context.Background())

	require.NoError(t, err)
	assert.Equal(t, id, session.ID)
	assert.Nil(t, session.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSessionStore_Get_Expired(t *testing.T) {
	store, mock, _ := setupPostgresSessionStore(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM sessions WHERE id = \$1 AND expires_at > NOW\(\)`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := store.Get(context.Background(), id)

	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSessionStore_TouchExtendsTabs(t *testing.T) {
	store, mock, now := setupPostgresSessionStore(t)
	id := uuid.New()

	mock.ExpectExec(`WITH touched AS .+ UPDATE session_tabs SET expires_at = \$1`).
		WithArgs(now.Add(time.Hour), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	require.NoError(t, store.Touch(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSessionStore_SetUser_MissingSession(t *testing.T) {
	store, mock, now := setupPostgresSessionStore(t)
	id, userID := uuid.New(), uuid.New()

	mock.ExpectExec(`UPDATE sessions SET user_id = \$1`).
		WithArgs(userID, now.Add(time.Hour), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.SetUser(context.Background(), id, userID)

	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSessionStore_BindTab_Upserts(t *testing.T) {
	store, mock, now := setupPostgresSessionStore(t)
	id, userID := uuid.New(), uuid.New()

	mock.ExpectExec(`INSERT INTO session_tabs .+ ON CONFLICT \(session_id, tab_id\)`).
		WithArgs(id, "tab-a", &userID, now.Add(time.Hour)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.BindTab(context.Background(), id, "tab-a", &userID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSessionStore_BindTab_ExpiredSession(t *testing.T) {
	store, mock, now := setupPostgresSessionStore(t)
	id, userID := uuid.New(), uuid.New()

	mock.ExpectExec(`INSERT INTO session_tabs .+ WHERE EXISTS \(SELECT 1 FROM sessions`).
		WithArgs(id, "tab-a", &userID, now.Add(time.Hour)).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	err := store.BindTab(context.Background(), id, "tab-a", &userID)

	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSessionStore_GetTab(t *testing.T) {
	store, mock, now := setupPostgresSessionStore(t)
	id, userID := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM session_tabs WHERE session_id = \$1 AND tab_id = \$2`).
		WithArgs(id, "tab-a").
		WillReturnRows(pgxmock.NewRows([]string{"session_id", "tab_id", "user_id", "expires_at"}).
			AddRow(id, "tab-a", &userID, now))

	binding, err := store.GetTab(context.Background(), id, "tab-a")

	require.NoError(t, err)
	require.NotNil(t, binding.UserID)
	assert.Equal(t, userID, *binding.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSessionStore_GetTab_Missing(t *testing.T) {
	store, mock, _ := setupPostgresSessionStore(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM session_tabs`).
		WithArgs(id, "tab-z").
		WillReturnError(pgx.ErrNoRows)

	_, err := store.GetTab(context.Background(), id, "tab-z")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSessionStore_CleanupExpired(t *testing.T) {
	store, mock, _ := setupPostgresSessionStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM session_tabs WHERE expires_at <= NOW\(\)`).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec(`DELETE FROM sessions WHERE expires_at <= NOW\(\)`).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectCommit()

	removed, err := store.CleanupExpired(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(5), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

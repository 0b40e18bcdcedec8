package repository

import (
	"context"
	"testing"
	"time"

	"github.com/dimitrije/storefront-admin/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTokenRepository(t *testing.T) (*PgTokenRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPgTokenRepository(&database.DB{Pool: mock}), mock
}

func TestPgTokenRepository_StoreRefreshToken(t *testing.T) {
	repo, mock := setupTokenRepository(t)
	userID := uuid.New()
	expiresAt := time.Now().Add(24 * time.Hour)

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(userID, "abc123hash", expiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.StoreRefreshToken(context.Background(), userID, "abc123hash", expiresAt)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgTokenRepository_ValidateRefreshToken(t *testing.T) {
	repo, mock := setupTokenRepository(t)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT user_id FROM refresh_tokens`).
		WithArgs("valid-hash").
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(userID))

	result, err := repo.ValidateRefreshToken(context.Background(), "valid-hash")

	require.NoError(t, err)
	assert.Equal(t, userID, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgTokenRepository_ValidateRefreshToken_NotFound(t *testing.T) {
	repo, mock := setupTokenRepository(t)

	mock.ExpectQuery(`SELECT user_id FROM refresh_tokens`).
		WithArgs("expired-hash").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.ValidateRefreshToken(context.Background(), "expired-hash")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgTokenRepository_RevokeRefreshToken(t *testing.T) {
	repo, mock := setupTokenRepository(t)

	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE token_hash`).
		WithArgs("to-be-revoked").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	assert.NoError(t, repo.RevokeRefreshToken(context.Background(), "to-be-revoked"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgTokenRepository_RevokeAllUserTokens(t *testing.T) {
	repo, mock := setupTokenRepository(t)
	userID := uuid.New()

	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE user_id`).
		WithArgs(userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	assert.NoError(t, repo.RevokeAllUserTokens(context.Background(), userID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgTokenRepository_CleanupExpired(t *testing.T) {
	repo, mock := setupTokenRepository(t)

	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE expires_at < NOW`).
		WillReturnResult(pgxmock.NewResult("DELETE", 5))

	assert.NoError(t, repo.CleanupExpired(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

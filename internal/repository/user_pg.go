package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimitrije/storefront-admin/internal/database"
	"github.com/dimitrije/storefront-admin/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, email, first_name, last_name, avatar_url, provider, provider_id,
	email_verified, password_hash, role, created_at, updated_at`

type PgUserRepository struct {
	db *database.DB
}

func NewPgUserRepository(db *database.DB) *PgUserRepository {
	return &PgUserRepository{db: db}
}

// FindByProviderOrEmail issues a single OR query and orders the linkage match
// ahead of the email match.
func (r *PgUserRepository) FindByProviderOrEmail(ctx context.Context, provider, providerID, email string) (*models.User, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE (provider = $1 AND provider_id = $2) OR LOWER(email) = LOWER($3)
		ORDER BY CASE WHEN provider = $1 AND provider_id = $2 THEN 0 ELSE 1 END
		LIMIT 1
	`, provider, providerID, email)
	return scanUser(row)
}

func (r *PgUserRepository) Create(ctx context.Context, u NewUser) (*models.User, error) {
	row := r.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, first_name, last_name, avatar_url, provider, provider_id, email_verified, password_hash, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+userColumns,
		u.Email, u.FirstName, u.LastName, u.AvatarURL, u.Provider, u.ProviderID, u.EmailVerified, u.PasswordHash, u.Role,
	)
	user, err := scanUser(row)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("failed to create user %s: %w", u.Email, ErrDuplicate)
		}
		return nil, err
	}
	return user, nil
}

func (r *PgUserRepository) LinkProvider(ctx context.Context, id uuid.UUID, link ProviderLink) (*models.User, error) {
	row := r.db.Pool.QueryRow(ctx, `
		UPDATE users
		SET provider = $1, provider_id = $2, email_verified = TRUE,
			avatar_url = COALESCE(avatar_url, $3), updated_at = NOW()
		WHERE id = $4
		RETURNING `+userColumns,
		link.Provider, link.ProviderID, link.AvatarURL, id,
	)
	user, err := scanUser(row)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("failed to link %s account: %w", link.Provider, ErrDuplicate)
		}
		return nil, err
	}
	return user, nil
}

func (r *PgUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
	return scanUser(row)
}

func (r *PgUserRepository) UpdateName(ctx context.Context, id uuid.UUID, firstName, lastName string) (*models.User, error) {
	row := r.db.Pool.QueryRow(ctx, `
		UPDATE users SET first_name = $1, last_name = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING `+userColumns,
		firstName, lastName, id,
	)
	return scanUser(row)
}

func (r *PgUserRepository) SetRole(ctx context.Context, id uuid.UUID, role string) (*models.User, error) {
	row := r.db.Pool.QueryRow(ctx, `
		UPDATE users SET role = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+userColumns,
		role, id,
	)
	return scanUser(row)
}

func (r *PgUserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.AvatarURL,
		&user.Provider, &user.ProviderID, &user.EmailVerified, &user.PasswordHash,
		&user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

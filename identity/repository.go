package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles data access for identities.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (Identity, error)
	GetByEmail(ctx context.Context, email string) (Identity, error)
	GetByUID(ctx context.Context, uid string) (Identity, error)
	UpdateProfile(ctx context.Context, uid, displayName, photoURL string) (Identity, error)
	UpdatePasswordHash(ctx context.Context, uid, passwordHash string) error
}

// CreateParams contains write parameters for creating identities.
type CreateParams struct {
	UID          string
	Email        string
	DisplayName  string
	PhotoURL     string
	Provider     Provider
	PasswordHash string
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed identity repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const identityColumns = "uid, email, display_name, photo_url, provider, password_hash, created_at, updated_at"

// Create inserts a new identity.
func (r *PGRepository) Create(ctx context.Context, params CreateParams) (Identity, error) {
	const insertSQL = `
		INSERT INTO identities (uid, email, display_name, photo_url, provider, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + identityColumns

	id, err := scanIdentity(r.pool.QueryRow(ctx, insertSQL,
		params.UID, params.Email, params.DisplayName, params.PhotoURL, params.Provider, params.PasswordHash))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Identity{}, ErrEmailInUse
		}
		return Identity{}, classify(fmt.Errorf("identity: create: %w", err))
	}

	return id, nil
}

// GetByEmail retrieves an identity by email address.
func (r *PGRepository) GetByEmail(ctx context.Context, email string) (Identity, error) {
	const selectSQL = `SELECT ` + identityColumns + ` FROM identities WHERE email = $1`

	id, err := scanIdentity(r.pool.QueryRow(ctx, selectSQL, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, ErrNotFound
		}
		return Identity{}, classify(fmt.Errorf("identity: get by email: %w", err))
	}

	return id, nil
}

// GetByUID retrieves an identity by its uid.
func (r *PGRepository) GetByUID(ctx context.Context, uid string) (Identity, error) {
	const selectSQL = `SELECT ` + identityColumns + ` FROM identities WHERE uid = $1`

	id, err := scanIdentity(r.pool.QueryRow(ctx, selectSQL, uid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, ErrNotFound
		}
		return Identity{}, classify(fmt.Errorf("identity: get by uid: %w", err))
	}

	return id, nil
}

// UpdateProfile rewrites the display name and photo URL of an identity.
func (r *PGRepository) UpdateProfile(ctx context.Context, uid, displayName, photoURL string) (Identity, error) {
	const updateSQL = `
		UPDATE identities
		SET display_name = $2, photo_url = $3, updated_at = now()
		WHERE uid = $1
		RETURNING ` + identityColumns

	id, err := scanIdentity(r.pool.QueryRow(ctx, updateSQL, uid, displayName, photoURL))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, ErrNotFound
		}
		return Identity{}, classify(fmt.Errorf("identity: update profile: %w", err))
	}

	return id, nil
}

// UpdatePasswordHash rewrites the stored password hash.
func (r *PGRepository) UpdatePasswordHash(ctx context.Context, uid, passwordHash string) error {
	const updateSQL = `
		UPDATE identities
		SET password_hash = $2, updated_at = now()
		WHERE uid = $1
	`

	tag, err := r.pool.Exec(ctx, updateSQL, uid, passwordHash)
	if err != nil {
		return classify(fmt.Errorf("identity: update password: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanIdentity(row pgx.Row) (Identity, error) {
	var (
		id           Identity
		displayName  *string
		photoURL     *string
		passwordHash *string
	)
	err := row.Scan(
		&id.UID,
		&id.Email,
		&displayName,
		&photoURL,
		&id.Provider,
		&passwordHash,
		&id.CreatedAt,
		&id.UpdatedAt,
	)
	if err != nil {
		return Identity{}, err
	}

	if displayName != nil {
		id.DisplayName = *displayName
	}
	if photoURL != nil {
		id.PhotoURL = *photoURL
	}
	if passwordHash != nil {
		id.PasswordHash = *passwordHash
	}
	return id, nil
}

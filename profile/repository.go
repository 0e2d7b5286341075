package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals that no profile document exists for the key.
var ErrNotFound = errors.New("profile: record not found")

// Store is the document-style access contract of the profile store:
// read by id, merge-write by id, and field-equality lookups.
type Store interface {
	Get(ctx context.Context, uid string) (Record, error)
	// SetMerge upserts the record. Empty incoming fields never clobber
	// values already stored.
	SetMerge(ctx context.Context, uid string, record Record) error
	FindByUsername(ctx context.Context, username string) (Record, error)
	FindByEmail(ctx context.Context, email string) (Record, error)
}

// PGStore implements Store backed by PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewStore creates a PostgreSQL-backed profile store.
func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const recordColumns = "username, email, phone, dob, referral_code, role, created_at"

// Get retrieves the profile document for a uid.
func (s *PGStore) Get(ctx context.Context, uid string) (Record, error) {
	const selectSQL = `SELECT ` + recordColumns + ` FROM profiles WHERE uid = $1`

	rec, err := scanRecord(s.pool.QueryRow(ctx, selectSQL, uid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("profile: get: %w", err)
	}
	return rec, nil
}

// SetMerge upserts the document for a uid with merge semantics: empty
// fields in the incoming record keep whatever is stored.
func (s *PGStore) SetMerge(ctx context.Context, uid string, record Record) error {
	const upsertSQL = `
		INSERT INTO profiles (uid, username, email, phone, dob, referral_code, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (uid) DO UPDATE SET
			username      = COALESCE(NULLIF(EXCLUDED.username, ''), profiles.username),
			email         = COALESCE(NULLIF(EXCLUDED.email, ''), profiles.email),
			phone         = COALESCE(NULLIF(EXCLUDED.phone, ''), profiles.phone),
			dob           = COALESCE(NULLIF(EXCLUDED.dob, ''), profiles.dob),
			referral_code = COALESCE(NULLIF(EXCLUDED.referral_code, ''), profiles.referral_code),
			role          = COALESCE(NULLIF(EXCLUDED.role, ''), profiles.role)
	`

	_, err := s.pool.Exec(ctx, upsertSQL,
		uid, record.Username, record.Email, record.Phone, record.DOB,
		record.ReferralCode, record.Role, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("profile: set merge: %w", err)
	}
	return nil
}

// FindByUsername retrieves a profile by exact username equality.
func (s *PGStore) FindByUsername(ctx context.Context, username string) (Record, error) {
	const selectSQL = `SELECT ` + recordColumns + ` FROM profiles WHERE username = $1`

	rec, err := scanRecord(s.pool.QueryRow(ctx, selectSQL, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("profile: find by username: %w", err)
	}
	return rec, nil
}

// FindByEmail retrieves a profile by exact email equality.
func (s *PGStore) FindByEmail(ctx context.Context, email string) (Record, error) {
	const selectSQL = `SELECT ` + recordColumns + ` FROM profiles WHERE email = $1`

	rec, err := scanRecord(s.pool.QueryRow(ctx, selectSQL, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("profile: find by email: %w", err)
	}
	return rec, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		rec      Record
		username *string
		email    *string
		phone    *string
		dob      *string
		referral *string
		role     *string
	)
	err := row.Scan(&username, &email, &phone, &dob, &referral, &role, &rec.CreatedAt)
	if err != nil {
		return Record{}, err
	}

	assign := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	assign(&rec.Username, username)
	assign(&rec.Email, email)
	assign(&rec.Phone, phone)
	assign(&rec.DOB, dob)
	assign(&rec.ReferralCode, referral)
	assign(&rec.Role, role)
	return rec, nil
}

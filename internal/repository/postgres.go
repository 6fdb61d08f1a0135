package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ramtsps/Art-Academy-Website/internal/domain"
)

// Compile-time interface assertion.
var _ UserRepository = (*PostgresUserRepo)(nil)

const userColumns = `id, name, email, password_hash, google_id, facebook_id, avatar, provider, reset_password_otp, reset_password_expires, created_at`

// PostgresUserRepo implements UserRepository on a pgx pool.
type PostgresUserRepo struct {
	db *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{db: pool}
}

func (r *PostgresUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, email))
}

func (r *PostgresUserRepo) GetByID(ctx context.Context, id int64) (domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *PostgresUserRepo) GetByEmailOrProviderID(ctx context.Context, email, provider, providerID string) (domain.User, error) {
	var column string
	switch provider {
	case domain.ProviderGoogle:
		column = "google_id"
	case domain.ProviderFacebook:
		column = "facebook_id"
	default:
		return domain.User{}, fmt.Errorf("unknown provider %q", provider)
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 OR ` + column + ` = $2 LIMIT 1`
	return r.scanOne(r.db.QueryRow(ctx, query, email, providerID))
}

func (r *PostgresUserRepo) GetByEmailAndValidOTP(ctx context.Context, email, otp string, now time.Time) (domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE email = $1 AND reset_password_otp = $2 AND reset_password_expires > $3`
	return r.scanOne(r.db.QueryRow(ctx, query, email, otp, now))
}

func (r *PostgresUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	const query = `INSERT INTO users (id, name, email, password_hash, google_id, facebook_id, avatar, provider, reset_password_otp, reset_password_expires, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + userColumns
	row := r.db.QueryRow(ctx, query,
		user.ID, user.Name, user.Email,
		nullString(user.PasswordHash), nullString(user.GoogleID), nullString(user.FacebookID),
		nullString(user.Avatar), user.Provider,
		nullString(user.ResetOTP), nullTime(user.ResetExpires), user.CreatedAt,
	)
	created, err := r.scanOne(row)
	if err != nil {
		return domain.User{}, mapWriteError(err, "insert user")
	}
	return created, nil
}

func (r *PostgresUserRepo) Update(ctx context.Context, user domain.User) error {
	const query = `UPDATE users SET
		name = $2, email = $3, password_hash = $4, google_id = $5, facebook_id = $6,
		avatar = $7, provider = $8, reset_password_otp = $9, reset_password_expires = $10
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, query,
		user.ID, user.Name, user.Email,
		nullString(user.PasswordHash), nullString(user.GoogleID), nullString(user.FacebookID),
		nullString(user.Avatar), user.Provider,
		nullString(user.ResetOTP), nullTime(user.ResetExpires),
	)
	if err != nil {
		return mapWriteError(err, "update user")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepo) scanOne(row pgx.Row) (domain.User, error) {
	var (
		u            domain.User
		passwordHash sql.NullString
		googleID     sql.NullString
		facebookID   sql.NullString
		avatar       sql.NullString
		resetOTP     sql.NullString
		resetExpires sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &passwordHash, &googleID, &facebookID,
		&avatar, &u.Provider, &resetOTP, &resetExpires, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.PasswordHash = passwordHash.String
	u.GoogleID = googleID.String
	u.FacebookID = facebookID.String
	u.Avatar = avatar.String
	u.ResetOTP = resetOTP.String
	u.ResetExpires = resetExpires.Time
	return u, nil
}

func mapWriteError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrDuplicateEmail
	}
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"automedon/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines methods for interacting with user and profile
// storage.
type RepositoryInterface interface {
	FindByID(ctx context.Context, userID string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByPasswordResetToken(ctx context.Context, token string) (*models.User, error)

	CreateInactiveUser(ctx context.Context, email, passwordHash, role, activationToken string, expiresAt time.Time) (*models.User, error)
	ActivateUser(ctx context.Context, token string) (*models.User, error)
	CreateOAuthUser(ctx context.Context, email, provider, providerID string) (*models.User, error)
	UpdateActivationToken(ctx context.Context, userID, newToken string, expiresAt time.Time) error
	SetPasswordResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	UpdatePasswordAndClearResetToken(ctx context.Context, userID, passwordHash string) error

	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, data models.ProfileUpdateRequest) (*models.Profile, error)
	SetAvatarURL(ctx context.Context, userID, url string) error
	GetUserEmail(ctx context.Context, userID string) (string, error)
	ListUsers(ctx context.Context, page, limit int) ([]*models.User, int, error)
}

// Repository implements RepositoryInterface on PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new user repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const userColumns = `id, email, password_hash, role, auth_provider, auth_provider_id, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.AuthProvider,
		&u.AuthProviderID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return u, nil
}

func (r *Repository) FindByID(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return u, nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByEmail: %w", err)
	}
	return u, nil
}

func (r *Repository) FindByPasswordResetToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE password_reset_token = $1 AND password_reset_expires_at > NOW()`
	u, err := scanUser(r.db.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByPasswordResetToken: %w", err)
	}
	return u, nil
}

// CreateInactiveUser inserts a user awaiting email activation and its empty
// profile row in one transaction.
func (r *Repository) CreateInactiveUser(ctx context.Context, email, passwordHash, role, activationToken string, expiresAt time.Time) (*models.User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository.CreateInactiveUser.Begin: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO users (email, password_hash, role, auth_provider, is_active, activation_token, activation_expires_at)
		VALUES ($1, $2, $3, 'local', FALSE, $4, $5)
		RETURNING ` + userColumns

	u, err := scanUser(tx.QueryRow(ctx, query, email, passwordHash, role, activationToken, expiresAt))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, models.ErrConflict
		}
		return nil, fmt.Errorf("repository.CreateInactiveUser: %w", err)
	}

	if _, err := tx.Exec(ctx, `INSERT INTO profiles (user_id, role) VALUES ($1, $2)`, u.ID, role); err != nil {
		return nil, fmt.Errorf("repository.CreateInactiveUser.Profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("repository.CreateInactiveUser.Commit: %w", err)
	}
	return u, nil
}

// ActivateUser flips a user active given a valid, unexpired activation token.
func (r *Repository) ActivateUser(ctx context.Context, token string) (*models.User, error) {
	query := `
		UPDATE users
		SET is_active = TRUE, activation_token = NULL, activation_expires_at = NULL, updated_at = NOW()
		WHERE activation_token = $1 AND activation_expires_at > NOW()
		RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.ActivateUser: %w", err)
	}
	return u, nil
}

// CreateOAuthUser inserts an already-active user authenticated by an external
// provider, with the default client role and an empty profile.
func (r *Repository) CreateOAuthUser(ctx context.Context, email, provider, providerID string) (*models.User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository.CreateOAuthUser.Begin: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO users (email, password_hash, role, auth_provider, auth_provider_id, is_active)
		VALUES ($1, '', $2, $3, $4, TRUE)
		RETURNING ` + userColumns

	u, err := scanUser(tx.QueryRow(ctx, query, email, models.RoleClient, provider, providerID))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, models.ErrConflict
		}
		return nil, fmt.Errorf("repository.CreateOAuthUser: %w", err)
	}

	if _, err := tx.Exec(ctx, `INSERT INTO profiles (user_id, role) VALUES ($1, $2)`, u.ID, u.Role); err != nil {
		return nil, fmt.Errorf("repository.CreateOAuthUser.Profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("repository.CreateOAuthUser.Commit: %w", err)
	}
	return u, nil
}

func (r *Repository) UpdateActivationToken(ctx context.Context, userID, newToken string, expiresAt time.Time) error {
	query := `UPDATE users SET activation_token = $1, activation_expires_at = $2, updated_at = NOW() WHERE id = $3`
	cmdTag, err := r.db.Exec(ctx, query, newToken, expiresAt, userID)
	if err != nil {
		return fmt.Errorf("repository.UpdateActivationToken: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *Repository) SetPasswordResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	query := `UPDATE users SET password_reset_token = $1, password_reset_expires_at = $2, updated_at = NOW() WHERE id = $3`
	cmdTag, err := r.db.Exec(ctx, query, token, expiresAt, userID)
	if err != nil {
		return fmt.Errorf("repository.SetPasswordResetToken: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *Repository) UpdatePasswordAndClearResetToken(ctx context.Context, userID, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $1, password_reset_token = NULL, password_reset_expires_at = NULL, updated_at = NOW()
		WHERE id = $2`
	cmdTag, err := r.db.Exec(ctx, query, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("repository.UpdatePasswordAndClearResetToken: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

const profileColumns = `user_id, role, first_name, last_name, company_name, phone, address,
	postal_code, city, siret, licence_number, licence_date, birth_date, languages, avatar_url,
	created_at, updated_at`

func scanProfile(row pgx.Row) (*models.Profile, error) {
	p := &models.Profile{}
	err := row.Scan(
		&p.UserID, &p.Role, &p.FirstName, &p.LastName, &p.CompanyName, &p.Phone,
		&p.Address, &p.PostalCode, &p.City, &p.Siret, &p.LicenceNumber,
		&p.LicenceDate, &p.BirthDate, &p.Languages, &p.AvatarURL,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}
	p.IsComplete = p.Complete()
	return p, nil
}

// GetProfile retrieves a user's profile. Completeness is computed on the way
// out, never read from storage.
func (r *Repository) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	p, err := scanProfile(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.GetProfile: %w", err)
	}
	return p, nil
}

// UpdateProfile applies the non-nil fields of the request.
func (r *Repository) UpdateProfile(ctx context.Context, userID string, data models.ProfileUpdateRequest) (*models.Profile, error) {
	var setClauses []string
	var args []interface{}
	argIdx := 1

	add := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if data.FirstName != nil {
		add("first_name", *data.FirstName)
	}
	if data.LastName != nil {
		add("last_name", *data.LastName)
	}
	if data.CompanyName != nil {
		add("company_name", *data.CompanyName)
	}
	if data.Phone != nil {
		add("phone", *data.Phone)
	}
	if data.Address != nil {
		add("address", *data.Address)
	}
	if data.PostalCode != nil {
		add("postal_code", *data.PostalCode)
	}
	if data.City != nil {
		add("city", *data.City)
	}
	if data.Siret != nil {
		add("siret", *data.Siret)
	}
	if data.LicenceNumber != nil {
		add("licence_number", *data.LicenceNumber)
	}
	if data.LicenceDate != nil {
		add("licence_date", *data.LicenceDate)
	}
	if data.BirthDate != nil {
		add("birth_date", *data.BirthDate)
	}
	if data.Languages != nil {
		add("languages", data.Languages)
	}

	if len(setClauses) == 0 {
		return r.GetProfile(ctx, userID)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, userID)

	query := fmt.Sprintf(`
		UPDATE profiles SET %s
		WHERE user_id = $%d
		RETURNING `+profileColumns,
		strings.Join(setClauses, ", "), argIdx)

	p, err := scanProfile(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.UpdateProfile: %w", err)
	}
	return p, nil
}

func (r *Repository) SetAvatarURL(ctx context.Context, userID, url string) error {
	cmdTag, err := r.db.Exec(ctx, `UPDATE profiles SET avatar_url = $1, updated_at = NOW() WHERE user_id = $2`, url, userID)
	if err != nil {
		return fmt.Errorf("repository.SetAvatarURL: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *Repository) GetUserEmail(ctx context.Context, userID string) (string, error) {
	var email string
	err := r.db.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, userID).Scan(&email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", models.ErrNotFound
		}
		return "", fmt.Errorf("repository.GetUserEmail: %w", err)
	}
	return email, nil
}

// ListUsers retrieves all users with pagination (admin use).
func (r *Repository) ListUsers(ctx context.Context, page, limit int) ([]*models.User, int, error) {
	offset := (page - 1) * limit
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.ListUsers.Query: %w", err)
	}
	defer rows.Close()

	var list []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repository.ListUsers.Scan: %w", err)
		}
		u.PasswordHash = ""
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository.ListUsers.Rows: %w", err)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository.ListUsers.Count: %w", err)
	}
	return list, total, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"ratemyfit/model"
)

// ErrDuplicateUser is returned when an insert or update collides with the
// store-level unique constraints (email, username, provider ID).
var ErrDuplicateUser = errors.New("user with this email, username or provider ID already exists")

// UserRepository defines the interface for user data operations.
// Lookups return (nil, nil) when no record matches.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByProvider(ctx context.Context, provider model.Provider, providerID string) (*model.User, error)
	LinkProvider(ctx context.Context, userID int64, provider model.Provider, providerID string) error
	UpdateAvatar(ctx context.Context, userID int64, avatarURL string) error
	UpdateProfile(ctx context.Context, userID int64, username, displayName, bio string) error
	FinalizeUsername(ctx context.Context, userID int64, username, displayName string) error
	SetEmailVerified(ctx context.Context, userID int64) error
}

// mysqlUserRepository implements UserRepository for MySQL.
type mysqlUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new mysqlUserRepository.
func NewMySQLUserRepository(db *sql.DB) UserRepository {
	return &mysqlUserRepository{db: db}
}

// userColumns merges the two legacy avatar columns into one canonical value at
// the store boundary: photo_url wins when both are set, matching the old
// documents where either field could be authoritative.
const userColumns = `id, email, username,
	COALESCE(display_name, ''),
	COALESCE(bio, ''),
	COALESCE(photo_url, avatar, ''),
	COALESCE(password_hash, ''),
	COALESCE(google_id, ''),
	COALESCE(github_id, ''),
	is_new_user, email_verified, created_at, updated_at`

func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Email, &user.Username, &user.DisplayName,
		&user.Bio, &user.AvatarURL, &user.PasswordHash, &user.GoogleID, &user.GitHubID,
		&user.IsNewUser, &user.EmailVerified, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // user not found
		}
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}
	return user, nil
}

// nullable maps "" to NULL so the unique provider-ID columns ignore
// records without a link.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// CreateUser adds a new user to the database. Both avatar columns are written
// with the same value so legacy readers stay consistent.
func (r *mysqlUserRepository) CreateUser(ctx context.Context, user *model.User) (int64, error) {
	query := `INSERT INTO users
		(email, username, display_name, avatar, photo_url, password_hash, google_id, github_id, is_new_user, email_verified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		user.Email, user.Username, nullable(user.DisplayName),
		nullable(user.AvatarURL), nullable(user.AvatarURL),
		nullable(user.PasswordHash), nullable(user.GoogleID), nullable(user.GitHubID),
		user.IsNewUser, user.EmailVerified)
	if err != nil {
		if isDuplicateEntry(err) {
			return 0, ErrDuplicateUser
		}
		return 0, fmt.Errorf("failed to execute create user statement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for user: %w", err)
	}
	user.ID = id
	return id, nil
}

// GetUserByID retrieves a user by their ID.
func (r *mysqlUserRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetUserByEmail retrieves a user by their email address.
func (r *mysqlUserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = ?"
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// GetUserByUsername retrieves a user by their username (case-sensitive exact match).
func (r *mysqlUserRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE BINARY username = ?"
	return scanUser(r.db.QueryRowContext(ctx, query, username))
}

// GetUserByProvider retrieves a user by a linked provider identifier.
func (r *mysqlUserRepository) GetUserByProvider(ctx context.Context, provider model.Provider, providerID string) (*model.User, error) {
	column, err := providerColumn(provider)
	if err != nil {
		return nil, err
	}
	query := "SELECT " + userColumns + " FROM users WHERE " + column + " = ?"
	return scanUser(r.db.QueryRowContext(ctx, query, providerID))
}

// LinkProvider writes a provider identifier onto an existing record,
// preserving the password hash and any other provider links.
func (r *mysqlUserRepository) LinkProvider(ctx context.Context, userID int64, provider model.Provider, providerID string) error {
	column, err := providerColumn(provider)
	if err != nil {
		return err
	}
	query := "UPDATE users SET " + column + " = ?, updated_at = NOW() WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, query, providerID, userID); err != nil {
		if isDuplicateEntry(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("failed to link %s provider for user %d: %w", provider, userID, err)
	}
	return nil
}

// UpdateAvatar overwrites both legacy avatar columns with the given URL.
func (r *mysqlUserRepository) UpdateAvatar(ctx context.Context, userID int64, avatarURL string) error {
	query := "UPDATE users SET avatar = ?, photo_url = ?, updated_at = NOW() WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, query, avatarURL, avatarURL, userID); err != nil {
		return fmt.Errorf("failed to update avatar for user %d: %w", userID, err)
	}
	return nil
}

// UpdateProfile updates the username, display name and bio of an existing account.
func (r *mysqlUserRepository) UpdateProfile(ctx context.Context, userID int64, username, displayName, bio string) error {
	query := "UPDATE users SET username = ?, display_name = ?, bio = ?, updated_at = NOW() WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, query, username, displayName, nullable(bio), userID); err != nil {
		if isDuplicateEntry(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("failed to update profile for user %d: %w", userID, err)
	}
	return nil
}

// FinalizeUsername sets the chosen username and permanently clears the
// new-user flag.
func (r *mysqlUserRepository) FinalizeUsername(ctx context.Context, userID int64, username, displayName string) error {
	query := "UPDATE users SET username = ?, display_name = ?, is_new_user = FALSE, updated_at = NOW() WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, query, username, displayName, userID); err != nil {
		if isDuplicateEntry(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("failed to finalize username for user %d: %w", userID, err)
	}
	return nil
}

// SetEmailVerified marks the user's email address as verified.
func (r *mysqlUserRepository) SetEmailVerified(ctx context.Context, userID int64) error {
	query := "UPDATE users SET email_verified = TRUE, updated_at = NOW() WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to set email verified for user %d: %w", userID, err)
	}
	return nil
}

func providerColumn(provider model.Provider) (string, error) {
	switch provider {
	case model.ProviderGoogle:
		return "google_id", nil
	case model.ProviderGitHub:
		return "github_id", nil
	default:
		return "", fmt.Errorf("unknown provider %q", provider)
	}
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratemyfit/model"
)

var userCols = []string{
	"id", "email", "username", "display_name", "bio", "avatar", "password_hash",
	"google_id", "github_id", "is_new_user", "email_verified", "created_at", "updated_at",
}

func userRow(id int64, email, username, avatar string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userCols).
		AddRow(id, email, username, "Display", "", avatar, "", "g-1", "", false, true, now, now)
}

func TestGetUserByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMySQLUserRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE email`).
		WithArgs("alice@example.com").
		WillReturnRows(userRow(5, "alice@example.com", "alice", "/uploads/a.png"))

	user, err := repo.GetUserByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, int64(5), user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "/uploads/a.png", user.AvatarURL)
	assert.Equal(t, "g-1", user.GoogleID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByEmailNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMySQLUserRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE email`).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows(userCols))

	user, err := repo.GetUserByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err, "a miss is not an error")
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMySQLUserRepository(db)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnResult(sqlmock.NewResult(42, 1))

	user := &model.User{Email: "bob@example.com", Username: "bob"}
	id, err := repo.CreateUser(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, int64(42), user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMySQLUserRepository(db)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err = repo.CreateUser(context.Background(), &model.User{Email: "bob@example.com", Username: "bob"})
	assert.ErrorIs(t, err, ErrDuplicateUser)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByProvider(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMySQLUserRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE google_id`).
		WithArgs("g-1").
		WillReturnRows(userRow(7, "carol@example.com", "carol", ""))

	user, err := repo.GetUserByProvider(context.Background(), model.ProviderGoogle, "g-1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, int64(7), user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByProviderUnknown(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMySQLUserRepository(db)

	_, err = repo.GetUserByProvider(context.Background(), model.Provider("myspace"), "x")
	assert.Error(t, err)
}

func TestLinkProvider(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMySQLUserRepository(db)

	mock.ExpectExec(`UPDATE users SET github_id`).
		WithArgs("gh-9", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.LinkProvider(context.Background(), 3, model.ProviderGitHub, "gh-9"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAvatarWritesBothColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMySQLUserRepository(db)

	mock.ExpectExec(`UPDATE users SET avatar = (.+), photo_url = (.+)`).
		WithArgs("/uploads/new.png", "/uploads/new.png", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateAvatar(context.Background(), 3, "/uploads/new.png"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfileWritesBio(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMySQLUserRepository(db)

	mock.ExpectExec(`UPDATE users SET username = (.+), display_name = (.+), bio = (.+)`).
		WithArgs("carol", "Carol", "Fit enthusiast", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateProfile(context.Background(), 7, "carol", "Carol", "Fit enthusiast"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalizeUsernameDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMySQLUserRepository(db)

	mock.ExpectExec(`UPDATE users SET username`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err = repo.FinalizeUsername(context.Background(), 3, "taken", "Taken")
	assert.ErrorIs(t, err, ErrDuplicateUser)
	assert.NoError(t, mock.ExpectationsWereMet())
}

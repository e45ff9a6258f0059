package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/GoArmGo/CampusEvents/internal/domain"
	"github.com/GoArmGo/CampusEvents/internal/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestChangesToColumns(t *testing.T) {
	now := time.Now()

	cols := changesToColumns(domain.PostChanges{Name: "Jazz", Slug: "jazz"}, now)
	assert.Equal(t, "Jazz", cols["name"])
	assert.Equal(t, "", cols["address"], "blank fields are written")
	assert.NotContains(t, cols, "image_key")

	cols = changesToColumns(domain.PostChanges{Name: "Jazz", ReplaceImage: true, FileImg: "u", ImageKey: "k"}, now)
	assert.Equal(t, "k", cols["image_key"])
	assert.Equal(t, "u", cols["file_img"])
}

func TestPostRecordToDomain(t *testing.T) {
	owner := uuid.New()
	rec := postRecord{
		ID:     uuid.New(),
		Name:   "Jazz",
		UserID: owner,
		Owner:  &userRecord{ID: owner, Username: "alice", Email: "alice@example.com"},
	}

	p := rec.toDomain(false)
	require.NotNil(t, p.User)
	assert.Equal(t, "alice", p.User.Username)
	assert.Empty(t, p.User.Email)

	p = rec.toDomain(true)
	assert.Equal(t, "alice@example.com", p.User.Email)

	rec.Owner = nil
	p = rec.toDomain(true)
	assert.Equal(t, owner, p.User.ID)
}

func TestUserRecordRoundTrip(t *testing.T) {
	u := &domain.User{ID: uuid.New(), Username: "alice", Email: "a@x.io", PasswordHash: "h"}
	assert.Equal(t, u, userFromDomain(u).toDomain())
}

func TestGormCountPosts(t *testing.T) {
	db, mock := newMockGorm(t)
	s := NewGormPostStorage(db, logger.Discard())

	mock.ExpectQuery(`SELECT count\(\*\) FROM "posts"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	n, err := s.CountPosts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestGormGetUserNotFound(t *testing.T) {
	db, mock := newMockGorm(t)
	s := NewGormUserStorage(db, logger.Discard())

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE username = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetUserByUsername(context.Background(), "ghost")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestGormOwnsPost(t *testing.T) {
	db, mock := newMockGorm(t)
	s := NewGormPostStorage(db, logger.Discard())

	postID, userID := uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "posts" WHERE id = \$1 AND user_id = \$2`).
		WithArgs(postID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	owned, err := s.OwnsPost(context.Background(), postID, userID)
	require.NoError(t, err)
	assert.True(t, owned)
}

func TestGormDeleteOwnedPostReturnsOwner(t *testing.T) {
	db, mock := newMockGorm(t)
	s := NewGormPostStorage(db, logger.Discard())

	postID, userID := uuid.New(), uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "posts" WHERE id = \$1 AND user_id = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug", "image_key", "user_id"}).
			AddRow(postID.String(), "Jazz Night", "jazz-night", "events/a.png", userID.String()))
	mock.ExpectExec(`DELETE FROM "posts" WHERE id = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p, err := s.DeleteOwnedPost(context.Background(), postID, userID)
	require.NoError(t, err)
	assert.Equal(t, "events/a.png", p.ImageKey)
	require.NotNil(t, p.User)
	assert.Equal(t, userID, p.User.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

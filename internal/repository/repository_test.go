package repository

import (
	"testing"
	"time"

	"murmur/internal/database"
	"murmur/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// baseTime is whole-second UTC so SQLite text timestamps compare in order.
var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()
	u := models.User{Name: name, Email: name + "@example.com", CreatedAt: baseTime, UpdatedAt: baseTime}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func seedPost(t *testing.T, db *gorm.DB, userID uint, at time.Time) models.Post {
	t.Helper()
	p := models.Post{UserID: userID, Content: "post at " + at.Format(time.TimeOnly), CreatedAt: at, UpdatedAt: at}
	require.NoError(t, db.Omit("User").Create(&p).Error)
	return p
}

func seedComment(t *testing.T, db *gorm.DB, postID, userID uint, parent *models.Comment, at time.Time) models.Comment {
	t.Helper()
	c := models.Comment{PostID: postID, UserID: userID, Content: "comment", CreatedAt: at, UpdatedAt: at}
	if parent != nil {
		c.ParentID = &parent.ID
		c.Depth = parent.Depth + 1
	}
	require.NoError(t, db.Omit("User").Create(&c).Error)
	return c
}

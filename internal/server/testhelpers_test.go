package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"murmur/internal/config"
	"murmur/internal/database"
	"murmur/internal/middleware"
	"murmur/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MockObjectStore is a testify mock for ObjectStore.
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) PresignPut(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) PublicURL(key string) string {
	return m.Called(key).String(0)
}

func (m *MockObjectStore) CheckBucket(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type testEnv struct {
	srv *Server
	app *fiber.App
	db  *gorm.DB
	rdb *redis.Client
	mr  *miniredis.Miniredis
}

func newTestEnv(t *testing.T, objects ObjectStore) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		JWTSecret:    testSecret,
		FeatureFlags: "realtime=on,uploads=on",
	}
	srv, err := NewServerWithDeps(cfg, db, rdb, objects)
	require.NoError(t, err)

	return &testEnv{srv: srv, app: srv.NewApp(), db: db, rdb: rdb, mr: mr}
}

func (e *testEnv) user(t *testing.T, name string) models.User {
	t.Helper()
	u := models.User{Name: name, Email: name + "@example.com"}
	require.NoError(t, e.db.Create(&u).Error)
	return u
}

func (e *testEnv) token(t *testing.T, userID uint) string {
	t.Helper()
	tok, err := middleware.IssueToken(testSecret, userID, time.Hour)
	require.NoError(t, err)
	return tok
}

// do sends a request and decodes a JSON response into out when out is non-nil.
func (e *testEnv) do(t *testing.T, method, path, token, body string, out any) int {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out), "%s %s", method, path)
	}
	return resp.StatusCode
}

// assertNoKey fails if key appears at any level of a decoded JSON value.
func assertNoKey(t *testing.T, v any, key string) {
	t.Helper()
	switch val := v.(type) {
	case map[string]any:
		assert.NotContains(t, val, key)
		for _, child := range val {
			assertNoKey(t, child, key)
		}
	case []any:
		for _, child := range val {
			assertNoKey(t, child, key)
		}
	}
}

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"murmur/internal/config"
	"murmur/internal/featureflags"
	"murmur/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func TestServer_AuthRequired(t *testing.T) {
	s := &Server{
		config: &config.Config{JWTSecret: testSecret},
	}
	app := fiber.New()

	app.Get("/protected", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"userID": c.Locals("userID")})
	})

	generateToken := func(userID uint, issuer, audience string, exp time.Duration) string {
		claims := jwt.MapClaims{
			"sub": strconv.FormatUint(uint64(userID), 10),
			"iss": issuer,
			"aud": audience,
			"exp": time.Now().Add(exp).Unix(),
			"jti": "test-jti-valid-length",
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		str, _ := token.SignedString([]byte(testSecret))
		return str
	}

	tests := []struct {
		name           string
		authHeader     string
		tokenParam     string
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "Valid Token",
			authHeader:     "Bearer " + generateToken(123, middleware.TokenIssuer, middleware.TokenAudience, time.Hour),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Query Param Token Is Ignored",
			tokenParam:     generateToken(123, middleware.TokenIssuer, middleware.TokenAudience, time.Hour),
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Authorization required",
		},
		{
			name:           "Expired Token",
			authHeader:     "Bearer " + generateToken(123, middleware.TokenIssuer, middleware.TokenAudience, -time.Hour),
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Invalid or expired token",
		},
		{
			name:           "Invalid Issuer",
			authHeader:     "Bearer " + generateToken(123, "wrong-issuer", middleware.TokenAudience, time.Hour),
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Invalid token issuer",
		},
		{
			name:           "Invalid Audience",
			authHeader:     "Bearer " + generateToken(123, middleware.TokenIssuer, "wrong-audience", time.Hour),
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Invalid token issuer",
		},
		{
			name:           "Missing Header",
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Authorization required",
		},
		{
			name:           "Malformed Bearer Format",
			authHeader:     "Token abc",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := "/protected"
			if tt.tokenParam != "" {
				url += "?token=" + tt.tokenParam
			}
			req := httptest.NewRequest(http.MethodGet, url, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, float64(123), body["userID"])
			} else if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, body["error"])
			}
		})
	}
}

func TestServer_AuthRequired_RevokedToken(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s := &Server{config: &config.Config{JWTSecret: testSecret}, redis: rdb}
	app := fiber.New()
	app.Get("/protected", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	claims := jwt.MapClaims{
		"sub": "9",
		"iss": middleware.TokenIssuer,
		"aud": middleware.TokenAudience,
		"exp": time.Now().Add(time.Hour).Unix(),
		"jti": "revoked-jti",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, do())

	require.NoError(t, rdb.Set(context.Background(), blacklistPrefix+"revoked-jti", "1", time.Hour).Err())
	assert.Equal(t, http.StatusUnauthorized, do())
}

func TestServer_OptionalUserID(t *testing.T) {
	s := &Server{config: &config.Config{JWTSecret: testSecret}}
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"viewer": s.optionalUserID(c)})
	})

	token, err := middleware.IssueToken(testSecret, 5, time.Minute)
	require.NoError(t, err)

	for header, want := range map[string]float64{
		"Bearer " + token:     5,
		"Bearer not-a-token":  0,
		"":                    0,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		var body map[string]float64
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		_ = resp.Body.Close()
		assert.Equal(t, want, body["viewer"], "header %q", header)
	}
}

func TestServer_RequireFlag(t *testing.T) {
	s := &Server{featureFlags: featureflags.NewManager("uploads=off,realtime=on")}
	app := fiber.New()
	app.Get("/uploads", s.requireFlag(featureflags.Uploads), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/realtime", s.requireFlag(featureflags.Realtime), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/uploads", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/realtime", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHandlers_CommentThread(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	carol := env.user(t, "carol")
	aliceTok, bobTok := env.token(t, alice.ID), env.token(t, bob.ID)

	var post service.PostView
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/posts", aliceTok, `{"content":"hello"}`, &post))

	var root service.CommentView
	path := fmt.Sprintf("/api/posts/%d/comments", post.ID)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, path, bobTok, `{"content":"first"}`, &root))
	assert.Equal(t, 0, root.Depth)
	assert.Equal(t, "bob", root.Author.Name)

	var reply service.CommentView
	body := fmt.Sprintf(`{"content":"reply","parentId":%d}`, root.ID)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, path, aliceTok, body, &reply))
	assert.Equal(t, 1, reply.Depth)

	var liked map[string]bool
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, fmt.Sprintf("/api/comments/%d/like", reply.ID), bobTok, "", &liked))
	assert.True(t, liked["liked"])

	t.Run("viewer sees own likes", func(t *testing.T) {
		var thread []service.CommentView
		require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, path, bobTok, "", &thread))
		require.Len(t, thread, 1)
		require.Len(t, thread[0].Replies, 1)
		assert.Equal(t, 1, thread[0].Replies[0].LikeCount)
		assert.True(t, thread[0].Replies[0].IsLiked)
	})

	t.Run("anonymous viewer", func(t *testing.T) {
		var thread []service.CommentView
		require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, path, "", "", &thread))
		require.Len(t, thread, 1)
		assert.False(t, thread[0].Replies[0].IsLiked)
	})

	t.Run("strangers may not delete", func(t *testing.T) {
		var errBody models.ErrorResponse
		status := env.do(t, http.MethodDelete, fmt.Sprintf("/api/comments/%d", root.ID), env.token(t, carol.ID), "", &errBody)
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("deleted root keeps replies", func(t *testing.T) {
		var deleted map[string]bool
		require.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, fmt.Sprintf("/api/comments/%d", root.ID), bobTok, "", &deleted))
		assert.True(t, deleted["deleted"])

		var thread []service.CommentView
		require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, path, "", "", &thread))
		require.Len(t, thread, 1)
		assert.True(t, thread[0].IsDeleted)
		assert.Equal(t, models.DeletedCommentPlaceholder, thread[0].Content)
		require.Len(t, thread[0].Replies, 1)
		assert.Equal(t, "reply", thread[0].Replies[0].Content)
	})

	t.Run("liking a deleted comment is rejected", func(t *testing.T) {
		var errBody models.ErrorResponse
		status := env.do(t, http.MethodPost, fmt.Sprintf("/api/comments/%d/like", root.ID), aliceTok, "", &errBody)
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestHandlers_CreateComment_Validation(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.user(t, "alice")
	tok := env.token(t, alice.ID)

	var post service.PostView
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/posts", tok, `{"content":"p"}`, &post))

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"empty content", fmt.Sprintf("/api/posts/%d/comments", post.ID), `{"content":"  "}`, http.StatusBadRequest},
		{"missing post", "/api/posts/999/comments", `{"content":"x"}`, http.StatusNotFound},
		{"missing parent", fmt.Sprintf("/api/posts/%d/comments", post.ID), `{"content":"x","parentId":999}`, http.StatusNotFound},
		{"bad post id", "/api/posts/abc/comments", `{"content":"x"}`, http.StatusBadRequest},
		{"bad body", fmt.Sprintf("/api/posts/%d/comments", post.ID), `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var errBody models.ErrorResponse
			assert.Equal(t, tt.status, env.do(t, http.MethodPost, tt.path, tok, tt.body, &errBody))
			assert.NotEmpty(t, errBody.Error)
		})
	}
}

func TestHandlers_PostLikeToggle(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	bobTok := env.token(t, bob.ID)

	var post service.PostView
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/posts", env.token(t, alice.ID), `{"content":"like me"}`, &post))

	likePath := fmt.Sprintf("/api/posts/%d/like", post.ID)
	var res map[string]bool
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, likePath, bobTok, "", &res))
	assert.True(t, res["liked"])

	var got service.PostView
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), bobTok, "", &got))
	assert.Equal(t, 1, got.LikeCount)
	assert.True(t, got.Liked)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, likePath, bobTok, "", &res))
	assert.False(t, res["liked"])

	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), bobTok, "", &got))
	assert.Equal(t, 0, got.LikeCount)
	assert.False(t, got.Liked)

	var errBody models.ErrorResponse
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/posts/999/like", bobTok, "", &errBody))
}

func TestHandlers_WritesRequireAuth(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/api/posts"},
		{http.MethodPost, "/api/posts/1/like"},
		{http.MethodPost, "/api/posts/1/comments"},
		{http.MethodPost, "/api/comments/1/like"},
		{http.MethodDelete, "/api/comments/1"},
		{http.MethodGet, "/api/users/me"},
		{http.MethodPost, "/api/users/1/follow"},
		{http.MethodGet, "/api/feed/following"},
		{http.MethodGet, "/api/storage/upload-url"},
	} {
		var errBody models.ErrorResponse
		status := env.do(t, route.method, route.path, "", "", &errBody)
		assert.Equal(t, http.StatusUnauthorized, status, "%s %s", route.method, route.path)
	}

	var posts []service.PostView
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/posts", "", "", &posts))
	assert.Empty(t, posts)
}

func TestHandlers_FollowAndFeed(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	carol := env.user(t, "carol")
	aliceTok := env.token(t, alice.ID)

	t.Run("empty feed without followees", func(t *testing.T) {
		var page []service.PostView
		require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/feed/following", aliceTok, "", &page))
		assert.NotNil(t, page)
		assert.Empty(t, page)
	})

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, author := range []uint{bob.ID, carol.ID, bob.ID, bob.ID} {
		at := base.Add(time.Duration(i) * time.Minute)
		p := models.Post{UserID: author, Content: fmt.Sprintf("post %d", i), CreatedAt: at, UpdatedAt: at}
		require.NoError(t, env.db.Omit("User").Create(&p).Error)
	}

	var follow map[string]bool
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, fmt.Sprintf("/api/users/%d/follow", bob.ID), aliceTok, "", &follow))
	assert.True(t, follow["following"])
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, fmt.Sprintf("/api/users/%d/follow", bob.ID), aliceTok, "", &follow))
	assert.True(t, follow["following"])

	var errBody models.ErrorResponse
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, fmt.Sprintf("/api/users/%d/follow", alice.ID), aliceTok, "", &errBody))
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/users/999/follow", aliceTok, "", &errBody))

	t.Run("feed pages through followee posts", func(t *testing.T) {
		var first []service.PostView
		require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/feed/following?limit=2", aliceTok, "", &first))
		require.Len(t, first, 2)
		assert.Equal(t, "post 3", first[0].Content)
		assert.Equal(t, "post 2", first[1].Content)

		var second []service.PostView
		next := fmt.Sprintf("/api/feed/following?limit=2&cursor=%d", first[1].ID)
		require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, next, aliceTok, "", &second))
		require.Len(t, second, 1)
		assert.Equal(t, "post 0", second[0].Content)
		assert.Equal(t, bob.ID, second[0].UserID)
		assert.Equal(t, "bob", second[0].Author.Name)
	})

	t.Run("feed hides author email", func(t *testing.T) {
		var raw []map[string]any
		require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/feed/following", aliceTok, "", &raw))
		require.NotEmpty(t, raw)
		for _, p := range raw {
			assertNoKey(t, p, "email")
		}

		var global []map[string]any
		require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/posts", "", "", &global))
		for _, p := range global {
			assertNoKey(t, p, "email")
		}

		var one map[string]any
		require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, fmt.Sprintf("/api/posts/%d", uint(raw[0]["id"].(float64))), "", "", &one))
		assertNoKey(t, one, "email")
	})

	t.Run("invalid cursor", func(t *testing.T) {
		var errBody models.ErrorResponse
		assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/feed/following?cursor=abc", aliceTok, "", &errBody))
	})

	t.Run("profile and lists", func(t *testing.T) {
		var profile models.PublicUser
		require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d", bob.ID), aliceTok, "", &profile))
		assert.Equal(t, int64(1), profile.FollowerCount)
		assert.True(t, profile.IsFollowing)

		var followers []models.UserSummary
		require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/followers", bob.ID), "", "", &followers))
		require.Len(t, followers, 1)
		assert.Equal(t, alice.ID, followers[0].ID)

		var following []models.UserSummary
		require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/following", alice.ID), "", "", &following))
		require.Len(t, following, 1)
		assert.Equal(t, bob.ID, following[0].ID)

		var me models.User
		require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/users/me", aliceTok, "", &me))
		assert.Equal(t, "alice@example.com", me.Email)
	})

	t.Run("unfollow empties the feed", func(t *testing.T) {
		var res map[string]bool
		require.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d/follow", bob.ID), aliceTok, "", &res))
		assert.False(t, res["following"])

		var page []service.PostView
		require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/feed/following", aliceTok, "", &page))
		assert.Empty(t, page)
	})
}

func TestHandlers_UploadURL(t *testing.T) {
	store := new(MockObjectStore)
	store.On("PresignPut", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "uploads/") && strings.HasSuffix(key, ".png")
	}), service.UploadURLTTL).Return("https://s3.local/signed", nil).Once()
	store.On("PublicURL", mock.AnythingOfType("string")).Return("https://cdn.local/object")

	env := newTestEnv(t, store)
	alice := env.user(t, "alice")
	tok := env.token(t, alice.ID)

	var out service.UploadURL
	status := env.do(t, http.MethodGet, "/api/storage/upload-url?filename=cat.png&contentType=image/png&size=1024", tok, "", &out)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "https://s3.local/signed", out.UploadURL)
	assert.Equal(t, "https://cdn.local/object", out.PublicURL)
	assert.Contains(t, out.ObjectKey, fmt.Sprintf("uploads/%d/", alice.ID))

	var errBody models.ErrorResponse
	assert.Equal(t, http.StatusBadRequest,
		env.do(t, http.MethodGet, "/api/storage/upload-url?filename=a.exe&contentType=application/x-msdownload&size=10", tok, "", &errBody))
	assert.Equal(t, http.StatusBadRequest,
		env.do(t, http.MethodGet, "/api/storage/upload-url?size=10", tok, "", &errBody))

	store.AssertExpectations(t)
}

func TestHandlers_UploadURL_Unconfigured(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.user(t, "alice")

	var errBody models.ErrorResponse
	status := env.do(t, http.MethodGet, "/api/storage/upload-url?filename=a.png&contentType=image/png&size=10", env.token(t, alice.ID), "", &errBody)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestHandlers_FeatureFlags(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.user(t, "alice")

	var out struct {
		Raw       map[string]string `json:"raw"`
		Evaluated map[string]bool   `json:"evaluated"`
	}
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/feature-flags", env.token(t, alice.ID), "", &out))
	assert.Equal(t, "on", out.Raw["uploads"])
	assert.True(t, out.Evaluated["realtime"])
}

func TestHandlers_Health(t *testing.T) {
	store := new(MockObjectStore)
	store.On("CheckBucket", mock.Anything).Return(nil)
	env := newTestEnv(t, store)

	var live map[string]any
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/live", "", "", &live))

	var ready map[string]any
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/ready", "", "", &ready))
	assert.Equal(t, "healthy", ready["status"])
	assert.Equal(t, float64(0), ready["connections"])

	env.mr.Close()
	assert.Equal(t, http.StatusServiceUnavailable, env.do(t, http.MethodGet, "/health/ready", "", "", &ready))
	assert.Equal(t, "unhealthy", ready["status"])
}

func TestHandlers_CommentPublishesToPostAuthor(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")

	var post service.PostView
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/posts", env.token(t, alice.ID), `{"content":"p"}`, &post))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sub := env.rdb.Subscribe(ctx, notifications.UserChannel(alice.ID))
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	var c service.CommentView
	require.Equal(t, http.StatusCreated,
		env.do(t, http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", post.ID), env.token(t, bob.ID), `{"content":"hi"}`, &c))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var ev struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
	assert.Equal(t, notifications.EventCommentCreated, ev.Type)
	assert.Equal(t, float64(c.ID), ev.Payload["comment_id"])
}

func TestHandlers_WebsocketRequiresUpgrade(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.user(t, "alice")

	var body map[string]any
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/ws", "", "", &body))
	assert.Equal(t, http.StatusUpgradeRequired, env.do(t, http.MethodGet, "/api/ws", env.token(t, alice.ID), "", &body))
	assert.Equal(t, "websocket upgrade required", body["error"])
}

func TestHandlers_CommentThreadLimit(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.user(t, "alice")

	var post service.PostView
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/posts", env.token(t, alice.ID), `{"content":"busy"}`, &post))

	roots := make([]models.Comment, maxThreadLimit+5)
	for i := range roots {
		roots[i] = models.Comment{PostID: post.ID, UserID: alice.ID, Content: fmt.Sprintf("c%d", i)}
	}
	require.NoError(t, env.db.Omit("User").Create(&roots).Error)

	tests := []struct {
		query string
		want  int
	}{
		{"", service.DefaultThreadLimit},
		{"?limit=0", service.DefaultThreadLimit},
		{"?limit=7", 7},
		{"?limit=1000", maxThreadLimit},
	}
	for _, tt := range tests {
		t.Run("limit"+tt.query, func(t *testing.T) {
			var thread []service.CommentView
			require.Equal(t, http.StatusOK,
				env.do(t, http.MethodGet, fmt.Sprintf("/api/posts/%d/comments%s", post.ID, tt.query), "", "", &thread))
			assert.Len(t, thread, tt.want)
		})
	}
}

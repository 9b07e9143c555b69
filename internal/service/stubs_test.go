package service

import (
	"context"
	"errors"
	"testing"

	"murmur/internal/models"
	"murmur/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	getByIDFn    func(context.Context, uint) (*models.Comment, error)
	listByPostFn func(context.Context, uint) ([]*models.Comment, error)
	softDeleteFn func(context.Context, uint) error
	likedIDsFn   func(context.Context, uint, uint) ([]uint, error)
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) SoftDelete(ctx context.Context, id uint) error {
	return s.softDeleteFn(ctx, id)
}
func (s *commentRepoStub) LikedCommentIDs(ctx context.Context, userID, postID uint) ([]uint, error) {
	return s.likedIDsFn(ctx, userID, postID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:     func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn:    func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id, PostID: 1}, nil },
		listByPostFn: func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
		softDeleteFn: func(_ context.Context, _ uint) error { return nil },
		likedIDsFn:   func(_ context.Context, _, _ uint) ([]uint, error) { return nil, nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn        func(context.Context, *models.Post) error
	getByIDFn       func(context.Context, uint) (*models.Post, error)
	resolveCursorFn func(context.Context, uint, []uint) (*repository.PostCursor, error)
	listFn          func(context.Context, int, *repository.PostCursor) ([]*models.Post, error)
	listByAuthorsFn func(context.Context, []uint, int, *repository.PostCursor) ([]*models.Post, error)
	likedPostIDsFn  func(context.Context, uint, []uint) ([]uint, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) ResolveCursor(ctx context.Context, postID uint, authorIDs []uint) (*repository.PostCursor, error) {
	return s.resolveCursorFn(ctx, postID, authorIDs)
}
func (s *postRepoStub) List(ctx context.Context, limit int, after *repository.PostCursor) ([]*models.Post, error) {
	return s.listFn(ctx, limit, after)
}
func (s *postRepoStub) ListByAuthors(ctx context.Context, authorIDs []uint, limit int, after *repository.PostCursor) ([]*models.Post, error) {
	return s.listByAuthorsFn(ctx, authorIDs, limit, after)
}
func (s *postRepoStub) LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	return s.likedPostIDsFn(ctx, userID, postIDs)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:        func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn:       func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id, UserID: 1}, nil },
		resolveCursorFn: func(_ context.Context, _ uint, _ []uint) (*repository.PostCursor, error) { return nil, nil },
		listFn:          func(_ context.Context, _ int, _ *repository.PostCursor) ([]*models.Post, error) { return nil, nil },
		listByAuthorsFn: func(_ context.Context, _ []uint, _ int, _ *repository.PostCursor) ([]*models.Post, error) { return nil, nil },
		likedPostIDsFn:  func(_ context.Context, _ uint, _ []uint) ([]uint, error) { return nil, nil },
	}
}

// likeRepoStub is a stub for repository.LikeRepository.
type likeRepoStub struct {
	toggleCommentFn func(context.Context, uint, uint) (bool, error)
	togglePostFn    func(context.Context, uint, uint) (bool, error)
}

func (s *likeRepoStub) ToggleCommentLike(ctx context.Context, userID, commentID uint) (bool, error) {
	return s.toggleCommentFn(ctx, userID, commentID)
}
func (s *likeRepoStub) TogglePostLike(ctx context.Context, userID, postID uint) (bool, error) {
	return s.togglePostFn(ctx, userID, postID)
}

func noopLikeRepo() *likeRepoStub {
	return &likeRepoStub{
		toggleCommentFn: func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		togglePostFn:    func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
	}
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	createFn         func(context.Context, uint, uint) (bool, error)
	deleteFn         func(context.Context, uint, uint) (bool, error)
	existsFn         func(context.Context, uint, uint) (bool, error)
	followingIDsFn   func(context.Context, uint) ([]uint, error)
	countFollowingFn func(context.Context, uint) (int64, error)
	countFollowersFn func(context.Context, uint) (int64, error)
	listFollowingFn  func(context.Context, uint, int, int) ([]models.UserSummary, error)
	listFollowersFn  func(context.Context, uint, int, int) ([]models.UserSummary, error)
}

func (s *followRepoStub) Create(ctx context.Context, a, b uint) (bool, error) {
	return s.createFn(ctx, a, b)
}
func (s *followRepoStub) Delete(ctx context.Context, a, b uint) (bool, error) {
	return s.deleteFn(ctx, a, b)
}
func (s *followRepoStub) Exists(ctx context.Context, a, b uint) (bool, error) {
	return s.existsFn(ctx, a, b)
}
func (s *followRepoStub) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.followingIDsFn(ctx, userID)
}
func (s *followRepoStub) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	return s.countFollowingFn(ctx, userID)
}
func (s *followRepoStub) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	return s.countFollowersFn(ctx, userID)
}
func (s *followRepoStub) ListFollowing(ctx context.Context, userID uint, limit, offset int) ([]models.UserSummary, error) {
	return s.listFollowingFn(ctx, userID, limit, offset)
}
func (s *followRepoStub) ListFollowers(ctx context.Context, userID uint, limit, offset int) ([]models.UserSummary, error) {
	return s.listFollowersFn(ctx, userID, limit, offset)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		createFn:         func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		deleteFn:         func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		existsFn:         func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		followingIDsFn:   func(_ context.Context, _ uint) ([]uint, error) { return []uint{}, nil },
		countFollowingFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		countFollowersFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		listFollowingFn:  func(_ context.Context, _ uint, _, _ int) ([]models.UserSummary, error) { return nil, nil },
		listFollowersFn:  func(_ context.Context, _ uint, _, _ int) ([]models.UserSummary, error) { return nil, nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn    func(context.Context, uint) (*models.User, error)
	getByEmailFn func(context.Context, string) (*models.User, error)
	existsFn     func(context.Context, uint) (bool, error)
	createFn     func(context.Context, *models.User) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:    func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id, Name: "user"}, nil },
		getByEmailFn: func(_ context.Context, _ string) (*models.User, error) { return nil, models.NewNotFoundMessage("User not found") },
		existsFn:     func(_ context.Context, _ uint) (bool, error) { return true, nil },
		createFn:     func(_ context.Context, _ *models.User) error { return nil },
	}
}

func assertAppError(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) *models.AppError {
	t.Helper()
	return assertAppError(t, err, models.CodeValidation)
}

func assertNotFoundError(t *testing.T, err error) *models.AppError {
	t.Helper()
	return assertAppError(t, err, models.CodeNotFound)
}

func uintPtr(v uint) *uint { return &v }

// Package seed generates demo data for development databases and tests.
package seed

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"murmur/internal/models"
	"murmur/internal/observability"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options tune a Factory.
type Options struct {
	// DryRun assigns synthetic ids instead of writing.
	DryRun bool
	// MaxDays spreads created_at timestamps over the last MaxDays days.
	MaxDays int
	// RandSeed makes generated content reproducible when non-zero.
	RandSeed int64
}

// Factory builds domain entities and persists them.
type Factory struct {
	db     *gorm.DB
	opts   Options
	faker  *gofakeit.Faker
	now    time.Time
	nextID uint
}

// NewFactory creates a Factory bound to db. db may be nil in DryRun mode.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	return &Factory{
		db:     db,
		opts:   opts,
		faker:  gofakeit.New(seed),
		now:    time.Now().UTC().Truncate(time.Second),
		nextID: 1000,
	}
}

// pastTime returns a random moment within the configured window.
func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.faker.Number(0, f.opts.MaxDays*24*60)) * time.Minute
	return f.now.Add(-back)
}

// after returns a random moment between t and now.
func (f *Factory) after(t time.Time) time.Time {
	window := int(f.now.Sub(t) / time.Minute)
	if window <= 0 {
		return t
	}
	return t.Add(time.Duration(f.faker.Number(1, window)) * time.Minute)
}

func (f *Factory) chance(p float64) bool {
	return f.faker.Float64() < p
}

func (f *Factory) create(v any, id *uint) error {
	if f.opts.DryRun {
		f.nextID++
		if id != nil {
			*id = f.nextID
		}
		return nil
	}
	return f.db.Create(v).Error
}

// CreateUser builds and persists a user. Overrides run before the insert.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	name := f.faker.Name()
	handle := strings.ToLower(strings.ReplaceAll(name, " ", "."))
	avatar := fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID())
	created := f.pastTime()

	user := &models.User{
		Name:      name,
		Email:     fmt.Sprintf("%s.%s@example.com", handle, f.faker.LetterN(6)),
		Image:     &avatar,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, override := range overrides {
		override(user)
	}

	if err := f.create(user, &user.ID); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// BuildPost returns an unsaved post by author. About a third carry media.
func (f *Factory) BuildPost(author *models.User, overrides ...func(*models.Post)) *models.Post {
	created := f.after(author.CreatedAt)
	post := &models.Post{
		UserID:    author.ID,
		Content:   f.faker.Paragraph(1, f.faker.Number(1, 4), 12, " "),
		CreatedAt: created,
		UpdatedAt: created,
	}
	if f.chance(0.35) {
		for i := 0; i < f.faker.Number(1, 3); i++ {
			post.MediaURLs = append(post.MediaURLs,
				fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID()))
		}
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists posts in one statement.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, p := range posts {
			f.nextID++
			p.ID = f.nextID
		}
		observability.Logger.Debug("dry-run posts", slog.Int("count", len(posts)))
		return nil
	}
	return f.db.Omit("User").CreateInBatches(posts, 200).Error
}

// CreateComment persists a comment on post. A non-nil parent makes it a
// reply one level below the parent.
func (f *Factory) CreateComment(author *models.User, post *models.Post, parent *models.Comment) (*models.Comment, error) {
	since := post.CreatedAt
	if parent != nil {
		since = parent.CreatedAt
	}
	created := f.after(since)

	comment := &models.Comment{
		PostID:    post.ID,
		UserID:    author.ID,
		Content:   f.faker.Sentence(f.faker.Number(3, 18)),
		CreatedAt: created,
		UpdatedAt: created,
	}
	if parent != nil {
		if parent.Depth >= models.MaxCommentDepth {
			return nil, fmt.Errorf("parent comment %d is at max depth", parent.ID)
		}
		comment.ParentID = &parent.ID
		comment.Depth = parent.Depth + 1
	}

	if f.opts.DryRun {
		f.nextID++
		comment.ID = f.nextID
		return comment, nil
	}
	if err := f.db.Omit("User").Create(comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// SoftDeleteComment marks c deleted the way the API does.
func (f *Factory) SoftDeleteComment(c *models.Comment) error {
	at := f.after(c.CreatedAt)
	c.DeletedAt = &at
	if f.opts.DryRun {
		return nil
	}
	return f.db.Model(&models.Comment{}).Where("id = ?", c.ID).Update("deleted_at", at).Error
}

// CreateFollow persists follower -> following.
func (f *Factory) CreateFollow(follower, following *models.User) error {
	return f.create(&models.Follow{
		FollowerID:  follower.ID,
		FollowingID: following.ID,
		CreatedAt:   f.after(maxTime(follower.CreatedAt, following.CreatedAt)),
	}, nil)
}

// CreatePostLike persists a like row. Counters are reconciled by the Seeder.
func (f *Factory) CreatePostLike(user *models.User, post *models.Post) error {
	return f.create(&models.PostLike{UserID: user.ID, PostID: post.ID, CreatedAt: f.after(post.CreatedAt)}, nil)
}

// CreateCommentLike persists a comment like row.
func (f *Factory) CreateCommentLike(user *models.User, c *models.Comment) error {
	return f.create(&models.CommentLike{UserID: user.ID, CommentID: c.ID, CreatedAt: f.after(c.CreatedAt)}, nil)
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

package seed

import (
	"context"
	"fmt"
	"log/slog"

	"murmur/internal/models"
	"murmur/internal/observability"

	"gorm.io/gorm"
)

// Result counts what a run inserted.
type Result struct {
	Users           int
	Follows         int
	Posts           int
	Comments        int
	DeletedComments int
	PostLikes       int
	CommentLikes    int
}

// Seeder fills a database according to a Preset.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder returns a Seeder writing to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts)}
}

// ClearAll removes every row the seeder can create.
func (s *Seeder) ClearAll(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if db.Dialector.Name() == "postgres" {
		return db.Exec(`TRUNCATE TABLE comment_likes, post_likes, comments, follows, posts, users RESTART IDENTITY CASCADE`).Error
	}
	for _, m := range []any{&models.CommentLike{}, &models.PostLike{}, &models.Comment{}, &models.Follow{}, &models.Post{}, &models.User{}} {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
			return err
		}
	}
	return nil
}

// Run generates users, follows, posts, threads and likes. Stored like
// counters are recomputed from the inserted rows at the end.
func (s *Seeder) Run(ctx context.Context, p Preset) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.MaxDays > 0 {
		s.factory.opts.MaxDays = p.MaxDays
	}
	log := observability.Logger
	f := s.factory
	res := &Result{}

	users := make([]*models.User, 0, p.Users)
	for i := 0; i < p.Users; i++ {
		u, err := f.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	res.Users = len(users)
	log.InfoContext(ctx, "seeded users", slog.Int("count", res.Users))

	for i, follower := range users {
		for _, j := range f.pick(len(users), p.FollowsPerUser, i) {
			if err := f.CreateFollow(follower, users[j]); err != nil {
				return nil, err
			}
			res.Follows++
		}
	}
	log.InfoContext(ctx, "seeded follows", slog.Int("count", res.Follows))

	posts := make([]*models.Post, 0, p.Users*p.PostsPerUser)
	for _, u := range users {
		for i := 0; i < p.PostsPerUser; i++ {
			posts = append(posts, f.BuildPost(u))
		}
	}
	if err := f.CreatePostsBatch(posts); err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	res.Posts = len(posts)
	log.InfoContext(ctx, "seeded posts", slog.Int("count", res.Posts))

	for _, post := range posts {
		thread := make([]*models.Comment, 0, p.CommentsPerPost)
		for i := 0; i < p.CommentsPerPost; i++ {
			author := users[f.faker.Number(0, len(users)-1)]

			var parent *models.Comment
			if len(thread) > 0 && f.chance(p.ReplyRatio) {
				candidate := thread[f.faker.Number(0, len(thread)-1)]
				if candidate.Depth < models.MaxCommentDepth {
					parent = candidate
				}
			}

			c, err := f.CreateComment(author, post, parent)
			if err != nil {
				return nil, err
			}
			thread = append(thread, c)
			res.Comments++
		}

		var live []*models.Comment
		for _, c := range thread {
			if f.chance(p.DeletedRatio) {
				if err := f.SoftDeleteComment(c); err != nil {
					return nil, err
				}
				res.DeletedComments++
				continue
			}
			live = append(live, c)
		}

		for _, j := range f.pick(len(users), p.LikesPerPost, -1) {
			if err := f.CreatePostLike(users[j], post); err != nil {
				return nil, err
			}
			res.PostLikes++
		}

		if len(live) > 0 {
			seen := map[[2]uint]struct{}{}
			for n := 0; n < p.CommentLikesPerPost; n++ {
				c := live[f.faker.Number(0, len(live)-1)]
				u := users[f.faker.Number(0, len(users)-1)]
				key := [2]uint{u.ID, c.ID}
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				if err := f.CreateCommentLike(u, c); err != nil {
					return nil, err
				}
				res.CommentLikes++
			}
		}
	}
	log.InfoContext(ctx, "seeded threads",
		slog.Int("comments", res.Comments),
		slog.Int("deleted", res.DeletedComments),
		slog.Int("post_likes", res.PostLikes),
		slog.Int("comment_likes", res.CommentLikes),
	)

	if !f.opts.DryRun {
		if err := s.RecountLikes(ctx); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// RecountLikes sets every stored like counter to the number of like rows.
func (s *Seeder) RecountLikes(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.Exec(`UPDATE posts SET like_count = (SELECT COUNT(*) FROM post_likes WHERE post_likes.post_id = posts.id)`).Error; err != nil {
		return fmt.Errorf("recount post likes: %w", err)
	}
	if err := db.Exec(`UPDATE comments SET like_count = (SELECT COUNT(*) FROM comment_likes WHERE comment_likes.comment_id = comments.id)`).Error; err != nil {
		return fmt.Errorf("recount comment likes: %w", err)
	}
	return nil
}

// pick returns up to k distinct indexes in [0,n) excluding skip.
func (f *Factory) pick(n, k, skip int) []int {
	idx := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if i != skip {
			idx = append(idx, i)
		}
	}
	f.faker.ShuffleInts(idx)
	if k < len(idx) {
		idx = idx[:k]
	}
	return idx
}

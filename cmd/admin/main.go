// Command admin manages local accounts and mints development tokens.
// Production identities come from the external provider.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"murmur/internal/config"
	"murmur/internal/database"
	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/repository"

	"gorm.io/gorm"
)

const usage = `Usage:
  admin create-user <name> <email>   Create a user and print its id
  admin token <user_id> [ttl]        Print a signed access token (default ttl 24h)
  admin list-users [limit]           List the newest users`

func main() {
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	if err := run(context.Background(), cfg, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string) error {
	switch args[0] {
	case "token":
		if len(args) < 2 {
			return errors.New(usage)
		}
		return issueToken(cfg, args[1:])
	case "create-user", "list-users":
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	if args[0] == "create-user" {
		if len(args) < 3 {
			return errors.New(usage)
		}
		return createUser(ctx, db, args[1], args[2])
	}
	limit := 20
	if len(args) > 1 {
		if limit, err = strconv.Atoi(args[1]); err != nil || limit <= 0 {
			return fmt.Errorf("invalid limit %q", args[1])
		}
	}
	return listUsers(ctx, db, limit)
}

func issueToken(cfg *config.Config, args []string) error {
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil || id == 0 {
		return fmt.Errorf("invalid user id %q", args[0])
	}
	ttl := 24 * time.Hour
	if len(args) > 1 {
		if ttl, err = time.ParseDuration(args[1]); err != nil {
			return fmt.Errorf("invalid ttl: %w", err)
		}
	}
	if cfg.IsProduction() {
		return errors.New("refusing to mint tokens in production")
	}

	token, err := middleware.IssueToken(cfg.JWTSecret, uint(id), ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func createUser(ctx context.Context, db *gorm.DB, name, email string) error {
	name, email = strings.TrimSpace(name), strings.ToLower(strings.TrimSpace(email))
	if name == "" || !strings.Contains(email, "@") {
		return errors.New("a name and a valid email are required")
	}

	user := &models.User{Name: name, Email: email}
	if err := repository.NewUserRepository(db).Create(ctx, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	fmt.Printf("created user %d (%s)\n", user.ID, user.Email)
	return nil
}

func listUsers(ctx context.Context, db *gorm.DB, limit int) error {
	var users []models.User
	if err := db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&users).Error; err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tCREATED")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.CreatedAt.Format(time.DateOnly))
	}
	return w.Flush()
}

package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"murmur/internal/config"
	"murmur/internal/observability"

	"gorm.io/gorm"
)

// Schema modes accepted in DB_SCHEMA_MODE.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// ErrSQLNeedsPostgres is returned when SQL mode is forced on another dialect.
// The embedded scripts use BIGSERIAL, TIMESTAMPTZ and CHECK constraints.
var ErrSQLNeedsPostgres = errors.New("sql schema mode requires postgres")

// SchemaPlan is what ApplySchema will do for a given config and dialect.
type SchemaPlan struct {
	Mode    string
	Env     string
	Dialect string
	SQL     bool
	Auto    bool
}

// SchemaStatus is the plan plus the migration ledger and any registered model
// whose table is missing.
type SchemaStatus struct {
	SchemaPlan
	Applied       []SchemaMigration
	Pending       []Migration
	MissingTables []string
}

func isProdLikeEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "staging", "stage":
		return true
	}
	return false
}

// PlanSchema decides between the embedded SQL migrations and AutoMigrate.
//
//   - sql: scripts only; postgres only.
//   - auto: AutoMigrate only; refused in production-like envs unless
//     DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE is set.
//   - hybrid (default): scripts on postgres, plus AutoMigrate outside
//     production. Other dialects get AutoMigrate alone.
func PlanSchema(cfg *config.Config, dialect string) (SchemaPlan, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))
	if mode == "" {
		mode = SchemaModeHybrid
	}
	plan := SchemaPlan{Mode: mode, Env: cfg.Env, Dialect: dialect}
	postgres := dialect == "postgres"
	prodLike := isProdLikeEnv(cfg.Env)

	switch mode {
	case SchemaModeSQL:
		if !postgres {
			return plan, fmt.Errorf("%w (dialect %q)", ErrSQLNeedsPostgres, dialect)
		}
		plan.SQL = true
	case SchemaModeAuto:
		if prodLike && !cfg.DBAutoMigrateAllowDestructive {
			return plan, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		plan.Auto = true
	case SchemaModeHybrid:
		plan.SQL = postgres
		plan.Auto = !prodLike || !postgres
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}
	return plan, nil
}

// ApplySchema runs the plan for db and then checks that every persistent
// model has its table.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(cfg, db.Dialector.Name())
	if err != nil {
		return err
	}

	if plan.SQL {
		ran, err := NewMigrator(db, GetMigrations()).Up(ctx)
		if err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
		if len(ran) > 0 {
			observability.Logger.InfoContext(ctx, "sql migrations applied", slog.Int("count", len(ran)))
		}
	}

	if plan.Auto {
		if plan.Mode == SchemaModeAuto && cfg.DBAutoMigrateAllowDestructive {
			observability.Logger.WarnContext(ctx, "auto-migrating a production-like database", slog.String("env", cfg.Env))
		}
		if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}

	missing, err := MissingTables(ctx, db)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("schema incomplete, missing tables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// MissingTables returns the tables of PersistentModels that do not exist.
func MissingTables(ctx context.Context, db *gorm.DB) ([]string, error) {
	var missing []string
	for _, model := range PersistentModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse %T: %w", model, err)
		}
		if !db.WithContext(ctx).Migrator().HasTable(stmt.Schema.Table) {
			missing = append(missing, stmt.Schema.Table)
		}
	}
	return missing, nil
}

// GetSchemaStatus reports the plan, the ledger and missing tables without
// changing anything.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := PlanSchema(cfg, db.Dialector.Name())
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{SchemaPlan: plan}

	migrator := NewMigrator(db, GetMigrations())
	if status.Applied, err = migrator.Applied(ctx); err != nil {
		return nil, err
	}
	if plan.SQL {
		if status.Pending, err = migrator.Pending(ctx); err != nil {
			return nil, err
		}
	}
	if status.MissingTables, err = MissingTables(ctx, db); err != nil {
		return nil, err
	}
	return status, nil
}

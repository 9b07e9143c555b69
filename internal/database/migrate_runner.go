package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"murmur/internal/observability"

	"gorm.io/gorm"
)

var (
	// ErrChecksumMismatch means an applied script was edited after it ran.
	ErrChecksumMismatch = errors.New("migration checksum mismatch")
	// ErrUnknownVersion means the database ran a migration this build does not ship.
	ErrUnknownVersion = errors.New("applied migration not registered")
	// ErrNotLatest means a rollback skipped over a newer applied migration.
	ErrNotLatest = errors.New("only the latest applied migration can be rolled back")
)

// SchemaMigration is one row of the applied-migration ledger.
type SchemaMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	Checksum  string    `gorm:"size:64;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (SchemaMigration) TableName() string {
	return "schema_migrations"
}

func checksum(script string) string {
	sum := sha256.Sum256([]byte(script))
	return hex.EncodeToString(sum[:])
}

// Migrator applies a fixed, version-ordered set of migrations. Every script
// runs in the same transaction as its ledger row, so a failed script leaves
// no record behind.
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

// NewMigrator returns a Migrator over migrations, which must be sorted by
// version. Use GetMigrations for the embedded murmur schema.
func NewMigrator(db *gorm.DB, migrations []Migration) *Migrator {
	return &Migrator{db: db, migrations: migrations}
}

func (m *Migrator) ensureLedger(ctx context.Context) error {
	if err := m.db.WithContext(ctx).AutoMigrate(&SchemaMigration{}); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	return nil
}

// Applied lists the ledger in version order. A missing ledger reads as empty.
func (m *Migrator) Applied(ctx context.Context) ([]SchemaMigration, error) {
	if !m.db.WithContext(ctx).Migrator().HasTable(&SchemaMigration{}) {
		return []SchemaMigration{}, nil
	}
	var rows []SchemaMigration
	if err := m.db.WithContext(ctx).Order("version ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	return rows, nil
}

// Pending returns the registered migrations not yet in the ledger, after
// checking the ledger against the registered set.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	if err := m.verify(applied); err != nil {
		return nil, err
	}

	done := make(map[int]struct{}, len(applied))
	for _, row := range applied {
		done[row.Version] = struct{}{}
	}
	var pending []Migration
	for _, mig := range m.migrations {
		if _, ok := done[mig.Version]; !ok {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

// verify rejects ledger rows that are unknown to this build or whose script
// changed since it was applied.
func (m *Migrator) verify(applied []SchemaMigration) error {
	for _, row := range applied {
		mig := m.lookup(row.Version)
		if mig == nil {
			return fmt.Errorf("%w: %06d_%s", ErrUnknownVersion, row.Version, row.Name)
		}
		if row.Checksum != checksum(mig.UpScript) {
			return fmt.Errorf("%w: %s", ErrChecksumMismatch, mig)
		}
	}
	return nil
}

func (m *Migrator) lookup(version int) *Migration {
	for i := range m.migrations {
		if m.migrations[i].Version == version {
			return &m.migrations[i]
		}
	}
	return nil
}

// Up applies every pending migration and returns the ones it ran.
func (m *Migrator) Up(ctx context.Context) ([]Migration, error) {
	if err := m.ensureLedger(ctx); err != nil {
		return nil, err
	}
	pending, err := m.Pending(ctx)
	if err != nil {
		return nil, err
	}

	ran := make([]Migration, 0, len(pending))
	for _, mig := range pending {
		observability.Logger.InfoContext(ctx, "applying migration", slog.String("migration", mig.String()))
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.UpScript).Error; err != nil {
				return err
			}
			return tx.Create(&SchemaMigration{
				Version:  mig.Version,
				Name:     mig.Name,
				Checksum: checksum(mig.UpScript),
			}).Error
		})
		if err != nil {
			return ran, fmt.Errorf("apply %s: %w", mig, err)
		}
		ran = append(ran, mig)
	}
	return ran, nil
}

// Down reverts version, which must be the newest applied migration. The
// constraint migrations depend on the tables created before them.
func (m *Migrator) Down(ctx context.Context, version int) error {
	mig := m.lookup(version)
	if mig == nil {
		return fmt.Errorf("migration version %d not found", version)
	}

	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 || applied[len(applied)-1].Version < version {
		return fmt.Errorf("migration %s has not been applied", mig)
	}
	if latest := applied[len(applied)-1].Version; latest != version {
		return fmt.Errorf("%w: %06d is newer than %06d", ErrNotLatest, latest, version)
	}

	observability.Logger.InfoContext(ctx, "rolling back migration", slog.String("migration", mig.String()))
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(mig.DownScript).Error; err != nil {
			return fmt.Errorf("rollback %s: %w", mig, err)
		}
		return tx.Where("version = ?", version).Delete(&SchemaMigration{}).Error
	})
}

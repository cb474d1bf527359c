package schema

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"thientai/internal/bootstrap/logging"
	"thientai/internal/errs"
	"thientai/internal/infrastructure/persistence/sqlite/model"
)

// SchemaMigration tracks which versioned migrations have been applied.
type SchemaMigration struct {
	Version   int       `gorm:"column:version;primaryKey"`
	Name      string    `gorm:"column:name;type:text;not null"`
	AppliedAt time.Time `gorm:"column:applied_at;not null"`
}

func (SchemaMigration) TableName() string {
	return "schema_migrations"
}

type migration struct {
	version int
	name    string
	apply   func(tx *gorm.DB) error
}

// Each step checks table/column existence before altering, so the whole
// list tolerates re-application on any schema vintage.
var migrations = []migration{
	{
		version: 1,
		name:    "create base tables",
		apply: func(tx *gorm.DB) error {
			tables := []any{
				&model.Location{},
				&model.WeatherSnapshot{},
				&model.RainWindowStats{},
				&model.RiskAnalysis{},
				&model.RiskReason{},
				&model.AlertEvent{},
				&model.HistoryEntry{},
				&model.ProvinceRainSample{},
				&model.Shelter{},
				&model.StormCacheKV{},
			}
			for _, table := range tables {
				if tx.Migrator().HasTable(table) {
					continue
				}
				if err := tx.Migrator().CreateTable(table); err != nil {
					return errs.Wrapf(err, "create table %T", table)
				}
			}
			return nil
		},
	},
	{
		version: 2,
		name:    "add soil and uv columns to weather_snapshots",
		apply: func(tx *gorm.DB) error {
			for _, column := range []string{"soil_moisture", "uv_index"} {
				if tx.Migrator().HasColumn(&model.WeatherSnapshot{}, column) {
					continue
				}
				if err := tx.Migrator().AddColumn(&model.WeatherSnapshot{}, column); err != nil {
					return errs.Wrapf(err, "add column %s", column)
				}
			}
			return nil
		},
	},
	{
		version: 3,
		name:    "add note and source columns to province_rain_samples",
		apply: func(tx *gorm.DB) error {
			for _, column := range []string{"note", "source"} {
				if tx.Migrator().HasColumn(&model.ProvinceRainSample{}, column) {
					continue
				}
				if err := tx.Migrator().AddColumn(&model.ProvinceRainSample{}, column); err != nil {
					return errs.Wrapf(err, "add column %s", column)
				}
			}
			return nil
		},
	},
}

// Migrate applies the versioned migration list in order, recording each
// applied version. Re-running against an up-to-date database is a no-op.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if db == nil {
		return errors.New("db is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "persistence.schema"))

	if !db.Migrator().HasTable(&SchemaMigration{}) {
		if err := db.Migrator().CreateTable(&SchemaMigration{}); err != nil {
			return errs.Wrap(err, "create schema_migrations table")
		}
	}

	for _, m := range migrations {
		var applied int64
		if err := db.WithContext(ctx).Model(&SchemaMigration{}).
			Where("version = ?", m.version).
			Count(&applied).Error; err != nil {
			return errs.Wrapf(err, "check migration %d", m.version)
		}
		if applied > 0 {
			continue
		}

		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := m.apply(tx); err != nil {
				return err
			}
			return tx.Create(&SchemaMigration{
				Version:   m.version,
				Name:      m.name,
				AppliedAt: time.Now().UTC(),
			}).Error
		})
		if err != nil {
			return errs.Wrapf(err, "apply migration %d (%s)", m.version, m.name)
		}

		logging.Info(logCtx, "migration applied", slog.Int("version", m.version), slog.String("name", m.name))
	}

	return nil
}

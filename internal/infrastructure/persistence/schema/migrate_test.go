package schema

import (
	"context"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"thientai/internal/infrastructure/persistence/sqlite/model"
)

func setupMigrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "schema.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

func TestMigrateCreatesSchema(t *testing.T) {
	db := setupMigrationDB(t)
	ctx := context.Background()

	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

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
		if !db.Migrator().HasTable(table) {
			t.Fatalf("table for %T missing after migrate", table)
		}
	}
	if !db.Migrator().HasColumn(&model.WeatherSnapshot{}, "soil_moisture") {
		t.Fatalf("soil_moisture column missing after migrate")
	}
	if !db.Migrator().HasColumn(&model.ProvinceRainSample{}, "source") {
		t.Fatalf("source column missing after migrate")
	}

	var applied int64
	if err := db.Model(&SchemaMigration{}).Count(&applied).Error; err != nil {
		t.Fatalf("count applied migrations: %v", err)
	}
	if applied != int64(len(migrations)) {
		t.Fatalf("applied migrations = %d, want %d", applied, len(migrations))
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := setupMigrationDB(t)
	ctx := context.Background()

	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("first Migrate() error = %v", err)
	}
	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	var applied int64
	if err := db.Model(&SchemaMigration{}).Count(&applied).Error; err != nil {
		t.Fatalf("count applied migrations: %v", err)
	}
	if applied != int64(len(migrations)) {
		t.Fatalf("applied migrations = %d after rerun, want %d", applied, len(migrations))
	}
}

func TestMigrateToleratesPartiallyExistingSchema(t *testing.T) {
	db := setupMigrationDB(t)
	ctx := context.Background()

	// A table created outside the migration list must not break step 1.
	if err := db.Migrator().CreateTable(&model.Shelter{}); err != nil {
		t.Fatalf("pre-create shelters: %v", err)
	}

	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if !db.Migrator().HasTable(&model.Location{}) {
		t.Fatalf("locations table missing after migrate over partial schema")
	}
}

package infra

import (
	"fmt"

	"github.com/pavelplus/vetis-tools/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// to create / update all tables, then applies the idempotent SQL patches
// GORM cannot express (partial indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations applies the schema. Also used by integration tests against a
// throwaway database.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Credentials{},
		&model.BusinessEntity{},
		&model.Enterprise{},
		&model.Product{},
		&model.SubProduct{},
		&model.ProductItem{},
		&model.Unit{},
		&model.PackingType{},
		&model.StockEntryMain{},
		&model.StockEntry{},
		&model.Package{},
		&model.VetDocumentRef{},
		&model.APIRequestLog{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot fully
// handle on its own. Each statement guards itself so re-running on an
// already-patched schema is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// The ledger invariant "at most one last version per guid" backed by a
		// partial unique index; reconciliation clears competing flags before
		// setting a new one, the index catches anything that slips through.
		{"unique last version per guid", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_stock_entries_one_last') THEN
    CREATE UNIQUE INDEX idx_stock_entries_one_last
        ON stock_entries (guid)
        WHERE is_last;
  END IF;
END $$`},
		// Partial index for the head population pass, which only ever scans
		// unresolved heads.
		{"unpopulated heads index", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_stock_entry_mains_unpopulated') THEN
    CREATE INDEX idx_stock_entry_mains_unpopulated
        ON stock_entry_mains (id)
        WHERE NOT populated;
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}

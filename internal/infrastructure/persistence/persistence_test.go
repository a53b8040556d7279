package persistence

import (
	"testing"

	"github.com/econtract/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// openTestDB opens an in-memory SQLite database with the full schema. The
// persistence models avoid Postgres-only column types, so the production
// models migrate as-is.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.ContractModel{},
		&models.ContractPriceModel{},
		&models.PriceTierModel{},
		&models.ServiceRecordModel{},
		&models.InvoiceModel{},
		&models.InvoiceItemModel{},
		&models.NumberSequenceModel{},
		&models.ImportBatchModel{},
		&models.QueueItemModel{},
	)
	require.NoError(t, err)

	return db
}

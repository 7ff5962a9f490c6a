// Package testutil provides an in-memory ledger database and fixtures for tests.
package testutil

import (
	"fmt"
	"testing"

	"go-inventory-ledger/internal/config"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewTestDB opens a private, migrated in-memory SQLite database.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := database.Connect(config.DatabaseConfig{Driver: "sqlite", DSN: dsn}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateCategory inserts an active category.
func CreateCategory(t testing.TB, db *gorm.DB, name string) *model.Category {
	t.Helper()
	c := &model.Category{Name: name, Active: true}
	require.NoError(t, db.Create(c).Error)
	return c
}

// CreateProduct inserts an active product with the given price and stock directly,
// bypassing the ledger. Use it only to arrange fixtures.
func CreateProduct(t testing.TB, db *gorm.DB, categoryID uuid.UUID, name, price string, stock int) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:          name,
		CategoryID:    categoryID,
		UnitPrice:     decimal.RequireFromString(price),
		StockQuantity: stock,
		Active:        true,
	}
	require.NoError(t, db.Omit("Category").Create(p).Error)
	return p
}

// StockOf reads a product's current stock regardless of its active flag.
func StockOf(t testing.TB, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var p model.Product
	require.NoError(t, db.Select("stock_quantity").First(&p, "id = ?", id).Error)
	return p.StockQuantity
}

// CountTransactions counts persisted movements for a product.
func CountTransactions(t testing.TB, db *gorm.DB, productID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.Transaction{}).Where("product_id = ?", productID).Count(&n).Error)
	return n
}

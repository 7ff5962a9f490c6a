package service_test

import (
	"context"
	"testing"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProduct_OpeningStockIsAMovement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cat, err := f.catalog.CreateCategory(ctx, service.CategoryRequest{Name: "Electronics"}, "admin")
	require.NoError(t, err)

	p, err := f.catalog.CreateProduct(ctx, service.CreateProductRequest{
		Name:          "Laptop",
		CategoryID:    cat.ID,
		UnitPrice:     price("1000"),
		StockQuantity: 10,
	}, "admin")
	require.NoError(t, err)

	assert.Equal(t, 10, p.StockQuantity)
	assert.Equal(t, "1000.00", model.FormatMoney(p.UnitPrice))
	assert.Equal(t, 10, testutil.StockOf(t, f.db, p.ID))

	list, err := f.ledger.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.TxIn, list[0].TransactionType)
	assert.Equal(t, 10, list[0].Quantity)
	require.NotNil(t, list[0].Remarks)
	assert.Equal(t, "Opening stock", *list[0].Remarks)
	assert.Equal(t, 1, f.published.count())

	noStock, err := f.catalog.CreateProduct(ctx, service.CreateProductRequest{
		Name:       "Mouse",
		CategoryID: cat.ID,
		UnitPrice:  price("25.50"),
	}, "admin")
	require.NoError(t, err)
	assert.Zero(t, testutil.CountTransactions(t, f.db, noStock.ID))
}

func TestCreateProduct_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cat := testutil.CreateCategory(t, f.db, "Electronics")

	tests := []struct {
		name  string
		req   service.CreateProductRequest
		field string
	}{
		{"missing name", service.CreateProductRequest{CategoryID: cat.ID, UnitPrice: price("1")}, "name"},
		{"missing price", service.CreateProductRequest{Name: "X", CategoryID: cat.ID, StockQuantity: 5}, "unit_price"},
		{"negative price", service.CreateProductRequest{Name: "X", CategoryID: cat.ID, UnitPrice: price("-1")}, "unit_price"},
		{"three decimals", service.CreateProductRequest{Name: "X", CategoryID: cat.ID, UnitPrice: price("1.005")}, "unit_price"},
		{"negative stock", service.CreateProductRequest{Name: "X", CategoryID: cat.ID, UnitPrice: price("1"), StockQuantity: -1}, "stock_quantity"},
		{"unknown category", service.CreateProductRequest{Name: "X", CategoryID: uuid.New(), UnitPrice: price("1")}, "category_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.catalog.CreateProduct(ctx, tt.req, "admin")
			var invalid *service.ValidationError
			require.ErrorAs(t, err, &invalid)
			assert.Contains(t, invalid.Fields, tt.field)
		})
	}

	products, err := f.catalog.ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestUpdateProduct_NeverTouchesStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cat := testutil.CreateCategory(t, f.db, "Electronics")
	other := testutil.CreateCategory(t, f.db, "Computers")
	p := testutil.CreateProduct(t, f.db, cat.ID, "Laptop", "1000.00", 7)

	stock := 999
	_, err := f.catalog.UpdateProduct(ctx, p.ID, service.UpdateProductRequest{
		Name:          stringPtr("Laptop"),
		StockQuantity: &stock,
	}, "admin")
	var invalid *service.ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Fields, "stock_quantity")

	updated, err := f.catalog.UpdateProduct(ctx, p.ID, service.UpdateProductRequest{
		Name:       stringPtr("Laptop Pro"),
		CategoryID: &other.ID,
		UnitPrice:  price("1200.50"),
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, "Laptop Pro", updated.Name)
	assert.Equal(t, "1200.50", model.FormatMoney(updated.UnitPrice))
	require.NotNil(t, updated.Category)
	assert.Equal(t, "Computers", updated.Category.Name)
	assert.Equal(t, 7, updated.StockQuantity)

	_, err = f.catalog.UpdateProduct(ctx, uuid.New(), service.UpdateProductRequest{Name: stringPtr("Ghost")}, "admin")
	assert.ErrorIs(t, err, service.ErrProductNotFound)
}

func TestUpdateProduct_OmittedFieldsKeepStoredValues(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cat := testutil.CreateCategory(t, f.db, "Books")
	p := testutil.CreateProduct(t, f.db, cat.ID, "Book", "12.00", 4)

	renamed, err := f.catalog.UpdateProduct(ctx, p.ID, service.UpdateProductRequest{Name: stringPtr("Book v2")}, "admin")
	require.NoError(t, err)
	assert.Equal(t, "Book v2", renamed.Name)
	assert.Equal(t, "12.00", model.FormatMoney(renamed.UnitPrice))
	assert.Equal(t, cat.ID, renamed.CategoryID)

	repriced, err := f.catalog.UpdateProduct(ctx, p.ID, service.UpdateProductRequest{UnitPrice: price("15.25")}, "admin")
	require.NoError(t, err)
	assert.Equal(t, "Book v2", repriced.Name)
	assert.Equal(t, "15.25", model.FormatMoney(repriced.UnitPrice))

	res, err := f.ledger.CreateMovement(ctx, movement(p.ID, model.TxOut, 1), "clerk")
	require.NoError(t, err)
	assert.Equal(t, "15.25", model.FormatMoney(res.Transaction.UnitPrice))

	tests := []struct {
		name  string
		req   service.UpdateProductRequest
		field string
	}{
		{"empty name", service.UpdateProductRequest{Name: stringPtr("")}, "name"},
		{"negative price", service.UpdateProductRequest{UnitPrice: price("-0.01")}, "unit_price"},
		{"unknown category", service.UpdateProductRequest{CategoryID: &uuid.Nil}, "category_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.catalog.UpdateProduct(ctx, p.ID, tt.req, "admin")
			var invalid *service.ValidationError
			require.ErrorAs(t, err, &invalid)
			assert.Contains(t, invalid.Fields, tt.field)
		})
	}
}

func TestCategoryLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.catalog.CreateCategory(ctx, service.CategoryRequest{}, "admin")
	var invalid *service.ValidationError
	require.ErrorAs(t, err, &invalid)

	cat, err := f.catalog.CreateCategory(ctx, service.CategoryRequest{Name: "Books"}, "admin")
	require.NoError(t, err)
	assert.True(t, cat.Active)

	renamed, err := f.catalog.RenameCategory(ctx, cat.ID, service.CategoryRequest{Name: "Used Books"}, "admin")
	require.NoError(t, err)
	assert.Equal(t, "Used Books", renamed.Name)

	require.NoError(t, f.catalog.DeactivateCategory(ctx, cat.ID, "admin"))
	_, err = f.catalog.GetCategory(ctx, cat.ID)
	assert.ErrorIs(t, err, service.ErrCategoryNotFound)
	assert.ErrorIs(t, f.catalog.DeactivateCategory(ctx, cat.ID, "admin"), service.ErrCategoryNotFound)

	_, err = f.catalog.CreateProduct(ctx, service.CreateProductRequest{Name: "Novel", CategoryID: cat.ID, UnitPrice: price("9.99")}, "admin")
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "Selected category does not exist", invalid.Fields["category_id"])
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func stringPtr(s string) *string {
	return &s
}

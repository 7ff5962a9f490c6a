package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func movement(productID uuid.UUID, typ model.TransactionType, qty int) service.CreateMovementRequest {
	return service.CreateMovementRequest{ProductID: productID, TransactionType: typ, Quantity: qty}
}

func TestCreateMovement_OutWithinStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cat := testutil.CreateCategory(t, f.db, "Electronics")
	p := testutil.CreateProduct(t, f.db, cat.ID, "Laptop", "100.00", 50)

	res, err := f.ledger.CreateMovement(ctx, movement(p.ID, model.TxOut, 5), "user-1")
	require.NoError(t, err)

	assert.Equal(t, 45, res.StockAfter)
	assert.Equal(t, 45, testutil.StockOf(t, f.db, p.ID))
	assert.Equal(t, "100.00", model.FormatMoney(res.Transaction.UnitPrice))
	assert.Equal(t, "user-1", res.Transaction.CreatedBy)
	require.NotNil(t, res.Transaction.Product)
	require.NotNil(t, res.Transaction.Product.Category)
	assert.Equal(t, "Electronics", res.Transaction.Product.Category.Name)
	assert.Equal(t, 45, res.Transaction.Product.StockQuantity)

	require.Equal(t, 1, f.published.count())
	assert.Equal(t, 45, f.published.events[0].StockAfter)
	assert.Equal(t, "OUT", f.published.events[0].TransactionType)
	assert.Equal(t, 1, f.recorder.committed["OUT"])
}

func TestCreateMovement_InsufficientStockChangesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cat := testutil.CreateCategory(t, f.db, "Electronics")
	p := testutil.CreateProduct(t, f.db, cat.ID, "Laptop", "100.00", 50)

	res, err := f.ledger.CreateMovement(ctx, movement(p.ID, model.TxOut, 100), "user-1")
	assert.Nil(t, res)

	var insufficient *service.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 50, insufficient.Available)
	assert.Equal(t, "Insufficient stock. Available: 50", err.Error())

	assert.Equal(t, 50, testutil.StockOf(t, f.db, p.ID))
	assert.Zero(t, testutil.CountTransactions(t, f.db, p.ID))
	assert.Zero(t, f.published.count())
	assert.Equal(t, 1, f.recorder.rejected["insufficient_stock"])
}

func TestCreateMovement_StockConservation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cat := testutil.CreateCategory(t, f.db, "Electronics")
	p := testutil.CreateProduct(t, f.db, cat.ID, "Cable", "2.50", 0)

	steps := []struct {
		typ  model.TransactionType
		qty  int
		want int
	}{
		{model.TxIn, 10, 10},
		{model.TxOut, 4, 6},
		{model.TxIn, 1, 7},
		{model.TxOut, 7, 0},
	}
	for _, s := range steps {
		res, err := f.ledger.CreateMovement(ctx, movement(p.ID, s.typ, s.qty), "")
		require.NoError(t, err)
		assert.Equal(t, s.want, res.StockAfter)
		assert.Equal(t, "system", res.Transaction.CreatedBy)
	}

	assert.Equal(t, 0, testutil.StockOf(t, f.db, p.ID))
	assert.EqualValues(t, len(steps), testutil.CountTransactions(t, f.db, p.ID))

	_, err := f.ledger.CreateMovement(ctx, movement(p.ID, model.TxOut, 1), "")
	var insufficient *service.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 0, insufficient.Available)
}

func TestCreateMovement_PriceSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cat := testutil.CreateCategory(t, f.db, "Electronics")
	p := testutil.CreateProduct(t, f.db, cat.ID, "Laptop", "1000.00", 5)

	res, err := f.ledger.CreateMovement(ctx, movement(p.ID, model.TxOut, 1), "")
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&model.Product{}).Where("id = ?", p.ID).Update("unit_price", "1250.00").Error)

	stored, err := f.ledger.Find(ctx, res.Transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", model.FormatMoney(stored.UnitPrice))

	next, err := f.ledger.CreateMovement(ctx, movement(p.ID, model.TxOut, 1), "")
	require.NoError(t, err)
	assert.Equal(t, "1250.00", model.FormatMoney(next.Transaction.UnitPrice))
}

func TestCreateMovement_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cat := testutil.CreateCategory(t, f.db, "Electronics")
	p := testutil.CreateProduct(t, f.db, cat.ID, "Laptop", "10.00", 5)

	long := strings.Repeat("x", 501)
	tests := []struct {
		name  string
		req   service.CreateMovementRequest
		field string
	}{
		{"zero quantity", movement(p.ID, model.TxIn, 0), "quantity"},
		{"negative quantity", movement(p.ID, model.TxIn, -3), "quantity"},
		{"unknown type", movement(p.ID, "MOVE", 1), "transaction_type"},
		{"missing type", movement(p.ID, "", 1), "transaction_type"},
		{"missing product", movement(uuid.Nil, model.TxIn, 1), "product_id"},
		{"unknown product", movement(uuid.New(), model.TxIn, 1), "product_id"},
		{"remarks too long", service.CreateMovementRequest{ProductID: p.ID, TransactionType: model.TxIn, Quantity: 1, Remarks: &long}, "remarks"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.CreateMovement(ctx, tt.req, "")
			var invalid *service.ValidationError
			require.ErrorAs(t, err, &invalid)
			assert.Contains(t, invalid.Fields, tt.field)
		})
	}

	assert.Equal(t, 5, testutil.StockOf(t, f.db, p.ID))
	assert.Zero(t, testutil.CountTransactions(t, f.db, p.ID))
}

func TestCreateMovement_InactiveProduct(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cat := testutil.CreateCategory(t, f.db, "Electronics")
	p := testutil.CreateProduct(t, f.db, cat.ID, "Laptop", "10.00", 5)
	require.NoError(t, f.catalog.DeactivateProduct(ctx, p.ID, "admin"))

	_, err := f.ledger.CreateMovement(ctx, movement(p.ID, model.TxIn, 1), "")
	var invalid *service.ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "Selected product does not exist", invalid.Fields["product_id"])
}

func TestCreateMovement_TransactionTime(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, service.WithClock(func() time.Time { return fixed }))
	cat := testutil.CreateCategory(t, f.db, "Electronics")
	p := testutil.CreateProduct(t, f.db, cat.ID, "Laptop", "10.00", 5)

	res, err := f.ledger.CreateMovement(ctx, movement(p.ID, model.TxIn, 1), "")
	require.NoError(t, err)
	assert.True(t, fixed.Equal(res.Transaction.TransactionTime))

	jakarta := time.FixedZone("WIB", 7*3600)
	supplied := time.Date(2024, 12, 31, 23, 30, 0, 0, jakarta)
	req := movement(p.ID, model.TxIn, 1)
	req.TransactionTime = &supplied
	res, err = f.ledger.CreateMovement(ctx, req, "")
	require.NoError(t, err)
	assert.True(t, supplied.Equal(res.Transaction.TransactionTime))
	assert.Equal(t, time.UTC, res.Transaction.TransactionTime.Location())

	list, err := f.ledger.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, fixed.Equal(list[0].TransactionTime), "newest transaction_time first")
	assert.True(t, supplied.Equal(list[1].TransactionTime))
}

func TestCreateMovement_ConcurrentWithdrawals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cat := testutil.CreateCategory(t, f.db, "Electronics")
	p := testutil.CreateProduct(t, f.db, cat.ID, "Laptop", "10.00", 10)

	const workers = 16
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		succeeded    int
		insufficient int
		other        []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.CreateMovement(ctx, movement(p.ID, model.TxOut, 1), "")
			mu.Lock()
			defer mu.Unlock()
			var ise *service.InsufficientStockError
			switch {
			case err == nil:
				succeeded++
			case errors.As(err, &ise):
				insufficient++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, 10, succeeded)
	assert.Equal(t, workers-10, insufficient)
	assert.Equal(t, 0, testutil.StockOf(t, f.db, p.ID))
	assert.EqualValues(t, 10, testutil.CountTransactions(t, f.db, p.ID))
}

func TestCreateMovement_RollsBackWhenInsertFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cat := testutil.CreateCategory(t, f.db, "Electronics")
	p := testutil.CreateProduct(t, f.db, cat.ID, "Laptop", "10.00", 10)

	boom := errors.New("disk full")
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:fail_transactions", func(tx *gorm.DB) {
		if tx.Statement.Table == "transactions" {
			_ = tx.AddError(boom)
		}
	}))

	_, err := f.ledger.CreateMovement(ctx, movement(p.ID, model.TxOut, 3), "")
	var internal *service.InternalError
	require.ErrorAs(t, err, &internal)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, 10, testutil.StockOf(t, f.db, p.ID))
	assert.Zero(t, testutil.CountTransactions(t, f.db, p.ID))
	assert.Zero(t, f.published.count())
	assert.Equal(t, 1, f.recorder.rejected["internal"])
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cat := testutil.CreateCategory(t, f.db, "Electronics")
	p := testutil.CreateProduct(t, f.db, cat.ID, "Laptop", "10.00", 10)

	res, err := f.ledger.CreateMovement(ctx, movement(p.ID, model.TxIn, 2), "")
	require.NoError(t, err)

	got, err := f.ledger.Find(ctx, res.Transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Quantity)
	require.NotNil(t, got.Product)
	assert.Equal(t, "Laptop", got.Product.Name)

	_, err = f.ledger.Find(ctx, uuid.New())
	assert.ErrorIs(t, err, service.ErrMovementNotFound)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

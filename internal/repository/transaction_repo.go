package repository

import (
	"context"
	"errors"

	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionRepository is insert-and-read only; the ledger never rewrites history.
type TransactionRepository interface {
	Create(tx *gorm.DB, transaction *model.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	FindAll(ctx context.Context) ([]model.Transaction, error)
	SumByCategory(ctx context.Context) ([]CategoryMovement, error)
	SumByTypeAndPrice(ctx context.Context) ([]TypePriceTotal, error)
}

// CategoryMovement is one grouped row of movements per active category.
type CategoryMovement struct {
	CategoryID       uuid.UUID
	Category         string
	TotalIn          int64
	TotalOut         int64
	TransactionCount int64
}

// TypePriceTotal groups movements by type and snapshot price so that value sums
// can be computed exactly in decimal outside the database.
type TypePriceTotal struct {
	TransactionType  model.TransactionType
	UnitPrice        decimal.Decimal
	TotalQuantity    int64
	TransactionCount int64
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

func (r *transactionRepo) Create(tx *gorm.DB, transaction *model.Transaction) error {
	return tx.Omit(clause.Associations).Create(transaction).Error
}

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var transaction model.Transaction
	err := r.db.WithContext(ctx).Preload("Product.Category").First(&transaction, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// FindAll returns every movement, newest transaction_time first.
func (r *transactionRepo) FindAll(ctx context.Context) ([]model.Transaction, error) {
	var transactions []model.Transaction
	err := r.db.WithContext(ctx).
		Preload("Product.Category").
		Order("transaction_time DESC").
		Order("id DESC").
		Find(&transactions).Error
	return transactions, err
}

// SumByCategory joins movements to active products in active categories. Categories
// without matching movements produce no row.
func (r *transactionRepo) SumByCategory(ctx context.Context) ([]CategoryMovement, error) {
	var rows []CategoryMovement
	err := r.db.WithContext(ctx).
		Table("transactions").
		Select(`
			categories.id AS category_id,
			categories.name AS category,
			COALESCE(SUM(CASE WHEN transactions.transaction_type = ? THEN transactions.quantity ELSE 0 END), 0) AS total_in,
			COALESCE(SUM(CASE WHEN transactions.transaction_type = ? THEN transactions.quantity ELSE 0 END), 0) AS total_out,
			COUNT(*) AS transaction_count
		`, string(model.TxIn), string(model.TxOut)).
		Joins("JOIN products ON products.id = transactions.product_id").
		Joins("JOIN categories ON categories.id = products.category_id").
		Where("products.active = ? AND categories.active = ?", true, true).
		Group("categories.id, categories.name").
		Order("categories.name ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *transactionRepo) SumByTypeAndPrice(ctx context.Context) ([]TypePriceTotal, error) {
	var rows []TypePriceTotal
	err := r.db.WithContext(ctx).
		Table("transactions").
		Select(`
			transaction_type,
			unit_price,
			COALESCE(SUM(quantity), 0) AS total_quantity,
			COUNT(*) AS transaction_count
		`).
		Group("transaction_type, unit_price").
		Order("transaction_type ASC").
		Scan(&rows).Error
	return rows, err
}

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

type ProductRepository interface {
	Create(tx *gorm.DB, product *model.Product) error
	FindAll(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Update(ctx context.Context, id uuid.UUID, fields ProductFields, updatedBy string) error
	Deactivate(ctx context.Context, id uuid.UUID, updatedBy string) error
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	AdjustStock(tx *gorm.DB, id uuid.UUID, delta int, updatedBy string) (int, error)
}

// ProductFields are the catalog attributes a product update may change; nil
// fields are left as stored. Stock is not one of them.
type ProductFields struct {
	Name       *string
	CategoryID *uuid.UUID
	UnitPrice  *decimal.Decimal
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

// Create menerima *gorm.DB (tx) so opening stock can be recorded in the same transaction
func (r *productRepo) Create(tx *gorm.DB, product *model.Product) error {
	return tx.Omit(clause.Associations).Create(product).Error
}

// FindAll returns active products with their category, ordered by name.
func (r *productRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("active = ?", true).
		Order("name ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("id = ? AND active = ?", id, true).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) Update(ctx context.Context, id uuid.UUID, fields ProductFields, updatedBy string) error {
	changes := map[string]interface{}{"updated_by": updatedBy}
	if fields.Name != nil {
		changes["name"] = *fields.Name
	}
	if fields.CategoryID != nil {
		changes["category_id"] = *fields.CategoryID
	}
	if fields.UnitPrice != nil {
		changes["unit_price"] = *fields.UnitPrice
	}

	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND active = ?", id, true).
		Updates(changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepo) Deactivate(ctx context.Context, id uuid.UUID, updatedBy string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND active = ?", id, true).
		Updates(map[string]interface{}{"active": false, "updated_by": updatedBy})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// LockByID loads an active product holding a row lock (FOR UPDATE) until tx ends.
// SQLite has no row locks; there the single writer connection gives the same exclusion.
func (r *productRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND active = ?", id, true).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// AdjustStock applies delta in a single conditional UPDATE and returns the new quantity.
// The sufficiency check is part of the statement, so no caller can write a value computed
// from a stale read. On rejection it returns ErrInsufficientStock with the current quantity.
func (r *productRepo) AdjustStock(tx *gorm.DB, id uuid.UUID, delta int, updatedBy string) (int, error) {
	res := tx.Model(&model.Product{}).
		Where("id = ? AND active = ? AND stock_quantity + ? >= 0", id, true, delta).
		Updates(map[string]interface{}{
			"stock_quantity": gorm.Expr("stock_quantity + ?", delta),
			"updated_by":     updatedBy,
		})
	if res.Error != nil {
		return 0, res.Error
	}

	var current model.Product
	err := tx.Select("stock_quantity").Where("id = ? AND active = ?", id, true).First(&current).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	if res.RowsAffected == 0 {
		return current.StockQuantity, ErrInsufficientStock
	}
	return current.StockQuantity, nil
}

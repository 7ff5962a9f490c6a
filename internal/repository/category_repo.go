package repository

import (
	"context"
	"errors"

	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	FindAll(ctx context.Context) ([]model.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	Reference(tx *gorm.DB, id uuid.UUID) (*model.Category, error)
	Rename(ctx context.Context, id uuid.UUID, name, updatedBy string) error
	Deactivate(ctx context.Context, id uuid.UUID, updatedBy string) error
}

type categoryRepo struct {
	db *gorm.DB
}

func NewCategoryRepo(db *gorm.DB) CategoryRepository {
	return &categoryRepo{db}
}

func (r *categoryRepo) Create(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepo) FindAll(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *categoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).Where("id = ? AND active = ?", id, true).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// Reference loads a category inside tx whatever its active flag, for display
// composition of records that point at it.
func (r *categoryRepo) Reference(tx *gorm.DB, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	err := tx.Where("id = ?", id).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepo) Rename(ctx context.Context, id uuid.UUID, name, updatedBy string) error {
	return r.update(ctx, id, map[string]interface{}{"name": name, "updated_by": updatedBy})
}

func (r *categoryRepo) Deactivate(ctx context.Context, id uuid.UUID, updatedBy string) error {
	return r.update(ctx, id, map[string]interface{}{"active": false, "updated_by": updatedBy})
}

func (r *categoryRepo) update(ctx context.Context, id uuid.UUID, values map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&model.Category{}).
		Where("id = ? AND active = ?", id, true).
		Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

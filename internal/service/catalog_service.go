package service

import (
	"context"
	"errors"
	"fmt"

	"go-inventory-ledger/internal/cache"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const openingStockRemark = "Opening stock"

type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

type CreateProductRequest struct {
	Name          string           `json:"name" validate:"required,max=255"`
	CategoryID    uuid.UUID        `json:"category_id" validate:"uuid_required"`
	UnitPrice     *decimal.Decimal `json:"unit_price"`
	StockQuantity int              `json:"stock_quantity" validate:"min=0"`
}

// UpdateProductRequest changes catalog attributes only; omitted fields keep their
// stored values. StockQuantity exists so a client sending it gets a clear
// rejection instead of a silent ignore.
type UpdateProductRequest struct {
	Name          *string          `json:"name" validate:"omitnil,min=1,max=255"`
	CategoryID    *uuid.UUID       `json:"category_id"`
	UnitPrice     *decimal.Decimal `json:"unit_price"`
	StockQuantity *int             `json:"stock_quantity,omitempty"`
}

type CatalogService interface {
	CreateCategory(ctx context.Context, req CategoryRequest, actor string) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*model.Category, error)
	RenameCategory(ctx context.Context, id uuid.UUID, req CategoryRequest, actor string) (*model.Category, error)
	DeactivateCategory(ctx context.Context, id uuid.UUID, actor string) error

	CreateProduct(ctx context.Context, req CreateProductRequest, actor string) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest, actor string) (*model.Product, error)
	DeactivateProduct(ctx context.Context, id uuid.UUID, actor string) error
}

type catalogService struct {
	db           *gorm.DB
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	ledger       LedgerService
	cache        cache.ReportCache
	logger       *zap.Logger
}

func NewCatalogService(
	db *gorm.DB,
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	ledger LedgerService,
	reportCache cache.ReportCache,
	logger *zap.Logger,
) CatalogService {
	if reportCache == nil {
		reportCache = cache.Nop{}
	}
	return &catalogService{
		db:           db,
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		ledger:       ledger,
		cache:        reportCache,
		logger:       logger.Named("catalog"),
	}
}

func (s *catalogService) CreateCategory(ctx context.Context, req CategoryRequest, actor string) (*model.Category, error) {
	if fields := validator.Fields(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	category := &model.Category{Name: req.Name, Active: true}
	category.CreatedBy = actor
	category.UpdatedBy = actor
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.categoryRepo.FindAll(ctx)
}

func (s *catalogService) GetCategory(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCategoryNotFound
	}
	return category, err
}

func (s *catalogService) RenameCategory(ctx context.Context, id uuid.UUID, req CategoryRequest, actor string) (*model.Category, error) {
	if fields := validator.Fields(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}
	if err := s.categoryRepo.Rename(ctx, id, req.Name, actor); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("rename category: %w", err)
	}
	s.cache.Invalidate(ctx)
	return s.GetCategory(ctx, id)
}

func (s *catalogService) DeactivateCategory(ctx context.Context, id uuid.UUID, actor string) error {
	if err := s.categoryRepo.Deactivate(ctx, id, actor); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("deactivate category: %w", err)
	}
	s.cache.Invalidate(ctx)
	s.logger.Info("Category deactivated", zap.String("category_id", id.String()), zap.String("actor", actor))
	return nil
}

// CreateProduct inserts the product at zero stock and records any opening stock
// as an IN movement in the same transaction, so stock and history agree from
// the first commit.
func (s *catalogService) CreateProduct(ctx context.Context, req CreateProductRequest, actor string) (*model.Product, error) {
	fields := validator.Fields(req)
	fields = checkPrice(fields, req.UnitPrice, true)
	if fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	category, err := s.existingCategory(ctx, req.CategoryID)
	if err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:       req.Name,
		CategoryID: category.ID,
		UnitPrice:  req.UnitPrice.Round(2),
		Active:     true,
	}
	product.CreatedBy = actor
	product.UpdatedBy = actor

	var opening *MovementResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.productRepo.Create(tx, product); err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		if req.StockQuantity == 0 {
			return nil
		}

		remarks := openingStockRemark
		res, err := s.ledger.CreateMovementTx(tx, CreateMovementRequest{
			ProductID:       product.ID,
			TransactionType: model.TxIn,
			Quantity:        req.StockQuantity,
			Remarks:         &remarks,
		}, actor)
		if err != nil {
			return err
		}
		opening = res
		product.StockQuantity = res.StockAfter
		return nil
	})
	if err != nil {
		return nil, err
	}

	product.Category = category
	if opening != nil {
		s.ledger.Announce(ctx, opening)
	}
	s.cache.Invalidate(ctx)
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.productRepo.FindAll(ctx)
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return product, err
}

// UpdateProduct never touches stock. A new price applies to future movements only.
func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest, actor string) (*model.Product, error) {
	fields := validator.Fields(req)
	fields = checkPrice(fields, req.UnitPrice, false)
	if req.StockQuantity != nil {
		if fields == nil {
			fields = map[string]string{}
		}
		fields["stock_quantity"] = "stock_quantity cannot be changed directly, record a stock movement instead"
	}
	if fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	update := repository.ProductFields{Name: req.Name, CategoryID: req.CategoryID}
	if req.CategoryID != nil {
		if _, err := s.existingCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
	}
	if req.UnitPrice != nil {
		price := req.UnitPrice.Round(2)
		update.UnitPrice = &price
	}

	err := s.productRepo.Update(ctx, id, update, actor)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.cache.Invalidate(ctx)
	return s.GetProduct(ctx, id)
}

func (s *catalogService) DeactivateProduct(ctx context.Context, id uuid.UUID, actor string) error {
	if err := s.productRepo.Deactivate(ctx, id, actor); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("deactivate product: %w", err)
	}
	s.cache.Invalidate(ctx)
	s.logger.Info("Product deactivated", zap.String("product_id", id.String()), zap.String("actor", actor))
	return nil
}

func (s *catalogService) existingCategory(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newValidationError("category_id", "Selected category does not exist")
	}
	if err != nil {
		return nil, fmt.Errorf("load category: %w", err)
	}
	return category, nil
}

// checkPrice adds unit_price rules the struct tags cannot express on a decimal.
// A nil price is only an error when required.
func checkPrice(fields map[string]string, price *decimal.Decimal, required bool) map[string]string {
	msg := ""
	switch {
	case price == nil:
		if required {
			msg = "unit_price is required"
		}
	case price.IsNegative():
		msg = "unit_price must be at least 0"
	case !price.Equal(price.Round(2)):
		msg = "unit_price must have at most 2 decimal places"
	}
	if msg == "" {
		return fields
	}
	if fields == nil {
		fields = map[string]string{}
	}
	fields["unit_price"] = msg
	return fields
}

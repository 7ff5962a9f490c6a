package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-inventory-ledger/internal/events"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/validator"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const systemActor = "system"

// CreateMovementRequest is the typed input of a stock movement. Shape is checked
// once here; the atomic section only checks business rules.
type CreateMovementRequest struct {
	ProductID       uuid.UUID             `json:"product_id" validate:"uuid_required"`
	TransactionType model.TransactionType `json:"transaction_type" validate:"required,oneof=IN OUT"`
	Quantity        int                   `json:"quantity" validate:"required,min=1"`
	Remarks         *string               `json:"remarks" validate:"omitempty,max=500"`
	ReferenceNumber *string               `json:"reference_number" validate:"omitempty,max=100"`
	TransactionTime *time.Time            `json:"transaction_time"`
}

// MovementResult is a committed movement plus the stock it left behind.
// Transaction.Product and its Category are filled for display.
type MovementResult struct {
	Transaction *model.Transaction
	StockAfter  int
}

// MovementRecorder receives movement outcomes, typically Prometheus counters.
type MovementRecorder interface {
	MovementCommitted(transactionType string, quantity int)
	MovementRejected(reason string)
}

type LedgerService interface {
	CreateMovement(ctx context.Context, req CreateMovementRequest, actor string) (*MovementResult, error)
	// CreateMovementTx records a movement inside a caller-owned transaction. The
	// caller must Announce the result after its transaction commits.
	CreateMovementTx(tx *gorm.DB, req CreateMovementRequest, actor string) (*MovementResult, error)
	Announce(ctx context.Context, res *MovementResult)
	Find(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	List(ctx context.Context) ([]model.Transaction, error)
}

type LedgerOption func(*ledgerService)

// WithPublisher sets where committed movements are announced.
func WithPublisher(p events.Publisher) LedgerOption {
	return func(s *ledgerService) { s.publisher = p }
}

func WithRecorder(r MovementRecorder) LedgerOption {
	return func(s *ledgerService) { s.recorder = r }
}

// WithClock overrides the source of default transaction times.
func WithClock(now func() time.Time) LedgerOption {
	return func(s *ledgerService) { s.now = now }
}

type ledgerService struct {
	db           *gorm.DB
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	txRepo       repository.TransactionRepository
	publisher    events.Publisher
	recorder     MovementRecorder
	now          func() time.Time
	tracer       trace.Tracer
	logger       *zap.Logger
}

func NewLedgerService(
	db *gorm.DB,
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	txRepo repository.TransactionRepository,
	logger *zap.Logger,
	opts ...LedgerOption,
) LedgerService {
	s := &ledgerService{
		db:           db,
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		txRepo:       txRepo,
		publisher:    events.Multi{},
		recorder:     nopRecorder{},
		now:          time.Now,
		tracer:       otel.Tracer("go-inventory-ledger/service"),
		logger:       logger.Named("ledger"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ledgerService) CreateMovement(ctx context.Context, req CreateMovementRequest, actor string) (*MovementResult, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.CreateMovement", trace.WithAttributes(
		attribute.String("product.id", req.ProductID.String()),
		attribute.String("transaction.type", string(req.TransactionType)),
		attribute.Int("transaction.quantity", req.Quantity),
	))
	defer span.End()

	if fields := validator.Fields(req); fields != nil {
		s.recorder.MovementRejected("validation")
		return nil, &ValidationError{Fields: fields}
	}

	// Existence belongs to input validation; the atomic section checks it again.
	if _, err := s.productRepo.FindByID(ctx, req.ProductID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.recorder.MovementRejected("validation")
			return nil, newValidationError("product_id", "Selected product does not exist")
		}
		return nil, s.fail(span, &InternalError{Op: "load product", Err: err})
	}

	var res *MovementResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = s.record(tx, req, actor)
		return err
	})
	if err != nil {
		return nil, s.fail(span, s.classify(req, err))
	}

	span.SetAttributes(
		attribute.String("transaction.id", res.Transaction.ID.String()),
		attribute.Int("product.stock_after", res.StockAfter),
	)
	s.Announce(ctx, res)
	return res, nil
}

func (s *ledgerService) CreateMovementTx(tx *gorm.DB, req CreateMovementRequest, actor string) (*MovementResult, error) {
	if fields := validator.Fields(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}
	res, err := s.record(tx, req, actor)
	if err != nil {
		return nil, s.classify(req, err)
	}
	return res, nil
}

// record is the check-then-mutate unit. It must run inside a database transaction:
// the product row stays locked from LockByID until commit or rollback.
func (s *ledgerService) record(tx *gorm.DB, req CreateMovementRequest, actor string) (*MovementResult, error) {
	if actor == "" {
		actor = systemActor
	}

	product, err := s.productRepo.LockByID(tx, req.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("lock product: %w", err)
	}

	category, err := s.categoryRepo.Reference(tx, product.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("load category: %w", err)
	}

	if req.TransactionType == model.TxOut && req.Quantity > product.StockQuantity {
		return nil, &InsufficientStockError{Available: product.StockQuantity}
	}

	stockAfter, err := s.productRepo.AdjustStock(tx, product.ID, req.TransactionType.Delta(req.Quantity), actor)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, &InsufficientStockError{Available: stockAfter}
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("adjust stock: %w", err)
	}

	transactionTime := s.now()
	if req.TransactionTime != nil {
		transactionTime = *req.TransactionTime
	}

	transaction := &model.Transaction{
		ProductID:       product.ID,
		TransactionType: req.TransactionType,
		Quantity:        req.Quantity,
		UnitPrice:       product.UnitPrice,
		Remarks:         req.Remarks,
		ReferenceNumber: req.ReferenceNumber,
		TransactionTime: transactionTime.UTC(),
		CreatedBy:       actor,
	}
	if err := s.txRepo.Create(tx, transaction); err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	product.StockQuantity = stockAfter
	product.Category = category
	transaction.Product = product

	return &MovementResult{Transaction: transaction, StockAfter: stockAfter}, nil
}

// classify keeps expected outcomes as they are and turns everything else into an
// InternalError. By the time it runs the unit has been rolled back.
func (s *ledgerService) classify(req CreateMovementRequest, err error) error {
	var insufficient *InsufficientStockError
	var invalid *ValidationError
	switch {
	case errors.As(err, &insufficient):
		s.recorder.MovementRejected("insufficient_stock")
		s.logger.Info("Movement rejected: insufficient stock",
			zap.String("product_id", req.ProductID.String()),
			zap.String("transaction_type", string(req.TransactionType)),
			zap.Int("quantity", req.Quantity),
			zap.Int("available", insufficient.Available))
		return err
	case errors.As(err, &invalid):
		s.recorder.MovementRejected("validation")
		return err
	case errors.Is(err, ErrNotFound):
		s.recorder.MovementRejected("not_found")
		return err
	}

	s.recorder.MovementRejected("internal")
	s.logger.Error("Movement rolled back",
		zap.String("product_id", req.ProductID.String()),
		zap.String("transaction_type", string(req.TransactionType)),
		zap.Int("quantity", req.Quantity),
		zap.Error(err))
	return &InternalError{Op: "create movement", Err: err}
}

func (s *ledgerService) fail(span trace.Span, err error) error {
	span.RecordError(err)
	var internal *InternalError
	if errors.As(err, &internal) {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// Announce notifies listeners of a committed movement. Listener failures are
// theirs to log; they never undo the movement.
func (s *ledgerService) Announce(ctx context.Context, res *MovementResult) {
	if res == nil || res.Transaction == nil {
		return
	}
	t := res.Transaction

	productName := ""
	if t.Product != nil {
		productName = t.Product.Name
	}
	verb := "added"
	if t.TransactionType == model.TxOut {
		verb = "removed"
	}

	s.recorder.MovementCommitted(string(t.TransactionType), t.Quantity)
	s.logger.Info("Movement recorded",
		zap.String("transaction_id", t.ID.String()),
		zap.String("product_id", t.ProductID.String()),
		zap.String("transaction_type", string(t.TransactionType)),
		zap.Int("quantity", t.Quantity),
		zap.Int("stock_after", res.StockAfter))

	s.publisher.Publish(ctx, events.MovementEvent{
		Type:            events.TypeStockUpdate,
		Action:          events.ActionTransactionCreated,
		TransactionID:   t.ID,
		ProductID:       t.ProductID,
		ProductName:     productName,
		TransactionType: string(t.TransactionType),
		Quantity:        t.Quantity,
		UnitPrice:       model.FormatMoney(t.UnitPrice),
		StockAfter:      res.StockAfter,
		TransactionTime: t.TransactionTime,
		CreatedBy:       t.CreatedBy,
		Message:         fmt.Sprintf("%s %s %d units of '%s' (%s)", t.CreatedBy, verb, t.Quantity, productName, t.TransactionType),
	})
}

func (s *ledgerService) Find(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	t, err := s.txRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrMovementNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find transaction: %w", err)
	}
	return t, nil
}

func (s *ledgerService) List(ctx context.Context) ([]model.Transaction, error) {
	list, err := s.txRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return list, nil
}

type nopRecorder struct{}

func (nopRecorder) MovementCommitted(string, int) {}
func (nopRecorder) MovementRejected(string)       {}

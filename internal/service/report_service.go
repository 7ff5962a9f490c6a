package service

import (
	"context"
	"fmt"

	"go-inventory-ledger/internal/cache"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// InventoryItem is one active product valued at its current price.
type InventoryItem struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	UnitPrice     string    `json:"unit_price"`
	StockQuantity int       `json:"stock_quantity"`
	TotalValue    string    `json:"total_value"`
}

type InventoryTotals struct {
	TotalItems      int    `json:"total_items"`
	TotalStockValue string `json:"total_stock_value"`
}

type InventorySummary struct {
	Items   []InventoryItem `json:"items"`
	Summary InventoryTotals `json:"summary"`
}

type CategoryMovementRow struct {
	CategoryID       uuid.UUID `json:"category_id"`
	Category         string    `json:"category"`
	TotalIn          int64     `json:"total_in"`
	TotalOut         int64     `json:"total_out"`
	NetMovement      int64     `json:"net_movement"`
	TransactionCount int64     `json:"transaction_count"`
}

type TypeMovementRow struct {
	TransactionType  model.TransactionType `json:"transaction_type"`
	TotalQuantity    int64                 `json:"total_quantity"`
	TransactionCount int64                 `json:"transaction_count"`
	TotalValue       string                `json:"total_value"`
}

// ReportService is read-only and sees committed movements only.
type ReportService interface {
	InventorySummary(ctx context.Context) (*InventorySummary, error)
	ByCategory(ctx context.Context) ([]CategoryMovementRow, error)
	ByType(ctx context.Context) ([]TypeMovementRow, error)
}

type reportService struct {
	productRepo repository.ProductRepository
	txRepo      repository.TransactionRepository
	cache       cache.ReportCache
	tracer      trace.Tracer
}

func NewReportService(productRepo repository.ProductRepository, txRepo repository.TransactionRepository, reportCache cache.ReportCache) ReportService {
	if reportCache == nil {
		reportCache = cache.Nop{}
	}
	return &reportService{
		productRepo: productRepo,
		txRepo:      txRepo,
		cache:       reportCache,
		tracer:      otel.Tracer("go-inventory-ledger/service"),
	}
}

func (s *reportService) InventorySummary(ctx context.Context) (*InventorySummary, error) {
	ctx, span := s.tracer.Start(ctx, "report.InventorySummary")
	defer span.End()

	gen := s.cache.Generation(ctx)
	var cached InventorySummary
	if s.cache.Get(ctx, cache.KeyInventorySummary, &cached) {
		return &cached, nil
	}

	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("inventory summary: %w", err)
	}

	out := &InventorySummary{Items: make([]InventoryItem, 0, len(products))}
	total := decimal.Zero
	for i := range products {
		p := &products[i]
		value := p.TotalValue()
		total = total.Add(value)

		category := ""
		if p.Category != nil {
			category = p.Category.Name
		}
		out.Items = append(out.Items, InventoryItem{
			ID:            p.ID,
			Name:          p.Name,
			Category:      category,
			UnitPrice:     model.FormatMoney(p.UnitPrice),
			StockQuantity: p.StockQuantity,
			TotalValue:    model.FormatMoney(value),
		})
	}
	out.Summary = InventoryTotals{
		TotalItems:      len(out.Items),
		TotalStockValue: model.FormatMoney(total),
	}

	s.cache.Set(ctx, cache.KeyInventorySummary, out, gen)
	return out, nil
}

func (s *reportService) ByCategory(ctx context.Context) ([]CategoryMovementRow, error) {
	ctx, span := s.tracer.Start(ctx, "report.ByCategory")
	defer span.End()

	gen := s.cache.Generation(ctx)
	var cached []CategoryMovementRow
	if s.cache.Get(ctx, cache.KeyByCategory, &cached) {
		return cached, nil
	}

	rows, err := s.txRepo.SumByCategory(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("movements by category: %w", err)
	}

	out := make([]CategoryMovementRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, CategoryMovementRow{
			CategoryID:       r.CategoryID,
			Category:         r.Category,
			TotalIn:          r.TotalIn,
			TotalOut:         r.TotalOut,
			NetMovement:      r.TotalIn - r.TotalOut,
			TransactionCount: r.TransactionCount,
		})
	}

	s.cache.Set(ctx, cache.KeyByCategory, out, gen)
	return out, nil
}

// ByType sums value per snapshot price group in decimal, so no float ever
// touches a money amount.
func (s *reportService) ByType(ctx context.Context) ([]TypeMovementRow, error) {
	ctx, span := s.tracer.Start(ctx, "report.ByType")
	defer span.End()

	gen := s.cache.Generation(ctx)
	var cached []TypeMovementRow
	if s.cache.Get(ctx, cache.KeyByType, &cached) {
		return cached, nil
	}

	rows, err := s.txRepo.SumByTypeAndPrice(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("movements by type: %w", err)
	}

	type acc struct {
		quantity int64
		count    int64
		value    decimal.Decimal
	}
	totals := make(map[model.TransactionType]*acc, 2)
	for _, r := range rows {
		a, ok := totals[r.TransactionType]
		if !ok {
			a = &acc{value: decimal.Zero}
			totals[r.TransactionType] = a
		}
		a.quantity += r.TotalQuantity
		a.count += r.TransactionCount
		a.value = a.value.Add(r.UnitPrice.Mul(decimal.NewFromInt(r.TotalQuantity)))
	}

	out := make([]TypeMovementRow, 0, len(totals))
	for _, t := range []model.TransactionType{model.TxIn, model.TxOut} {
		a, ok := totals[t]
		if !ok {
			continue
		}
		out = append(out, TypeMovementRow{
			TransactionType:  t,
			TotalQuantity:    a.quantity,
			TransactionCount: a.count,
			TotalValue:       model.FormatMoney(a.value),
		})
	}

	s.cache.Set(ctx, cache.KeyByType, out, gen)
	return out, nil
}

package handler

import (
	"time"

	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
)

// Views compose display objects from ledger records. Money is always rendered
// with two fixed decimals.

type CategoryView struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type ProductView struct {
	ID            uuid.UUID     `json:"id"`
	Name          string        `json:"name"`
	CategoryID    uuid.UUID     `json:"category_id"`
	Category      *CategoryView `json:"category,omitempty"`
	UnitPrice     string        `json:"unit_price"`
	StockQuantity int           `json:"stock_quantity"`
	Active        bool          `json:"active"`
}

type MovementView struct {
	ID              uuid.UUID    `json:"id"`
	ProductID       uuid.UUID    `json:"product_id"`
	Product         *ProductView `json:"product,omitempty"`
	TransactionType string       `json:"transaction_type"`
	Quantity        int          `json:"quantity"`
	UnitPrice       string       `json:"unit_price"`
	TotalValue      string       `json:"total_value"`
	Remarks         *string      `json:"remarks"`
	ReferenceNumber *string      `json:"reference_number"`
	TransactionTime time.Time    `json:"transaction_time"`
	CreatedAt       time.Time    `json:"created_at"`
	CreatedBy       string       `json:"created_by,omitempty"`
	StockAfter      *int         `json:"stock_after,omitempty"`
}

func categoryView(c *model.Category) *CategoryView {
	if c == nil {
		return nil
	}
	return &CategoryView{ID: c.ID, Name: c.Name}
}

func productView(p *model.Product) *ProductView {
	if p == nil {
		return nil
	}
	return &ProductView{
		ID:            p.ID,
		Name:          p.Name,
		CategoryID:    p.CategoryID,
		Category:      categoryView(p.Category),
		UnitPrice:     model.FormatMoney(p.UnitPrice),
		StockQuantity: p.StockQuantity,
		Active:        p.Active,
	}
}

func productViews(list []model.Product) []ProductView {
	out := make([]ProductView, 0, len(list))
	for i := range list {
		out = append(out, *productView(&list[i]))
	}
	return out
}

func categoryViews(list []model.Category) []CategoryView {
	out := make([]CategoryView, 0, len(list))
	for i := range list {
		out = append(out, *categoryView(&list[i]))
	}
	return out
}

func movementView(t *model.Transaction) MovementView {
	return MovementView{
		ID:              t.ID,
		ProductID:       t.ProductID,
		Product:         productView(t.Product),
		TransactionType: string(t.TransactionType),
		Quantity:        t.Quantity,
		UnitPrice:       model.FormatMoney(t.UnitPrice),
		TotalValue:      model.FormatMoney(t.TotalValue()),
		Remarks:         t.Remarks,
		ReferenceNumber: t.ReferenceNumber,
		TransactionTime: t.TransactionTime,
		CreatedAt:       t.CreatedAt,
		CreatedBy:       t.CreatedBy,
	}
}

func movementViews(list []model.Transaction) []MovementView {
	out := make([]MovementView, 0, len(list))
	for i := range list {
		out = append(out, movementView(&list[i]))
	}
	return out
}

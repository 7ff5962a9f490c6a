package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the stock-bearing entity. StockQuantity is only ever changed through
// the movement ledger's atomic adjust.
type Product struct {
	BaseModel
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	CategoryID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"category_id"`
	Category      *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	StockQuantity int             `gorm:"not null;check:stock_quantity >= 0" json:"stock_quantity"`
	Active        bool            `gorm:"not null;index" json:"active"`
}

func (Product) TableName() string {
	return "products"
}

// TotalValue is stock_quantity x unit_price, exact.
func (p *Product) TotalValue() decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(int64(p.StockQuantity)))
}

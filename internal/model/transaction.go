package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TxIn  TransactionType = "IN"
	TxOut TransactionType = "OUT"
)

// Valid reports whether t is one of the known movement types.
func (t TransactionType) Valid() bool {
	return t == TxIn || t == TxOut
}

// Delta returns the signed stock change for a movement of qty units.
func (t TransactionType) Delta(qty int) int {
	if t == TxOut {
		return -qty
	}
	return qty
}

// ErrImmutable is returned by any attempt to update or delete a committed movement.
var ErrImmutable = errors.New("transactions are append-only")

// Transaction is one recorded stock movement. Rows are never updated or deleted.
type Transaction struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product         *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	TransactionType TransactionType `gorm:"type:varchar(3);not null;index" json:"transaction_type"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"` // snapshot at creation
	Remarks         *string         `gorm:"type:text" json:"remarks"`
	ReferenceNumber *string         `gorm:"type:varchar(100)" json:"reference_number"`
	TransactionTime time.Time       `gorm:"not null;index" json:"transaction_time"`
	CreatedAt       time.Time       `json:"created_at"`
	CreatedBy       string          `gorm:"type:varchar(255)" json:"created_by,omitempty"`
}

func (Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID != uuid.Nil {
		return nil
	}
	id, err := NewID()
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

func (t *Transaction) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutable
}

func (t *Transaction) BeforeDelete(tx *gorm.DB) error {
	return ErrImmutable
}

// TotalValue is quantity x snapshot price.
func (t *Transaction) TotalValue() decimal.Decimal {
	return t.UnitPrice.Mul(decimal.NewFromInt(int64(t.Quantity)))
}

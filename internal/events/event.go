package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MovementEvent announces a committed stock movement. It is published only after
// the ledger transaction has committed.
type MovementEvent struct {
	Type            string    `json:"type"`
	Action          string    `json:"action"`
	TransactionID   uuid.UUID `json:"transaction_id"`
	ProductID       uuid.UUID `json:"product_id"`
	ProductName     string    `json:"product_name"`
	TransactionType string    `json:"transaction_type"`
	Quantity        int       `json:"quantity"`
	UnitPrice       string    `json:"unit_price"`
	StockAfter      int       `json:"stock_after"`
	TransactionTime time.Time `json:"transaction_time"`
	CreatedBy       string    `json:"created_by"`
	Message         string    `json:"message"`
}

const (
	TypeStockUpdate          = "stock_update"
	ActionTransactionCreated = "transaction_created"
)

// Publisher delivers movement events. Implementations must not block the caller
// for long and must swallow (and log) their own delivery failures.
type Publisher interface {
	Publish(ctx context.Context, event MovementEvent)
}

// Multi fans an event out to several publishers in order.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event MovementEvent) {
	for _, p := range m {
		if p != nil {
			p.Publish(ctx, event)
		}
	}
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, event MovementEvent)

func (f PublisherFunc) Publish(ctx context.Context, event MovementEvent) {
	f(ctx, event)
}

package service_test

import (
	"context"
	"sync"
	"testing"

	"go-inventory-ledger/internal/events"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/internal/testutil"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []events.MovementEvent
}

func (p *capturePublisher) Publish(_ context.Context, e events.MovementEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type countingRecorder struct {
	mu        sync.Mutex
	committed map[string]int
	rejected  map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{committed: map[string]int{}, rejected: map[string]int{}}
}

func (r *countingRecorder) MovementCommitted(transactionType string, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed[transactionType]++
}

func (r *countingRecorder) MovementRejected(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected[reason]++
}

type fixture struct {
	db        *gorm.DB
	ledger    service.LedgerService
	reports   service.ReportService
	catalog   service.CatalogService
	published *capturePublisher
	recorder  *countingRecorder
}

func newFixture(t testing.TB, opts ...service.LedgerOption) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	productRepo := repository.NewProductRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	txRepo := repository.NewTransactionRepo(db)

	f := &fixture{db: db, published: &capturePublisher{}, recorder: newCountingRecorder()}
	opts = append([]service.LedgerOption{
		service.WithPublisher(f.published),
		service.WithRecorder(f.recorder),
	}, opts...)

	f.ledger = service.NewLedgerService(db, productRepo, categoryRepo, txRepo, zap.NewNop(), opts...)
	f.reports = service.NewReportService(productRepo, txRepo, nil)
	f.catalog = service.NewCatalogService(db, categoryRepo, productRepo, f.ledger, nil, zap.NewNop())
	return f
}

// Package cache holds short-lived copies of aggregation reports.
package cache

import (
	"context"

	"go-inventory-ledger/internal/events"
)

// Report cache keys.
const (
	KeyInventorySummary = "inventory-summary"
	KeyByCategory       = "by-category"
	KeyByType           = "by-type"
)

// ReportCache stores computed reports. A miss or any backend error is reported as
// a miss; the caller then computes the report from the database.
//
// Callers read Generation before computing a report and pass it to Set. Set
// drops the value when Invalidate ran in between, so a report read before a
// commit is never stored after that commit's invalidation.
type ReportCache interface {
	Generation(ctx context.Context) int64
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, generation int64)
	Invalidate(ctx context.Context)
}

// NoGeneration is returned when the current generation is unknown. Set ignores
// values computed under it.
const NoGeneration int64 = -1

// Nop never caches anything.
type Nop struct{}

func (Nop) Generation(ctx context.Context) int64                              { return NoGeneration }
func (Nop) Get(ctx context.Context, key string, dest interface{}) bool        { return false }
func (Nop) Set(ctx context.Context, key string, value interface{}, gen int64) {}
func (Nop) Invalidate(ctx context.Context)                                    {}

// InvalidateOnMovement drops cached reports whenever a movement commits.
func InvalidateOnMovement(c ReportCache) events.Publisher {
	return events.PublisherFunc(func(ctx context.Context, _ events.MovementEvent) {
		c.Invalidate(ctx)
	})
}

package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/demand-forecast/internal/domain"
)

// DefaultHistoryDays is the observation window used when none is configured.
const DefaultHistoryDays = 60

// OrderSource returns order lines for a product placed within [since, until].
type OrderSource interface {
	GetOrderLines(ctx context.Context, productID int64, since, until time.Time) ([]domain.OrderLine, error)
}

// ProductSource resolves a product or fails with domain.ErrProductNotFound.
type ProductSource interface {
	GetProduct(ctx context.Context, productID int64) (*domain.Product, error)
}

// HistoryExtractor turns raw order lines into a gap-free daily sales series.
type HistoryExtractor struct {
	orders   OrderSource
	products ProductSource
	now      func() time.Time
}

// NewHistoryExtractor creates an extractor reading from the given sources.
func NewHistoryExtractor(orders OrderSource, products ProductSource) *HistoryExtractor {
	return &HistoryExtractor{
		orders:   orders,
		products: products,
		now:      time.Now,
	}
}

// WithClock overrides the reference time, mostly for tests.
func (e *HistoryExtractor) WithClock(now func() time.Time) *HistoryExtractor {
	e.now = now
	return e
}

// Extract loads the product and builds its daily series over the last `days` days.
// The series covers every calendar date in [now-days, now] and therefore has days+1 entries.
func (e *HistoryExtractor) Extract(ctx context.Context, productID int64, days int) (*domain.Product, []domain.SalesDay, error) {
	if days <= 0 {
		days = DefaultHistoryDays
	}

	product, err := e.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, nil, fmt.Errorf("load product %d: %w", productID, err)
	}

	until := e.now().UTC()
	since := until.AddDate(0, 0, -days)

	lines, err := e.orders.GetOrderLines(ctx, productID, since, until)
	if err != nil {
		return nil, nil, fmt.Errorf("load order lines for product %d: %w", productID, err)
	}

	return product, BuildDailySeries(lines, since, until), nil
}

// BuildDailySeries aggregates order lines by UTC calendar day and fills every
// date from start to end (inclusive) so the result has no gaps.
func BuildDailySeries(lines []domain.OrderLine, start, end time.Time) []domain.SalesDay {
	first := truncateDay(start)
	last := truncateDay(end)
	if last.Before(first) {
		return nil
	}

	byDate := make(map[time.Time]int, len(lines))
	for _, line := range lines {
		byDate[truncateDay(line.OrderedAt)] += line.Quantity
	}

	series := make([]domain.SalesDay, 0, int(last.Sub(first).Hours()/24)+1)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		qty := byDate[d]
		if qty < 0 {
			qty = 0
		}
		series = append(series, domain.SalesDay{Date: d, QuantitySold: qty})
	}

	return series
}

// HasSales reports whether any day in the series sold at least one unit.
func HasSales(series []domain.SalesDay) bool {
	for _, day := range series {
		if day.QuantitySold > 0 {
			return true
		}
	}
	return false
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

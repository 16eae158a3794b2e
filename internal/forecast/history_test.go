package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/demand-forecast/internal/domain"
)

type fakeOrders struct {
	lines       []domain.OrderLine
	since, till time.Time
	err         error
}

func (f *fakeOrders) GetOrderLines(_ context.Context, _ int64, since, until time.Time) ([]domain.OrderLine, error) {
	f.since, f.till = since, until
	return f.lines, f.err
}

type fakeProducts map[int64]*domain.Product

func (f fakeProducts) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := f[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildDailySeriesFillsEveryDate(t *testing.T) {
	end := time.Date(2024, 3, 31, 15, 30, 0, 0, time.UTC)
	for _, window := range []int{1, 7, 30, 60} {
		start := end.AddDate(0, 0, -window)
		series := BuildDailySeries(nil, start, end)

		require.Len(t, series, window+1, "window %d", window)
		for i := 1; i < len(series); i++ {
			assert.Equal(t, series[i-1].Date.AddDate(0, 0, 1), series[i].Date)
			assert.GreaterOrEqual(t, series[i].QuantitySold, 0)
		}
	}
}

func TestBuildDailySeriesAggregatesByCalendarDay(t *testing.T) {
	start := day(2024, 1, 1)
	end := day(2024, 1, 4)
	lines := []domain.OrderLine{
		{OrderedAt: time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC), Quantity: 2},
		{OrderedAt: time.Date(2024, 1, 2, 23, 59, 0, 0, time.UTC), Quantity: 3},
		{OrderedAt: time.Date(2024, 1, 4, 0, 1, 0, 0, time.UTC), Quantity: 1},
		{OrderedAt: time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC), Quantity: -4},
	}

	series := BuildDailySeries(lines, start, end)

	got := make([]int, len(series))
	for i, d := range series {
		got[i] = d.QuantitySold
	}
	assert.Equal(t, []int{0, 5, 0, 1}, got)
}

func TestExtract(t *testing.T) {
	now := time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)
	products := fakeProducts{1: {ID: 1, Name: "Mug", StockQuantity: 12}}

	t.Run("product not found", func(t *testing.T) {
		ex := NewHistoryExtractor(&fakeOrders{}, products).WithClock(func() time.Time { return now })
		_, _, err := ex.Extract(context.Background(), 99, 60)
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("existing product without sales yields zero series", func(t *testing.T) {
		orders := &fakeOrders{}
		ex := NewHistoryExtractor(orders, products).WithClock(func() time.Time { return now })

		product, series, err := ex.Extract(context.Background(), 1, 60)
		require.NoError(t, err)
		assert.Equal(t, "Mug", product.Name)
		assert.Len(t, series, 61)
		assert.False(t, HasSales(series))
		assert.Equal(t, now.AddDate(0, 0, -60), orders.since)
		assert.Equal(t, now, orders.till)
	})

	t.Run("defaults window", func(t *testing.T) {
		ex := NewHistoryExtractor(&fakeOrders{}, products).WithClock(func() time.Time { return now })
		_, series, err := ex.Extract(context.Background(), 1, 0)
		require.NoError(t, err)
		assert.Len(t, series, DefaultHistoryDays+1)
	})

	t.Run("order source failure is wrapped", func(t *testing.T) {
		boom := errors.New("connection reset")
		ex := NewHistoryExtractor(&fakeOrders{err: boom}, products).WithClock(func() time.Time { return now })
		_, _, err := ex.Extract(context.Background(), 1, 60)
		assert.ErrorIs(t, err, boom)
	})
}

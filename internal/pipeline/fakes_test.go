package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/andresuchdata/demand-forecast/internal/cache"
	"github.com/andresuchdata/demand-forecast/internal/domain"
	"github.com/andresuchdata/demand-forecast/internal/storage"
)

var testNow = time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// dailyLines returns one order line per day for the last `days` days, ending at testNow.
func dailyLines(days int, qty func(i int) int) []domain.OrderLine {
	lines := make([]domain.OrderLine, 0, days+1)
	for i := days; i >= 0; i-- {
		lines = append(lines, domain.OrderLine{OrderedAt: testNow.AddDate(0, 0, -i), Quantity: qty(i)})
	}
	return lines
}

func weekly(i int) int {
	return []int{3, 4, 5, 6, 7, 5, 5}[i%7]
}

type memCatalog struct {
	mu       sync.Mutex
	products map[int64]domain.Product
	lines    map[int64][]domain.OrderLine
	lineErr  map[int64]error
	listErr  error
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		products: map[int64]domain.Product{},
		lines:    map[int64][]domain.OrderLine{},
		lineErr:  map[int64]error{},
	}
}

func (c *memCatalog) add(p domain.Product, lines []domain.OrderLine) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
	c.lines[p.ID] = lines
}

func (c *memCatalog) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (c *memCatalog) ListProducts(ctx context.Context) ([]domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listErr != nil {
		return nil, c.listErr
	}
	out := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *memCatalog) GetOrderLines(ctx context.Context, productID int64, since, until time.Time) ([]domain.OrderLine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.lineErr[productID]; err != nil {
		return nil, err
	}
	var out []domain.OrderLine
	for _, l := range c.lines[productID] {
		if !l.OrderedAt.Before(since) && !l.OrderedAt.After(until) {
			out = append(out, l)
		}
	}
	return out, nil
}

type memStore struct {
	mu          sync.Mutex
	forecasts   map[int64][]domain.ForecastPoint
	alerts      []domain.StockAlert
	nextAlertID int64
	writes      int
	forecastErr error
	alertErr    error
}

func newMemStore() *memStore {
	return &memStore{forecasts: map[int64][]domain.ForecastPoint{}}
}

func (s *memStore) ReplaceForecasts(ctx context.Context, productID int64, points []domain.ForecastPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.forecastErr != nil {
		return s.forecastErr
	}
	s.writes++
	s.forecasts[productID] = append([]domain.ForecastPoint(nil), points...)
	return nil
}

func (s *memStore) ReplaceActiveAlert(ctx context.Context, productID int64, alert *domain.StockAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.alertErr != nil {
		return s.alertErr
	}
	s.writes++
	kept := s.alerts[:0]
	for _, a := range s.alerts {
		if a.ProductID == productID && a.Status == domain.AlertStatusActive {
			continue
		}
		kept = append(kept, a)
	}
	s.alerts = kept
	if alert != nil {
		s.nextAlertID++
		alert.ID = s.nextAlertID
		alert.ProductID = productID
		alert.Status = domain.AlertStatusActive
		s.alerts = append(s.alerts, *alert)
	}
	return nil
}

func (s *memStore) GetForecasts(ctx context.Context, productID int64) ([]domain.ForecastPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forecasts[productID], nil
}

func (s *memStore) ListAlerts(ctx context.Context, status domain.AlertStatus) ([]domain.StockAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.StockAlert
	for _, a := range s.alerts {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memStore) UpdateAlertStatus(ctx context.Context, alertID int64, status domain.AlertStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		if s.alerts[i].ID == alertID {
			s.alerts[i].Status = status
			return nil
		}
	}
	return domain.ErrAlertNotFound
}

func (s *memStore) activeAlerts(productID int64) []domain.StockAlert {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.StockAlert
	for _, a := range s.alerts {
		if a.ProductID == productID && a.Status == domain.AlertStatusActive {
			out = append(out, a)
		}
	}
	return out
}

type memRuns struct {
	mu        sync.Mutex
	runs      map[int64]domain.BatchRun
	outcomes  map[int64][]domain.RunOutcome
	createErr error
}

func newMemRuns() *memRuns {
	return &memRuns{runs: map[int64]domain.BatchRun{}, outcomes: map[int64][]domain.RunOutcome{}}
}

func (r *memRuns) CreateRun(ctx context.Context, run *domain.BatchRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	run.ID = int64(len(r.runs) + 1)
	r.runs[run.ID] = *run
	return nil
}

func (r *memRuns) CompleteRun(ctx context.Context, run *domain.BatchRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = *run
	return nil
}

func (r *memRuns) AddOutcomes(ctx context.Context, runID int64, outcomes []domain.RunOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[runID] = append(r.outcomes[runID], outcomes...)
	return nil
}

func (r *memRuns) GetRun(ctx context.Context, id int64) (*domain.BatchRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &run, nil
}

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string][]byte{}}
}

func (m *memObjects) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.ObjectInfo
	for k, v := range m.objects {
		out = append(out, storage.ObjectInfo{Key: k, Size: int64(len(v))})
	}
	return out, nil
}

func (m *memObjects) GetObject(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

func (m *memObjects) UploadObject(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

type recordingCache struct {
	cache.ForecastCache
	mu          sync.Mutex
	invalidated []int64
}

func newRecordingCache() *recordingCache {
	return &recordingCache{ForecastCache: cache.NewNoopForecastCache()}
}

func (c *recordingCache) InvalidateProduct(ctx context.Context, productID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, productID)
	return nil
}

type stubRunner struct {
	outcomes map[int64]domain.RunOutcome
	panicOn  int64
}

func (s stubRunner) RunProduct(ctx context.Context, productID int64) domain.RunOutcome {
	if productID == s.panicOn {
		panic("boom")
	}
	o := s.outcomes[productID]
	o.ProductID = productID
	return o
}

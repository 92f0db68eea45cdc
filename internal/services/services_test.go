package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/taehoonhoonn/where-smoking/internal/geo"
	"github.com/taehoonhoonn/where-smoking/internal/logger"
	"github.com/taehoonhoonn/where-smoking/internal/models"
	"github.com/taehoonhoonn/where-smoking/internal/repository"
	"github.com/taehoonhoonn/where-smoking/internal/submission"
	"github.com/taehoonhoonn/where-smoking/internal/testutil"
)

// memoryCache 테스트용 cache.Store
type memoryCache struct {
	mu    sync.Mutex
	items map[string]any
	incrs int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string]any{}}
}

func (m *memoryCache) Get(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	if !ok {
		return false, nil
	}
	switch d := dest.(type) {
	case *Statistics:
		*d = *(v.(*Statistics))
	case *int64:
		*d = v.(int64)
	}
	return true, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *memoryCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}

func (m *memoryCache) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, _ := m.items[key].(int64)
	n++
	m.items[key] = n
	m.incrs++
	return n, nil
}

// listHookStore runs onList after the wrapped List returns.
type listHookStore struct {
	repository.SmokingAreaStore
	onList func()
}

func (s *listHookStore) List(ctx context.Context, filter repository.ListFilter) ([]models.SmokingArea, error) {
	areas, err := s.SmokingAreaStore.List(ctx, filter)
	if s.onList != nil {
		s.onList()
	}
	return areas, err
}

type fixture struct {
	store      *repository.GormStore
	cache      *memoryCache
	areas      *SmokingAreaService
	moderation *ModerationService
	reports    *ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.Nop()
	store := repository.NewGormStore(testutil.NewTestDB(t))
	c := newMemoryCache()
	areas := NewSmokingAreaService(store, c, time.Minute, log)
	normalizer := submission.NewNormalizer(geo.Bounds{MinLat: 37.3, MaxLat: 37.8, MinLng: 126.5, MaxLng: 127.3}, "서울특별시")
	return &fixture{
		store:      store,
		cache:      c,
		areas:      areas,
		moderation: NewModerationService(store, normalizer, areas, log),
		reports:    NewReportService(store, log),
	}
}

func (f *fixture) seedActive(t *testing.T, category, address string, lat, lng float64) uint {
	t.Helper()
	id, err := f.store.Create(context.Background(), &models.SmokingArea{
		Category:  category,
		Address:   address,
		Latitude:  lat,
		Longitude: lng,
		Status:    models.StatusActive,
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return id
}

func (f *fixture) submit(t *testing.T, label string, lat, lng float64) *models.SmokingArea {
	t.Helper()
	area, err := f.moderation.Submit(context.Background(), SubmitInput{Category: label, Latitude: lat, Longitude: lng})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	return area
}

func intPtr(v int) *int { return &v }

package services

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/taehoonhoonn/where-smoking/internal/apperrors"
	"github.com/taehoonhoonn/where-smoking/internal/cache"
	"github.com/taehoonhoonn/where-smoking/internal/geo"
	"github.com/taehoonhoonn/where-smoking/internal/models"
	"github.com/taehoonhoonn/where-smoking/internal/repository"
	"github.com/taehoonhoonn/where-smoking/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// 반경 검색 기본값/범위
const (
	DefaultRadiusMeters = 1000
	MinRadiusMeters     = 100
	MaxRadiusMeters     = 10000
	DefaultNearbyLimit  = 20
	MinNearbyLimit      = 1
	MaxNearbyLimit      = 100
)

// 통계 캐시 키. 무효화 시 세대 번호를 올려 이전 세대 값은 다시 읽히지 않음
const (
	statisticsCacheKey      = "statistics"
	statisticsGenerationKey = "statistics:generation"
)

// DistrictOther 자치구를 찾지 못한 주소
const DistrictOther = "기타"

// SeoulDistricts 서울시 25개 자치구
var SeoulDistricts = []string{
	"종로구", "중구", "용산구", "성동구", "광진구", "동대문구", "중랑구", "성북구", "강북구",
	"도봉구", "노원구", "은평구", "서대문구", "마포구", "양천구", "강서구", "구로구", "금천구",
	"영등포구", "동작구", "관악구", "서초구", "강남구", "송파구", "강동구",
}

type SmokingAreaService struct {
	store    repository.SmokingAreaStore
	cache    cache.Store
	cacheTTL time.Duration
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewSmokingAreaService(store repository.SmokingAreaStore, c cache.Store, cacheTTL time.Duration, log *zap.SugaredLogger) *SmokingAreaService {
	if c == nil {
		c = cache.Noop{}
	}
	return &SmokingAreaService{store: store, cache: c, cacheTTL: cacheTTL, log: log, now: time.Now}
}

// List returns every active area ordered by id.
func (s *SmokingAreaService) List(ctx context.Context) ([]models.SmokingArea, error) {
	areas, err := s.store.List(ctx, repository.ListFilter{Status: models.StatusActive})
	if err != nil {
		s.log.Errorw("Failed to list smoking areas", "op", "List", "error", err)
		return nil, err
	}
	return areas, nil
}

// GetActive returns an active area; any other status is reported as not found.
func (s *SmokingAreaService) GetActive(ctx context.Context, id uint) (*models.SmokingArea, error) {
	area, err := s.store.Get(ctx, id)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		s.log.Errorw("Failed to get smoking area", "op", "GetActive", "id", id, "error", err)
		return nil, err
	}
	if area.Status != models.StatusActive {
		return nil, apperrors.ErrNotFound
	}
	return area, nil
}

// ListByCategory returns active areas of a display category ordered by address.
func (s *SmokingAreaService) ListByCategory(ctx context.Context, category string) ([]models.SmokingArea, error) {
	areas, err := s.store.List(ctx, repository.ListFilter{
		Status:   models.StatusActive,
		Category: category,
		Order:    repository.OrderByAddress,
	})
	if err != nil {
		s.log.Errorw("Failed to list smoking areas by category", "op", "ListByCategory", "category", category, "error", err)
		return nil, err
	}
	return areas, nil
}

// NearbyQuery 반경 검색 조건 (Radius/Limit nil이면 기본값)
type NearbyQuery struct {
	Lat    float64
	Lng    float64
	Radius *int
	Limit  *int
}

// Resolved returns radius and limit after defaults and clamping.
func (q NearbyQuery) Resolved() (radius, limit int) {
	radius = DefaultRadiusMeters
	if q.Radius != nil {
		radius = clamp(*q.Radius, MinRadiusMeters, MaxRadiusMeters)
	}
	limit = DefaultNearbyLimit
	if q.Limit != nil {
		limit = clamp(*q.Limit, MinNearbyLimit, MaxNearbyLimit)
	}
	return radius, limit
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NearbyArea 반경 검색 결과 항목
type NearbyArea struct {
	Area           models.SmokingArea
	DistanceMeters int
}

// NearbyResult 반경 검색 결과
type NearbyResult struct {
	Lat    float64
	Lng    float64
	Radius int
	Limit  int
	Areas  []NearbyArea
}

// Nearby ranks active areas within the radius by distance, ties by id.
func (s *SmokingAreaService) Nearby(ctx context.Context, q NearbyQuery) (*NearbyResult, error) {
	origin := geo.Point{Lat: q.Lat, Lng: q.Lng}
	if !origin.Valid() {
		return nil, apperrors.Validation(apperrors.CodeInvalidCoordinates, "lat,lng", "위도/경도 범위를 벗어났습니다")
	}
	radius, limit := q.Resolved()

	ctx, span := telemetry.StartSpan(ctx, "SmokingAreaService.Nearby",
		attribute.Float64("lat", q.Lat),
		attribute.Float64("lng", q.Lng),
		attribute.Int("radius", radius),
	)
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	filter := repository.ListFilter{Status: models.StatusActive}
	if b, ok := geo.BoundsAround(origin, float64(radius)); ok {
		filter.Bounds = &b
	}

	var areas []models.SmokingArea
	areas, err = s.store.List(ctx, filter)
	if err != nil {
		s.log.Errorw("Failed to search nearby smoking areas", "op", "Nearby", "lat", q.Lat, "lng", q.Lng, "radius", radius, "error", err)
		return nil, err
	}

	byID := make(map[uint]models.SmokingArea, len(areas))
	candidates := make([]geo.Candidate, 0, len(areas))
	for _, a := range areas {
		byID[a.ID] = a
		candidates = append(candidates, geo.Candidate{ID: a.ID, Point: geo.Point{Lat: a.Latitude, Lng: a.Longitude}})
	}

	matches := geo.Nearby(origin, float64(radius), limit, candidates)
	result := &NearbyResult{Lat: q.Lat, Lng: q.Lng, Radius: radius, Limit: limit, Areas: make([]NearbyArea, 0, len(matches))}
	for _, m := range matches {
		result.Areas = append(result.Areas, NearbyArea{Area: byID[m.ID], DistanceMeters: m.Meters})
	}

	telemetry.RecordNearbyResults(ctx, len(result.Areas), radius)
	s.log.Debugw("Nearby search completed", "lat", q.Lat, "lng", q.Lng, "radius", radius, "scanned", len(areas), "found", len(result.Areas))
	return result, nil
}

// CategoryCount 카테고리별 개수
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// DistrictCount 자치구별 개수
type DistrictCount struct {
	District string `json:"district"`
	Count    int    `json:"count"`
}

// Statistics 활성 흡연구역 통계
type Statistics struct {
	TotalAreas  int             `json:"total_areas"`
	ByCategory  []CategoryCount `json:"by_category"`
	ByDistrict  []DistrictCount `json:"by_district"`
	LastUpdated time.Time       `json:"last_updated"`
}

// Statistics aggregates active areas by category and district. Results are
// cached until the next approve/delete or the cache TTL.
func (s *SmokingAreaService) Statistics(ctx context.Context) (*Statistics, error) {
	// 목록 조회 전에 키를 정해야 도중의 무효화가 반영됨
	key := s.statisticsKey(ctx)

	var cached Statistics
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warnw("Statistics cache read failed", "error", err)
	}
	if found {
		return &cached, nil
	}

	areas, err := s.store.List(ctx, repository.ListFilter{Status: models.StatusActive})
	if err != nil {
		s.log.Errorw("Failed to compute statistics", "op", "Statistics", "error", err)
		return nil, err
	}

	stats := buildStatistics(areas, s.now().UTC())
	if err := s.cache.Set(ctx, key, stats, s.cacheTTL); err != nil {
		s.log.Warnw("Statistics cache write failed", "error", err)
	}
	return stats, nil
}

func (s *SmokingAreaService) statisticsKey(ctx context.Context) string {
	var gen int64
	if _, err := s.cache.Get(ctx, statisticsGenerationKey, &gen); err != nil {
		s.log.Warnw("Statistics generation read failed", "error", err)
	}
	return statisticsCacheKey + ":" + strconv.FormatInt(gen, 10)
}

// InvalidateStatistics moves the cache to a new generation so values
// computed before this call are never served.
func (s *SmokingAreaService) InvalidateStatistics(ctx context.Context) {
	if _, err := s.cache.Incr(ctx, statisticsGenerationKey); err != nil {
		s.log.Warnw("Statistics cache invalidation failed", "error", err)
	}
}

func buildStatistics(areas []models.SmokingArea, now time.Time) *Statistics {
	categories := map[string]int{}
	districts := map[string]int{}
	for _, a := range areas {
		categories[a.Category]++
		districts[DistrictOf(a.Address)]++
	}

	stats := &Statistics{
		TotalAreas:  len(areas),
		ByCategory:  make([]CategoryCount, 0, len(categories)),
		ByDistrict:  make([]DistrictCount, 0, len(districts)),
		LastUpdated: now,
	}
	for k, v := range categories {
		stats.ByCategory = append(stats.ByCategory, CategoryCount{Category: k, Count: v})
	}
	for k, v := range districts {
		stats.ByDistrict = append(stats.ByDistrict, DistrictCount{District: k, Count: v})
	}

	sort.Slice(stats.ByCategory, func(i, j int) bool {
		a, b := stats.ByCategory[i], stats.ByCategory[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Category < b.Category
	})
	sort.Slice(stats.ByDistrict, func(i, j int) bool {
		a, b := stats.ByDistrict[i], stats.ByDistrict[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.District < b.District
	})
	return stats
}

// DistrictOf extracts the Seoul district from an address. Whole tokens are
// matched first so that 중구 does not match inside another name.
func DistrictOf(address string) string {
	for _, tok := range strings.Fields(address) {
		for _, d := range SeoulDistricts {
			if tok == d {
				return d
			}
		}
	}
	for _, d := range SeoulDistricts {
		if strings.Contains(address, d) {
			return d
		}
	}
	return DistrictOther
}

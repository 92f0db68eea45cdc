package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taehoonhoonn/where-smoking/internal/apperrors"
	"github.com/taehoonhoonn/where-smoking/internal/database"
	"github.com/taehoonhoonn/where-smoking/internal/models"
	"gorm.io/gorm"
)

// GormStore SmokingAreaStore backed by gorm (Postgres, sqlite in tests)
type GormStore struct {
	db  *database.DB
	now func() time.Time
}

// GormOption configures a GormStore.
type GormOption func(*GormStore)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) GormOption {
	return func(s *GormStore) {
		s.now = now
	}
}

func NewGormStore(db *database.DB, opts ...GormOption) *GormStore {
	s := &GormStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *GormStore) Create(ctx context.Context, area *models.SmokingArea) (uint, error) {
	now := s.now().UTC()
	if area.CreatedAt.IsZero() {
		area.CreatedAt = now
	}
	area.UpdatedAt = area.CreatedAt
	if area.Status == "" {
		area.Status = models.StatusPending
	}

	if err := s.db.WithContext(ctx).Create(area).Error; err != nil {
		return 0, fmt.Errorf("create smoking area: %w", err)
	}
	return area.ID, nil
}

func (s *GormStore) Get(ctx context.Context, id uint) (*models.SmokingArea, error) {
	var area models.SmokingArea
	err := s.db.WithContext(ctx).First(&area, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get smoking area %d: %w", id, err)
	}
	return &area, nil
}

func (s *GormStore) List(ctx context.Context, filter ListFilter) ([]models.SmokingArea, error) {
	var areas []models.SmokingArea
	err := s.filtered(ctx, filter).
		Order(orderClause(filter.Order)).
		Find(&areas).Error
	if err != nil {
		return nil, fmt.Errorf("list smoking areas: %w", err)
	}
	return areas, nil
}

func (s *GormStore) Count(ctx context.Context, filter ListFilter) (int64, error) {
	var n int64
	if err := s.filtered(ctx, filter).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count smoking areas: %w", err)
	}
	return n, nil
}

func (s *GormStore) filtered(ctx context.Context, filter ListFilter) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.SmokingArea{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.ReportedOnly {
		query = query.Where("report_count > 0")
	}
	// 반경 검색 사전 필터 (단순 범위 조건)
	if b := filter.Bounds; b != nil {
		query = query.Where("latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?",
			b.MinLat, b.MaxLat, b.MinLng, b.MaxLng)
	}
	return query
}

func orderClause(o Order) string {
	switch o {
	case OrderByAddress:
		return "address ASC, id ASC"
	case OrderNewest:
		return "created_at DESC, id DESC"
	case OrderBySeverity:
		return "report_count DESC, updated_at DESC, id DESC"
	default:
		return "id ASC"
	}
}

func (s *GormStore) UpdateIfStatus(ctx context.Context, id uint, from models.Status, m Mutation) (*models.SmokingArea, error) {
	var area models.SmokingArea

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"status":     m.Status,
			"updated_at": s.now().UTC(),
		}
		if m.Category != nil {
			updates["category"] = *m.Category
		}
		if m.Detail != nil {
			updates["detail"] = *m.Detail
		}

		// 상태 조건부 단일 UPDATE: 동시 요청 중 하나만 성공
		result := tx.Model(&models.SmokingArea{}).
			Where("id = ? AND status = ?", id, from).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}

		return tx.First(&area, id).Error
	})
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("update smoking area %d from %s: %w", id, from, err)
	}
	return &area, nil
}

func (s *GormStore) IncrementReportCount(ctx context.Context, id uint) (int, error) {
	var area models.SmokingArea

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.SmokingArea{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"report_count": gorm.Expr("COALESCE(report_count, 0) + 1"),
				"updated_at":   s.now().UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}

		return tx.Select("id", "report_count").First(&area, id).Error
	})
	if errors.Is(err, apperrors.ErrNotFound) {
		return 0, err
	}
	if err != nil {
		return 0, fmt.Errorf("increment report count %d: %w", id, err)
	}
	return area.ReportCount, nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

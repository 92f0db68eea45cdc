// Package repository is the durable store for smoking area records. It is
// the only component that reads or writes records.
package repository

import (
	"context"

	"github.com/taehoonhoonn/where-smoking/internal/geo"
	"github.com/taehoonhoonn/where-smoking/internal/models"
)

// Order 목록 정렬 방식
type Order int

const (
	OrderByID       Order = iota // id ASC
	OrderByAddress               // address ASC, id ASC
	OrderNewest                  // created_at DESC, id DESC
	OrderBySeverity              // report_count DESC, updated_at DESC, id DESC
)

// ListFilter 목록 조회 조건 (zero value = 전체, id 순)
type ListFilter struct {
	Status       models.Status
	Category     string
	ReportedOnly bool
	Bounds       *geo.Bounds
	Order        Order
}

// Mutation is applied together with the status change of a conditional
// update. Nil fields keep their stored value.
type Mutation struct {
	Status   models.Status
	Category *string
	Detail   *string
}

// SmokingAreaStore 흡연구역 저장소
type SmokingAreaStore interface {
	Create(ctx context.Context, area *models.SmokingArea) (uint, error)
	Get(ctx context.Context, id uint) (*models.SmokingArea, error)
	List(ctx context.Context, filter ListFilter) ([]models.SmokingArea, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)

	// UpdateIfStatus applies m only if the record is currently in status
	// from. It returns apperrors.ErrNotFound when no such record exists.
	UpdateIfStatus(ctx context.Context, id uint, from models.Status, m Mutation) (*models.SmokingArea, error)

	// IncrementReportCount atomically adds one to report_count regardless
	// of status and returns the new value.
	IncrementReportCount(ctx context.Context, id uint) (int, error)

	Ping(ctx context.Context) error
}

package handlers

import (
	"time"

	"github.com/taehoonhoonn/where-smoking/internal/models"
)

// Coordinates 응답 좌표
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// AreaResponse 흡연구역 응답 (목록/상세/관리 응답 공통, 빈 필드는 생략)
type AreaResponse struct {
	ID                uint                      `json:"id"`
	Category          string                    `json:"category"`
	SubmittedCategory *models.SubmittedCategory `json:"submitted_category,omitempty"`
	Address           string                    `json:"address"`
	Detail            *string                   `json:"detail"`
	PostalCode        *string                   `json:"postal_code"`
	Coordinates       Coordinates               `json:"coordinates"`
	Status            models.Status             `json:"status,omitempty"`
	ReportCount       *int                      `json:"report_count,omitempty"`
	DistanceMeters    *int                      `json:"distance_meters,omitempty"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         *time.Time                `json:"updated_at,omitempty"`
}

// ModerationResponse 승인/거부/삭제 결과
type ModerationResponse struct {
	ID                uint                      `json:"id"`
	Category          string                    `json:"category"`
	SubmittedCategory *models.SubmittedCategory `json:"submitted_category,omitempty"`
	Address           string                    `json:"address"`
	Status            models.Status             `json:"status"`
	ApprovedAt        *time.Time                `json:"approved_at,omitempty"`
	RejectedAt        *time.Time                `json:"rejected_at,omitempty"`
	DeletedAt         *time.Time                `json:"deleted_at,omitempty"`
	Reason            *string                   `json:"reason,omitempty"`
}

func presentArea(a models.SmokingArea) AreaResponse {
	return AreaResponse{
		ID:          a.ID,
		Category:    a.Category,
		Address:     a.Address,
		Detail:      a.Detail,
		PostalCode:  a.PostalCode,
		Coordinates: Coordinates{Latitude: a.Latitude, Longitude: a.Longitude},
		CreatedAt:   a.CreatedAt,
	}
}

func presentAreas(areas []models.SmokingArea) []AreaResponse {
	out := make([]AreaResponse, 0, len(areas))
	for _, a := range areas {
		out = append(out, presentArea(a))
	}
	return out
}

// presentAdminArea 관리자 목록용 (상태, 신고 수, 제보 분류 포함)
func presentAdminArea(a models.SmokingArea) AreaResponse {
	r := presentArea(a)
	r.SubmittedCategory = a.SubmittedCategory
	r.Status = a.Status
	count := a.ReportCount
	r.ReportCount = &count
	updated := a.UpdatedAt
	r.UpdatedAt = &updated
	return r
}

func presentAdminAreas(areas []models.SmokingArea) []AreaResponse {
	out := make([]AreaResponse, 0, len(areas))
	for _, a := range areas {
		out = append(out, presentAdminArea(a))
	}
	return out
}

func presentModeration(a *models.SmokingArea) ModerationResponse {
	r := ModerationResponse{
		ID:                a.ID,
		Category:          a.Category,
		SubmittedCategory: a.SubmittedCategory,
		Address:           a.Address,
		Status:            a.Status,
	}
	at := a.UpdatedAt
	switch a.Status {
	case models.StatusActive:
		r.ApprovedAt = &at
	case models.StatusRejected:
		r.RejectedAt = &at
	case models.StatusDeleted:
		r.DeletedAt = &at
	}
	return r
}

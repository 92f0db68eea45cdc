package models

import (
	"time"
)

// Status 흡연구역 레코드 상태
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusRejected Status = "rejected"
	StatusDeleted  Status = "deleted"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusRejected, StatusDeleted:
		return true
	}
	return false
}

// 표시 카테고리
const (
	CategoryCitizenReport = "시민제보"
	CategoryPublicData    = "공공데이타"
)

// SubmittedCategory 시민이 직접 선택한 분류 (닫힌 집합)
type SubmittedCategory string

const (
	SubmittedOfficial   SubmittedCategory = "official-looking"
	SubmittedUnofficial SubmittedCategory = "unofficial-looking"
)

// Label 화면 표시용 라벨
func (c SubmittedCategory) Label() string {
	switch c {
	case SubmittedOfficial:
		return "공식 흡연장소"
	case SubmittedUnofficial:
		return "비공식 흡연장소"
	}
	return string(c)
}

// SubmittedCategories 허용되는 시민 제보 분류 목록
var SubmittedCategories = []SubmittedCategory{SubmittedOfficial, SubmittedUnofficial}

// SmokingArea 흡연구역 레코드
// DB: smoking_areas
type SmokingArea struct {
	ID                uint               `gorm:"primaryKey" json:"id" bson:"_id"`
	Category          string             `gorm:"column:category;size:100;not null;index:idx_smoking_areas_category" json:"category" bson:"category"`
	SubmittedCategory *SubmittedCategory `gorm:"column:submitted_category;size:50" json:"submitted_category" bson:"submitted_category,omitempty"`
	Address           string             `gorm:"column:address;type:text;not null" json:"address" bson:"address"`
	Detail            *string            `gorm:"column:detail;type:text" json:"detail" bson:"detail,omitempty"`
	PostalCode        *string            `gorm:"column:postal_code;size:10" json:"postal_code" bson:"postal_code,omitempty"`
	Latitude          float64            `gorm:"column:latitude;type:double precision;not null" json:"latitude" bson:"latitude"`
	Longitude         float64            `gorm:"column:longitude;type:double precision;not null" json:"longitude" bson:"longitude"`
	Status            Status             `gorm:"column:status;size:20;not null;default:active;index:idx_smoking_areas_status" json:"status" bson:"status"`
	ReportCount       int                `gorm:"column:report_count;not null;default:0" json:"report_count" bson:"report_count"`
	CreatedAt         time.Time          `gorm:"column:created_at;not null" json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;not null" json:"updated_at" bson:"updated_at"`
}

func (SmokingArea) TableName() string {
	return "smoking_areas"
}

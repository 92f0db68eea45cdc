// Package submission validates and canonicalizes citizen-submitted
// smoking area candidates.
package submission

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/taehoonhoonn/where-smoking/internal/apperrors"
	"github.com/taehoonhoonn/where-smoking/internal/geo"
	"github.com/taehoonhoonn/where-smoking/internal/models"
)

// Normalized 정규화된 제보 입력
type Normalized struct {
	SubmittedCategory models.SubmittedCategory
	Latitude          float64
	Longitude         float64
	Address           string // 좌표 기반 임시 주소
}

// Normalizer 제보 검증기
type Normalizer struct {
	area     geo.Bounds
	areaName string
}

// NewNormalizer 서비스 영역(사각형)과 임시 주소에 사용할 지역명으로 생성
func NewNormalizer(area geo.Bounds, areaName string) *Normalizer {
	return &Normalizer{area: area, areaName: areaName}
}

// Normalize resolves the category label and coordinates of a submission.
// rawLat and rawLng may be float64, json.Number, string or any integer type.
func (n *Normalizer) Normalize(label string, rawLat, rawLng any) (*Normalized, error) {
	category, err := ResolveCategory(label)
	if err != nil {
		return nil, err
	}

	lat, err := parseCoordinate(rawLat)
	if err != nil {
		return nil, apperrors.Validation(apperrors.CodeInvalidCoordinates, "latitude", "위도는 숫자여야 합니다")
	}
	lng, err := parseCoordinate(rawLng)
	if err != nil {
		return nil, apperrors.Validation(apperrors.CodeInvalidCoordinates, "longitude", "경도는 숫자여야 합니다")
	}

	p := geo.Point{Lat: lat, Lng: lng}
	if !p.Valid() {
		return nil, apperrors.Validation(apperrors.CodeInvalidCoordinates, "coordinates", "위도/경도 범위를 벗어났습니다")
	}
	if !n.area.Contains(p) {
		return nil, apperrors.Validation(apperrors.CodeOutOfServiceArea, "coordinates", "서울 지역 내의 좌표만 등록 가능합니다.")
	}

	return &Normalized{
		SubmittedCategory: category,
		Latitude:          lat,
		Longitude:         lng,
		Address:           PlaceholderAddress(n.areaName, lat, lng),
	}, nil
}

// PlaceholderAddress 역지오코딩 전 임시 주소 (소수점 4자리)
func PlaceholderAddress(areaName string, lat, lng float64) string {
	return fmt.Sprintf("%s (%.4f, %.4f)", areaName, lat, lng)
}

// ResolveCategory maps a label, its key, or a whitespace/case-insensitive
// variant of either onto the closed category set.
func ResolveCategory(label string) (models.SubmittedCategory, error) {
	key := compact(label)
	if key != "" {
		for _, c := range models.SubmittedCategories {
			if key == compact(string(c)) || key == compact(c.Label()) {
				return c, nil
			}
		}
	}
	return "", apperrors.Validation(apperrors.CodeInvalidCategory, "category", "유효하지 않은 카테고리입니다.")
}

func compact(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func parseCoordinate(v any) (float64, error) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, err
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, err
		}
		f = parsed
	default:
		return 0, fmt.Errorf("unsupported coordinate type %T", v)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite coordinate")
	}
	return f, nil
}

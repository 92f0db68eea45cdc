package handlers

import (
	"errors"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// 에러 필드명은 요청에서 쓰는 이름으로
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "query", "params"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})
	return v
}

// NearbyRequest 반경 검색 쿼리 (radius/limit은 서비스에서 범위 보정)
type NearbyRequest struct {
	Lat    *float64 `query:"lat" validate:"required,min=-90,max=90"`
	Lng    *float64 `query:"lng" validate:"required,min=-180,max=180"`
	Radius *int     `query:"radius"`
	Limit  *int     `query:"limit"`
}

// SubmitRequest 시민 제보 본문 (좌표는 숫자 또는 숫자 문자열)
type SubmitRequest struct {
	Latitude  any     `json:"latitude" validate:"required"`
	Longitude any     `json:"longitude" validate:"required"`
	Category  string  `json:"category" validate:"required"`
	Detail    *string `json:"detail" validate:"omitempty,max=500"`
}

// RejectRequest 거부 사유 (선택)
type RejectRequest struct {
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

// PlaceSearchRequest 장소 검색 쿼리
type PlaceSearchRequest struct {
	Query  string   `query:"query" validate:"required,min=1,max=100"`
	X      *float64 `query:"x" validate:"omitempty,min=-180,max=180"`
	Y      *float64 `query:"y" validate:"omitempty,min=-90,max=90"`
	Radius *int     `query:"radius" validate:"omitempty,min=100,max=20000"`
	Size   *int     `query:"size" validate:"omitempty,min=1,max=15"`
}

type idParam struct {
	ID int `params:"id" validate:"min=1"`
}

// fieldMessages 필드/규칙별 사용자 메시지
var fieldMessages = map[string]string{
	"lat.required":      "위도는 필수입니다",
	"lat.min":           "위도는 -90도 이상이어야 합니다",
	"lat.max":           "위도는 90도 이하여야 합니다",
	"lng.required":      "경도는 필수입니다",
	"lng.min":           "경도는 -180도 이상이어야 합니다",
	"lng.max":           "경도는 180도 이하여야 합니다",
	"id.min":            "ID는 1 이상이어야 합니다",
	"detail.max":        "상세 설명은 500자 이하여야 합니다",
	"reason.max":        "거부 사유는 500자 이하여야 합니다",
	"query.required":    "검색어는 필수입니다",
	"query.max":         "검색어는 최대 100자 이하여야 합니다",
	"x.min":             "경도는 -180 이상이어야 합니다",
	"x.max":             "경도는 180 이하여야 합니다",
	"y.min":             "위도는 -90 이상이어야 합니다",
	"y.max":             "위도는 90 이하여야 합니다",
	"radius.min":        "반경은 최소 100m 이상이어야 합니다",
	"radius.max":        "반경은 최대 20000m 이하여야 합니다",
	"size.min":          "페이지 크기는 최소 1 이상이어야 합니다",
	"size.max":          "페이지 크기는 최대 15 이하여야 합니다",
	"category.required": "카테고리는 필수입니다",
	"category.max":      "카테고리는 100자 이하여야 합니다",
}

// validateStruct returns nil when s is valid.
func validateStruct(s any) []FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "request", Message: err.Error()}}
	}

	details := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = fe.Field() + " 값이 올바르지 않습니다"
		}
		details = append(details, FieldError{Field: fe.Field(), Message: msg})
	}
	return details
}

// parseID reads and validates the :id path parameter.
func parseID(c *fiber.Ctx) (uint, []FieldError) {
	var p idParam
	if err := c.ParamsParser(&p); err != nil {
		return 0, []FieldError{{Field: "id", Message: "ID는 숫자여야 합니다", Value: c.Params("id")}}
	}
	if details := validateStruct(p); details != nil {
		details[0].Value = p.ID
		return 0, details
	}
	return uint(p.ID), nil
}

// parseCategory reads the URL-encoded :category path parameter.
func parseCategory(c *fiber.Ctx) (string, []FieldError) {
	category, err := url.PathUnescape(c.Params("category"))
	if err != nil {
		return "", []FieldError{{Field: "category", Message: "카테고리 형식이 올바르지 않습니다"}}
	}
	category = strings.TrimSpace(category)
	if err := validate.Var(category, "required,max=100"); err != nil {
		var verrs validator.ValidationErrors
		tag := "required"
		if errors.As(err, &verrs) && len(verrs) > 0 {
			tag = verrs[0].Tag()
		}
		return "", []FieldError{{Field: "category", Message: fieldMessages["category."+tag]}}
	}
	return category, nil
}

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/taehoonhoonn/where-smoking/internal/services"
	"github.com/taehoonhoonn/where-smoking/pkg/kakao"
	"go.uber.org/zap"
)

const defaultPlaceSearchSize = 15

type PlaceHandler struct {
	service *services.PlaceService
	responder
}

func NewPlaceHandler(service *services.PlaceService, exposeInternal bool, log *zap.SugaredLogger) *PlaceHandler {
	return &PlaceHandler{service: service, responder: responder{exposeInternal: exposeInternal, log: log}}
}

func SetupPlaceRoutes(router fiber.Router, h *PlaceHandler) {
	router.Get("/search", h.Search)
}

// Search godoc
// @Summary Search places by keyword (Kakao Local proxy)
// @Tags places
// @Produce json
// @Param query query string true "Keyword"
// @Param x query number false "Longitude"
// @Param y query number false "Latitude"
// @Param radius query int false "Radius in meters (100-20000)"
// @Param size query int false "Page size (1-15, default 15)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 408 {object} ErrorResponse
// @Router /places/search [get]
func (h *PlaceHandler) Search(c *fiber.Ctx) error {
	var req PlaceSearchRequest
	if err := c.QueryParser(&req); err != nil {
		return h.validationFailed(c, "검색 조건 형식이 올바르지 않습니다", []FieldError{{Field: "query", Message: err.Error()}})
	}
	if details := validateStruct(req); details != nil {
		return h.validationFailed(c, details[0].Message, details)
	}

	size := defaultPlaceSearchSize
	if req.Size != nil && *req.Size > 0 {
		size = *req.Size
	}

	res, err := h.service.Search(c.UserContext(), kakao.KeywordQuery{
		Query:  req.Query,
		X:      req.X,
		Y:      req.Y,
		Radius: req.Radius,
		Size:   size,
	})
	if err != nil {
		return h.fail(c, err, "", "Internal server error")
	}
	return c.JSON(fiber.Map{"success": true, "data": res})
}

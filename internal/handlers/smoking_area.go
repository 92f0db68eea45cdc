package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/taehoonhoonn/where-smoking/internal/services"
	"go.uber.org/zap"
)

type SmokingAreaHandler struct {
	areas      *services.SmokingAreaService
	moderation *services.ModerationService
	reports    *services.ReportService
	responder
}

func NewSmokingAreaHandler(areas *services.SmokingAreaService, moderation *services.ModerationService, reports *services.ReportService, exposeInternal bool, log *zap.SugaredLogger) *SmokingAreaHandler {
	return &SmokingAreaHandler{
		areas:      areas,
		moderation: moderation,
		reports:    reports,
		responder:  responder{exposeInternal: exposeInternal, log: log},
	}
}

// SetupSmokingAreaRoutes registers /smoking-areas. Fixed paths come before
// /:id so that they are never captured as an id.
func SetupSmokingAreaRoutes(router fiber.Router, h *SmokingAreaHandler, admin fiber.Handler) {
	router.Get("/", h.List)
	router.Get("/nearby", h.Nearby)
	router.Get("/statistics", h.Statistics)
	router.Post("/pending", h.Submit)
	router.Get("/pending", admin, h.ListPending)
	router.Get("/reported", admin, h.ListReported)
	router.Get("/category/:category", h.ListByCategory)
	router.Patch("/:id/approve", admin, h.Approve)
	router.Delete("/:id/reject", admin, h.Reject)
	router.Post("/:id/report", h.Report)
	router.Delete("/:id", admin, h.Delete)
	router.Get("/:id", h.Get)
}

// List godoc
// @Summary List active smoking areas
// @Tags smoking-areas
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /smoking-areas [get]
func (h *SmokingAreaHandler) List(c *fiber.Ctx) error {
	areas, err := h.areas.List(c.UserContext())
	if err != nil {
		return h.fail(c, err, "", "Failed to retrieve smoking areas")
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"count":         len(areas),
		"smoking_areas": presentAreas(areas),
	})
}

// Nearby godoc
// @Summary Search active smoking areas around a point
// @Tags smoking-areas
// @Produce json
// @Param lat query number true "Latitude"
// @Param lng query number true "Longitude"
// @Param radius query int false "Radius in meters (100-10000, default 1000)"
// @Param limit query int false "Max results (1-100, default 20)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /smoking-areas/nearby [get]
func (h *SmokingAreaHandler) Nearby(c *fiber.Ctx) error {
	var req NearbyRequest
	if err := c.QueryParser(&req); err != nil {
		return h.validationFailed(c, "위도/경도/반경/개수는 숫자여야 합니다", []FieldError{{Field: "query", Message: err.Error()}})
	}
	if details := validateStruct(req); details != nil {
		return h.validationFailed(c, details[0].Message, details)
	}

	res, err := h.areas.Nearby(c.UserContext(), services.NearbyQuery{
		Lat:    *req.Lat,
		Lng:    *req.Lng,
		Radius: req.Radius,
		Limit:  req.Limit,
	})
	if err != nil {
		return h.fail(c, err, "", "Failed to search nearby areas")
	}

	areas := make([]AreaResponse, 0, len(res.Areas))
	for _, a := range res.Areas {
		r := presentArea(a.Area)
		d := a.DistanceMeters
		r.DistanceMeters = &d
		areas = append(areas, r)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"query": fiber.Map{
			"latitude":      res.Lat,
			"longitude":     res.Lng,
			"radius_meters": res.Radius,
			"limit":         res.Limit,
		},
		"count":         len(areas),
		"smoking_areas": areas,
	})
}

// Get godoc
// @Summary Get an active smoking area
// @Tags smoking-areas
// @Produce json
// @Param id path int true "Smoking area ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /smoking-areas/{id} [get]
func (h *SmokingAreaHandler) Get(c *fiber.Ctx) error {
	id, details := parseID(c)
	if details != nil {
		return h.validationFailed(c, details[0].Message, details)
	}

	area, err := h.areas.GetActive(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err, fmt.Sprintf("Smoking area with ID %d not found", id), "Failed to retrieve smoking area")
	}

	resp := presentArea(*area)
	updated := area.UpdatedAt
	resp.UpdatedAt = &updated
	return c.JSON(fiber.Map{"success": true, "smoking_area": resp})
}

// ListByCategory godoc
// @Summary List active smoking areas of a category
// @Tags smoking-areas
// @Produce json
// @Param category path string true "Display category"
// @Success 200 {object} map[string]interface{}
// @Router /smoking-areas/category/{category} [get]
func (h *SmokingAreaHandler) ListByCategory(c *fiber.Ctx) error {
	category, details := parseCategory(c)
	if details != nil {
		return h.validationFailed(c, details[0].Message, details)
	}

	areas, err := h.areas.ListByCategory(c.UserContext(), category)
	if err != nil {
		return h.fail(c, err, "", "Failed to retrieve areas by category")
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"category":      category,
		"count":         len(areas),
		"smoking_areas": presentAreas(areas),
	})
}

// Statistics godoc
// @Summary Active smoking area statistics by category and district
// @Tags smoking-areas
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /smoking-areas/statistics [get]
func (h *SmokingAreaHandler) Statistics(c *fiber.Ctx) error {
	stats, err := h.areas.Statistics(c.UserContext())
	if err != nil {
		return h.fail(c, err, "", "Failed to retrieve statistics")
	}
	return c.JSON(fiber.Map{"success": true, "statistics": stats})
}

// Submit godoc
// @Summary Submit a new smoking area for review
// @Tags smoking-areas
// @Accept json
// @Produce json
// @Param body body SubmitRequest true "Submission"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /smoking-areas/pending [post]
func (h *SmokingAreaHandler) Submit(c *fiber.Ctx) error {
	var req SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return h.validationFailed(c, "요청 본문을 해석할 수 없습니다", []FieldError{{Field: "body", Message: err.Error()}})
	}
	if details := validateStruct(req); details != nil {
		return h.validationFailed(c, "위도, 경도, 카테고리는 필수입니다.", details)
	}

	area, err := h.moderation.Submit(c.UserContext(), services.SubmitInput{
		Category:  req.Category,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Detail:    req.Detail,
	})
	if err != nil {
		return h.fail(c, err, "", "등록 신청 처리 중 오류가 발생했습니다.")
	}

	resp := presentArea(*area)
	resp.SubmittedCategory = area.SubmittedCategory
	resp.Status = area.Status
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":      true,
		"message":      "흡연구역 등록 신청이 완료되었습니다. 관리자 검토 후 반영됩니다.",
		"smoking_area": resp,
	})
}

// ListPending godoc
// @Summary List pending submissions (admin)
// @Tags admin
// @Produce json
// @Security AdminToken
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} ErrorResponse
// @Router /smoking-areas/pending [get]
func (h *SmokingAreaHandler) ListPending(c *fiber.Ctx) error {
	areas, err := h.moderation.ListPending(c.UserContext())
	if err != nil {
		return h.fail(c, err, "", "Failed to retrieve pending areas")
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"count":         len(areas),
		"pending_areas": presentAdminAreas(areas),
	})
}

// ListReported godoc
// @Summary List reported smoking areas in any status (admin)
// @Tags admin
// @Produce json
// @Security AdminToken
// @Success 200 {object} map[string]interface{}
// @Router /smoking-areas/reported [get]
func (h *SmokingAreaHandler) ListReported(c *fiber.Ctx) error {
	areas, err := h.moderation.ListReported(c.UserContext())
	if err != nil {
		return h.fail(c, err, "", "Failed to retrieve reported areas")
	}
	return c.JSON(fiber.Map{
		"success":        true,
		"count":          len(areas),
		"reported_areas": presentAdminAreas(areas),
	})
}

// Approve godoc
// @Summary Approve a pending submission (admin)
// @Tags admin
// @Produce json
// @Security AdminToken
// @Param id path int true "Smoking area ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /smoking-areas/{id}/approve [patch]
func (h *SmokingAreaHandler) Approve(c *fiber.Ctx) error {
	id, details := parseID(c)
	if details != nil {
		return h.validationFailed(c, details[0].Message, details)
	}

	area, err := h.moderation.Approve(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err, fmt.Sprintf("Pending area with ID %d not found", id), "Failed to approve smoking area")
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"message":      "흡연구역이 승인되어 활성화되었습니다.",
		"smoking_area": presentModeration(area),
	})
}

// Reject godoc
// @Summary Reject a pending submission (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Security AdminToken
// @Param id path int true "Smoking area ID"
// @Param body body RejectRequest false "Reason"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /smoking-areas/{id}/reject [delete]
func (h *SmokingAreaHandler) Reject(c *fiber.Ctx) error {
	id, details := parseID(c)
	if details != nil {
		return h.validationFailed(c, details[0].Message, details)
	}

	var req RejectRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return h.validationFailed(c, "요청 본문을 해석할 수 없습니다", []FieldError{{Field: "body", Message: err.Error()}})
		}
		if details := validateStruct(req); details != nil {
			return h.validationFailed(c, details[0].Message, details)
		}
	}

	area, err := h.moderation.Reject(c.UserContext(), id, req.Reason)
	if err != nil {
		return h.fail(c, err, fmt.Sprintf("Pending area with ID %d not found", id), "Failed to reject smoking area")
	}

	resp := presentModeration(area)
	if req.Reason != nil {
		if reason := strings.TrimSpace(*req.Reason); reason != "" {
			resp.Reason = &reason
		}
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"message":      "흡연구역 등록 신청이 거부되었습니다.",
		"smoking_area": resp,
	})
}

// Delete godoc
// @Summary Delete an active smoking area (admin)
// @Tags admin
// @Produce json
// @Security AdminToken
// @Param id path int true "Smoking area ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /smoking-areas/{id} [delete]
func (h *SmokingAreaHandler) Delete(c *fiber.Ctx) error {
	id, details := parseID(c)
	if details != nil {
		return h.validationFailed(c, details[0].Message, details)
	}

	area, err := h.moderation.Delete(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err, fmt.Sprintf("Active area with ID %d not found", id), "Failed to delete smoking area")
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"message":      "흡연구역이 삭제되었습니다.",
		"smoking_area": presentModeration(area),
	})
}

// Report godoc
// @Summary Report a smoking area as false
// @Tags smoking-areas
// @Produce json
// @Param id path int true "Smoking area ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /smoking-areas/{id}/report [post]
func (h *SmokingAreaHandler) Report(c *fiber.Ctx) error {
	id, details := parseID(c)
	if details != nil {
		return h.validationFailed(c, details[0].Message, details)
	}

	count, err := h.reports.ReportFalse(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err, fmt.Sprintf("Smoking area with ID %d not found", id), "Failed to report smoking area")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "허위 장소 신고가 접수되었습니다.",
		"smoking_area": fiber.Map{
			"id":           id,
			"report_count": count,
		},
	})
}

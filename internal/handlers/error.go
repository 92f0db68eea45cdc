package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/taehoonhoonn/where-smoking/internal/apperrors"
	"github.com/taehoonhoonn/where-smoking/internal/services"
	"go.uber.org/zap"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   string       `json:"error"`
	Message string       `json:"message,omitempty"`
	Code    string       `json:"code,omitempty"`
	Details []FieldError `json:"details,omitempty"`
}

// FieldError 요청 필드 검증 실패 항목
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// ErrorHandler returns the Fiber error handler. Internal detail is only
// exposed when exposeInternal is set (development).
func ErrorHandler(exposeInternal bool, log *zap.SugaredLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			message = e.Message
		} else {
			log.Errorw("Unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
			if exposeInternal {
				message = err.Error()
			}
		}

		resp := ErrorResponse{Success: false, Error: message}
		if code == fiber.StatusNotFound {
			resp.Error = "Not found"
			resp.Message = fmt.Sprintf("Route %s %s not found", c.Method(), c.OriginalURL())
		}
		return c.Status(code).JSON(resp)
	}
}

// responder 서비스 에러를 HTTP 응답으로 변환
type responder struct {
	exposeInternal bool
	log            *zap.SugaredLogger
}

func (r responder) validationFailed(c *fiber.Ctx, message string, details []FieldError) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Success: false,
		Error:   "Validation failed",
		Message: message,
		Code:    apperrors.CodeInvalidInput,
		Details: details,
	})
}

// fail maps err to a status code. notFound is the client message for
// apperrors.ErrNotFound and failure the message for anything unexpected.
func (r responder) fail(c *fiber.Ctx, err error, notFound, failure string) error {
	if ve, ok := apperrors.AsValidation(err); ok {
		resp := ErrorResponse{
			Success: false,
			Error:   "Validation failed",
			Message: ve.Message,
			Code:    ve.Code,
		}
		if ve.Field != "" {
			resp.Details = []FieldError{{Field: ve.Field, Message: ve.Message}}
		}
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	}

	if errors.Is(err, apperrors.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Success: false, Error: "Not found", Message: notFound})
	}
	if errors.Is(err, apperrors.ErrForbidden) {
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{Success: false, Error: "Forbidden", Message: "관리자 권한이 필요합니다."})
	}
	if errors.Is(err, services.ErrPlaceSearchNotConfigured) {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Success: false, Error: "Kakao API key not configured"})
	}

	if ue, ok := apperrors.AsUpstream(err); ok {
		status := services.UpstreamStatus(ue)
		msg := "External API error"
		switch {
		case ue.Timeout:
			msg = "Search request timeout"
		case ue.StatusCode == fiber.StatusUnauthorized:
			msg = "API authentication failed"
		}
		return c.Status(status).JSON(ErrorResponse{Success: false, Error: msg})
	}

	resp := ErrorResponse{Success: false, Error: "Internal server error", Message: failure}
	if r.exposeInternal {
		resp.Message = fmt.Sprintf("%s: %v", failure, err)
	}
	return c.Status(fiber.StatusInternalServerError).JSON(resp)
}

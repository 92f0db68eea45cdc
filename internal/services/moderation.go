package services

import (
	"context"
	"errors"
	"strings"

	"github.com/taehoonhoonn/where-smoking/internal/apperrors"
	"github.com/taehoonhoonn/where-smoking/internal/models"
	"github.com/taehoonhoonn/where-smoking/internal/moderation"
	"github.com/taehoonhoonn/where-smoking/internal/repository"
	"github.com/taehoonhoonn/where-smoking/internal/submission"
	"github.com/taehoonhoonn/where-smoking/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// StatisticsInvalidator is notified when the active set changes.
type StatisticsInvalidator interface {
	InvalidateStatistics(ctx context.Context)
}

type ModerationService struct {
	store      repository.SmokingAreaStore
	normalizer *submission.Normalizer
	stats      StatisticsInvalidator
	log        *zap.SugaredLogger
}

func NewModerationService(store repository.SmokingAreaStore, normalizer *submission.Normalizer, stats StatisticsInvalidator, log *zap.SugaredLogger) *ModerationService {
	return &ModerationService{store: store, normalizer: normalizer, stats: stats, log: log}
}

// SubmitInput 시민 제보 입력 (좌표는 숫자 또는 숫자 문자열)
type SubmitInput struct {
	Category  string
	Latitude  any
	Longitude any
	Detail    *string
}

// Submit normalizes a citizen submission and stores it as pending. The
// display category of a pending record is the canonical label of its
// submitted category.
func (s *ModerationService) Submit(ctx context.Context, in SubmitInput) (*models.SmokingArea, error) {
	n, err := s.normalizer.Normalize(in.Category, in.Latitude, in.Longitude)
	if err != nil {
		if ve, ok := apperrors.AsValidation(err); ok {
			submissionsTotal.WithLabelValues(ve.Code).Inc()
		}
		return nil, err
	}

	submitted := n.SubmittedCategory
	area := &models.SmokingArea{
		Category:          submitted.Label(),
		SubmittedCategory: &submitted,
		Address:           n.Address,
		Detail:            trimmedOrNil(in.Detail),
		Latitude:          n.Latitude,
		Longitude:         n.Longitude,
		Status:            models.StatusPending,
	}

	if _, err := s.store.Create(ctx, area); err != nil {
		submissionsTotal.WithLabelValues("error").Inc()
		s.log.Errorw("Failed to create pending smoking area", "op", "Submit",
			"lat", n.Latitude, "lng", n.Longitude, "category", submitted, "error", err)
		return nil, err
	}

	submissionsTotal.WithLabelValues("accepted").Inc()
	s.log.Infow("Pending smoking area created", "id", area.ID, "category", submitted,
		"detail_provided", area.Detail != nil)
	return area, nil
}

// ListPending returns pending submissions, newest first.
func (s *ModerationService) ListPending(ctx context.Context) ([]models.SmokingArea, error) {
	areas, err := s.store.List(ctx, repository.ListFilter{
		Status: models.StatusPending,
		Order:  repository.OrderNewest,
	})
	if err != nil {
		s.log.Errorw("Failed to list pending areas", "op", "ListPending", "error", err)
		return nil, err
	}
	return areas, nil
}

// ListReported returns records with at least one report in any status,
// ordered by report count then most recent update.
func (s *ModerationService) ListReported(ctx context.Context) ([]models.SmokingArea, error) {
	areas, err := s.store.List(ctx, repository.ListFilter{
		ReportedOnly: true,
		Order:        repository.OrderBySeverity,
	})
	if err != nil {
		s.log.Errorw("Failed to list reported areas", "op", "ListReported", "error", err)
		return nil, err
	}
	return areas, nil
}

// Approve moves a pending record to active and rewrites its category to
// the citizen-report label.
func (s *ModerationService) Approve(ctx context.Context, id uint) (*models.SmokingArea, error) {
	category := models.CategoryCitizenReport
	return s.apply(ctx, moderation.ActionApprove, id, repository.Mutation{Category: &category})
}

// Reject moves a pending record to rejected. A non-blank reason replaces
// the stored detail.
func (s *ModerationService) Reject(ctx context.Context, id uint, reason *string) (*models.SmokingArea, error) {
	return s.apply(ctx, moderation.ActionReject, id, repository.Mutation{Detail: trimmedOrNil(reason)})
}

// Delete moves an active record to deleted. Pending and rejected records
// cannot be deleted.
func (s *ModerationService) Delete(ctx context.Context, id uint) (*models.SmokingArea, error) {
	return s.apply(ctx, moderation.ActionDelete, id, repository.Mutation{})
}

func (s *ModerationService) apply(ctx context.Context, action moderation.Action, id uint, m repository.Mutation) (*models.SmokingArea, error) {
	rule, err := moderation.Rule(action)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "ModerationService."+string(action),
		attribute.Int64("smoking_area.id", int64(id)),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	m.Status = rule.To
	area, err := s.store.UpdateIfStatus(ctx, id, rule.From, m)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		moderationActionsTotal.WithLabelValues(string(action), "not_found").Inc()
		s.log.Debugw("No record in expected status", "action", action, "id", id, "expected", rule.From)
		// 없는 레코드는 span 에러로 기록하지 않음
		err = nil
		return nil, apperrors.ErrNotFound
	case err != nil:
		moderationActionsTotal.WithLabelValues(string(action), "error").Inc()
		s.log.Errorw("Moderation update failed", "op", action, "id", id, "error", err)
		return nil, err
	}

	moderationActionsTotal.WithLabelValues(string(action), "ok").Inc()
	telemetry.RecordStatusTransition(ctx, string(rule.From), string(rule.To))
	s.log.Infow("Smoking area status changed", "action", action, "id", id, "from", rule.From, "to", rule.To)

	// 활성 목록이 바뀌는 전이만 통계 캐시 무효화
	if (rule.From == models.StatusActive || rule.To == models.StatusActive) && s.stats != nil {
		s.stats.InvalidateStatistics(ctx)
	}
	return area, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

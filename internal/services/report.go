package services

import (
	"context"
	"errors"

	"github.com/taehoonhoonn/where-smoking/internal/apperrors"
	"github.com/taehoonhoonn/where-smoking/internal/repository"
	"go.uber.org/zap"
)

// ReportService 허위 장소 신고 카운터
type ReportService struct {
	store repository.SmokingAreaStore
	log   *zap.SugaredLogger
}

func NewReportService(store repository.SmokingAreaStore, log *zap.SugaredLogger) *ReportService {
	return &ReportService{store: store, log: log}
}

// ReportFalse increments the report counter of a record in any status and
// returns the new count.
func (s *ReportService) ReportFalse(ctx context.Context, id uint) (int, error) {
	count, err := s.store.IncrementReportCount(ctx, id)
	if errors.Is(err, apperrors.ErrNotFound) {
		falseReportsTotal.WithLabelValues("not_found").Inc()
		return 0, err
	}
	if err != nil {
		falseReportsTotal.WithLabelValues("error").Inc()
		s.log.Errorw("Failed to record false report", "op", "ReportFalse", "id", id, "error", err)
		return 0, err
	}

	falseReportsTotal.WithLabelValues("ok").Inc()
	s.log.Infow("False report recorded", "id", id, "report_count", count)
	return count, nil
}

package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/taehoonhoonn/where-smoking/internal/apperrors"
	"github.com/taehoonhoonn/where-smoking/internal/models"
)

func TestReportFalseAnyStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := f.submit(t, "공식 흡연장소", 37.55, 126.97)
	for i := 1; i <= 3; i++ {
		count, err := f.reports.ReportFalse(ctx, pending.ID)
		if err != nil {
			t.Fatalf("ReportFalse failed: %v", err)
		}
		if count != i {
			t.Errorf("Expected count %d, got %d", i, count)
		}
	}

	got, _ := f.store.Get(ctx, pending.ID)
	if got.Status != models.StatusPending {
		t.Errorf("Reporting must not change status, got %s", got.Status)
	}

	if _, err := f.reports.ReportFalse(ctx, 4242); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestReportFalseConcurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.seedActive(t, models.CategoryPublicData, "서울 중구", 37.56, 126.97)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.reports.ReportFalse(ctx, id); err != nil {
				t.Errorf("ReportFalse failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := f.store.Get(ctx, id)
	if got.ReportCount != n {
		t.Errorf("Expected %d reports, got %d", n, got.ReportCount)
	}
}

package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/taehoonhoonn/where-smoking/internal/apperrors"
	"github.com/taehoonhoonn/where-smoking/internal/models"
)

// 제보 → 승인 → 반경 검색 → 신고 → 삭제 전체 흐름
func TestSubmissionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	area, err := f.moderation.Submit(ctx, SubmitInput{
		Category:  "공식 흡연장소",
		Latitude:  37.5547,
		Longitude: 126.9707,
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if area.Status != models.StatusPending {
		t.Errorf("Expected pending, got %s", area.Status)
	}
	if area.Category != "공식 흡연장소" {
		t.Errorf("Expected label category, got %s", area.Category)
	}
	if area.SubmittedCategory == nil || *area.SubmittedCategory != models.SubmittedOfficial {
		t.Errorf("Expected submitted category official-looking, got %v", area.SubmittedCategory)
	}
	if area.Address != "서울특별시 (37.5547, 126.9707)" {
		t.Errorf("Unexpected placeholder address: %s", area.Address)
	}

	pending, _ := f.moderation.ListPending(ctx)
	if len(pending) != 1 || pending[0].ID != area.ID {
		t.Fatalf("Expected pending list to contain %d, got %+v", area.ID, pending)
	}

	approved, err := f.moderation.Approve(ctx, area.ID)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if approved.Status != models.StatusActive || approved.Category != models.CategoryCitizenReport {
		t.Errorf("Unexpected approved record: status=%s category=%s", approved.Status, approved.Category)
	}

	res, err := f.areas.Nearby(ctx, NearbyQuery{Lat: 37.5547, Lng: 126.9707, Radius: intPtr(100)})
	if err != nil {
		t.Fatalf("Nearby failed: %v", err)
	}
	if len(res.Areas) != 1 || res.Areas[0].Area.ID != area.ID || res.Areas[0].DistanceMeters != 0 {
		t.Fatalf("Expected approved area at distance 0, got %+v", res.Areas)
	}

	count, err := f.reports.ReportFalse(ctx, area.ID)
	if err != nil || count != 1 {
		t.Fatalf("Expected report count 1, got %d (%v)", count, err)
	}

	if _, err := f.moderation.Delete(ctx, area.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	res, _ = f.areas.Nearby(ctx, NearbyQuery{Lat: 37.5547, Lng: 126.9707, Radius: intPtr(100)})
	if len(res.Areas) != 0 {
		t.Errorf("Deleted area must not appear in nearby search, got %+v", res.Areas)
	}

	reported, _ := f.moderation.ListReported(ctx)
	if len(reported) != 1 || reported[0].Status != models.StatusDeleted {
		t.Errorf("Expected deleted record to stay in reported list, got %+v", reported)
	}
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		in   SubmitInput
		code string
	}{
		{"unknown category", SubmitInput{Category: "흡연부스", Latitude: 37.55, Longitude: 126.97}, apperrors.CodeInvalidCategory},
		{"not a number", SubmitInput{Category: "공식 흡연장소", Latitude: "abc", Longitude: 126.97}, apperrors.CodeInvalidInput},
		{"outside Seoul", SubmitInput{Category: "공식 흡연장소", Latitude: 35.1796, Longitude: 129.0756}, apperrors.CodeOutOfServiceArea},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.moderation.Submit(context.Background(), tt.in)
			ve, ok := apperrors.AsValidation(err)
			if !ok {
				t.Fatalf("Expected validation error, got %v", err)
			}
			if ve.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, ve.Code)
			}
		})
	}

	pending, _ := f.moderation.ListPending(context.Background())
	if len(pending) != 0 {
		t.Errorf("Rejected submissions must not be stored, got %d", len(pending))
	}
}

func TestSubmitTrimsDetail(t *testing.T) {
	f := newFixture(t)
	blank := "   "
	area, err := f.moderation.Submit(context.Background(), SubmitInput{
		Category: "비공식 흡연장소", Latitude: "37.5", Longitude: "127.0", Detail: &blank,
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if area.Detail != nil {
		t.Errorf("Expected blank detail to be dropped, got %q", *area.Detail)
	}
}

func TestApproveTwiceReturnsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	area := f.submit(t, "공식 흡연장소", 37.55, 126.97)

	if _, err := f.moderation.Approve(ctx, area.ID); err != nil {
		t.Fatalf("First approve failed: %v", err)
	}
	if _, err := f.moderation.Approve(ctx, area.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second approve, got %v", err)
	}
	if _, err := f.moderation.Approve(ctx, 9999); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestRejectIsTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	area := f.submit(t, "공식 흡연장소", 37.55, 126.97)

	reason := "  중복 제보  "
	rejected, err := f.moderation.Reject(ctx, area.ID, &reason)
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if rejected.Status != models.StatusRejected {
		t.Errorf("Expected rejected, got %s", rejected.Status)
	}
	if rejected.Detail == nil || *rejected.Detail != "중복 제보" {
		t.Errorf("Expected trimmed reason as detail, got %v", rejected.Detail)
	}

	if _, err := f.moderation.Approve(ctx, area.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected rejected record to stay rejected, got %v", err)
	}
	if _, err := f.moderation.Delete(ctx, area.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected rejected record not deletable, got %v", err)
	}
}

func TestRejectWithoutReasonKeepsDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	detail := "지하철역 3번 출구"
	area, err := f.moderation.Submit(ctx, SubmitInput{Category: "공식 흡연장소", Latitude: 37.55, Longitude: 126.97, Detail: &detail})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	rejected, err := f.moderation.Reject(ctx, area.ID, nil)
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if rejected.Detail == nil || *rejected.Detail != detail {
		t.Errorf("Expected detail to be kept, got %v", rejected.Detail)
	}
}

func TestDeleteOnlyActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	area := f.submit(t, "공식 흡연장소", 37.55, 126.97)

	if _, err := f.moderation.Delete(ctx, area.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected pending record not deletable, got %v", err)
	}

	id := f.seedActive(t, models.CategoryPublicData, "서울 중구", 37.56, 126.97)
	deleted, err := f.moderation.Delete(ctx, id)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if deleted.Status != models.StatusDeleted {
		t.Errorf("Expected deleted, got %s", deleted.Status)
	}
	if _, err := f.moderation.Delete(ctx, id); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected second delete to fail, got %v", err)
	}
}

func TestModerationInvalidatesStatistics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	area := f.submit(t, "공식 흡연장소", 37.55, 126.97)

	reason := "위치 불명확"
	other := f.submit(t, "공식 흡연장소", 37.56, 126.98)
	if _, err := f.moderation.Reject(ctx, other.ID, &reason); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if f.cache.incrs != 0 {
		t.Errorf("Reject must not touch statistics cache, got %d invalidations", f.cache.incrs)
	}

	if _, err := f.moderation.Approve(ctx, area.ID); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if _, err := f.moderation.Delete(ctx, area.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if f.cache.incrs != 2 {
		t.Errorf("Expected 2 invalidations, got %d", f.cache.incrs)
	}
}

func TestConcurrentModerationSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	area := f.submit(t, "공식 흡연장소", 37.55, 126.97)

	var approved, rejected, notFound int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = f.moderation.Approve(ctx, area.ID)
				if err == nil {
					atomic.AddInt32(&approved, 1)
				}
			} else {
				_, err = f.moderation.Reject(ctx, area.ID, nil)
				if err == nil {
					atomic.AddInt32(&rejected, 1)
				}
			}
			if errors.Is(err, apperrors.ErrNotFound) {
				atomic.AddInt32(&notFound, 1)
			}
		}(i)
	}
	wg.Wait()

	if approved+rejected != 1 {
		t.Errorf("Expected exactly one winner, got approved=%d rejected=%d", approved, rejected)
	}
	if notFound != 9 {
		t.Errorf("Expected 9 losers, got %d", notFound)
	}
}

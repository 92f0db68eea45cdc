package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/taehoonhoonn/where-smoking/internal/apperrors"
	"github.com/taehoonhoonn/where-smoking/internal/geo"
	"github.com/taehoonhoonn/where-smoking/internal/models"
)

func strPtr(s string) *string { return &s }

func seedArea(t *testing.T, store SmokingAreaStore, a models.SmokingArea) uint {
	t.Helper()
	id, err := store.Create(context.Background(), &a)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return id
}

func pendingArea(address string) models.SmokingArea {
	sc := models.SubmittedOfficial
	return models.SmokingArea{
		Category:          sc.Label(),
		SubmittedCategory: &sc,
		Address:           address,
		Latitude:          37.5547,
		Longitude:         126.9707,
		Status:            models.StatusPending,
	}
}

func activeArea(category, address string, lat, lng float64) models.SmokingArea {
	return models.SmokingArea{
		Category:  category,
		Address:   address,
		Latitude:  lat,
		Longitude: lng,
		Status:    models.StatusActive,
	}
}

// runStoreSuite exercises the SmokingAreaStore contract against any backend.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) SmokingAreaStore) {
	t.Run("CreateAndGet", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		id := seedArea(t, store, pendingArea("서울특별시 (37.5547, 126.9707)"))
		if id == 0 {
			t.Fatal("Expected non-zero id")
		}

		got, err := store.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Status != models.StatusPending {
			t.Errorf("Expected pending, got %s", got.Status)
		}
		if got.SubmittedCategory == nil || *got.SubmittedCategory != models.SubmittedOfficial {
			t.Errorf("Expected submitted category official-looking, got %v", got.SubmittedCategory)
		}
		if got.ReportCount != 0 {
			t.Errorf("Expected report count 0, got %d", got.ReportCount)
		}

		if _, err := store.Get(ctx, id+1000); !errors.Is(err, apperrors.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListFiltersAndOrders", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		a := seedArea(t, store, activeArea(models.CategoryPublicData, "서울 중구 다", 37.56, 126.97))
		b := seedArea(t, store, activeArea(models.CategoryCitizenReport, "서울 강서구 가", 37.55, 126.85))
		c := seedArea(t, store, activeArea(models.CategoryPublicData, "서울 노원구 나", 37.65, 127.06))
		seedArea(t, store, pendingArea("서울특별시 (37.5547, 126.9707)"))

		all, err := store.List(ctx, ListFilter{Status: models.StatusActive})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		assertIDs(t, "by id", all, a, b, c)

		byCategory, err := store.List(ctx, ListFilter{
			Status:   models.StatusActive,
			Category: models.CategoryPublicData,
			Order:    OrderByAddress,
		})
		if err != nil {
			t.Fatalf("List by category failed: %v", err)
		}
		assertIDs(t, "by address", byCategory, c, a)

		bounds := geo.Bounds{MinLat: 37.5, MaxLat: 37.6, MinLng: 126.9, MaxLng: 127.0}
		inBounds, err := store.List(ctx, ListFilter{Status: models.StatusActive, Bounds: &bounds})
		if err != nil {
			t.Fatalf("List with bounds failed: %v", err)
		}
		assertIDs(t, "bounds", inBounds, a)

		n, err := store.Count(ctx, ListFilter{Status: models.StatusActive})
		if err != nil {
			t.Fatalf("Count failed: %v", err)
		}
		if n != 3 {
			t.Errorf("Expected 3 active, got %d", n)
		}
	})

	t.Run("UpdateIfStatusGuards", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		id := seedArea(t, store, pendingArea("서울특별시 (37.5547, 126.9707)"))

		updated, err := store.UpdateIfStatus(ctx, id, models.StatusPending, Mutation{
			Status:   models.StatusActive,
			Category: strPtr(models.CategoryCitizenReport),
		})
		if err != nil {
			t.Fatalf("UpdateIfStatus failed: %v", err)
		}
		if updated.Status != models.StatusActive || updated.Category != models.CategoryCitizenReport {
			t.Errorf("Unexpected record after approve: %+v", updated)
		}
		if updated.SubmittedCategory == nil || *updated.SubmittedCategory != models.SubmittedOfficial {
			t.Error("Submitted category must be preserved")
		}

		// 같은 전이를 다시 시도하면 NotFound
		_, err = store.UpdateIfStatus(ctx, id, models.StatusPending, Mutation{Status: models.StatusActive})
		if !errors.Is(err, apperrors.ErrNotFound) {
			t.Errorf("Expected ErrNotFound on second approve, got %v", err)
		}

		_, err = store.UpdateIfStatus(ctx, id+1000, models.StatusPending, Mutation{Status: models.StatusActive})
		if !errors.Is(err, apperrors.ErrNotFound) {
			t.Errorf("Expected ErrNotFound for missing id, got %v", err)
		}
	})

	t.Run("UpdateIfStatusKeepsDetailWhenNil", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		area := pendingArea("서울특별시 (37.5547, 126.9707)")
		area.Detail = strPtr("출구 앞")
		id := seedArea(t, store, area)

		got, err := store.UpdateIfStatus(ctx, id, models.StatusPending, Mutation{Status: models.StatusRejected})
		if err != nil {
			t.Fatalf("UpdateIfStatus failed: %v", err)
		}
		if got.Detail == nil || *got.Detail != "출구 앞" {
			t.Errorf("Expected detail kept, got %v", got.Detail)
		}
	})

	t.Run("ConcurrentApproveHasOneWinner", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		id := seedArea(t, store, pendingArea("서울특별시 (37.5547, 126.9707)"))

		const workers = 10
		var wg sync.WaitGroup
		var mu sync.Mutex
		wins, notFound := 0, 0

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				to := models.StatusActive
				if i%2 == 1 {
					to = models.StatusRejected
				}
				_, err := store.UpdateIfStatus(ctx, id, models.StatusPending, Mutation{Status: to})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					wins++
				case errors.Is(err, apperrors.ErrNotFound):
					notFound++
				default:
					t.Errorf("Unexpected error: %v", err)
				}
			}(i)
		}
		wg.Wait()

		if wins != 1 || notFound != workers-1 {
			t.Errorf("Expected 1 winner and %d NotFound, got %d and %d", workers-1, wins, notFound)
		}
	})

	t.Run("IncrementReportCount", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		id := seedArea(t, store, activeArea(models.CategoryPublicData, "서울 중구", 37.56, 126.97))
		for i := 1; i <= 3; i++ {
			n, err := store.IncrementReportCount(ctx, id)
			if err != nil {
				t.Fatalf("IncrementReportCount failed: %v", err)
			}
			if n != i {
				t.Errorf("Expected count %d, got %d", i, n)
			}
		}

		if _, err := store.IncrementReportCount(ctx, id+1000); !errors.Is(err, apperrors.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("IncrementReportCountIgnoresStatus", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		id := seedArea(t, store, pendingArea("서울특별시 (37.5547, 126.9707)"))
		if _, err := store.UpdateIfStatus(ctx, id, models.StatusPending, Mutation{Status: models.StatusRejected}); err != nil {
			t.Fatalf("Reject failed: %v", err)
		}
		n, err := store.IncrementReportCount(ctx, id)
		if err != nil {
			t.Fatalf("Report on rejected record failed: %v", err)
		}
		if n != 1 {
			t.Errorf("Expected 1, got %d", n)
		}
	})

	t.Run("ConcurrentReportsNeverLoseIncrements", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		id := seedArea(t, store, activeArea(models.CategoryPublicData, "서울 중구", 37.56, 126.97))

		const reports = 25
		var wg sync.WaitGroup
		for i := 0; i < reports; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := store.IncrementReportCount(ctx, id); err != nil {
					t.Errorf("IncrementReportCount failed: %v", err)
				}
			}()
		}
		wg.Wait()

		got, err := store.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.ReportCount != reports {
			t.Errorf("Expected %d reports, got %d", reports, got.ReportCount)
		}
	})

	t.Run("ReportedOrderedBySeverity", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		low := seedArea(t, store, activeArea(models.CategoryPublicData, "a", 37.56, 126.97))
		high := seedArea(t, store, activeArea(models.CategoryPublicData, "b", 37.56, 126.97))
		seedArea(t, store, activeArea(models.CategoryPublicData, "c", 37.56, 126.97))

		for i := 0; i < 3; i++ {
			if _, err := store.IncrementReportCount(ctx, high); err != nil {
				t.Fatal(err)
			}
		}
		if _, err := store.IncrementReportCount(ctx, low); err != nil {
			t.Fatal(err)
		}

		reported, err := store.List(ctx, ListFilter{ReportedOnly: true, Order: OrderBySeverity})
		if err != nil {
			t.Fatalf("List reported failed: %v", err)
		}
		assertIDs(t, "severity", reported, high, low)
	})
}

func assertIDs(t *testing.T, label string, areas []models.SmokingArea, want ...uint) {
	t.Helper()
	got := make([]uint, len(areas))
	for i, a := range areas {
		got[i] = a.ID
	}
	if len(got) != len(want) {
		t.Fatalf("%s: expected ids %v, got %v", label, want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%s: expected ids %v, got %v", label, want, got)
		}
	}
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/taehoonhoonn/where-smoking/internal/models"
	"github.com/taehoonhoonn/where-smoking/internal/testutil"
)

func TestGormStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) SmokingAreaStore {
		return NewGormStore(testutil.NewTestDB(t))
	})
}

func TestGormStoreRefreshesUpdatedAt(t *testing.T) {
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	store := NewGormStore(testutil.NewTestDB(t), WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	id := seedArea(t, store, pendingArea("서울특별시 (37.5547, 126.9707)"))

	clock = clock.Add(time.Hour)
	got, err := store.UpdateIfStatus(ctx, id, models.StatusPending, Mutation{Status: models.StatusActive})
	if err != nil {
		t.Fatalf("UpdateIfStatus failed: %v", err)
	}
	if !got.UpdatedAt.Equal(clock) {
		t.Errorf("Expected updated_at %v, got %v", clock, got.UpdatedAt)
	}
	if got.CreatedAt.Equal(got.UpdatedAt) {
		t.Error("created_at must not move on update")
	}

	clock = clock.Add(time.Hour)
	if _, err := store.IncrementReportCount(ctx, id); err != nil {
		t.Fatalf("IncrementReportCount failed: %v", err)
	}
	after, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !after.UpdatedAt.Equal(clock) {
		t.Errorf("Expected updated_at %v after report, got %v", clock, after.UpdatedAt)
	}
}

func TestGormStorePing(t *testing.T) {
	store := NewGormStore(testutil.NewTestDB(t))
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

package backfill

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/taehoonhoonn/where-smoking/internal/database"
	"github.com/taehoonhoonn/where-smoking/internal/logger"
	"github.com/taehoonhoonn/where-smoking/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func newMongoTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("Skipping mongo test: MONGO_TEST_URI not set")
	}

	ctx := context.Background()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("Mongo connect failed: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	db := client.Database(fmt.Sprintf("where_smoking_backfill_%d", time.Now().UnixNano()))
	t.Cleanup(func() { _ = db.Drop(context.Background()) })
	return db
}

func TestMongoSourceRunner(t *testing.T) {
	db := newMongoTestDB(t)
	ctx := context.Background()

	official := models.SubmittedOfficial
	now := time.Now().UTC().Truncate(time.Millisecond)
	docs := []any{
		// 승인된 시민 제보
		models.SmokingArea{ID: 1, Category: models.CategoryCitizenReport, SubmittedCategory: &official,
			Address: "서울특별시 (37.5547, 126.9707)", Latitude: 37.5547, Longitude: 126.9707,
			Status: models.StatusActive, CreatedAt: now, UpdatedAt: now},
		// 대기 중 제보, 우편번호 보유
		models.SmokingArea{ID: 2, Category: official.Label(), SubmittedCategory: &official,
			Address: "서울특별시 (37.5000, 127.0000)", Latitude: 37.5, Longitude: 127.0,
			PostalCode: strPtr("06000"), Status: models.StatusPending, CreatedAt: now, UpdatedAt: now},
		// 공공데이터는 대상 아님
		models.SmokingArea{ID: 3, Category: models.CategoryPublicData,
			Address: "서울특별시 (37.6000, 127.1000)", Latitude: 37.6, Longitude: 127.1,
			Status: models.StatusActive, CreatedAt: now, UpdatedAt: now},
	}
	if _, err := db.Collection(database.SmokingAreasCollection).InsertMany(ctx, docs); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	src := NewMongoSource(db)
	records, err := src.CitizenRecords(ctx, 0)
	if err != nil {
		t.Fatalf("CitizenRecords failed: %v", err)
	}
	if len(records) != 2 || records[0].ID != 1 || records[1].ID != 2 {
		t.Fatalf("Expected citizen records 1 and 2 in id order, got %+v", records)
	}
	if limited, _ := src.CitizenRecords(ctx, 1); len(limited) != 1 {
		t.Errorf("Expected limit 1 to apply, got %d", len(limited))
	}

	r := NewRunner(src, newGeocoder(), logger.Nop())
	r.Delay = 0
	stats, err := r.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if want := (Stats{Total: 2, Updated: 2}); stats != want {
		t.Errorf("Expected %+v, got %+v", want, stats)
	}

	var first, second, public models.SmokingArea
	col := db.Collection(database.SmokingAreasCollection)
	_ = col.FindOne(ctx, bson.M{"_id": uint(1)}).Decode(&first)
	_ = col.FindOne(ctx, bson.M{"_id": uint(2)}).Decode(&second)
	_ = col.FindOne(ctx, bson.M{"_id": uint(3)}).Decode(&public)

	if first.Address != "서울 용산구 한강대로 405" || first.PostalCode == nil || *first.PostalCode != "04320" {
		t.Errorf("Unexpected record 1: %q %v", first.Address, first.PostalCode)
	}
	if first.UpdatedAt.Before(now) {
		t.Errorf("Expected updated_at to be refreshed, got %v", first.UpdatedAt)
	}
	if second.Address != "서울 서초구 서초동 1" || second.PostalCode == nil || *second.PostalCode != "06000" {
		t.Errorf("Existing postal code must be kept for 2: %q %v", second.Address, second.PostalCode)
	}
	if !IsPlaceholder(public.Address) {
		t.Errorf("Public record must not be touched, got %q", public.Address)
	}

	// 주소가 이미 바뀐 레코드는 갱신하지 않음
	changed, err := src.UpdateAddress(ctx, 1, "서울특별시 (37.5547, 126.9707)", "다른 주소", "")
	if err != nil || changed {
		t.Errorf("Expected guarded update to skip, got changed=%v err=%v", changed, err)
	}
}

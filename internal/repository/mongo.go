package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taehoonhoonn/where-smoking/internal/apperrors"
	"github.com/taehoonhoonn/where-smoking/internal/database"
	"github.com/taehoonhoonn/where-smoking/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore SmokingAreaStore backed by a MongoDB collection. Integer ids
// come from a sequence document in the counters collection.
type MongoStore struct {
	db       *mongo.Database
	areas    *mongo.Collection
	counters *mongo.Collection
	now      func() time.Time
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		db:       db,
		areas:    db.Collection(database.SmokingAreasCollection),
		counters: db.Collection(database.CountersCollection),
		now:      time.Now,
	}
}

type counter struct {
	ID  string `bson:"_id"`
	Seq uint   `bson:"seq"`
}

func (s *MongoStore) nextID(ctx context.Context) (uint, error) {
	var c counter
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": database.SmokingAreasCollection},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return 0, err
	}
	return c.Seq, nil
}

func (s *MongoStore) Create(ctx context.Context, area *models.SmokingArea) (uint, error) {
	id, err := s.nextID(ctx)
	if err != nil {
		return 0, fmt.Errorf("allocate smoking area id: %w", err)
	}

	// Mongo는 밀리초 정밀도로 저장
	now := s.now().UTC().Truncate(time.Millisecond)
	area.ID = id
	if area.CreatedAt.IsZero() {
		area.CreatedAt = now
	}
	area.UpdatedAt = area.CreatedAt
	if area.Status == "" {
		area.Status = models.StatusPending
	}

	if _, err := s.areas.InsertOne(ctx, area); err != nil {
		return 0, fmt.Errorf("create smoking area: %w", err)
	}
	return id, nil
}

func (s *MongoStore) Get(ctx context.Context, id uint) (*models.SmokingArea, error) {
	var area models.SmokingArea
	err := s.areas.FindOne(ctx, bson.M{"_id": id}).Decode(&area)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get smoking area %d: %w", id, err)
	}
	return &area, nil
}

func (s *MongoStore) List(ctx context.Context, filter ListFilter) ([]models.SmokingArea, error) {
	cur, err := s.areas.Find(ctx, mongoFilter(filter), options.Find().SetSort(mongoSort(filter.Order)))
	if err != nil {
		return nil, fmt.Errorf("list smoking areas: %w", err)
	}
	defer cur.Close(ctx)

	areas := []models.SmokingArea{}
	if err := cur.All(ctx, &areas); err != nil {
		return nil, fmt.Errorf("decode smoking areas: %w", err)
	}
	return areas, nil
}

func (s *MongoStore) Count(ctx context.Context, filter ListFilter) (int64, error) {
	n, err := s.areas.CountDocuments(ctx, mongoFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("count smoking areas: %w", err)
	}
	return n, nil
}

func mongoFilter(filter ListFilter) bson.M {
	q := bson.M{}
	if filter.Status != "" {
		q["status"] = filter.Status
	}
	if filter.Category != "" {
		q["category"] = filter.Category
	}
	if filter.ReportedOnly {
		q["report_count"] = bson.M{"$gt": 0}
	}
	if b := filter.Bounds; b != nil {
		q["latitude"] = bson.M{"$gte": b.MinLat, "$lte": b.MaxLat}
		q["longitude"] = bson.M{"$gte": b.MinLng, "$lte": b.MaxLng}
	}
	return q
}

func mongoSort(o Order) bson.D {
	switch o {
	case OrderByAddress:
		return bson.D{{Key: "address", Value: 1}, {Key: "_id", Value: 1}}
	case OrderNewest:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	case OrderBySeverity:
		return bson.D{{Key: "report_count", Value: -1}, {Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}}
	default:
		return bson.D{{Key: "_id", Value: 1}}
	}
}

func (s *MongoStore) UpdateIfStatus(ctx context.Context, id uint, from models.Status, m Mutation) (*models.SmokingArea, error) {
	set := bson.M{
		"status":     m.Status,
		"updated_at": s.now().UTC().Truncate(time.Millisecond),
	}
	if m.Category != nil {
		set["category"] = *m.Category
	}
	if m.Detail != nil {
		set["detail"] = *m.Detail
	}

	// 필터에 기대 상태를 포함한 단일 문서 원자적 갱신
	var area models.SmokingArea
	err := s.areas.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&area)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update smoking area %d from %s: %w", id, from, err)
	}
	return &area, nil
}

func (s *MongoStore) IncrementReportCount(ctx context.Context, id uint) (int, error) {
	// $inc는 필드가 없으면 0에서 시작
	var area models.SmokingArea
	err := s.areas.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"report_count": 1},
			"$set": bson.M{"updated_at": s.now().UTC().Truncate(time.Millisecond)},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&area)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, apperrors.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment report count %d: %w", id, err)
	}
	return area.ReportCount, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

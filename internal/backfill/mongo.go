package backfill

import (
	"context"
	"fmt"
	"time"

	"github.com/taehoonhoonn/where-smoking/internal/database"
	"github.com/taehoonhoonn/where-smoking/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSource 백필용 MongoDB 접근 (STORE_DRIVER=mongo)
type MongoSource struct {
	areas *mongo.Collection
	now   func() time.Time
}

func NewMongoSource(db *mongo.Database) *MongoSource {
	return &MongoSource{
		areas: db.Collection(database.SmokingAreasCollection),
		now:   time.Now,
	}
}

// CitizenRecords loads citizen submissions (approved or not) ordered by id.
func (s *MongoSource) CitizenRecords(ctx context.Context, limit int) ([]Record, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"category": models.CategoryCitizenReport},
		bson.M{"submitted_category": bson.M{"$exists": true, "$ne": nil}},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := s.areas.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query citizen records: %w", err)
	}
	defer cur.Close(ctx)

	var areas []models.SmokingArea
	if err := cur.All(ctx, &areas); err != nil {
		return nil, fmt.Errorf("failed to decode citizen records: %w", err)
	}

	records := make([]Record, 0, len(areas))
	for _, a := range areas {
		records = append(records, Record{
			ID:         a.ID,
			Address:    a.Address,
			Latitude:   a.Latitude,
			Longitude:  a.Longitude,
			PostalCode: a.PostalCode,
			Status:     string(a.Status),
		})
	}
	return records, nil
}

// UpdateAddress overwrites the placeholder address and fills postal_code
// when it is still empty.
func (s *MongoSource) UpdateAddress(ctx context.Context, id uint, oldAddress, newAddress, postalCode string) (bool, error) {
	set := bson.M{
		"address":    newAddress,
		"updated_at": s.now().UTC().Truncate(time.Millisecond),
	}
	if postalCode != "" {
		// 기존 우편번호가 비어 있을 때만 채움
		set["postal_code"] = bson.M{"$cond": bson.A{
			bson.M{"$eq": bson.A{bson.M{"$ifNull": bson.A{"$postal_code", ""}}, ""}},
			postalCode,
			"$postal_code",
		}}
	}

	res, err := s.areas.UpdateOne(ctx,
		bson.M{"_id": id, "address": oldAddress},
		mongo.Pipeline{{{Key: "$set", Value: set}}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to update address of %d: %w", id, err)
	}
	return res.MatchedCount > 0, nil
}

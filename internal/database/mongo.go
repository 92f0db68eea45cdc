package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Mongo 컬렉션 이름
const (
	SmokingAreasCollection = "smoking_areas"
	CountersCollection     = "counters"
)

// ConnectMongo opens a client, pings it and ensures the smoking_areas indexes.
func ConnectMongo(ctx context.Context, uri, dbName string, log *zap.SugaredLogger) (*mongo.Client, *mongo.Database, error) {
	start := time.Now()
	log.Infow("Connecting to MongoDB", "uri", redactURI(uri), "db", dbName)

	dctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(dctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(dctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(dbName)
	if err := createMongoIndexes(ctx, db); err != nil {
		log.Warnw("MongoDB index creation warnings", "error", err)
	}

	log.Infow("MongoDB connected", "elapsed", time.Since(start).Round(time.Millisecond))
	return client, db, nil
}

func createMongoIndexes(ctx context.Context, db *mongo.Database) error {
	ctxIdx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	col := db.Collection(SmokingAreasCollection)
	indexes := map[string]bson.D{
		"status":      {{Key: "status", Value: 1}},
		"category":    {{Key: "category", Value: 1}},
		"lat,lng":     {{Key: "latitude", Value: 1}, {Key: "longitude", Value: 1}},
		"report_sort": {{Key: "report_count", Value: -1}, {Key: "updated_at", Value: -1}},
	}

	var errs []string
	for name, keys := range indexes {
		if _, err := col.Indexes().CreateOne(ctxIdx, mongo.IndexModel{Keys: keys}); err != nil {
			errs = append(errs, name+": "+err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func redactURI(raw string) string {
	if raw == "" || !strings.Contains(raw, "://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = url.UserPassword("****", "****")
	return u.String()
}

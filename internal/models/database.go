package models

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Database is a connected mongo client and the database records live in
type Database struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// NewDatabase connects and pings before returning, so a bad URL fails here
// rather than on the first query.
func NewDatabase(ctx context.Context, mongoURL, dbName string) (*Database, error) {
	opts := options.Client().
		ApplyURI(mongoURL).
		SetAppName("spotiscience").
		SetMaxPoolSize(20).
		SetMinPoolSize(2).
		SetMaxConnIdleTime(time.Minute).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &Database{Client: client, DB: client.Database(dbName)}, nil
}

func (d *Database) Close(ctx context.Context) error {
	return d.Client.Disconnect(ctx)
}

// Collection names
const (
	RecordsCollection     = "records"
	CollectionsCollection = "collections"
)

// CreateIndexes is idempotent; existing indexes are left alone.
func (d *Database) CreateIndexes(ctx context.Context) error {
	records := d.DB.Collection(RecordsCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "name", Value: 1}, {Key: "artist", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "genres", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "fetched_at", Value: 1}},
		},
	}

	if _, err := records.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("record indexes: %w", err)
	}

	_, err := d.DB.Collection(CollectionsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	return err
}

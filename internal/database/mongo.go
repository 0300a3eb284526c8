package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/arnavs06/HackNYU/internal/models"
)

const scansCollection = "scans"

// MongoDB implements the DB interface on a MongoDB collection
type MongoDB struct {
	client *mongo.Client
	scans  *mongo.Collection
}

var _ DB = (*MongoDB)(nil)

// NewMongoDB connects to uri and uses the scans collection of database
func NewMongoDB(ctx context.Context, uri, database string) (*MongoDB, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	if database == "" {
		database = "ecoscan"
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	scans := client.Database(database).Collection(scansCollection)
	_, err = scans.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create scan index: %w", err)
	}

	return &MongoDB{client: client, scans: scans}, nil
}

// SaveScan upserts a scan document
func (m *MongoDB) SaveScan(ctx context.Context, scan *models.ScanResult) error {
	if scan.Timestamp.IsZero() {
		scan.Timestamp = time.Now().UTC()
	}
	_, err := m.scans.ReplaceOne(ctx, bson.M{"_id": scan.ID}, scan, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert scan: %w", err)
	}
	return nil
}

// GetScan retrieves a scan by id
func (m *MongoDB) GetScan(ctx context.Context, id string) (*models.ScanResult, error) {
	var scan models.ScanResult
	err := m.scans.FindOne(ctx, bson.M{"_id": id}).Decode(&scan)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find scan: %w", err)
	}
	return &scan, nil
}

// DeleteScan removes a scan document
func (m *MongoDB) DeleteScan(ctx context.Context, id string) (bool, error) {
	res, err := m.scans.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete scan: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// GetHistory retrieves the most recent scans of a user
func (m *MongoDB) GetHistory(ctx context.Context, userID string, limit int) ([]models.ScanResult, error) {
	filter := bson.M{}
	if userID != "" {
		filter["user_id"] = userID
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := m.scans.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	results := []models.ScanResult{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return results, nil
}

// UpdateImageURI sets the image location of a scan
func (m *MongoDB) UpdateImageURI(ctx context.Context, id, uri string) error {
	_, err := m.scans.UpdateByID(ctx, id, bson.M{"$set": bson.M{"image_uri": uri}})
	if err != nil {
		return fmt.Errorf("update image uri: %w", err)
	}
	return nil
}

// Close disconnects the client
func (m *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// Package feedback persists free-form user feedback.
package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lehigh-university-libraries/framestitch/internal/id"
)

const (
	Collection = "feedback"
	IDLength   = 6
)

// Record is one stored feedback submission
type Record struct {
	ID       string         `bson:"id" json:"id"`
	Feedback map[string]any `bson:"feedback" json:"feedback"`
	Date     time.Time      `bson:"date" json:"date"`
}

type Store interface {
	Save(ctx context.Context, payload map[string]any) (string, error)
}

func newRecord(payload map[string]any) Record {
	return Record{
		ID:       id.Short(IDLength),
		Feedback: payload,
		Date:     time.Now().UTC(),
	}
}

// MongoStore writes feedback to a MongoDB collection
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	slog.Info("Connected to MongoDB", "database", database)
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(Collection),
	}, nil
}

func (s *MongoStore) Save(ctx context.Context, payload map[string]any) (string, error) {
	record := newRecord(payload)
	if _, err := s.collection.InsertOne(ctx, record); err != nil {
		return "", fmt.Errorf("failed to insert feedback: %w", err)
	}
	return record.ID, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// MemoryStore keeps feedback in process, for development without a database
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(_ context.Context, payload map[string]any) (string, error) {
	record := newRecord(payload)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return record.ID, nil
}

func (s *MemoryStore) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

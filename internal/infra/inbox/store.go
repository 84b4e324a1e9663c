package inbox

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collection = "booking_events_inbox"

// MongoStore remembers which broker messages a consumer group already applied.
type MongoStore struct {
	col      *mongo.Collection
	consumer string
	now      func() time.Time
}

func NewMongoStore(ctx context.Context, db *mongo.Database, consumer string) (*MongoStore, error) {
	col := db.Collection(collection)
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "message_id", Value: 1}, {Key: "consumer", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("inbox: create index: %w", err)
	}
	return &MongoStore{col: col, consumer: consumer, now: time.Now}, nil
}

// Seen records messageID and reports whether it had been recorded before.
func (s *MongoStore) Seen(ctx context.Context, messageID string) (bool, error) {
	doc := bson.M{"message_id": messageID, "consumer": s.consumer, "received_at": s.now().UTC()}
	_, err := s.col.InsertOne(ctx, doc)
	if err == nil {
		return false, nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return true, nil
	}
	return false, err
}

// Forget removes messageID so a failed message is applied again on redelivery.
func (s *MongoStore) Forget(ctx context.Context, messageID string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"message_id": messageID, "consumer": s.consumer})
	return err
}

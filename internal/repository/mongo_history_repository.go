package repository

import (
	"context"
	"fmt"
	"time"

	"queryly/internal/config"
	"queryly/internal/domain"
	"queryly/internal/logger"
	"queryly/internal/util"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type mongoConversation struct {
	ID        string      `bson:"_id"`
	Timestamp time.Time   `bson:"timestamp"`
	Chat      []chatEntry `bson:"chat"`
}

// Replay decodes leniently: older documents carry an ObjectID and may lack
// fields entirely.
type mongoConversationRead struct {
	ID        any         `bson:"_id"`
	Timestamp *time.Time  `bson:"timestamp"`
	Chat      []chatEntry `bson:"chat"`
}

// MongoHistoryRepository stores one document per exchange.
type MongoHistoryRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// NewMongoClient connects and pings the server.
func NewMongoClient(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return client, nil
}

// NewMongoHistoryRepository uses coll for storage. client may be nil when the
// caller owns the connection.
func NewMongoHistoryRepository(client *mongo.Client, coll *mongo.Collection) *MongoHistoryRepository {
	return &MongoHistoryRepository{client: client, coll: coll, now: time.Now}
}

func (r *MongoHistoryRepository) Append(ctx context.Context, humanText, assistantText string) error {
	now := r.now().UTC()
	rec := domain.NewConversationRecord(util.NewULIDAt(now), humanText, assistantText, now)
	doc := mongoConversation{ID: rec.ID, Timestamp: rec.Timestamp, Chat: toEntries(rec)}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return domain.NewPersistenceError("failed to append conversation record", err)
	}
	return nil
}

func (r *MongoHistoryRepository) Replay(ctx context.Context) (*domain.ReplayResult, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, domain.NewPersistenceError("failed to read conversation history", err)
	}
	defer cur.Close(ctx)

	var (
		items   []replayItem
		skipped []string
	)
	for cur.Next(ctx) {
		var doc mongoConversationRead
		if err := cur.Decode(&doc); err != nil {
			skipped = append(skipped, skipNote(rawID(cur.Current), err))
			continue
		}
		var ts time.Time
		if doc.Timestamp != nil {
			ts = *doc.Timestamp
		}
		msgs, err := toMessages(ts, doc.Chat)
		if err != nil {
			skipped = append(skipped, skipNote(fmt.Sprint(doc.ID), err))
			continue
		}
		items = append(items, replayItem{ts: ts, msgs: msgs})
	}
	if err := cur.Err(); err != nil {
		return nil, domain.NewPersistenceError("failed to read conversation history", err)
	}
	if len(skipped) > 0 {
		logger.Get().Warn("Skipped malformed history records", zap.Int("count", len(skipped)))
	}
	return flatten(items, skipped), nil
}

func (r *MongoHistoryRepository) Close(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Disconnect(ctx)
}

func rawID(doc bson.Raw) string {
	v, err := doc.LookupErr("_id")
	if err != nil {
		return "<no id>"
	}
	return v.String()
}

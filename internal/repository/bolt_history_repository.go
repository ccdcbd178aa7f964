package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"queryly/internal/domain"
	"queryly/internal/logger"
	"queryly/internal/util"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var historyBucket = []byte("chat_history")

type boltConversation struct {
	Timestamp time.Time   `json:"timestamp"`
	Chat      []chatEntry `json:"chat"`
}

// BoltHistoryRepository keeps the history in a single bbolt file. Keys are
// ULIDs, so cursor order is already creation order.
type BoltHistoryRepository struct {
	db  *bolt.DB
	now func() time.Time
}

func NewBoltHistoryRepository(path string) (*BoltHistoryRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create bolt directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt file %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(historyBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history bucket: %w", err)
	}
	return &BoltHistoryRepository{db: db, now: time.Now}, nil
}

func (r *BoltHistoryRepository) Append(ctx context.Context, humanText, assistantText string) error {
	now := r.now().UTC()
	rec := domain.NewConversationRecord(util.NewULIDAt(now), humanText, assistantText, now)
	enc, err := json.Marshal(boltConversation{Timestamp: rec.Timestamp, Chat: toEntries(rec)})
	if err != nil {
		return domain.NewInternalError("failed to encode conversation record", err)
	}
	err = r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(historyBucket).Put([]byte(rec.ID), enc)
	})
	if err != nil {
		return domain.NewPersistenceError("failed to append conversation record", err)
	}
	return nil
}

func (r *BoltHistoryRepository) Replay(ctx context.Context) (*domain.ReplayResult, error) {
	var (
		items   []replayItem
		skipped []string
	)
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(historyBucket).ForEach(func(k, v []byte) error {
			var doc boltConversation
			if err := json.Unmarshal(v, &doc); err != nil {
				skipped = append(skipped, skipNote(string(k), err))
				return nil
			}
			msgs, err := toMessages(doc.Timestamp, doc.Chat)
			if err != nil {
				skipped = append(skipped, skipNote(string(k), err))
				return nil
			}
			items = append(items, replayItem{ts: doc.Timestamp, msgs: msgs})
			return nil
		})
	})
	if err != nil {
		return nil, domain.NewPersistenceError("failed to read conversation history", err)
	}
	if len(skipped) > 0 {
		logger.Get().Warn("Skipped malformed history records", zap.Int("count", len(skipped)))
	}
	return flatten(items, skipped), nil
}

func (r *BoltHistoryRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

package repository

import (
	"context"
	"database/sql"
	"time"

	"queryly/internal/domain"
	"queryly/internal/logger"
	"queryly/internal/util"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// chatHistoryRow mirrors one chat_history row. Columns are nullable so a
// damaged row is reported rather than failing the whole replay.
type chatHistoryRow struct {
	ID           string         `db:"ID"`
	CreatedAt    sql.NullTime   `db:"CREATED_AT"`
	HumanContent sql.NullString `db:"HUMAN_CONTENT"`
	AIContent    sql.NullString `db:"AI_CONTENT"`
}

// SQLHistoryRepository stores one chat_history row per exchange.
type SQLHistoryRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSQLHistoryRepository(db *sqlx.DB) *SQLHistoryRepository {
	return &SQLHistoryRepository{db: db, now: time.Now}
}

func (r *SQLHistoryRepository) Append(ctx context.Context, humanText, assistantText string) error {
	now := r.now().UTC()
	rec := domain.NewConversationRecord(util.NewULIDAt(now), humanText, assistantText, now)

	query := `INSERT INTO chat_history (id, created_at, human_content, ai_content) VALUES (:1, :2, :3, :4)`
	if _, err := r.db.ExecContext(ctx, query, rec.ID, rec.Timestamp, rec.Human.Content, rec.Assistant.Content); err != nil {
		return domain.NewPersistenceError("failed to append conversation record", err)
	}
	return nil
}

func (r *SQLHistoryRepository) Replay(ctx context.Context) (*domain.ReplayResult, error) {
	var rows []chatHistoryRow
	query := `SELECT id, created_at, human_content, ai_content FROM chat_history ORDER BY created_at ASC, id ASC`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, domain.NewPersistenceError("failed to read conversation history", err)
	}

	items := make([]replayItem, 0, len(rows))
	var skipped []string
	for _, row := range rows {
		var ts time.Time
		if row.CreatedAt.Valid {
			ts = row.CreatedAt.Time
		}
		var chat []chatEntry
		if row.HumanContent.Valid {
			chat = append(chat, newEntry(entryHuman, row.HumanContent.String))
		}
		if row.AIContent.Valid {
			chat = append(chat, newEntry(entryAI, row.AIContent.String))
		}
		msgs, err := toMessages(ts, chat)
		if err != nil {
			skipped = append(skipped, skipNote(row.ID, err))
			continue
		}
		items = append(items, replayItem{ts: ts, msgs: msgs})
	}
	if len(skipped) > 0 {
		logger.Get().Warn("Skipped malformed history records", zap.Int("count", len(skipped)))
	}
	return flatten(items, skipped), nil
}

func (r *SQLHistoryRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

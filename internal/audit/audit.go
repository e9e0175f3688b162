// Package audit optionally persists asked questions and produced answers.
// The pipeline never depends on it; a nil *Store disables auditing.
package audit

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"docqa/internal/config"
	"docqa/internal/models"
)

// Record is one question/answer pair from one document session.
type Record struct {
	bun.BaseModel `bun:"table:qa_audit,alias:qa"`

	ID            int64     `bun:"id,pk,autoincrement"`
	SessionID     string    `bun:"session_id,notnull"`
	DocumentTitle string    `bun:"document_title"`
	Question      string    `bun:"question,notnull"`
	Answer        string    `bun:"answer,notnull"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type Store struct {
	db *bun.DB
}

func Connect(cfg *config.DatabaseConfig) (*Store, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.DSN),
		pgdriver.WithPassword(cfg.Key),
	))
	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return &Store{db: db}, nil
}

func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*Record)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Save writes all answer slots of one session in a single insert.
func (s *Store) Save(ctx context.Context, sessionID, documentTitle string, answers []models.QuestionAnswer) error {
	if s == nil || len(answers) == 0 {
		return nil
	}
	records := make([]Record, len(answers))
	for i, qa := range answers {
		records[i] = Record{
			SessionID:     sessionID,
			DocumentTitle: documentTitle,
			Question:      qa.Question,
			Answer:        qa.Answer,
		}
	}
	_, err := s.db.NewInsert().Model(&records).Exec(ctx)
	return err
}

func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

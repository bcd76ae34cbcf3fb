// Package sqlite stores stories, ideas and generations in a single SQLite
// file through the pure Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"storycanvas/internal/repository"
)

var _ repository.Store = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS stories (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	title      TEXT NOT NULL,
	content    TEXT NOT NULL DEFAULT '',
	owner_id   INTEGER NOT NULL,
	word_count INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS ideas (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	story_id    INTEGER NOT NULL,
	category    TEXT NOT NULL,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	is_active   INTEGER NOT NULL DEFAULT 1,
	created_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS content_generations (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	story_id          INTEGER NOT NULL,
	prompt            TEXT NOT NULL,
	generated_content TEXT NOT NULL,
	used_ideas        TEXT NOT NULL DEFAULT '[]',
	created_at        DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ideas_story ON ideas (story_id);
CREATE INDEX IF NOT EXISTS idx_generations_story ON content_generations (story_id);
`

// Clock returns the current time.
type Clock func() time.Time

// Store is the SQLite backend.
type Store struct {
	db          *sql.DB
	stories     *storyRepository
	ideas       *ideaRepository
	generations *generationRepository
	now         Clock
	logger      *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the UTC wall clock used for timestamps.
func WithClock(now Clock) Option {
	return func(s *Store) { s.now = now }
}

// New opens (creating if needed) the database at path and ensures the schema.
// path may be ":memory:" for a private in-memory database.
func New(ctx context.Context, path string, logger *zap.Logger, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// One writer at a time; also keeps a ":memory:" database on one connection.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA busy_timeout = 30000;",
		"PRAGMA journal_mode = WAL;",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating sqlite schema: %w", err)
	}

	s := &Store{
		db:     db,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.Named("SQLiteStore"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.stories = &storyRepository{db: db, now: s.now, logger: s.logger}
	s.ideas = &ideaRepository{db: db, now: s.now, logger: s.logger}
	s.generations = &generationRepository{db: db, now: s.now, logger: s.logger}

	s.logger.Info("SQLite store ready", zap.String("path", path))
	return s, nil
}

func (s *Store) Stories() repository.StoryRepository          { return s.stories }
func (s *Store) Ideas() repository.IdeaRepository             { return s.ideas }
func (s *Store) Generations() repository.GenerationRepository { return s.generations }

func (s *Store) Close(_ context.Context) error {
	return s.db.Close()
}

// after returns now, or prev+1ns when the clock has not moved past prev.
func after(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Nanosecond)
}

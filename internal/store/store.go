package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrClosed = errors.New("store closed")

// TeamResult is a team's final standing in an archived game.
type TeamResult struct {
	Name    string   `json:"name"`
	Lives   int      `json:"lives"`
	Players []string `json:"players"`
}

// GameRecord is one finished game.
type GameRecord struct {
	ID         uint         `json:"id"`
	Winner     string       `json:"winner"`
	Teams      []TeamResult `json:"teams"`
	WordsUsed  int          `json:"words_used"`
	Rounds     int          `json:"rounds"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
}

// Archive stores finished games. It is a write-behind ledger; running games
// are never restored from it.
type Archive interface {
	RecordGame(ctx context.Context, rec GameRecord) error
	RecentGames(ctx context.Context, limit int) ([]GameRecord, error)
	Close() error
}

type Config struct {
	DSN          string `env:"WORDBOMB_DATABASE_URL"`
	MaxOpenConns int    `env:"WORDBOMB_DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns int    `env:"WORDBOMB_DB_MAX_IDLE_CONNS" envDefault:"2"`
}

func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse store env: %w", err)
	}
	return cfg, nil
}

// Open returns a Postgres archive when a DSN is configured, else an in-memory one.
func Open(cfg Config, log *zap.Logger) (Archive, error) {
	if cfg.DSN == "" {
		log.Info("no database configured, keeping game history in memory")
		return NewMemory(), nil
	}
	return OpenPostgres(cfg, log)
}

// gameRow is the gorm model behind GameRecord.
type gameRow struct {
	ID         uint   `gorm:"primaryKey"`
	Winner     string `gorm:"size:64;not null"`
	Teams      string `gorm:"type:jsonb;not null"`
	WordsUsed  int
	Rounds     int
	StartedAt  time.Time
	FinishedAt time.Time `gorm:"index"`
}

func (gameRow) TableName() string { return "games" }

func toRow(rec GameRecord) (gameRow, error) {
	teams, err := json.Marshal(rec.Teams)
	if err != nil {
		return gameRow{}, err
	}
	return gameRow{
		Winner:     rec.Winner,
		Teams:      string(teams),
		WordsUsed:  rec.WordsUsed,
		Rounds:     rec.Rounds,
		StartedAt:  rec.StartedAt,
		FinishedAt: rec.FinishedAt,
	}, nil
}

func fromRow(row gameRow) (GameRecord, error) {
	rec := GameRecord{
		ID:         row.ID,
		Winner:     row.Winner,
		WordsUsed:  row.WordsUsed,
		Rounds:     row.Rounds,
		StartedAt:  row.StartedAt,
		FinishedAt: row.FinishedAt,
	}
	if err := json.Unmarshal([]byte(row.Teams), &rec.Teams); err != nil {
		return GameRecord{}, fmt.Errorf("decode teams for game %d: %w", row.ID, err)
	}
	return rec, nil
}

type Postgres struct {
	db    *gorm.DB
	sqlDB *sql.DB
}

func OpenPostgres(cfg Config, log *zap.Logger) (*Postgres, error) {
	sqlDB, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("open gorm: %w", err), sqlDB.Close())
	}
	if err := db.AutoMigrate(&gameRow{}); err != nil {
		return nil, multierr.Append(fmt.Errorf("migrate: %w", err), sqlDB.Close())
	}

	log.Info("game history stored in postgres")
	return &Postgres{db: db, sqlDB: sqlDB}, nil
}

func (p *Postgres) RecordGame(ctx context.Context, rec GameRecord) error {
	row, err := toRow(rec)
	if err != nil {
		return err
	}
	if err := p.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("record game: %w", err)
	}
	return nil
}

func (p *Postgres) RecentGames(ctx context.Context, limit int) ([]GameRecord, error) {
	var rows []gameRow
	err := p.db.WithContext(ctx).
		Order("finished_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("recent games: %w", err)
	}

	out := make([]GameRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (p *Postgres) Close() error { return p.sqlDB.Close() }

type Memory struct {
	mu      sync.RWMutex
	records []GameRecord
	nextID  uint
	closed  bool
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) RecordGame(_ context.Context, rec GameRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.nextID++
	rec.ID = m.nextID
	m.records = append(m.records, rec)
	return nil
}

// RecentGames returns up to limit games, newest first.
func (m *Memory) RecentGames(_ context.Context, limit int) ([]GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	out := slices.Clone(m.records)
	slices.Reverse(out)
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

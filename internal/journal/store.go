//go:build !js && !wasm
// +build !js,!wasm

// Package journal keeps an optional history of finished tuning sessions in
// SQLite. Nothing in the tuning path reads it back.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/himanishpuri/AudibleTuner/pkg/models"
	"github.com/himanishpuri/AudibleTuner/pkg/utils"
)

const DefaultDBFile = "audibletuner.sqlite3"

var (
	ErrNotFound = errors.New("session not found")
	errClosed   = errors.New("journal is closed")
)

type Store struct {
	db    *gorm.DB
	sqlDB *sql.DB
}

// Session is the table row.
type Session struct {
	ID            string `gorm:"primaryKey;type:varchar(36)"`
	StringNumber  int    `gorm:"index:idx_session_string"`
	Note          string `gorm:"type:varchar(8)"`
	TargetHz      float64
	Mode          string    `gorm:"type:varchar(16)"`
	StartedAt     time.Time `gorm:"index:idx_session_started"`
	EndedAt       time.Time
	DurationMs    int64
	Readings      int
	BestCents     float64
	HasBest       bool
	LastCents     float64
	LastHz        float64
	ReachedInTune bool
	Recoveries    int
	EndState      string `gorm:"type:varchar(32)"`
	CreatedAt     time.Time
}

// Open creates or opens the journal database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultDBFile
	}
	if err := utils.EnsureParent(path); err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	// SQLite allows a single writer.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Session{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &Store{db: db, sqlDB: sqlDB}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	err := s.sqlDB.Close()
	s.db, s.sqlDB = nil, nil
	return err
}

// Record inserts rec, assigning an ID when it has none. It returns the ID.
func (s *Store) Record(rec *models.SessionRecord) (string, error) {
	if s == nil || s.db == nil {
		return "", errClosed
	}
	if rec.ID == "" {
		rec.ID = utils.NewSessionID()
	}
	row := toRow(rec)
	if err := s.db.Create(&row).Error; err != nil {
		return "", fmt.Errorf("inserting session: %w", err)
	}
	return rec.ID, nil
}

// Get loads one session by ID.
func (s *Store) Get(id string) (*models.SessionRecord, error) {
	if s == nil || s.db == nil {
		return nil, errClosed
	}
	var row Session
	err := s.db.Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	rec := fromRow(row)
	return &rec, nil
}

// List returns the most recent sessions first. limit <= 0 means all.
func (s *Store) List(limit int) ([]models.SessionRecord, error) {
	return s.list(0, limit)
}

// ListByString is List restricted to one string.
func (s *Store) ListByString(stringNumber, limit int) ([]models.SessionRecord, error) {
	return s.list(stringNumber, limit)
}

func (s *Store) list(stringNumber, limit int) ([]models.SessionRecord, error) {
	if s == nil || s.db == nil {
		return nil, errClosed
	}
	q := s.db.Order("started_at DESC").Order("created_at DESC")
	if stringNumber > 0 {
		q = q.Where("string_number = ?", stringNumber)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []Session
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	out := make([]models.SessionRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, fromRow(r))
	}
	return out, nil
}

// Delete removes one session.
func (s *Store) Delete(id string) error {
	if s == nil || s.db == nil {
		return errClosed
	}
	res := s.db.Where("id = ?", id).Delete(&Session{})
	if res.Error != nil {
		return fmt.Errorf("deleting session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

type statsRow struct {
	StringNumber  int
	Sessions      int
	InTune        int
	AvgDurationMs float64
}

// Stats aggregates sessions per string, ordered by string number.
func (s *Store) Stats() ([]models.StringStats, error) {
	if s == nil || s.db == nil {
		return nil, errClosed
	}
	var rows []statsRow
	err := s.db.Model(&Session{}).
		Select("string_number, COUNT(*) AS sessions, " +
			"SUM(CASE WHEN reached_in_tune THEN 1 ELSE 0 END) AS in_tune, " +
			"AVG(duration_ms) AS avg_duration_ms").
		Group("string_number").
		Order("string_number").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregating sessions: %w", err)
	}
	out := make([]models.StringStats, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.StringStats{
			String:        r.StringNumber,
			Sessions:      r.Sessions,
			ReachedInTune: r.InTune,
			AvgDurationMs: r.AvgDurationMs,
		})
	}
	return out, nil
}

func toRow(r *models.SessionRecord) Session {
	return Session{
		ID:            r.ID,
		StringNumber:  r.String,
		Note:          r.Note,
		TargetHz:      r.TargetHz,
		Mode:          r.Mode,
		StartedAt:     r.StartedAt.UTC(),
		EndedAt:       r.EndedAt.UTC(),
		DurationMs:    r.DurationMs,
		Readings:      r.Readings,
		BestCents:     r.BestCents,
		HasBest:       r.HasBest,
		LastCents:     r.LastCents,
		LastHz:        r.LastHz,
		ReachedInTune: r.ReachedInTune,
		Recoveries:    r.Recoveries,
		EndState:      r.EndState,
	}
}

func fromRow(r Session) models.SessionRecord {
	return models.SessionRecord{
		ID:            r.ID,
		String:        r.StringNumber,
		Note:          r.Note,
		TargetHz:      r.TargetHz,
		Mode:          r.Mode,
		StartedAt:     r.StartedAt,
		EndedAt:       r.EndedAt,
		DurationMs:    r.DurationMs,
		Readings:      r.Readings,
		BestCents:     r.BestCents,
		HasBest:       r.HasBest,
		LastCents:     r.LastCents,
		LastHz:        r.LastHz,
		ReachedInTune: r.ReachedInTune,
		Recoveries:    r.Recoveries,
		EndState:      r.EndState,
	}
}

package models

import "time"

// SessionRecord is one finished tuning session as kept in the journal.
type SessionRecord struct {
	ID         string    `json:"id"`
	String     int       `json:"string"`
	Note       string    `json:"note"`
	TargetHz   float64   `json:"target_hz"`
	Mode       string    `json:"mode"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
	DurationMs int64     `json:"duration_ms"`
	Readings   int       `json:"readings"`
	// BestCents is the smallest absolute offset seen; only meaningful when HasBest.
	BestCents     float64 `json:"best_cents"`
	HasBest       bool    `json:"has_best"`
	LastCents     float64 `json:"last_cents"`
	LastHz        float64 `json:"last_hz"`
	ReachedInTune bool    `json:"reached_in_tune"`
	Recoveries    int     `json:"recoveries"`
	EndState      string  `json:"end_state"` // controller state the session was cancelled from
}

// StringStats aggregates the journal per string.
type StringStats struct {
	String        int     `json:"string"`
	Sessions      int     `json:"sessions"`
	ReachedInTune int     `json:"reached_in_tune"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
}

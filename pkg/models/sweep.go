package models

import "time"

// SweepRun is a stored parameter sweep over feed and skip chances
type SweepRun struct {
	ID             int64     `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Capacity       int       `json:"capacity" db:"capacity"`
	Horizon        int       `json:"horizon" db:"horizon"`
	Iterations     int       `json:"iterations" db:"iterations"`
	FeedProportion float64   `json:"feed_proportion" db:"feed_proportion"`
	Spacing        string    `json:"spacing" db:"spacing"` // Comma separated offsets
	Seed           int64     `json:"seed" db:"seed"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// SweepCell holds the averaged outcome of one (feed, skip) combination
type SweepCell struct {
	ID             int64   `json:"id" db:"id"`
	RunID          int64   `json:"run_id" db:"run_id"`
	Row            int     `json:"row" db:"row_index"`
	Col            int     `json:"col" db:"col_index"`
	FeedChance     float64 `json:"feed_chance" db:"feed_chance"`
	SkipChance     float64 `json:"skip_chance" db:"skip_chance"`
	AvgDaysLate    float64 `json:"avg_days_late" db:"avg_days_late"`
	AbandonedShare float64 `json:"abandoned_share" db:"abandoned_share"`
	Trials         int     `json:"trials" db:"trials"`
}

// StoredItem is a curriculum item persisted after an import
type StoredItem struct {
	ID        int64     `json:"id" db:"id"`
	Label     string    `json:"label" db:"label"`
	LessonID  int       `json:"lesson_id" db:"lesson_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

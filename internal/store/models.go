package store

import "gorm.io/datatypes"

// RunModel is one completed analysis run.
type RunModel struct {
	ID           string         `gorm:"column:id;primaryKey"`
	Filename     string         `gorm:"column:filename"`
	Profile      string         `gorm:"column:profile"`
	Policy       string         `gorm:"column:policy"`
	Leverage     float64        `gorm:"column:leverage"`
	Empty        bool           `gorm:"column:empty"`
	TotalRows    int            `gorm:"column:total_rows"`
	EntryRows    int            `gorm:"column:entry_rows"`
	EpisodeCount int            `gorm:"column:episode_count"`
	SummaryJSON  datatypes.JSON `gorm:"column:summary_json"`
	CreatedAt    int64          `gorm:"column:created_at"`
}

func (RunModel) TableName() string { return "analysis_runs" }

// EpisodeModel is one episode row belonging to a run.
type EpisodeModel struct {
	ID          int64          `gorm:"column:id;primaryKey;autoIncrement"`
	RunID       string         `gorm:"column:run_id;index"`
	Seq         int            `gorm:"column:seq"`
	StartTS     int64          `gorm:"column:start_ts"`
	EndTS       int64          `gorm:"column:end_ts"`
	Side        string         `gorm:"column:side"`
	TotalMargin float64        `gorm:"column:total_margin"`
	EntryCount  int            `gorm:"column:entry_count"`
	MaxRunup    float64        `gorm:"column:max_runup"`
	MaxDrawdown float64        `gorm:"column:max_drawdown"`
	EntriesJSON datatypes.JSON `gorm:"column:entries_json"`
	ExitJSON    datatypes.JSON `gorm:"column:exit_json"`
}

func (EpisodeModel) TableName() string { return "analysis_episodes" }

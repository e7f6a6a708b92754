// Package store persists analysis runs for the lifetime of one
// session. The default DSN is an in-memory SQLite database, so nothing
// survives a restart.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"marginscope/internal/episode"
	"marginscope/internal/report"
	"marginscope/internal/signal"
)

// MemoryDSN keeps the whole store in process memory.
const MemoryDSN = "file::memory:?cache=shared"

// Run is the stored view of one analysis.
type Run struct {
	ID        string         `json:"id"`
	Filename  string         `json:"filename"`
	Profile   string         `json:"profile"`
	Policy    string         `json:"policy"`
	Leverage  float64        `json:"leverage"`
	Empty     bool           `json:"empty"`
	Summary   report.Summary `json:"summary"`
	CreatedAt time.Time      `json:"created_at"`
}

// Store wraps the session database.
type Store struct {
	db *gorm.DB
}

// Open connects to dsn and migrates the schema.
func Open(dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = MemoryDSN
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open run store failed: %w", err)
	}
	if err := db.AutoMigrate(&RunModel{}, &EpisodeModel{}); err != nil {
		return nil, fmt.Errorf("migrate run store failed: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveRun stores the run header and its episodes in one transaction.
func (s *Store) SaveRun(ctx context.Context, run Run, episodes []episode.Episode) error {
	summaryJSON, err := json.Marshal(run.Summary)
	if err != nil {
		return err
	}
	model := RunModel{
		ID:           run.ID,
		Filename:     run.Filename,
		Profile:      run.Profile,
		Policy:       run.Policy,
		Leverage:     run.Leverage,
		Empty:        run.Empty,
		TotalRows:    run.Summary.TotalRows,
		EntryRows:    run.Summary.EntryRows,
		EpisodeCount: run.Summary.EpisodeCount,
		SummaryJSON:  summaryJSON,
		CreatedAt:    run.CreatedAt.UnixMilli(),
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		for i, ep := range episodes {
			em, err := toEpisodeModel(run.ID, i, ep)
			if err != nil {
				return err
			}
			if err := tx.Create(&em).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	var models []RunModel
	if err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]Run, 0, len(models))
	for _, m := range models {
		run, err := toRun(m)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, nil
}

// GetRun loads one run header.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	var m RunModel
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return Run{}, fmt.Errorf("run %s: %w", id, err)
	}
	return toRun(m)
}

// ListEpisodes reconstructs the run's episodes in order.
func (s *Store) ListEpisodes(ctx context.Context, runID string) ([]episode.Episode, error) {
	var models []EpisodeModel
	if err := s.db.WithContext(ctx).Where("run_id = ?", runID).Order("seq ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]episode.Episode, 0, len(models))
	for _, m := range models {
		ep, err := toEpisode(m)
		if err != nil {
			return nil, err
		}
		out = append(out, ep)
	}
	return out, nil
}

func toRun(m RunModel) (Run, error) {
	run := Run{
		ID:        m.ID,
		Filename:  m.Filename,
		Profile:   m.Profile,
		Policy:    m.Policy,
		Leverage:  m.Leverage,
		Empty:     m.Empty,
		CreatedAt: time.UnixMilli(m.CreatedAt).UTC(),
	}
	if len(m.SummaryJSON) > 0 {
		if err := json.Unmarshal(m.SummaryJSON, &run.Summary); err != nil {
			return Run{}, fmt.Errorf("run %s: corrupt summary: %w", m.ID, err)
		}
	}
	return run, nil
}

func toEpisodeModel(runID string, seq int, ep episode.Episode) (EpisodeModel, error) {
	entriesJSON, err := json.Marshal(ep.Entries)
	if err != nil {
		return EpisodeModel{}, err
	}
	m := EpisodeModel{
		RunID:       runID,
		Seq:         seq,
		StartTS:     ep.Start.UnixMilli(),
		EndTS:       ep.End.UnixMilli(),
		Side:        string(ep.Side),
		TotalMargin: ep.TotalMargin,
		EntryCount:  ep.EntryCount,
		MaxRunup:    ep.MaxRunup,
		MaxDrawdown: ep.MaxDrawdown,
		EntriesJSON: entriesJSON,
	}
	if ep.Exit != nil {
		exitJSON, err := json.Marshal(ep.Exit)
		if err != nil {
			return EpisodeModel{}, err
		}
		m.ExitJSON = exitJSON
	}
	return m, nil
}

func toEpisode(m EpisodeModel) (episode.Episode, error) {
	ep := episode.Episode{
		Start:       time.UnixMilli(m.StartTS).UTC(),
		End:         time.UnixMilli(m.EndTS).UTC(),
		Side:        signal.Side(m.Side),
		TotalMargin: m.TotalMargin,
		EntryCount:  m.EntryCount,
		MaxRunup:    m.MaxRunup,
		MaxDrawdown: m.MaxDrawdown,
	}
	if len(m.EntriesJSON) > 0 {
		if err := json.Unmarshal(m.EntriesJSON, &ep.Entries); err != nil {
			return episode.Episode{}, fmt.Errorf("episode %d: corrupt entries: %w", m.ID, err)
		}
	}
	if len(m.ExitJSON) > 0 {
		var exit episode.Exit
		if err := json.Unmarshal(m.ExitJSON, &exit); err != nil {
			return episode.Episode{}, fmt.Errorf("episode %d: corrupt exit: %w", m.ID, err)
		}
		ep.Exit = &exit
	}
	return ep, nil
}

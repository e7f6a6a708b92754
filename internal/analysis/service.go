// Package analysis orchestrates one full pass over an uploaded export:
// read rows, normalize signals, segment episodes, summarize, persist.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"marginscope/internal/episode"
	"marginscope/internal/ingest"
	"marginscope/internal/logger"
	"marginscope/internal/report"
	"marginscope/internal/signal"
	"marginscope/internal/store"
)

// Params are the caller-supplied knobs for one run. Each run is a pure
// function of (rows, leverage, profile, policy, mapping); changing any
// parameter means re-running the whole analysis.
type Params struct {
	Filename        string
	Leverage        float64
	Profile         string
	Policy          episode.Policy
	Gap             time.Duration
	Mapping         ingest.Mapping
	SplitOnSideFlip bool
	TrackExcursion  bool
}

// Result is the outcome of one run. Empty marks the distinct
// "nothing to analyze" outcome (zero entry rows matched).
type Result struct {
	Run      store.Run         `json:"run"`
	Episodes []episode.Episode `json:"episodes"`
}

// Service runs analyses and records them in the session store.
type Service struct {
	registry *signal.Registry
	store    *store.Store
}

func NewService(registry *signal.Registry, st *store.Store) *Service {
	return &Service{registry: registry, store: st}
}

// Profiles lists the registered strategy profile names.
func (s *Service) Profiles() []string {
	return s.registry.Names()
}

// Analyze performs one synchronous batch analysis over the upload.
func (s *Service) Analyze(ctx context.Context, r io.Reader, p Params) (*Result, error) {
	profile, err := s.registry.Lookup(p.Profile)
	if err != nil {
		return nil, err
	}
	rows, err := ingest.ReadRows(r, p.Mapping)
	if err != nil {
		return nil, err
	}

	episodes, err := episode.Segment(rows, profile, episode.Options{
		Policy:          p.Policy,
		Leverage:        p.Leverage,
		Gap:             p.Gap,
		SplitOnSideFlip: p.SplitOnSideFlip,
		TrackExcursion:  p.TrackExcursion,
	})
	empty := false
	if err != nil {
		if !errors.Is(err, episode.ErrNoEntries) {
			return nil, err
		}
		empty = true
		episodes = nil
	}

	run := store.Run{
		ID:        uuid.NewString(),
		Filename:  p.Filename,
		Profile:   profile.Name(),
		Policy:    string(p.Policy),
		Leverage:  p.Leverage,
		Empty:     empty,
		Summary:   report.Summarize(len(rows), episodes),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.SaveRun(ctx, run, episodes); err != nil {
		return nil, fmt.Errorf("saving run failed: %w", err)
	}
	logger.Infof("analysis %s: %d rows, %d episodes (profile=%s policy=%s leverage=%g)",
		run.ID, len(rows), len(episodes), run.Profile, run.Policy, p.Leverage)
	return &Result{Run: run, Episodes: episodes}, nil
}

// Runs lists recent runs from the session store.
func (s *Service) Runs(ctx context.Context, limit int) ([]store.Run, error) {
	return s.store.ListRuns(ctx, limit)
}

// Run loads one run header.
func (s *Service) Run(ctx context.Context, id string) (store.Run, error) {
	return s.store.GetRun(ctx, id)
}

// Episodes loads the episodes of a stored run.
func (s *Service) Episodes(ctx context.Context, runID string) ([]episode.Episode, error) {
	return s.store.ListEpisodes(ctx, runID)
}

// ExportCSV renders the stored run as downloadable delimited text.
func (s *Service) ExportCSV(ctx context.Context, runID string) (string, error) {
	if _, err := s.store.GetRun(ctx, runID); err != nil {
		return "", err
	}
	episodes, err := s.store.ListEpisodes(ctx, runID)
	if err != nil {
		return "", err
	}
	return report.RenderCSV(episodes)
}

// ChartsHTML renders the stored run's chart page.
func (s *Service) ChartsHTML(ctx context.Context, runID string) ([]byte, error) {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	episodes, err := s.store.ListEpisodes(ctx, runID)
	if err != nil {
		return nil, err
	}
	title := run.Filename
	if title == "" {
		title = run.ID
	}
	return report.RenderCharts(title, episodes)
}

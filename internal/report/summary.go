// Package report turns segmented episodes into aggregate statistics,
// CSV exports and chart pages.
package report

import (
	"github.com/montanaflynn/stats"

	"marginscope/internal/episode"
)

// Summary holds the aggregate view shown after one analysis run.
type Summary struct {
	TotalRows    int     `json:"total_rows"`
	EntryRows    int     `json:"entry_rows"`
	EpisodeCount int     `json:"episode_count"`
	MaxMargin    float64 `json:"max_margin"`
	MeanMargin   float64 `json:"mean_margin"`
	TotalMargin  float64 `json:"total_margin"`
	MaxRunup     float64 `json:"max_runup,omitempty"`
	MaxDrawdown  float64 `json:"max_drawdown,omitempty"`
}

// Summarize computes aggregate statistics over the episode margins.
// totalRows is the raw row count of the upload, before normalization.
func Summarize(totalRows int, episodes []episode.Episode) Summary {
	s := Summary{TotalRows: totalRows, EpisodeCount: len(episodes)}
	if len(episodes) == 0 {
		return s
	}
	margins := make(stats.Float64Data, 0, len(episodes))
	for _, ep := range episodes {
		margins = append(margins, ep.TotalMargin)
		s.EntryRows += ep.EntryCount
		if ep.MaxRunup > s.MaxRunup {
			s.MaxRunup = ep.MaxRunup
		}
		if ep.MaxDrawdown < s.MaxDrawdown {
			s.MaxDrawdown = ep.MaxDrawdown
		}
	}
	s.MaxMargin, _ = stats.Max(margins)
	s.MeanMargin, _ = stats.Mean(margins)
	s.TotalMargin, _ = stats.Sum(margins)
	return s
}

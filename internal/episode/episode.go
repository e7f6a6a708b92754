// Package episode partitions a time-ordered sequence of trade signals
// into position-building episodes and accumulates per-episode totals.
package episode

import (
	"errors"
	"fmt"
	"time"

	"marginscope/internal/signal"
	"marginscope/internal/trade"
)

// Policy selects the segmentation strategy for one analysis run.
type Policy string

const (
	// PolicyTimeGap groups entries whose gap to the previous entry is
	// at most Options.Gap (boundary inclusive).
	PolicyTimeGap Policy = "time_gap"
	// PolicyMarker starts a new episode on a first-entry signal or on
	// a position-side flip against the open episode.
	PolicyMarker Policy = "marker"
	// PolicyBoundary treats each first-entry signal as the start of a
	// section running until the next first-entry signal, and records
	// the section's final row as the exit event.
	PolicyBoundary Policy = "boundary"
)

// ErrNoEntries signals that no row matched any entry criterion. It is
// an outcome, not a data fault: callers surface "nothing to analyze".
var ErrNoEntries = errors.New("no entry signals matched")

// ConfigError reports a rejected analysis configuration. It is raised
// before any row is processed.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid analysis configuration: " + e.Reason
}

// DefaultGap is the time-gap grouping threshold.
const DefaultGap = 5 * time.Minute

// Options configure one segmentation pass.
type Options struct {
	Policy          Policy
	Leverage        float64
	Gap             time.Duration // PolicyTimeGap; defaults to DefaultGap
	SplitOnSideFlip bool          // PolicyMarker: close-and-reopen on side flip
	TrackExcursion  bool          // PolicyMarker: maintain run-up/drawdown
}

// Entry is one contributing row inside an episode.
type Entry struct {
	Time     time.Time `json:"time"`
	Label    string    `json:"label"`
	Price    float64   `json:"price"`
	Quantity float64   `json:"quantity"`
	Margin   float64   `json:"margin"`
}

// Exit describes the terminating row of a boundary-delimited episode.
type Exit struct {
	Time    time.Time     `json:"time"`
	Label   string        `json:"label"`
	Price   float64       `json:"price"`
	PnL     *float64      `json:"pnl,omitempty"`
	Elapsed time.Duration `json:"elapsed"`
}

// Episode is a closed group of entry signals. Never mutated after the
// segmenter returns it.
type Episode struct {
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
	Side        signal.Side `json:"side,omitempty"`
	TotalMargin float64     `json:"total_margin"`
	EntryCount  int         `json:"entry_count"`
	Entries     []Entry     `json:"entries"`
	MaxRunup    float64     `json:"max_runup,omitempty"`
	MaxDrawdown float64     `json:"max_drawdown,omitempty"`
	Exit        *Exit       `json:"exit,omitempty"`
}

type normRow struct {
	row  trade.Row
	norm signal.Normalized
}

// Segment partitions rows (sorted by time ascending) into episodes
// using the configured policy. Returns ErrNoEntries when nothing
// matched an entry criterion.
func Segment(rows []trade.Row, profile signal.Profile, opts Options) ([]Episode, error) {
	if profile == nil {
		return nil, &ConfigError{Reason: "strategy profile required"}
	}
	if opts.Leverage < 1 {
		return nil, &ConfigError{Reason: fmt.Sprintf("leverage must be >= 1, got %g", opts.Leverage)}
	}
	if opts.Gap <= 0 {
		opts.Gap = DefaultGap
	}

	normalized := make([]normRow, 0, len(rows))
	for _, r := range rows {
		normalized = append(normalized, normRow{row: r, norm: profile.Normalize(r.Label)})
	}

	var episodes []Episode
	switch opts.Policy {
	case PolicyTimeGap, "":
		episodes = segmentTimeGap(normalized, opts)
	case PolicyMarker:
		episodes = segmentMarker(normalized, opts)
	case PolicyBoundary:
		episodes = segmentBoundary(normalized, opts)
	default:
		return nil, &ConfigError{Reason: fmt.Sprintf("unknown segmentation policy %q", opts.Policy)}
	}
	if len(episodes) == 0 {
		return nil, ErrNoEntries
	}
	return episodes, nil
}

func entryOf(r normRow, leverage float64) Entry {
	return Entry{
		Time:     r.row.Time,
		Label:    r.row.Label,
		Price:    r.row.Price,
		Quantity: r.row.Quantity,
		Margin:   r.row.Notional() / leverage,
	}
}

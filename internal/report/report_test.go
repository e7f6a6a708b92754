package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marginscope/internal/episode"
	"marginscope/internal/signal"
)

var base = time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

func sampleEpisodes() []episode.Episode {
	pnl := -12.5
	return []episode.Episode{
		{
			Start:       base,
			End:         base.Add(2 * time.Minute),
			Side:        signal.SideLong,
			TotalMargin: 20,
			EntryCount:  2,
			Entries: []episode.Entry{
				{Time: base, Label: "롱 진입", Price: 100, Quantity: 1, Margin: 10},
				{Time: base.Add(2 * time.Minute), Label: "추가 진입", Price: 100, Quantity: 1, Margin: 10},
			},
			MaxRunup:    15,
			MaxDrawdown: -5,
		},
		{
			Start:       base.Add(time.Hour),
			End:         base.Add(time.Hour),
			TotalMargin: 10,
			EntryCount:  1,
			Entries: []episode.Entry{
				{Time: base.Add(time.Hour), Label: "매수", Price: 100, Quantity: 1, Margin: 10},
			},
			Exit: &episode.Exit{
				Time:    base.Add(time.Hour),
				Label:   "숏 청산",
				Price:   99.456,
				PnL:     &pnl,
				Elapsed: 26 * time.Hour,
			},
		},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(10, sampleEpisodes())
	assert.Equal(t, 10, s.TotalRows)
	assert.Equal(t, 3, s.EntryRows)
	assert.Equal(t, 2, s.EpisodeCount)
	assert.InDelta(t, 20.0, s.MaxMargin, 1e-9)
	assert.InDelta(t, 15.0, s.MeanMargin, 1e-9)
	assert.InDelta(t, 30.0, s.TotalMargin, 1e-9)
	assert.InDelta(t, 15.0, s.MaxRunup, 1e-9)
	assert.InDelta(t, -5.0, s.MaxDrawdown, 1e-9)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(7, nil)
	assert.Equal(t, 7, s.TotalRows)
	assert.Equal(t, 0, s.EpisodeCount)
	assert.Zero(t, s.MaxMargin)
	assert.Zero(t, s.TotalMargin)
}

func TestRenderCSV(t *testing.T) {
	out, err := RenderCSV(sampleEpisodes())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "start_time,end_time,side,total_margin,entry_count"))

	assert.Contains(t, lines[1], "2024-01-02 09:00")
	assert.Contains(t, lines[1], "20.00")
	assert.Contains(t, lines[1], "롱 진입")
	assert.Contains(t, lines[1], "; ", "entry list flattened to one field")

	assert.Contains(t, lines[2], "숏 청산")
	assert.Contains(t, lines[2], "99.46")
	assert.Contains(t, lines[2], "-12.50")
	assert.Contains(t, lines[2], "1d 2h 0m")
}

func TestRenderCSVEmpty(t *testing.T) {
	out, err := RenderCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(out), "\n")+1, "header only")
}

func TestRenderCharts(t *testing.T) {
	html, err := RenderCharts("sample.csv", sampleEpisodes())
	require.NoError(t, err)
	s := string(html)
	assert.Contains(t, s, "echarts")
	assert.Contains(t, s, "sample.csv")
	assert.Contains(t, s, "2024-01-02 09:00")
}

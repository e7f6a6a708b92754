package episode

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marginscope/internal/signal"
	"marginscope/internal/trade"
)

var base = time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

func mustProfile(t *testing.T, def signal.Definition) signal.Profile {
	t.Helper()
	p, err := signal.Build(def)
	require.NoError(t, err)
	return p
}

func plainProfile(t *testing.T) signal.Profile {
	return mustProfile(t, signal.Definition{Name: "plain", Mode: "substring", BuyToken: "매수"})
}

func buyRow(at time.Time, price, qty float64) trade.Row {
	return trade.Row{Time: at, Label: "시장가 매수", Price: price, Quantity: qty}
}

func TestTimeGapScenario(t *testing.T) {
	rows := []trade.Row{
		buyRow(base, 100, 1),
		buyRow(base.Add(120*time.Second), 100, 1),
		buyRow(base.Add(400*time.Second), 100, 1),
	}
	episodes, err := Segment(rows, plainProfile(t), Options{Policy: PolicyTimeGap, Leverage: 10})
	require.NoError(t, err)
	require.Len(t, episodes, 2)

	assert.Equal(t, base, episodes[0].Start)
	assert.Equal(t, base.Add(120*time.Second), episodes[0].End)
	assert.InDelta(t, 20.0, episodes[0].TotalMargin, 1e-9)
	assert.Equal(t, 2, episodes[0].EntryCount)

	assert.Equal(t, base.Add(400*time.Second), episodes[1].Start)
	assert.InDelta(t, 10.0, episodes[1].TotalMargin, 1e-9)
	assert.Equal(t, 1, episodes[1].EntryCount)
}

func TestTimeGapBoundaryInclusive(t *testing.T) {
	exactly := []trade.Row{buyRow(base, 100, 1), buyRow(base.Add(300*time.Second), 100, 1)}
	episodes, err := Segment(exactly, plainProfile(t), Options{Policy: PolicyTimeGap, Leverage: 1})
	require.NoError(t, err)
	assert.Len(t, episodes, 1)

	beyond := []trade.Row{buyRow(base, 100, 1), buyRow(base.Add(301*time.Second), 100, 1)}
	episodes, err = Segment(beyond, plainProfile(t), Options{Policy: PolicyTimeGap, Leverage: 1})
	require.NoError(t, err)
	assert.Len(t, episodes, 2)
}

func TestTimeGapLastEpisodeNeverDropped(t *testing.T) {
	rows := []trade.Row{buyRow(base, 100, 1), buyRow(base.Add(1000*time.Second), 200, 2)}
	episodes, err := Segment(rows, plainProfile(t), Options{Policy: PolicyTimeGap, Leverage: 10})
	require.NoError(t, err)
	require.Len(t, episodes, 2)
	assert.InDelta(t, 40.0, episodes[1].TotalMargin, 1e-9)
}

func TestPartitionProperty(t *testing.T) {
	var rows []trade.Row
	for i := 0; i < 20; i++ {
		rows = append(rows, buyRow(base.Add(time.Duration(i*i)*time.Minute), 100+float64(i), 1))
	}
	episodes, err := Segment(rows, plainProfile(t), Options{Policy: PolicyTimeGap, Leverage: 2})
	require.NoError(t, err)

	total := 0
	var prevEnd time.Time
	for i, ep := range episodes {
		total += ep.EntryCount
		assert.Len(t, ep.Entries, ep.EntryCount)
		assert.False(t, ep.End.Before(ep.Start), "episode %d: end before start", i)
		if i > 0 {
			assert.True(t, ep.Start.After(prevEnd), "episode %d overlaps predecessor", i)
		}
		prevEnd = ep.End
	}
	assert.Equal(t, len(rows), total, "every entry row belongs to exactly one episode")
}

func TestMarginAdditivity(t *testing.T) {
	rows := []trade.Row{
		buyRow(base, 42135.5, 0.37),
		buyRow(base.Add(60*time.Second), 42201.25, 1.13),
		buyRow(base.Add(120*time.Second), 41990.0, 0.08),
	}
	const leverage = 7.0
	episodes, err := Segment(rows, plainProfile(t), Options{Policy: PolicyTimeGap, Leverage: leverage})
	require.NoError(t, err)
	require.Len(t, episodes, 1)

	var want float64
	for _, r := range rows {
		want += r.Price * r.Quantity / leverage
	}
	assert.InDelta(t, want, episodes[0].TotalMargin, 1e-9)
}

func TestIdempotence(t *testing.T) {
	rows := []trade.Row{
		buyRow(base, 100, 1),
		buyRow(base.Add(100*time.Second), 101, 2),
		buyRow(base.Add(900*time.Second), 99, 1),
	}
	opts := Options{Policy: PolicyTimeGap, Leverage: 5}
	first, err := Segment(rows, plainProfile(t), opts)
	require.NoError(t, err)
	second, err := Segment(rows, plainProfile(t), opts)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNoEntriesOutcome(t *testing.T) {
	rows := []trade.Row{
		{Time: base, Label: "시장가 매도", Price: 100, Quantity: 1},
		{Time: base.Add(time.Minute), Label: "손절", Price: 90, Quantity: 1},
	}
	episodes, err := Segment(rows, plainProfile(t), Options{Policy: PolicyTimeGap, Leverage: 10})
	assert.Nil(t, episodes)
	assert.ErrorIs(t, err, ErrNoEntries)
}

func TestLeverageRejectedBeforeProcessing(t *testing.T) {
	rows := []trade.Row{buyRow(base, 100, 1)}
	for _, leverage := range []float64{0, -3, 0.5} {
		_, err := Segment(rows, plainProfile(t), Options{Policy: PolicyTimeGap, Leverage: leverage})
		var cfgErr *ConfigError
		assert.ErrorAs(t, err, &cfgErr, "leverage=%g", leverage)
	}
}

func TestUnknownPolicyRejected(t *testing.T) {
	_, err := Segment([]trade.Row{buyRow(base, 100, 1)}, plainProfile(t), Options{Policy: "weekly", Leverage: 2})
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func allKillProfile(t *testing.T) signal.Profile {
	return mustProfile(t, signal.Definition{
		Name:        "all_kill",
		Mode:        "all_kill",
		OpenTokens:  []string{"롱 진입", "숏 진입"},
		AddTokens:   []string{"추가", "물타기"},
		LongTokens:  []string{"롱"},
		ShortTokens: []string{"숏"},
	})
}

func TestMarkerSideFlipForcesBoundary(t *testing.T) {
	rows := []trade.Row{
		{Time: base, Label: "롱 진입", Price: 100, Quantity: 1},
		{Time: base.Add(time.Minute), Label: "추가 매수 롱", Price: 101, Quantity: 1},
		{Time: base.Add(2 * time.Minute), Label: "추가 매수 숏", Price: 102, Quantity: 1},
	}
	episodes, err := Segment(rows, allKillProfile(t), Options{
		Policy: PolicyMarker, Leverage: 10, SplitOnSideFlip: true,
	})
	require.NoError(t, err)
	require.Len(t, episodes, 2)
	assert.Equal(t, signal.SideLong, episodes[0].Side)
	assert.Equal(t, 2, episodes[0].EntryCount)
	assert.Equal(t, signal.SideShort, episodes[1].Side)
	assert.Equal(t, 1, episodes[1].EntryCount)
}

func TestMarkerSideFlipIgnoredWhenDisabled(t *testing.T) {
	rows := []trade.Row{
		{Time: base, Label: "롱 진입", Price: 100, Quantity: 1},
		{Time: base.Add(time.Minute), Label: "추가 매수 숏", Price: 101, Quantity: 1},
	}
	episodes, err := Segment(rows, allKillProfile(t), Options{
		Policy: PolicyMarker, Leverage: 10, SplitOnSideFlip: false,
	})
	require.NoError(t, err)
	assert.Len(t, episodes, 1)
	assert.Equal(t, 2, episodes[0].EntryCount)
}

func TestMarkerExcursionTracking(t *testing.T) {
	rows := []trade.Row{
		{Time: base, Label: "롱 진입", Price: 100, Quantity: 1},
		{Time: base.Add(time.Minute), Label: "추가 매수 롱", Price: 110, Quantity: 1},
		{Time: base.Add(2 * time.Minute), Label: "물타기 롱", Price: 90, Quantity: 1},
	}
	episodes, err := Segment(rows, allKillProfile(t), Options{
		Policy: PolicyMarker, Leverage: 10, SplitOnSideFlip: true, TrackExcursion: true,
	})
	require.NoError(t, err)
	require.Len(t, episodes, 1)
	// (110-100)*2 contracts, then (90-100)*3 contracts.
	assert.InDelta(t, 20.0, episodes[0].MaxRunup, 1e-9)
	assert.InDelta(t, -30.0, episodes[0].MaxDrawdown, 1e-9)
}

func TestMarkerShortSideExcursionSign(t *testing.T) {
	rows := []trade.Row{
		{Time: base, Label: "숏 진입", Price: 100, Quantity: 1},
		{Time: base.Add(time.Minute), Label: "추가 매수 숏", Price: 90, Quantity: 1},
	}
	episodes, err := Segment(rows, allKillProfile(t), Options{
		Policy: PolicyMarker, Leverage: 10, TrackExcursion: true,
	})
	require.NoError(t, err)
	require.Len(t, episodes, 1)
	// Price falling is favorable for a short: (90-100)*2 negated.
	assert.InDelta(t, 20.0, episodes[0].MaxRunup, 1e-9)
}

func patternProfile(t *testing.T) signal.Profile {
	return mustProfile(t, signal.Definition{
		Name:        "pattern",
		Mode:        "pattern",
		OpenTokens:  []string{"롱 진입", "숏 진입"},
		AddTokens:   []string{"추가 진입"},
		LongTokens:  []string{"롱"},
		ShortTokens: []string{"숏"},
		ExitLong:    []string{"롱 청산"},
		ExitShort:   []string{"숏 청산"},
	})
}

func TestBoundaryPolicyCapturesExit(t *testing.T) {
	pnl := 42.5
	rows := []trade.Row{
		{Time: base, Label: "롱 진입", Price: 100, Quantity: 1},
		{Time: base.Add(30 * time.Minute), Label: "추가 진입", Price: 105, Quantity: 1},
		{Time: base.Add(26 * time.Hour), Label: "롱 청산", Price: 120, Quantity: 2, PnL: &pnl},
		{Time: base.Add(27 * time.Hour), Label: "숏 진입", Price: 119, Quantity: 1},
	}
	episodes, err := Segment(rows, patternProfile(t), Options{Policy: PolicyBoundary, Leverage: 5})
	require.NoError(t, err)
	require.Len(t, episodes, 2)

	first := episodes[0]
	assert.Equal(t, 2, first.EntryCount)
	assert.InDelta(t, (100+105)/5.0, first.TotalMargin, 1e-9)
	require.NotNil(t, first.Exit)
	assert.Equal(t, "롱 청산", first.Exit.Label)
	assert.InDelta(t, 120.0, first.Exit.Price, 1e-9)
	require.NotNil(t, first.Exit.PnL)
	assert.InDelta(t, pnl, *first.Exit.PnL, 1e-9)
	assert.Equal(t, "1d 2h 0m", FormatElapsed(first.Exit.Elapsed))

	second := episodes[1]
	assert.Equal(t, 1, second.EntryCount)
	require.NotNil(t, second.Exit)
	assert.Equal(t, "숏 진입", second.Exit.Label)
}

func TestPlainProfileUnderMarkerPolicy(t *testing.T) {
	// Without add markers every buy is a first entry: one episode each.
	rows := []trade.Row{
		buyRow(base, 100, 1),
		buyRow(base.Add(time.Minute), 100, 1),
	}
	episodes, err := Segment(rows, plainProfile(t), Options{Policy: PolicyMarker, Leverage: 10})
	require.NoError(t, err)
	assert.Len(t, episodes, 2)
}

func TestExitRowsExcludedFromTimeGapEpisodes(t *testing.T) {
	rows := []trade.Row{
		{Time: base, Label: "롱 진입", Price: 100, Quantity: 1},
		{Time: base.Add(time.Minute), Label: "롱 청산", Price: 101, Quantity: 1},
		{Time: base.Add(2 * time.Minute), Label: "추가 진입", Price: 99, Quantity: 1},
	}
	episodes, err := Segment(rows, patternProfile(t), Options{Policy: PolicyTimeGap, Leverage: 10})
	require.NoError(t, err)
	require.Len(t, episodes, 1)
	assert.Equal(t, 2, episodes[0].EntryCount)
	for _, e := range episodes[0].Entries {
		assert.NotContains(t, e.Label, "청산")
	}
}

func TestErrNoEntriesDistinguishable(t *testing.T) {
	_, err := Segment(nil, plainProfile(t), Options{Policy: PolicyTimeGap, Leverage: 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoEntries))
	var cfgErr *ConfigError
	assert.False(t, errors.As(err, &cfgErr))
}

package episode

import "marginscope/internal/signal"

// Boundary segmentation: every first-entry row opens a section that
// runs until the next first-entry row (exclusive) or end of data. The
// section's final row is recorded as the exit event.
func segmentBoundary(rows []normRow, opts Options) []Episode {
	var episodes []Episode
	start := -1
	for i, r := range rows {
		if r.norm.Category != signal.CategoryEntryOpen {
			continue
		}
		if start >= 0 {
			episodes = append(episodes, buildSection(rows[start:i], opts))
		}
		start = i
	}
	if start >= 0 {
		episodes = append(episodes, buildSection(rows[start:], opts))
	}
	return episodes
}

func buildSection(section []normRow, opts Options) Episode {
	ep := Episode{Start: section[0].row.Time, Side: section[0].norm.Side}
	for _, r := range section {
		if !r.norm.Entry() {
			continue
		}
		e := entryOf(r, opts.Leverage)
		ep.Entries = append(ep.Entries, e)
		ep.TotalMargin += e.Margin
		ep.EntryCount++
	}
	last := section[len(section)-1]
	ep.End = last.row.Time
	ep.Exit = &Exit{
		Time:    last.row.Time,
		Label:   last.row.Label,
		Price:   last.row.Price,
		PnL:     last.row.PnL,
		Elapsed: last.row.Time.Sub(ep.Start),
	}
	return ep
}

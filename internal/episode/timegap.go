package episode

func segmentTimeGap(rows []normRow, opts Options) []Episode {
	var episodes []Episode
	var cur *Episode
	for _, r := range rows {
		if !r.norm.Entry() {
			continue
		}
		if cur != nil && r.row.Time.Sub(cur.End) > opts.Gap {
			episodes = append(episodes, *cur)
			cur = nil
		}
		e := entryOf(r, opts.Leverage)
		if cur == nil {
			cur = &Episode{Start: r.row.Time, Side: r.norm.Side}
		}
		cur.Entries = append(cur.Entries, e)
		cur.TotalMargin += e.Margin
		cur.EntryCount++
		cur.End = r.row.Time
	}
	// The last open episode is always closed, never dropped.
	if cur != nil {
		episodes = append(episodes, *cur)
	}
	return episodes
}

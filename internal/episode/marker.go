package episode

import "marginscope/internal/signal"

func segmentMarker(rows []normRow, opts Options) []Episode {
	var episodes []Episode
	var cur *Episode
	var contracts float64
	var openPrice float64

	flush := func() {
		if cur != nil {
			episodes = append(episodes, *cur)
			cur = nil
		}
	}

	for _, r := range rows {
		if !r.norm.Entry() {
			continue
		}
		if cur != nil {
			flip := opts.SplitOnSideFlip &&
				r.norm.Side != signal.SideNone && cur.Side != signal.SideNone &&
				r.norm.Side != cur.Side
			if r.norm.Category == signal.CategoryEntryOpen || flip {
				flush()
			}
		}
		e := entryOf(r, opts.Leverage)
		if cur == nil {
			cur = &Episode{Start: r.row.Time, Side: r.norm.Side}
			contracts = 0
			openPrice = r.row.Price
		}
		if cur.Side == signal.SideNone {
			cur.Side = r.norm.Side
		}
		cur.Entries = append(cur.Entries, e)
		cur.TotalMargin += e.Margin
		cur.EntryCount++
		cur.End = r.row.Time
		contracts += r.row.Quantity

		if opts.TrackExcursion {
			// Excursion from the episode's opening price, scaled by the
			// contracts accumulated so far, signed by side.
			excursion := (r.row.Price - openPrice) * contracts
			if cur.Side == signal.SideShort {
				excursion = -excursion
			}
			if excursion > cur.MaxRunup {
				cur.MaxRunup = excursion
			}
			if excursion < cur.MaxDrawdown {
				cur.MaxDrawdown = excursion
			}
		}
	}
	flush()
	return episodes
}

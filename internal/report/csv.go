package report

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"marginscope/internal/episode"
)

const timeLayout = "2006-01-02 15:04"

var exportHeader = []string{
	"start_time", "end_time", "side", "total_margin", "entry_count",
	"entries", "max_runup", "max_drawdown",
	"exit_label", "exit_price", "realized_pnl", "elapsed",
}

// RenderCSV serializes episodes as UTF-8 delimited text, one row per
// episode, with the entry list flattened to a display string.
func RenderCSV(episodes []episode.Episode) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(exportHeader); err != nil {
		return "", err
	}
	for _, ep := range episodes {
		record := []string{
			ep.Start.Format(timeLayout),
			ep.End.Format(timeLayout),
			string(ep.Side),
			money(ep.TotalMargin),
			fmt.Sprintf("%d", ep.EntryCount),
			flattenEntries(ep.Entries),
			money(ep.MaxRunup),
			money(ep.MaxDrawdown),
			exitLabel(ep),
			exitPrice(ep),
			exitPnL(ep),
			exitElapsed(ep),
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// money renders a 2-decimal display value.
func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func flattenEntries(entries []episode.Entry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, fmt.Sprintf("%s %s %g@%g",
			e.Time.Format(timeLayout), e.Label, e.Quantity, e.Price))
	}
	return strings.Join(parts, "; ")
}

func exitLabel(ep episode.Episode) string {
	if ep.Exit == nil {
		return ""
	}
	return ep.Exit.Label
}

func exitPrice(ep episode.Episode) string {
	if ep.Exit == nil {
		return ""
	}
	return money(ep.Exit.Price)
}

func exitPnL(ep episode.Episode) string {
	if ep.Exit == nil || ep.Exit.PnL == nil {
		return ""
	}
	return money(*ep.Exit.PnL)
}

func exitElapsed(ep episode.Episode) string {
	if ep.Exit == nil {
		return ""
	}
	return episode.FormatElapsed(ep.Exit.Elapsed)
}

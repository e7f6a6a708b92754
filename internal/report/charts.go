package report

import (
	"bytes"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"marginscope/internal/episode"
)

const (
	chartWidth  = "1200px"
	chartHeight = "420px"
)

// RenderCharts builds the analysis chart page: required margin per
// episode over time, and entry count per episode.
func RenderCharts(title string, episodes []episode.Episode) ([]byte, error) {
	xAxis := make([]string, 0, len(episodes))
	marginData := make([]opts.LineData, 0, len(episodes))
	countData := make([]opts.BarData, 0, len(episodes))
	for _, ep := range episodes {
		xAxis = append(xAxis, ep.Start.Format(timeLayout))
		marginData = append(marginData, opts.LineData{Value: ep.TotalMargin})
		countData = append(countData, opts.BarData{Value: ep.EntryCount})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "Required margin per episode (USDT)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
	)
	line.SetXAxis(xAxis)
	line.AddSeries("required margin", marginData,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}))

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: "Entries per episode"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(xAxis)
	bar.AddSeries("entries", countData)

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(line, bar)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

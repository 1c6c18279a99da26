package report

import (
	"fmt"
	"io"
	"time"

	"github.com/SimonSchneider/pefisim/internal/ledger"
	"github.com/SimonSchneider/pefisim/internal/montecarlo"
	"github.com/SimonSchneider/pefisim/internal/ui"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var palette = []string{"2563eb", "dc2626", "16a34a", "d97706", "7c3aed", "0891b2"}

func colour(i int) drawing.Color {
	return drawing.ColorFromHex(palette[i%len(palette)])
}

func moneyFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return ui.FormatWithThousands(f)
	}
	return ""
}

// RenderHistogram draws the terminal net-worth distribution of every scenario
// as overlaid bin counts.
func RenderHistogram(w io.Writer, t montecarlo.Table, bins int) error {
	series := make([]chart.Series, 0, len(t.Columns))
	for i, name := range t.Columns {
		h, err := NewHistogram(t.Column(name), bins)
		if err != nil {
			// every trial of this scenario failed
			continue
		}
		counts := make([]float64, len(h.Counts))
		for j, c := range h.Counts {
			counts[j] = float64(c)
		}
		series = append(series, chart.ContinuousSeries{
			Name: fmt.Sprintf("%s (mode %s)", name, ui.FormatWithThousands(h.Mode())),
			Style: chart.Style{
				StrokeColor: colour(i),
				FillColor:   colour(i).WithAlpha(64),
				StrokeWidth: 2,
			},
			XValues: h.Midpoints(),
			YValues: counts,
		})
	}
	if len(series) == 0 {
		return fmt.Errorf("no successful trials to plot")
	}
	graph := chart.Chart{
		Title:  "Final net worth",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis:  chart.XAxis{ValueFormatter: moneyFormatter},
		YAxis:  chart.YAxis{Name: "trials"},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("histogram render failed: %w", err)
	}
	return nil
}

// RenderSeries draws daily net-worth paths of the kept trials of a scenario.
func RenderSeries(w io.Writer, name string, paths []ledger.Series) error {
	series := make([]chart.Series, 0, len(paths))
	for i, p := range paths {
		if len(p) < 2 {
			continue
		}
		xs := make([]time.Time, len(p))
		for j, pt := range p {
			xs[j] = pt.Date.ToStdTime()
		}
		series = append(series, chart.TimeSeries{
			Name:    fmt.Sprintf("trial %d", i),
			Style:   chart.Style{StrokeColor: colour(i), StrokeWidth: 1.5},
			XValues: xs,
			YValues: p.Values(),
		})
	}
	if len(series) == 0 {
		return fmt.Errorf("scenario %q: need at least one path with 2 points", name)
	}
	graph := chart.Chart{
		Title:  name,
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis:  chart.YAxis{ValueFormatter: moneyFormatter},
		Series: series,
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("series render failed: %w", err)
	}
	return nil
}

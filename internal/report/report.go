// Package report renders training-journal summaries as standalone HTML
// charts: per-phase processing time and the reward curve over recent
// frames.
package report

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/google/uuid"

	"github.com/fieldmark/framebot/internal/journal"
)

// Source is the journal read access the generator needs.
type Source interface {
	Recent(clientID uuid.UUID, limit int) ([]*journal.Entry, error)
}

// Generator builds report pages from journal entries.
type Generator struct {
	source Source
}

func NewGenerator(source Source) *Generator {
	return &Generator{source: source}
}

// WriteHTML renders the report page for one client's recent entries.
func (g *Generator) WriteHTML(w io.Writer, clientID uuid.UUID, limit int) error {
	entries, err := g.source.Recent(clientID, limit)
	if err != nil {
		return fmt.Errorf("report: load entries: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("report: no journal entries for client %s", clientID)
	}

	page := components.NewPage()
	page.PageTitle = "framebot training report"
	page.AddCharts(phaseChart(entries), rewardChart(entries))
	if err := page.Render(w); err != nil {
		return fmt.Errorf("report: render: %w", err)
	}
	return nil
}

// WriteFile renders the report for one client into an HTML file.
func (g *Generator) WriteFile(path string, clientID uuid.UUID, limit int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", path, err)
	}
	defer f.Close()
	return g.WriteHTML(f, clientID, limit)
}

// phaseChart shows the mean per-phase processing time across the entries.
func phaseChart(entries []*journal.Entry) components.Charter {
	sums := make(map[string]int64)
	counts := make(map[string]int64)
	for _, e := range entries {
		for phase, micros := range e.Phases.ByPhase {
			sums[phase] += micros
			counts[phase]++
		}
	}

	phases := make([]string, 0, len(sums))
	for phase := range sums {
		phases = append(phases, phase)
	}
	sort.Strings(phases)

	data := make([]opts.BarData, len(phases))
	for i, phase := range phases {
		data[i] = opts.BarData{Value: float64(sums[phase]) / float64(counts[phase])}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "900px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Phase processing time",
			Subtitle: fmt.Sprintf("mean over %d journalled frames, microseconds", len(entries)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(phases).AddSeries("mean µs", data)
	return bar
}

// rewardChart shows the reward of each journalled frame in order.
func rewardChart(entries []*journal.Entry) components.Charter {
	labels := make([]string, len(entries))
	data := make([]opts.LineData, len(entries))
	for i, e := range entries {
		labels[i] = e.Timestamp.Format("15:04:05.000")
		data[i] = opts.LineData{Value: e.Reward}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "900px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Reward per frame",
			Subtitle: fmt.Sprintf("%d journalled frames", len(entries)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	line.SetXAxis(labels).AddSeries("reward", data)
	return line
}

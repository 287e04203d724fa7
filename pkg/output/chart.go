package output

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// DefaultChartWidth is the length, in cells, of the longest bar.
const DefaultChartWidth = 40

// Axis labels of the grouped bar chart.
const (
	ChartCategoryAxis = "Performance Metrics"
	ChartValueAxis    = "Values"
)

var (
	colorCyan    = lipgloss.Color("#8BE9FD")
	colorOrange  = lipgloss.Color("#FFB86C")
	colorMagenta = lipgloss.Color("#FF79C6")
	colorGray    = lipgloss.Color("#6272A4")

	// One glyph per series so the chart still reads without color.
	seriesGlyphs = []string{"█", "▓"}
	seriesColors = []lipgloss.Color{colorCyan, colorOrange}
)

type chartStyles struct {
	title    lipgloss.Style
	category lipgloss.Style
	dim      lipgloss.Style
	series   []lipgloss.Style
}

func newChartStyles(r *lipgloss.Renderer) chartStyles {
	s := chartStyles{
		title:    r.NewStyle().Bold(true).Foreground(colorCyan),
		category: r.NewStyle().Bold(true).Foreground(colorMagenta),
		dim:      r.NewStyle().Foreground(colorGray),
	}
	for _, c := range seriesColors {
		s.series = append(s.series, r.NewStyle().Foreground(c))
	}
	return s
}

// ChartFormatter renders the comparison as a grouped horizontal bar chart:
//
//	Performance Comparison: Rate Monotonic Scheduling vs Standard Scheduling
//
//	Performance Metrics
//	Total Execution Time
//	  Rate Monotonic Scheduling │████████████████████████████████████████ 120
//	  Standard Scheduling       │▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓ 120
//	Idle Time Percentage
//	  ...
//	                            └────────────────────────────────────────
//	                             Values (0 to 120)
//
//	Legend: █ Rate Monotonic Scheduling  ▓ Standard Scheduling
//
// All bars share one scale so groups are comparable.
type ChartFormatter struct {
	opts FormatOptions
}

// NewChartFormatter creates a new chart formatter with the given options.
func NewChartFormatter(opts FormatOptions) *ChartFormatter {
	if opts.ChartWidth <= 0 {
		opts.ChartWidth = DefaultChartWidth
	}
	return &ChartFormatter{opts: opts}
}

// Name returns the format name.
func (f *ChartFormatter) Name() string {
	return "chart"
}

// Format renders the report's comparison as a bar chart.
func (f *ChartFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	r := lipgloss.NewRenderer(w)
	if f.opts.NoColor {
		r.SetColorProfile(termenv.Ascii)
	}

	_, err := io.WriteString(w, f.render(report.Comparison, newChartStyles(r)))
	return err
}

func (f *ChartFormatter) render(c Comparison, st chartStyles) string {
	width := f.opts.ChartWidth
	max := c.Max()

	names := make([]string, len(c.Series))
	labelW := 0
	for i, s := range c.Series {
		names[i] = s.Name
		if w := lipgloss.Width(s.Name); w > labelW {
			labelW = w
		}
	}
	indent := strings.Repeat(" ", labelW+2)

	var sb strings.Builder

	sb.WriteString(st.title.Render("Performance Comparison: " + strings.Join(names, " vs ")))
	sb.WriteString("\n\n")
	sb.WriteString(st.dim.Render(ChartCategoryAxis))
	sb.WriteString("\n")

	for i, category := range c.Categories {
		sb.WriteString(st.category.Render(category))
		sb.WriteString("\n")

		for j, s := range c.Series {
			if i >= len(s.Values) {
				continue
			}
			v := s.Values[i]
			pad := strings.Repeat(" ", labelW-lipgloss.Width(s.Name))
			bar := strings.Repeat(glyphFor(j), barLength(v, max, width))

			sb.WriteString("  " + s.Name + pad + " ")
			sb.WriteString(st.dim.Render("│"))
			sb.WriteString(styleFor(st, j).Render(bar))
			sb.WriteString(" " + formatValue(v) + "\n")
		}
	}

	sb.WriteString(indent + " " + st.dim.Render("└"+strings.Repeat("─", width)))
	sb.WriteString("\n")
	sb.WriteString(indent + "  " + st.dim.Render(fmt.Sprintf("%s (0 to %s)", ChartValueAxis, formatValue(max))))
	sb.WriteString("\n\n")

	sb.WriteString("Legend:")
	for j, s := range c.Series {
		sb.WriteString(" " + styleFor(st, j).Render(glyphFor(j)) + " " + s.Name + " ")
	}
	sb.WriteString("\n")

	return sb.String()
}

// barLength scales v against max. Non-zero values always get one cell.
func barLength(v, max float64, width int) int {
	if max <= 0 || v <= 0 {
		return 0
	}
	n := int(math.Round(v / max * float64(width)))
	if n < 1 {
		n = 1
	}
	if n > width {
		n = width
	}
	return n
}

func formatValue(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

func glyphFor(i int) string {
	return seriesGlyphs[i%len(seriesGlyphs)]
}

func styleFor(st chartStyles, i int) lipgloss.Style {
	return st.series[i%len(st.series)]
}

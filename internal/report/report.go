// Package report renders box-plot statistics as a markdown document and,
// through gomarkdown, as an HTML fragment.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"spcdash/domain/measurement"
	dstats "spcdash/domain/stats"
	"spcdash/internal/boxplot"
)

// Input is everything one report needs
type Input struct {
	Title            string
	Filter           measurement.Filter
	ValueField       string
	Grouped          dstats.GroupedStatistics
	Limits           []measurement.Limits
	OutlierThreshold float64
	GeneratedAt      time.Time
}

// Markdown builds the report body: a header, one row per group, the
// aggregate row and the control limits table when any are present.
func Markdown(in Input) string {
	var b strings.Builder

	title := in.Title
	if title == "" {
		title = "SPC statistics"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "- **Metric:** `%s`\n", in.ValueField)
	if in.Filter.SPCMonitor != "" {
		fmt.Fprintf(&b, "- **Monitor:** %s\n", in.Filter.SPCMonitor)
	}
	if in.Filter.ProcessType != "" || in.Filter.ProductType != "" {
		fmt.Fprintf(&b, "- **Process / product:** %s / %s\n", in.Filter.ProcessType, in.Filter.ProductType)
	}
	if in.Filter.StartDate != "" || in.Filter.EndDate != "" {
		fmt.Fprintf(&b, "- **Dates:** %s to %s\n", in.Filter.StartDate, in.Filter.EndDate)
	}
	fmt.Fprintf(&b, "- **Outlier threshold:** %.2f x IQR\n", boxplot.NormalizeThreshold(in.OutlierThreshold))
	if !in.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "- **Generated:** %s\n", in.GeneratedAt.UTC().Format(time.RFC3339))
	}
	b.WriteString("\n")

	if len(in.Grouped.Groups) == 0 {
		b.WriteString("_No numeric values for this selection._\n")
		return b.String()
	}

	b.WriteString("| Entity | Count | Median | Q1 | Q3 | IQR | Whiskers | Mean | Std Dev | Outliers |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|---|---:|---:|---:|\n")
	for _, g := range in.Grouped.Groups {
		writeRow(&b, g)
	}
	writeRow(&b, boxplot.AggregateStatistics(in.Grouped, in.OutlierThreshold))

	if len(in.Limits) > 0 {
		b.WriteString("\n## Control limits\n\n")
		b.WriteString("| Chart | LCL | CL | UCL | Effective |\n")
		b.WriteString("|---|---:|---:|---:|---|\n")
		for _, l := range in.Limits {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				l.ChartName, optional(l.LCL), optional(l.CL), optional(l.UCL), l.EffectiveDate.Format("2006-01-02"))
		}
	}
	return b.String()
}

// HTML renders the markdown report to an HTML fragment
func HTML(in Input) []byte {
	return ToHTML([]byte(Markdown(in)))
}

// ToHTML converts markdown with tables enabled
func ToHTML(md []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return markdown.ToHTML(md, p, renderer)
}

func writeRow(b *strings.Builder, g dstats.GroupStatistics) {
	s := g.Stats
	fmt.Fprintf(b, "| %s | %d | %.2f | %.2f | %.2f | %.2f | %.2f to %.2f | %.2f | %.2f | %d |\n",
		escape(g.Key), g.Count, s.Median, s.Q1, s.Q3, s.IQR, s.WhiskerMin, s.WhiskerMax, s.Mean, s.StandardDeviation, len(s.Outliers))
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func escape(s string) string {
	if s == "" {
		return "_(none)_"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}

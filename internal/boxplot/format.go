package boxplot

import (
	"fmt"
	"strings"

	dstats "spcdash/domain/stats"
)

// FormatTooltip renders the hover text for one box. Lines are joined with
// <br/> for direct insertion into the tooltip element.
func FormatTooltip(s dstats.BoxPlotStatistics, entity string, count int) string {
	parts := []string{
		fmt.Sprintf("<strong>Entity:</strong> %s", entity),
		fmt.Sprintf("<strong>Count:</strong> %d", count),
		fmt.Sprintf("<strong>Median:</strong> %.2f", s.Median),
		fmt.Sprintf("<strong>Q1:</strong> %.2f", s.Q1),
		fmt.Sprintf("<strong>Q3:</strong> %.2f", s.Q3),
		fmt.Sprintf("<strong>IQR:</strong> %.2f", s.IQR),
		fmt.Sprintf("<strong>Mean:</strong> %.2f", s.Mean),
		fmt.Sprintf("<strong>Std Dev:</strong> %.2f", s.StandardDeviation),
	}
	if len(s.Outliers) > 0 {
		parts = append(parts, fmt.Sprintf("<strong>Outliers:</strong> %d", len(s.Outliers)))
	}
	return strings.Join(parts, "<br/>")
}

// FormatSummary renders a single plain-text line for logs and the CLI
func FormatSummary(s dstats.BoxPlotStatistics) string {
	return fmt.Sprintf("median=%.2f q1=%.2f q3=%.2f iqr=%.2f whiskers=[%.2f, %.2f] mean=%.2f sd=%.2f outliers=%d",
		s.Median, s.Q1, s.Q3, s.IQR, s.WhiskerMin, s.WhiskerMax, s.Mean, s.StandardDeviation, len(s.Outliers))
}

// FormatZoomLevel renders the zoom indicator. A nil x or y2 omits that axis.
func FormatZoomLevel(x *float64, y float64, y2 *float64) string {
	var b strings.Builder
	b.WriteString("Zoom: ")
	if x != nil {
		fmt.Fprintf(&b, "X: %.1fx, ", *x)
	}
	fmt.Fprintf(&b, "Y: %.1fx", y)
	if y2 != nil {
		fmt.Fprintf(&b, ", Y2: %.1fx", *y2)
	}
	return b.String()
}

package stats

// BoxPlotStatistics is the per-group, per-metric five-number-plus summary.
//
// INVARIANTS (non-empty input):
// - WhiskerMin <= Q1 <= Median <= Q3 <= WhiskerMax
// - every value in Outliers lies strictly outside [Q1-k*IQR, Q3+k*IQR]
//
// Empty input yields the zero value with an empty Outliers slice.
type BoxPlotStatistics struct {
	Q1                float64   `json:"q1"`
	Median            float64   `json:"median"`
	Q3                float64   `json:"q3"`
	IQR               float64   `json:"iqr"`
	WhiskerMin        float64   `json:"whiskerMin"`
	WhiskerMax        float64   `json:"whiskerMax"`
	Outliers          []float64 `json:"outliers"`
	Mean              float64   `json:"mean"`
	StandardDeviation float64   `json:"standardDeviation"`
}

// LowerFence returns the outlier cutoff below Q1 for threshold k
func (s BoxPlotStatistics) LowerFence(k float64) float64 {
	return s.Q1 - k*s.IQR
}

// UpperFence returns the outlier cutoff above Q3 for threshold k
func (s BoxPlotStatistics) UpperFence(k float64) float64 {
	return s.Q3 + k*s.IQR
}

// GroupStatistics pairs one group's retained values with their summary
type GroupStatistics struct {
	Key    string            `json:"entity"`
	Values []float64         `json:"values"`
	Count  int               `json:"count"`
	Stats  BoxPlotStatistics `json:"stats"`
}

// GroupedStatistics is the per-group breakdown for a categorical axis.
// Groups and Keys are in ascending lexicographic key order; AllValues is the
// concatenation of every group's retained values in that same order.
type GroupedStatistics struct {
	Groups    []GroupStatistics `json:"boxPlotData"`
	Keys      []string          `json:"entityNames"`
	AllValues []float64         `json:"allValues"`
}

// Group looks up a group by key
func (g GroupedStatistics) Group(key string) (GroupStatistics, bool) {
	for _, grp := range g.Groups {
		if grp.Key == key {
			return grp, true
		}
	}
	return GroupStatistics{}, false
}

// TotalCount returns the number of retained values across all groups
func (g GroupedStatistics) TotalCount() int {
	return len(g.AllValues)
}

package measurement

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Well-known column names of the CD measurement set
const (
	FieldEntity      = "entity"
	FieldLot         = "lot"
	FieldDate        = "date_process"
	FieldProcessType = "process_type"
	FieldProductType = "product_type"
	FieldSPCMonitor  = "spc_monitor_name"
)

// Record is one manufacturing measurement. Records are never mutated once
// they leave the data source.
type Record struct {
	Entity      string                 `json:"entity" db:"entity"`
	Timestamp   time.Time              `json:"date_process" db:"date_process"`
	Lot         string                 `json:"lot" db:"lot"`
	ProcessType string                 `json:"process_type" db:"process_type"`
	ProductType string                 `json:"product_type" db:"product_type"`
	SPCMonitor  string                 `json:"spc_monitor_name" db:"spc_monitor_name"`
	Fields      map[string]interface{} `json:"fields"`
}

// Value returns the named field as a finite float64. The second result is
// false for missing, empty, non-numeric, NaN or infinite values.
func (r Record) Value(name string) (float64, bool) {
	if name == FieldDate {
		if r.Timestamp.IsZero() {
			return 0, false
		}
		return float64(r.Timestamp.UnixMilli()), true
	}
	raw, ok := r.Fields[name]
	if !ok {
		return 0, false
	}
	return CoerceFloat(raw)
}

// Group returns the named attribute coerced to a string. Missing attributes
// coerce to the empty string.
func (r Record) Group(name string) string {
	switch name {
	case FieldEntity:
		return r.Entity
	case FieldLot:
		return r.Lot
	case FieldProcessType:
		return r.ProcessType
	case FieldProductType:
		return r.ProductType
	case FieldSPCMonitor:
		return r.SPCMonitor
	case FieldDate:
		return r.Timestamp.Format(time.RFC3339)
	}
	raw, ok := r.Fields[name]
	if !ok || raw == nil {
		return ""
	}
	if s, ok := raw.(string); ok {
		return s
	}
	return fmt.Sprint(raw)
}

// CoerceFloat converts loosely typed values into a finite float64
func CoerceFloat(raw interface{}) (float64, bool) {
	var v float64
	switch x := raw.(type) {
	case float64:
		v = x
	case float32:
		v = float64(x)
	case int:
		v = float64(x)
	case int32:
		v = float64(x)
	case int64:
		v = float64(x)
	case uint:
		v = float64(x)
	case uint32:
		v = float64(x)
	case uint64:
		v = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		v = f
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		v = f
	case []byte:
		return CoerceFloat(string(x))
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FilterByEntity returns the records whose entity matches. An empty entity
// returns the input unchanged.
func FilterByEntity(records []Record, entity string) []Record {
	if entity == "" {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Entity == entity {
			out = append(out, r)
		}
	}
	return out
}

// Limits are the SPC control limits in effect for one chart
type Limits struct {
	ID            int64     `json:"id" db:"id"`
	ProcessType   string    `json:"process_type" db:"process_type"`
	ProductType   string    `json:"product_type" db:"product_type"`
	SPCMonitor    string    `json:"spc_monitor_name" db:"spc_monitor_name"`
	ChartName     string    `json:"spc_chart_name" db:"spc_chart_name"`
	CL            *float64  `json:"cl,omitempty" db:"cl"`
	LCL           *float64  `json:"lcl,omitempty" db:"lcl"`
	UCL           *float64  `json:"ucl,omitempty" db:"ucl"`
	EffectiveDate time.Time `json:"effective_date" db:"effective_date"`
}

// ForChart picks the limits for a chart name, newest effective date first
func ForChart(all []Limits, chart string) (Limits, bool) {
	var best Limits
	found := false
	for _, l := range all {
		if l.ChartName != chart {
			continue
		}
		if !found || l.EffectiveDate.After(best.EffectiveDate) {
			best = l
			found = true
		}
	}
	return best, found
}

// LimitsQuery selects the current limits for a monitor/process/product
type LimitsQuery struct {
	SPCMonitor  string
	ProcessType string
	ProductType string
	ChartName   string
}

// Matches reports whether l is selected by q. Empty query fields match all.
func (q LimitsQuery) Matches(l Limits) bool {
	return matchField(q.SPCMonitor, l.SPCMonitor) &&
		matchField(q.ProcessType, l.ProcessType) &&
		matchField(q.ProductType, l.ProductType) &&
		matchField(q.ChartName, l.ChartName)
}

// CurrentLimits keeps, per monitor/process/product/chart, the limits with
// the latest effective date among those q selects. Output is ordered by ID.
func CurrentLimits(all []Limits, q LimitsQuery) []Limits {
	type key struct{ monitor, process, product, chart string }
	latest := make(map[key]Limits)
	for _, l := range all {
		if !q.Matches(l) {
			continue
		}
		k := key{l.SPCMonitor, l.ProcessType, l.ProductType, l.ChartName}
		if cur, ok := latest[k]; !ok || l.EffectiveDate.After(cur.EffectiveDate) {
			latest[k] = l
		}
	}
	out := make([]Limits, 0, len(latest))
	for _, l := range latest {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Monitors lists the distinct monitor/process/product combinations present
// in records, sorted
func Monitors(records []Record) []LimitsQuery {
	seen := make(map[LimitsQuery]bool)
	out := make([]LimitsQuery, 0)
	for _, r := range records {
		q := LimitsQuery{SPCMonitor: r.SPCMonitor, ProcessType: r.ProcessType, ProductType: r.ProductType}
		if !seen[q] {
			seen[q] = true
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.SPCMonitor != b.SPCMonitor {
			return a.SPCMonitor < b.SPCMonitor
		}
		if a.ProcessType != b.ProcessType {
			return a.ProcessType < b.ProcessType
		}
		return a.ProductType < b.ProductType
	})
	return out
}

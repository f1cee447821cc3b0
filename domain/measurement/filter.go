package measurement

import (
	"sort"
	"strings"
	"time"

	"spcdash/domain/core"
)

// MaxPageSize caps how many records one fetch may return
const MaxPageSize = 1000

// Filter selects a measurement set. Entity is applied client-side on top of
// the all-entity set, so it is not part of the fetch signature.
type Filter struct {
	SPCMonitor  string `json:"spcMonitor"`
	ProcessType string `json:"processType"`
	ProductType string `json:"productType"`
	Entity      string `json:"-"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
	PageSize    int    `json:"pageSize"`
}

// DefaultFilter returns the dashboard's initial filter: the trailing 30
// days for the first fake tool.
func DefaultFilter(monitor, processType, productType string, now time.Time) Filter {
	r := core.DefaultRange(now)
	return Filter{
		SPCMonitor:  monitor,
		ProcessType: processType,
		ProductType: productType,
		Entity:      "FAKE_TOOL1",
		StartDate:   core.FormatDate(r.Start),
		EndDate:     core.FormatDate(r.End),
		PageSize:    MaxPageSize,
	}
}

// Normalize trims fields and clamps the page size
func (f Filter) Normalize() Filter {
	f.SPCMonitor = strings.TrimSpace(f.SPCMonitor)
	f.ProcessType = strings.TrimSpace(f.ProcessType)
	f.ProductType = strings.TrimSpace(f.ProductType)
	f.Entity = strings.TrimSpace(f.Entity)
	f.StartDate = strings.TrimSpace(f.StartDate)
	f.EndDate = strings.TrimSpace(f.EndDate)
	if f.PageSize <= 0 || f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return f
}

// Validate checks the date bounds parse and are ordered
func (f Filter) Validate() error {
	r, err := f.Range()
	if err != nil {
		return err
	}
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return core.NewValidationError("endDate", "must not be before startDate")
	}
	return nil
}

// Range parses the filter's date bounds
func (f Filter) Range() (core.DateRange, error) {
	start, err := core.ParseDate(f.StartDate)
	if err != nil {
		return core.DateRange{}, core.NewValidationError("startDate", err.Error())
	}
	end, err := core.ParseDate(f.EndDate)
	if err != nil {
		return core.DateRange{}, core.NewValidationError("endDate", err.Error())
	}
	return core.DateRange{Start: start, End: end}, nil
}

// Key is the deterministic cache signature of the fetch parameters
func (f Filter) Key() (string, error) {
	h, err := core.SignatureOf(f.Normalize())
	if err != nil {
		return "", err
	}
	return h.String(), nil
}

// Matches reports whether r passes the monitor/process/product selectors.
// Dates and entity are checked separately.
func (f Filter) Matches(r Record) bool {
	return matchField(f.SPCMonitor, r.SPCMonitor) &&
		matchField(f.ProcessType, r.ProcessType) &&
		matchField(f.ProductType, r.ProductType)
}

// Select applies filter to an in-memory record set the way the database
// query does: selectors, inclusive date range, newest first, capped at the
// page size. Entity is not applied.
func Select(records []Record, filter Filter) ([]Record, error) {
	filter = filter.Normalize()
	r, err := filter.Range()
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0)
	for _, rec := range records {
		if filter.Matches(rec) && r.Contains(rec.Timestamp) {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > filter.PageSize {
		out = out[:filter.PageSize]
	}
	return out, nil
}

func matchField(want, got string) bool {
	return want == "" || want == got
}

package api

import (
	"sync"

	"spcdash/domain/core"
	"spcdash/internal/chart"
	"spcdash/internal/datasource"
)

// DefaultMaxCharts bounds how many chart controllers the server keeps
const DefaultMaxCharts = 256

// LiveChart is a chart controller with the data session that feeds it.
// Filter changes go through the session so an older response never
// replaces a newer one.
type LiveChart struct {
	Controller *chart.Controller
	Session    *datasource.Session
}

// ID returns the controller's id
func (lc *LiveChart) ID() core.ChartID { return lc.Controller.ID() }

// Registry holds live charts by id. When full, the oldest chart
// is dropped.
type Registry struct {
	mu     sync.RWMutex
	charts map[core.ChartID]*LiveChart
	order  []core.ChartID
	max    int
}

// NewRegistry creates a registry holding at most max charts
func NewRegistry(max int) *Registry {
	if max <= 0 {
		max = DefaultMaxCharts
	}
	return &Registry{charts: make(map[core.ChartID]*LiveChart), max: max}
}

// Add stores c under its id
func (r *Registry) Add(c *LiveChart) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.charts[c.ID()]; !ok {
		r.order = append(r.order, c.ID())
	}
	r.charts[c.ID()] = c
	for len(r.order) > r.max {
		oldest := r.order[0]
		r.order = r.order[1:]
		if old, ok := r.charts[oldest]; ok {
			old.Controller.Reset()
			delete(r.charts, oldest)
		}
	}
}

// Get looks up a chart
func (r *Registry) Get(id core.ChartID) (*LiveChart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.charts[id]
	if !ok {
		return nil, core.NewNotFoundError("chart", id.String())
	}
	return c, nil
}

// Remove drops a chart; it reports whether one was present
func (r *Registry) Remove(id core.ChartID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.charts[id]; !ok {
		return false
	}
	delete(r.charts, id)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of live charts
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.charts)
}

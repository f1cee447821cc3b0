package api

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"spcdash/domain/measurement"
	"spcdash/internal/boxplot"
	apperrors "spcdash/internal/errors"
)

// filterQuery binds the shared query-string filter. Both camelCase and the
// snake_case date names are accepted.
type filterQuery struct {
	SPCMonitor  string `form:"spcMonitor"`
	ProcessType string `form:"processType"`
	ProductType string `form:"productType"`
	Entity      string `form:"entity"`
	StartDate   string `form:"startDate"`
	EndDate     string `form:"endDate"`
	StartDate2  string `form:"start_date"`
	EndDate2    string `form:"end_date"`
	PageSize    int    `form:"limit"`
}

func (q filterQuery) filter() measurement.Filter {
	f := measurement.Filter{
		SPCMonitor:  q.SPCMonitor,
		ProcessType: q.ProcessType,
		ProductType: q.ProductType,
		Entity:      q.Entity,
		StartDate:   q.StartDate,
		EndDate:     q.EndDate,
		PageSize:    q.PageSize,
	}
	if f.StartDate == "" {
		f.StartDate = q.StartDate2
	}
	if f.EndDate == "" {
		f.EndDate = q.EndDate2
	}
	return f.Normalize()
}

func (s *Server) bindFilter(c *gin.Context) (measurement.Filter, bool) {
	var q filterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.respondError(c, apperrors.InvalidInput(err.Error()))
		return measurement.Filter{}, false
	}
	return q.filter(), true
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"source": s.source,
		"charts": s.charts.Len(),
		"cache":  s.loader.CacheStats(c.Request.Context()),
	})
}

func (s *Server) handleRecords(c *gin.Context) {
	filter, ok := s.bindFilter(c)
	if !ok {
		return
	}
	snap, err := s.loader.Query(c.Request.Context(), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap.Data)
}

func (s *Server) handleEntities(c *gin.Context) {
	filter, ok := s.bindFilter(c)
	if !ok {
		return
	}
	snap, err := s.loader.Query(c.Request.Context(), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}
	seen := make(map[string]bool)
	entities := make([]string, 0)
	for _, r := range snap.AllData {
		if !seen[r.Entity] {
			seen[r.Entity] = true
			entities = append(entities, r.Entity)
		}
	}
	sort.Strings(entities)
	c.JSON(http.StatusOK, entities)
}

func (s *Server) handleMonitors(c *gin.Context) {
	if s.catalog == nil {
		s.respondError(c, apperrors.NotFound("monitor catalog"))
		return
	}
	monitors, err := s.catalog.Monitors(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	out := make([]gin.H, 0, len(monitors))
	for _, m := range monitors {
		out = append(out, gin.H{
			"spcMonitor":  m.SPCMonitor,
			"processType": m.ProcessType,
			"productType": m.ProductType,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleLimits(c *gin.Context) {
	filter, ok := s.bindFilter(c)
	if !ok {
		return
	}
	snap, err := s.loader.Query(c.Request.Context(), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if chartName := c.Query("chart"); chartName != "" {
		l, found := measurement.ForChart(snap.Limits, chartName)
		if !found {
			s.respondError(c, apperrors.NotFound("spc limits for "+chartName))
			return
		}
		c.JSON(http.StatusOK, l)
		return
	}
	c.JSON(http.StatusOK, snap.Limits)
}

// handleStats recomputes box-plot statistics from the resident all-entity
// set on every call
func (s *Server) handleStats(c *gin.Context) {
	filter, ok := s.bindFilter(c)
	if !ok {
		return
	}
	field := c.DefaultQuery("field", "cd_att")
	groupBy := c.DefaultQuery("groupBy", measurement.FieldEntity)
	threshold := s.config.OutlierThreshold
	if raw := c.Query("threshold"); raw != "" {
		v, valid := measurement.CoerceFloat(raw)
		if !valid {
			s.respondError(c, apperrors.InvalidInput("threshold must be a number"))
			return
		}
		threshold = v
	}
	threshold = boxplot.NormalizeThreshold(threshold)

	snap, err := s.loader.Query(c.Request.Context(), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}

	grouped := boxplot.ProcessGroupedStatistics(snap.AllData, field, groupBy, threshold)
	resp := gin.H{
		"field":       field,
		"groupBy":     groupBy,
		"threshold":   threshold,
		"filter":      snap.Filter,
		"fromCache":   snap.FromCache,
		"boxPlotData": grouped.Groups,
		"entityNames": grouped.Keys,
		"all":         boxplot.AggregateStatistics(grouped, threshold),
	}
	if filter.Entity != "" && groupBy == measurement.FieldEntity {
		if g, found := grouped.Group(filter.Entity); found {
			resp["selected"] = g
		}
	}
	c.JSON(http.StatusOK, resp)
}

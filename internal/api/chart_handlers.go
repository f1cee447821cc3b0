package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spcdash/domain/core"
	"spcdash/domain/measurement"
	"spcdash/internal/chart"
	"spcdash/internal/datasource"
	apperrors "spcdash/internal/errors"
	"spcdash/internal/zoom"
)

type createChartRequest struct {
	Filter     measurement.Filter `json:"filter"`
	Entity     string             `json:"entity"`
	ValueField string             `json:"valueField" binding:"required"`
	Y2Field    string             `json:"y2Field"`
	GroupField string             `json:"groupField"`
	Width      float64            `json:"width"`
	Height     float64            `json:"height"`
	View       string             `json:"view"`
}

// Gestures commit immediately unless Defer is set, in which case they land
// after the debounce window
type wheelRequest struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DeltaY float64 `json:"deltaY"`
	Defer  bool    `json:"defer"`
}

type dragRequest struct {
	Axis   string  `json:"axis" binding:"required"`
	Pixels float64 `json:"pixels"`
	Defer  bool    `json:"defer"`
}

type viewRequest struct {
	View string `json:"view" binding:"required"`
}

type resetRequest struct {
	Axes []string `json:"axes"`
}

type filterRequest struct {
	Filter measurement.Filter `json:"filter"`
	Entity string             `json:"entity"`
}

type entityRequest struct {
	Entity string `json:"entity"`
}

type chartResponse struct {
	ID     core.ChartID `json:"id"`
	Label  string       `json:"label"`
	Zoomed bool         `json:"zoomed"`
	Render chart.Render `json:"render"`
}

func chartState(ctrl *chart.Controller) chartResponse {
	return chartResponse{
		ID:     ctrl.ID(),
		Label:  ctrl.ZoomLabel(),
		Zoomed: ctrl.State().IsZoomed(),
		Render: ctrl.Render(),
	}
}

func (s *Server) lookupLive(c *gin.Context) (*LiveChart, bool) {
	id, err := core.ParseChartID(c.Param("id"))
	if err != nil {
		s.respondError(c, apperrors.InvalidInput(err.Error()))
		return nil, false
	}
	lc, err := s.charts.Get(id)
	if err != nil {
		s.respondError(c, err)
		return nil, false
	}
	return lc, true
}

func (s *Server) lookupChart(c *gin.Context) (*chart.Controller, bool) {
	lc, ok := s.lookupLive(c)
	if !ok {
		return nil, false
	}
	return lc.Controller, true
}

// feed returns the commit hook that hands a snapshot to ctrl. Zoom state is
// left alone.
func feed(ctrl *chart.Controller) func(*datasource.Snapshot) {
	return func(snap *datasource.Snapshot) {
		var limits *measurement.Limits
		if l, found := measurement.ForChart(snap.Limits, ctrl.Series().ValueField); found {
			limits = &l
		}
		ctrl.SetData(snap.Data, snap.AllData, limits)
	}
}

func (s *Server) handleCreateChart(c *gin.Context) {
	var req createChartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.InvalidInput(err.Error()))
		return
	}
	filter := req.Filter
	filter.Entity = req.Entity

	opts := chart.Options{
		Series: chart.Series{
			ValueField: req.ValueField,
			Y2Field:    req.Y2Field,
			GroupField: req.GroupField,
		},
		OutlierThreshold: s.config.OutlierThreshold,
		Debounce:         s.config.Debounce,
	}
	if req.Width > 0 && req.Height > 0 {
		opts.Layout = zoom.NewLayout(req.Width, req.Height, req.Y2Field != "")
	}
	ctrl := chart.New(opts)
	session := s.loader.NewSession()

	snap, err := session.Apply(c.Request.Context(), session.Begin(), filter, feed(ctrl))
	if err != nil {
		s.respondError(c, err)
		return
	}

	if req.View != "" {
		v, err := chart.ParseView(req.View)
		if err != nil {
			s.respondError(c, err)
			return
		}
		if err := ctrl.Switch(v); err != nil {
			s.respondError(c, err)
			return
		}
	}

	s.charts.Add(&LiveChart{Controller: ctrl, Session: session})
	s.logger.Info("created chart %s for %s (%d records)", ctrl.ID(), req.ValueField, len(snap.Data))
	c.JSON(http.StatusCreated, chartState(ctrl))
}

func (s *Server) handleGetChart(c *gin.Context) {
	ctrl, ok := s.lookupChart(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, chartState(ctrl))
}

func (s *Server) handleDeleteChart(c *gin.Context) {
	id, err := core.ParseChartID(c.Param("id"))
	if err != nil {
		s.respondError(c, apperrors.InvalidInput(err.Error()))
		return
	}
	if !s.charts.Remove(id) {
		s.respondError(c, core.NewNotFoundError("chart", id.String()))
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleWheel(c *gin.Context) {
	ctrl, ok := s.lookupChart(c)
	if !ok {
		return
	}
	var req wheelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.InvalidInput(err.Error()))
		return
	}

	before := ctrl.State().Version()
	axis, hit := ctrl.Wheel(req.X, req.Y, req.DeltaY)
	if hit && !req.Defer {
		ctrl.Flush()
	}
	committed := ctrl.State().Version() != before
	c.JSON(http.StatusOK, gin.H{
		"axis":      axis,
		"hit":       hit,
		"committed": committed,
		"chart":     chartState(ctrl),
	})
}

func (s *Server) handleDrag(c *gin.Context) {
	ctrl, ok := s.lookupChart(c)
	if !ok {
		return
	}
	var req dragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.InvalidInput(err.Error()))
		return
	}
	axis, err := zoom.ParseAxis(req.Axis)
	if err != nil {
		s.respondError(c, err)
		return
	}

	before := ctrl.State().Version()
	queued := ctrl.Drag(axis, req.Pixels)
	if queued && !req.Defer {
		ctrl.Flush()
	}
	committed := ctrl.State().Version() != before
	c.JSON(http.StatusOK, gin.H{
		"axis":      axis,
		"queued":    queued,
		"committed": committed,
		"chart":     chartState(ctrl),
	})
}

// handleChartFilter reloads a chart for a new filter. Overlapping requests
// for the same chart resolve to the one issued last; earlier ones get 409.
func (s *Server) handleChartFilter(c *gin.Context) {
	lc, ok := s.lookupLive(c)
	if !ok {
		return
	}
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.InvalidInput(err.Error()))
		return
	}
	filter := req.Filter
	filter.Entity = req.Entity

	id := lc.Session.Begin()
	snap, err := lc.Session.Apply(c.Request.Context(), id, filter, feed(lc.Controller))
	if err != nil {
		if core.IsSuperseded(err) {
			s.logger.Debug("chart %s filter request %d superseded by %d", lc.ID(), id, lc.Session.Latest())
		}
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"requestId": snap.RequestID,
		"records":   len(snap.Data),
		"fromCache": snap.FromCache,
		"chart":     chartState(lc.Controller),
	})
}

// handleChartEntity narrows a chart to one entity from its resident set
// without fetching
func (s *Server) handleChartEntity(c *gin.Context) {
	lc, ok := s.lookupLive(c)
	if !ok {
		return
	}
	var req entityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.InvalidInput(err.Error()))
		return
	}
	snap, err := lc.Session.ApplyEntity(req.Entity, feed(lc.Controller))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"records": len(snap.Data),
		"chart":   chartState(lc.Controller),
	})
}

func (s *Server) handleSwitchView(c *gin.Context) {
	ctrl, ok := s.lookupChart(c)
	if !ok {
		return
	}
	var req viewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.InvalidInput(err.Error()))
		return
	}
	v, err := chart.ParseView(req.View)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := ctrl.Switch(v); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chartState(ctrl))
}

func (s *Server) handleReset(c *gin.Context) {
	ctrl, ok := s.lookupChart(c)
	if !ok {
		return
	}
	var req resetRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.respondError(c, apperrors.InvalidInput(err.Error()))
			return
		}
	}
	axes := make([]zoom.Axis, 0, len(req.Axes))
	for _, raw := range req.Axes {
		a, err := zoom.ParseAxis(raw)
		if err != nil {
			s.respondError(c, err)
			return
		}
		axes = append(axes, a)
	}
	ctrl.Reset(axes...)
	c.JSON(http.StatusOK, chartState(ctrl))
}

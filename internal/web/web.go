// Package web exposes the core over a small JSON API: timetable import,
// course management, the merged day grid, user search and the iCalendar
// feed. Handlers are thin; all timetable logic lives in internal/schedule
// and internal/timetable.
package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"socialtt/internal/config"
	"socialtt/internal/feed"
	appLog "socialtt/internal/log"
	"socialtt/internal/model"
	"socialtt/internal/schedule"
	"socialtt/internal/store"
	"socialtt/internal/timetable"
)

// Server wires the API handlers to the store and the import pipeline.
type Server struct {
	cfg      *config.Config
	store    *store.Store
	importer *timetable.Importer
	router   *gin.Engine
}

// NewServer builds the router. Callers serve the result of Handler.
func NewServer(cfg *config.Config, st *store.Store, importer *timetable.Importer) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:      cfg,
		store:    st,
		importer: importer,
		router:   gin.New(),
	}
	s.router.Use(gin.Recovery())
	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler with CORS applied. The mobile client's
// embedded web views call the API cross-origin.
func (s *Server) Handler() http.Handler {
	return cors.Default().Handler(s.router)
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api/v1")
	{
		api.POST("/import", s.handleImport)
		api.GET("/users/search", s.handleSearch)
		api.GET("/users/:id", s.handleGetUser)
		api.POST("/users/:id/courses", s.handleAddCourse)
		api.DELETE("/users/:id/courses/:code", s.handleRemoveCourse)
		api.GET("/users/:id/day/:day/rows", s.handleDayRows)
		api.GET("/users/:id/timetable.ics", s.handleFeed)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type importRequest struct {
	User    string `json:"user" binding:"required"`
	URL     string `json:"url" binding:"required"`
	Term    string `json:"term"`
	Dialect string `json:"dialect"`
}

// handleImport runs the fetch/parse/store pipeline. Transport failures,
// undecodable bodies and empty results map to distinct responses so the UI
// can show "nothing to import" apart from a plain failure.
func (s *Server) handleImport(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	term := s.cfg.Term()
	if req.Term != "" {
		parsed, ok := model.ParseTerm(req.Term)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown term: " + req.Term})
			return
		}
		term = parsed
	}

	dialect := timetable.DialectTimetable
	if req.Dialect != "" {
		parsed, ok := timetable.ParseDialect(req.Dialect)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown dialect: " + req.Dialect})
			return
		}
		dialect = parsed
	}

	report, err := s.importer.Import(c.Request.Context(), timetable.ImportRequest{
		UserID:  req.User,
		URL:     req.URL,
		Dialect: dialect,
		Term:    term,
	})
	switch {
	case errors.Is(err, timetable.ErrTransport):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.Is(err, timetable.ErrNotText):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, timetable.ErrNoSessions):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      err.Error(),
			"no_content": true,
		})
	case err != nil:
		appLog.Error("import failed", err, "user", req.User)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, report)
	}
}

func (s *Server) handleGetUser(c *gin.Context) {
	profile, err := s.store.GetProfile(c.Request.Context(), c.Param("id"))
	if errors.Is(err, model.ErrNoProfile) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) handleSearch(c *gin.Context) {
	prefix := c.Query("prefix")
	if prefix == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prefix is required"})
		return
	}

	ids, err := s.store.SearchIDs(c.Request.Context(), prefix, 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ids": ids})
}

type addCourseRequest struct {
	Code     string               `json:"code" binding:"required"`
	Term     string               `json:"term" binding:"required"`
	Sessions []model.ClassSession `json:"sessions" binding:"required"`
}

func (s *Server) handleAddCourse(c *gin.Context) {
	var req addCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	term, ok := model.ParseTerm(req.Term)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown term: " + req.Term})
		return
	}

	ctx := c.Request.Context()
	profile, err := s.store.GetProfile(ctx, c.Param("id"))
	if errors.Is(err, model.ErrNoProfile) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := schedule.AddCourse(profile, req.Code, term, req.Sessions); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err := s.store.PutProfile(ctx, profile); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": profile.Courses})
}

func (s *Server) handleRemoveCourse(c *gin.Context) {
	term, ok := model.ParseTerm(c.Query("term"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "term query parameter is required"})
		return
	}

	ctx := c.Request.Context()
	profile, err := s.store.GetProfile(ctx, c.Param("id"))
	if errors.Is(err, model.ErrNoProfile) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	schedule.RemoveCourse(profile, c.Param("code"), term)
	if err := s.store.PutProfile(ctx, profile); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": profile.Courses})
}

// handleDayRows returns the merged, lane-packed grid for one day-of-year
// across the user and their friends. ?exclude=a,b hides profiles without
// unfriending them.
func (s *Server) handleDayRows(c *gin.Context) {
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil || day < 1 || day > 366 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "day must be a day-of-year between 1 and 366"})
		return
	}

	ctx := c.Request.Context()
	profile, err := s.store.GetProfile(ctx, c.Param("id"))
	if errors.Is(err, model.ErrNoProfile) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	excluded := map[string]bool{}
	if raw := c.Query("exclude"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			excluded[id] = true
		}
	}

	profiles := s.store.Friends(ctx, profile)
	events := schedule.MergeDay(day, profiles, excluded)
	rows := schedule.PackRows(events)

	users := make([]model.UserRef, 0, len(profiles))
	for _, p := range profiles {
		users = append(users, p.Ref())
	}

	c.JSON(http.StatusOK, gin.H{
		"day":   day,
		"rows":  rows,
		"users": users,
		"window": gin.H{
			"start_hour": s.cfg.DayStartHour,
			"end_hour":   s.cfg.DayEndHour,
		},
	})
}

func (s *Server) handleFeed(c *gin.Context) {
	profile, err := s.store.GetProfile(c.Request.Context(), c.Param("id"))
	if errors.Is(err, model.ErrNoProfile) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/calendar; charset=utf-8")
	c.String(http.StatusOK, feed.Serialize(profile))
}

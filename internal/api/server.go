package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"licitaradar/internal/ai"
	"licitaradar/internal/auth"
	"licitaradar/internal/db"
	"licitaradar/internal/models"
	"licitaradar/internal/radar"
	"licitaradar/internal/store"
)

type Server struct {
	Echo    *echo.Echo
	Radar   *store.Radar
	Scanner *radar.Scanner
	Auth    *auth.Service
	Store   *db.Store        // nil when running without Postgres
	AI      *ai.GeminiClient // nil when GEMINI_API_KEY is unset
}

type Options struct {
	CORSOrigins string
}

func NewServer(radarStore *store.Radar, scanner *radar.Scanner, authService *auth.Service, dbStore *db.Store, aiClient *ai.GeminiClient, opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// CORS: allow frontend origins from env or default to localhost
	allowedOrigins := []string{"http://localhost:5173"}
	for _, o := range strings.Split(opts.CORSOrigins, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			allowedOrigins = append(allowedOrigins, o)
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	s := &Server{
		Echo:    e,
		Radar:   radarStore,
		Scanner: scanner,
		Auth:    authService,
		Store:   dbStore,
		AI:      aiClient,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)

	api := s.Echo.Group("/api/v1")
	api.POST("/auth/login", s.handleLogin)
	api.GET("/states", s.handleListStates)
	api.GET("/institutions", s.handleListInstitutions)
	api.GET("/institutions/:id", s.handleGetInstitution)
	api.GET("/scan", s.handleScanStatus)
	api.GET("/scan/runs", s.handleScanHistory)
	api.GET("/scan/:id", s.handleScanStatus)
	api.GET("/archive/search", s.handleArchiveSearch)

	// Mutating routes sit behind the admin token when one is configured.
	admin := api.Group("")
	admin.Use(s.Auth.Middleware)
	admin.POST("/institutions", s.handleAddInstitution)
	admin.PATCH("/institutions/:id", s.handleUpdateInstitution)
	admin.DELETE("/institutions/:id", s.handleDeleteInstitution)
	admin.POST("/institutions/:id/check", s.handleCheckInstitution)
	admin.POST("/scan", s.handleStartScan)
	admin.DELETE("/scan/:id", s.handleCancelScan)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

type loginRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	token, err := s.Auth.Login(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCreds) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		}
		if errors.Is(err, auth.ErrNotEnabled) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Login is not enabled"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleListStates(c echo.Context) error {
	return c.JSON(http.StatusOK, radar.StateNames())
}

func (s *Server) handleListInstitutions(c echo.Context) error {
	state := c.QueryParam("state")
	q := c.QueryParam("q")
	insts := s.Radar.Filtered(state, q)
	if insts == nil {
		insts = []models.Institution{}
	}
	return c.JSON(http.StatusOK, insts)
}

func (s *Server) handleGetInstitution(c echo.Context) error {
	inst, ok := s.Radar.Get(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	return c.JSON(http.StatusOK, inst)
}

type institutionRequest struct {
	Name     *string `json:"name"`
	State    *string `json:"state"`
	Initials *string `json:"initials"`
	URL      *string `json:"url"`
}

func (req institutionRequest) validateNew() error {
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return errors.New("name is required")
	}
	if req.State == nil || strings.TrimSpace(*req.State) == "" {
		return errors.New("state is required")
	}
	if req.Initials == nil || strings.TrimSpace(*req.Initials) == "" {
		return errors.New("initials is required")
	}
	return nil
}

func (s *Server) handleAddInstitution(c echo.Context) error {
	var req institutionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := req.validateNew(); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	inst := models.Institution{
		Name:     strings.TrimSpace(*req.Name),
		State:    strings.TrimSpace(*req.State),
		Initials: strings.TrimSpace(*req.Initials),
	}
	if req.URL != nil {
		inst.URL = strings.TrimSpace(*req.URL)
	}

	created := s.Radar.Add(inst)
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) handleUpdateInstitution(c echo.Context) error {
	var req institutionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	updated, ok := s.Radar.Upsert(c.Param("id"), store.Patch{
		Name:     req.Name,
		State:    req.State,
		Initials: req.Initials,
		URL:      req.URL,
	})
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteInstitution(c echo.Context) error {
	if !s.Radar.Remove(c.Param("id")) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	return c.NoContent(http.StatusNoContent)
}

// handleCheckInstitution runs a single synchronous refresh for one card.
func (s *Server) handleCheckInstitution(c echo.Context) error {
	inst, ok := s.Radar.Get(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Minute)
	defer cancel()

	s.Scanner.CheckInstitution(ctx, inst)
	updated, _ := s.Radar.Get(inst.ID)
	return c.JSON(http.StatusOK, updated)
}

type scanRequest struct {
	State string `json:"state"`
	Query string `json:"q"`
}

// handleStartScan snapshots the (optionally filtered) target list and starts a
// background scan, returning 202 with the run handle to poll.
func (s *Server) handleStartScan(c echo.Context) error {
	var req scanRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
		}
	}
	if v := c.QueryParam("state"); v != "" {
		req.State = v
	}
	if v := c.QueryParam("q"); v != "" {
		req.Query = v
	}

	targets := s.Radar.Filtered(req.State, req.Query)
	if len(targets) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No institutions match the scan filter"})
	}

	handle, err := s.Scanner.StartScan(c.Request().Context(), targets, "api")
	if err != nil {
		if errors.Is(err, radar.ErrScanRunning) {
			resp := map[string]interface{}{"error": "A scan is already running"}
			if current := s.Scanner.Current(); current != nil {
				resp["run_id"] = current.ID
			}
			return c.JSON(http.StatusConflict, resp)
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"message": "Scan started",
		"run_id":  handle.ID,
		"targets": len(targets),
		"poll":    fmt.Sprintf("/api/v1/scan?id=%s", handle.ID),
	})
}

func (s *Server) handleScanStatus(c echo.Context) error {
	handle := s.Scanner.Current()
	if handle == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"scanning": false})
	}
	id := c.Param("id")
	if id == "" {
		id = c.QueryParam("id")
	}
	if id != "" && id != handle.ID {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "run not found"})
	}

	run := handle.Status()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"scanning": run.Status == "running",
		"run":      run,
	})
}

func (s *Server) handleCancelScan(c echo.Context) error {
	handle := s.Scanner.Current()
	if handle == nil || handle.ID != c.Param("id") {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "run not found"})
	}

	handle.Cancel()
	return c.JSON(http.StatusOK, map[string]string{"message": "Cancellation requested", "run_id": handle.ID})
}

func (s *Server) handleScanHistory(c echo.Context) error {
	if s.Store == nil {
		return c.JSON(http.StatusOK, []models.ScanRun{})
	}

	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	runs, err := s.Store.RecentRuns(c.Request().Context(), limit)
	if err != nil {
		c.Logger().Errorf("Failed to list scan runs: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	if runs == nil {
		runs = []models.ScanRun{}
	}
	return c.JSON(http.StatusOK, runs)
}

// handleArchiveSearch queries the opportunity archive, semantically when an
// embedding can be produced, otherwise by keyword.
func (s *Server) handleArchiveSearch(c echo.Context) error {
	if s.Store == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Archive is not available"})
	}

	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "q param required"})
	}

	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	var queryEmbedding []float32
	if s.AI != nil {
		aiCtx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		vec, err := s.AI.EmbedQuery(aiCtx, q)
		if err != nil {
			c.Logger().Errorf("Failed to generate query embedding: %v", err)
			// Fall back to keyword search.
		} else {
			queryEmbedding = vec
		}
	}

	entries, err := s.Store.SearchArchive(c.Request().Context(), q, queryEmbedding, limit)
	if err != nil {
		c.Logger().Errorf("Archive search failed: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	if entries == nil {
		entries = []db.ArchiveEntry{}
	}
	return c.JSON(http.StatusOK, entries)
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

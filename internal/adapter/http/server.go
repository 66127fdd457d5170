// Package http exposes the public advisory API plus health, readiness, and
// metrics endpoints.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agrowatch/pest-advisory-service/internal/advisor"
	"github.com/agrowatch/pest-advisory-service/internal/domain"
)

// RiskChecker runs one risk check.
type RiskChecker interface {
	CheckRisk(ctx context.Context, req advisor.CheckRequest) (advisor.CheckResult, error)
}

// LocationCatalog serves the cascading district → taluka → village listings.
type LocationCatalog interface {
	Districts(ctx context.Context) ([]string, error)
	Talukas(ctx context.Context, district string) ([]string, error)
	Villages(ctx context.Context, district, taluka string) ([]string, error)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server wires the gin engine behind a net/http server with sane timeouts.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	checker    RiskChecker
	catalog    LocationCatalog
	logger     *slog.Logger
}

// NewServer creates the advisory HTTP server and registers all routes.
func NewServer(addr string, checker RiskChecker, catalog LocationCatalog, ready ReadinessChecker, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      engine,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		engine:  engine,
		checker: checker,
		catalog: catalog,
		logger:  logger,
	}

	engine.GET("/healthz", s.handleHealth)
	engine.GET("/readyz", handleReady(ready))
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api/v1")
	api.GET("/districts", s.handleDistricts)
	api.GET("/talukas", s.handleTalukas)
	api.GET("/villages", s.handleVillages)
	api.POST("/risk-check", s.handleRiskCheck)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the gin engine, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

func (s *Server) handleDistricts(c *gin.Context) {
	districts, err := s.catalog.Districts(c.Request.Context())
	if err != nil {
		s.internalError(c, "list districts", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"districts": districts})
}

func (s *Server) handleTalukas(c *gin.Context) {
	district := c.Query("district")
	if district == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "district query parameter is required"})
		return
	}

	talukas, err := s.catalog.Talukas(c.Request.Context(), district)
	if err != nil {
		s.internalError(c, "list talukas", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"district": district, "talukas": talukas})
}

func (s *Server) handleVillages(c *gin.Context) {
	district := c.Query("district")
	taluka := c.Query("taluka")
	if district == "" || taluka == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "district and taluka query parameters are required"})
		return
	}

	villages, err := s.catalog.Villages(c.Request.Context(), district, taluka)
	if err != nil {
		s.internalError(c, "list villages", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"district": district, "taluka": taluka, "villages": villages})
}

// riskCheckRequest is the public risk-check payload.
type riskCheckRequest struct {
	Crop     string `json:"crop" binding:"required"`
	District string `json:"district" binding:"required"`
	Taluka   string `json:"taluka" binding:"required"`
	Village  string `json:"village" binding:"required"`
	Phone    string `json:"phone"`
}

// riskCheckResponse is the rendered advisory.
type riskCheckResponse struct {
	Crop           string               `json:"crop"`
	Location       domain.Location      `json:"location"`
	Features       domain.FeatureVector `json:"features"`
	Probability    float64              `json:"probability"`
	ProbabilityPct string               `json:"probability_pct"`
	Verdict        domain.Verdict       `json:"verdict"`
	Advisory       domain.Advisory      `json:"advisory"`
	AssessedAt     string               `json:"assessed_at"`
	SMSSent        bool                 `json:"sms_sent"`
}

func (s *Server) handleRiskCheck(c *gin.Context) {
	var req riskCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "crop, district, taluka, and village are required"})
		return
	}

	crop, err := domain.ParseCrop(req.Crop)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.checker.CheckRisk(c.Request.Context(), advisor.CheckRequest{
		Crop:     crop,
		District: req.District,
		Taluka:   req.Taluka,
		Village:  req.Village,
		Phone:    req.Phone,
	})

	var notFound *domain.NotFoundError
	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
		return
	case err != nil:
		s.internalError(c, "risk check", err)
		return
	}

	c.JSON(http.StatusOK, riskCheckResponse{
		Crop:           string(crop),
		Location:       result.Location,
		Features:       result.Features,
		Probability:    result.Assessment.Probability,
		ProbabilityPct: fmt.Sprintf("%.1f%%", result.Assessment.Probability*100),
		Verdict:        result.Assessment.Verdict,
		Advisory:       result.Assessment.Advisory,
		AssessedAt:     result.Assessment.AssessedAt.UTC().Format(time.RFC3339),
		SMSSent:        result.SMSSent,
	})
}

// internalError hides internal detail from clients; the log line carries it.
func (s *Server) internalError(c *gin.Context, op string, err error) {
	s.logger.Error(op+" failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "configuration data invalid"})
}

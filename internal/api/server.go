package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/cardio-risk-server/internal/domain"
	"github.com/cardio-risk-server/internal/middleware"
	"github.com/cardio-risk-server/internal/service"
)

const defaultCacheSize = 256

// Server represents the HTTP server
type Server struct {
	logger   *logrus.Logger
	cfg      *domain.Config
	analyzer *service.Analyzer
	router   *gin.Engine
	server   *http.Server

	// Recent records and reports are held in bounded in-memory caches so
	// follow-up GETs work without a persistence layer.
	records *lru.Cache[string, *domain.PatientRecord]
	reports *lru.Cache[string, *domain.Report]
}

// NewServer creates a new HTTP server instance
func NewServer(logger *logrus.Logger, cfg *domain.Config, analyzer *service.Analyzer) (*Server, error) {
	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	cacheSize := cfg.Server.CacheSize
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	records, err := lru.New[string, *domain.PatientRecord](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create record cache: %w", err)
	}
	reports, err := lru.New[string, *domain.Report](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create report cache: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.AuditLogger())
	router.Use(middleware.RateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst))
	if cfg.Server.WriteTimeout > 0 {
		router.Use(middleware.RequestTimeout(cfg.Server.WriteTimeout))
	}
	router.Use(corsMiddleware())

	s := &Server{
		logger:   logger,
		cfg:      cfg,
		analyzer: analyzer,
		router:   router,
		records:  records,
		reports:  reports,
	}
	s.setupRoutes()
	return s, nil
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.cfg.Server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/analyze", s.handleAnalyze)
		v1.POST("/submit_results/:id", s.handleSubmitResults)
		v1.GET("/patient_data/:id", s.handleGetPatientData)
		v1.GET("/report/:id", s.handleGetReport)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
		"diseases":  s.analyzer.Diseases(),
	})
}

// handleAnalyze runs the full assessment pipeline for a submitted patient
// record and returns the generated report.
func (s *Server) handleAnalyze(c *gin.Context) {
	var record domain.PatientRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput,
			"Malformed patient record", err.Error())
		return
	}
	if record.PatientID == "" {
		record.PatientID = uuid.New().String()
	}

	report, err := s.analyzer.Analyze(c.Request.Context(), &record)
	if err != nil {
		s.respondAnalysisError(c, err)
		return
	}

	s.records.Add(record.PatientID, &record)
	s.reports.Add(report.ID, report)

	c.JSON(http.StatusOK, report)
}

// submitResultsRequest carries externally computed disease results.
type submitResultsRequest struct {
	Results []domain.DiseaseResult `json:"results" binding:"required"`
}

// handleSubmitResults accepts disease results computed elsewhere and runs the
// aggregation, recommendation and reporting stages over them.
func (s *Server) handleSubmitResults(c *gin.Context) {
	patientID := c.Param("id")

	var req submitResultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput,
			"Malformed results submission", err.Error())
		return
	}

	report, err := s.analyzer.AnalyzeSubmitted(patientID, req.Results)
	if err != nil {
		s.respondAnalysisError(c, err)
		return
	}

	s.reports.Add(report.ID, report)

	c.JSON(http.StatusOK, report)
}

// handleGetPatientData returns a recently analyzed patient record.
func (s *Server) handleGetPatientData(c *gin.Context) {
	record, ok := s.records.Get(c.Param("id"))
	if !ok {
		s.respondError(c, http.StatusNotFound, domain.ErrValidation,
			"Patient not found", "no recent analysis for this patient id")
		return
	}
	c.JSON(http.StatusOK, record)
}

// handleGetReport returns a recently generated report by id.
func (s *Server) handleGetReport(c *gin.Context) {
	report, ok := s.reports.Get(c.Param("id"))
	if !ok {
		s.respondError(c, http.StatusNotFound, domain.ErrValidation,
			"Report not found", "no recent report with this id")
		return
	}
	c.JSON(http.StatusOK, report)
}

// respondAnalysisError maps pipeline errors onto the API error envelope.
func (s *Server) respondAnalysisError(c *gin.Context, err error) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		requestID := c.GetString("correlation_id")
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  domain.NewAPIError(domain.ErrValidation, "Patient data failed validation", vErr.Error(), requestID),
			"fields": vErr.Fields,
		})
		return
	}

	var cfgErr *domain.ConfigurationError
	if errors.As(err, &cfgErr) {
		s.respondError(c, http.StatusInternalServerError, domain.ErrConfiguration,
			"Scoring engine misconfigured", cfgErr.Message)
		return
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.respondError(c, http.StatusRequestTimeout, domain.ErrInternalServer,
			"Analysis timed out", err.Error())
		return
	}

	s.logger.WithError(err).Error("Analysis failed")
	s.respondError(c, http.StatusInternalServerError, domain.ErrInternalServer,
		"Analysis failed", err.Error())
}

func (s *Server) respondError(c *gin.Context, status int, code, message, details string) {
	requestID := c.GetString("correlation_id")
	c.JSON(status, gin.H{
		"error": domain.NewAPIError(code, message, details, requestID),
	})
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-Correlation-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

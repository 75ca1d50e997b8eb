// Package server exposes the extraction pipeline over HTTP: a streaming
// SSE endpoint, a batch endpoint, and the capability/health probes.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/reelbites/recipe-extractor/internal/common"
	"github.com/reelbites/recipe-extractor/internal/extraction"
)

// Server wires the orchestrator into gin.
type Server struct {
	cfg      common.ServerConfig
	log      *slog.Logger
	pipeline extraction.Pipeline
	canceler Canceler
	caps     Capabilities

	http *http.Server
}

// Canceler is the subset of the orchestrator the stream handler needs to
// stop a job when its client disconnects.
type Canceler interface {
	Cancel(jobID uuid.UUID) bool
}

// Capabilities describes which optional phases this deployment can run.
type Capabilities struct {
	VisualAnalysis     bool     `json:"visual_analysis"`
	AudioTranscription bool     `json:"audio_transcription"`
	Categories         []string `json:"categories"`
	MaxProcessingTime  int      `json:"max_processing_time_seconds"`
}

func New(cfg common.ServerConfig, pipeline extraction.Pipeline, canceler Canceler, caps Capabilities, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		log:      logger,
		pipeline: pipeline,
		canceler: canceler,
		caps:     caps,
	}
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", s.handleHealth)
	api := r.Group("/api/v1")
	{
		api.POST("/extract/stream", s.handleStream)
		api.POST("/extract/batch", s.handleBatch)
		api.GET("/extract/capabilities", s.handleCapabilities)
	}

	s.http = &http.Server{
		Addr:        cfg.Addr,
		Handler:     r,
		ReadTimeout: cfg.ReadTimeout,
	}
	return s
}

// Run serves until ctx is cancelled, then drains within the shutdown
// timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server.listening", slog.String("addr", s.cfg.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.log.Info("server.shutdown")
	return s.http.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)
		ctx := common.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()
		s.log.Info("server.request",
			slog.String("request_id", requestID),
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)))
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleCapabilities(c *gin.Context) {
	c.JSON(http.StatusOK, s.caps)
}

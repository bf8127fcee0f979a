// Package http provides the HTTP adapter for the application layer.
// Handlers translate requests into service and workflow engine calls.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/homologa/vehicle-homologation/internal/application/dispatcher"
	"github.com/homologa/vehicle-homologation/internal/application/service"
	"github.com/homologa/vehicle-homologation/internal/application/workflow"
	"github.com/homologa/vehicle-homologation/internal/domain/entity"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ReportExporter writes the back-office submission report
type ReportExporter interface {
	ExportSubmissions(ctx context.Context, filter entity.SubmissionFilter, actor entity.Actor, out io.Writer) (int, error)
	ContentType() string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// JWTSecret verifies HS256 bearer tokens on /api routes
	JWTSecret string
	// JWTIssuer, when set, must match the iss claim
	JWTIssuer string

	// WebhookSecret signs payment webhooks; the route is disabled when empty
	WebhookSecret  string
	WebhookMaxSkew time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		WebhookMaxSkew: 5 * time.Minute,
	}
}

// Deps are the application components the server exposes
type Deps struct {
	Submissions service.SubmissionService
	Engine      workflow.WorkflowEngine
	Reports     ReportExporter
	Dispatcher  dispatcher.Dispatcher

	// Ready reports container readiness for /health; nil means always ready
	Ready func() bool
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	deps       Deps
	logger     Logger
	now        func() time.Time
}

// NewServer creates a new HTTP server with the given dependencies
func NewServer(config ServerConfig, deps Deps, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config: config,
		router: gin.New(),
		deps:   deps,
		logger: logger,
		now:    time.Now,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(corsMiddleware())
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := NewHandlers(s.deps, s.logger)

	s.router.GET("/health", h.HealthCheck)

	if s.config.WebhookSecret != "" {
		webhook := newPaymentWebhook(s.config.WebhookSecret, s.config.WebhookMaxSkew, s.deps.Dispatcher, s.logger, func() time.Time { return s.now() })
		s.router.POST("/webhooks/payment", webhook.Handle)
	}

	api := s.router.Group("/api", authMiddleware(s.config.JWTSecret, s.config.JWTIssuer))
	{
		api.POST("/submissions", h.CreateSubmission)
		api.GET("/submissions", h.ListSubmissions)
		api.GET("/submissions/:id", h.GetSubmission)
		api.PATCH("/submissions/:id", h.UpdateSubmission)
		api.DELETE("/submissions/:id", requireElevated(), h.DeleteSubmission)

		api.GET("/submissions/:id/attachments", h.ListAttachments)
		api.POST("/submissions/:id/attachments", h.UploadAttachment)
		api.GET("/submissions/:id/history", h.History)

		api.GET("/submissions/:id/transitions", h.AllowedTransitions)
		api.POST("/submissions/:id/transitions", h.Transition)
		api.POST("/submissions/:id/submit", h.Submit)
		api.POST("/submissions/:id/approve", h.Approve)
		api.POST("/submissions/:id/reject", h.Reject)
		api.POST("/submissions/:id/incomplete", h.MarkIncomplete)
		api.POST("/submissions/:id/complete", h.Complete)

		api.GET("/reports/submissions.xlsx", requireElevated(), h.ExportSubmissions)
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled or serving fails
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

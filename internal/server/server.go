// Package server exposes the catalog's record decoder over HTTP.
package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/danmuck/uniondec/internal/auth"
	"github.com/danmuck/uniondec/internal/catalog"
	"github.com/danmuck/uniondec/internal/observability"
	"github.com/danmuck/uniondec/internal/protocol"
	"github.com/danmuck/uniondec/internal/protocol/frame"
	"github.com/danmuck/uniondec/internal/record"
	"github.com/danmuck/uniondec/internal/union"
	"github.com/danmuck/uniondec/internal/value/protoconv"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const Version = "0.1.0"

type Config struct {
	ID          string
	Addr        string
	CORSOrigins []string
	Limits      frame.Limits
	// AuthToken, when set, is required as a bearer token on /v1 routes.
	AuthToken string
}

type Server struct {
	ID      string
	Addr    string
	Started time.Time

	catalog *catalog.Registry
	limits  frame.Limits
	guard   auth.Validator
	router  *gin.Engine
}

func New(cfg Config, reg *catalog.Registry) *Server {
	observability.RegisterMetrics()
	if cfg.ID == "" {
		cfg.ID = "uniondec"
	}
	if cfg.Limits.MaxPayloadBytes == 0 {
		cfg.Limits = frame.DefaultLimits()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(telemetry(cfg.ID))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CORSOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		ID:      cfg.ID,
		Addr:    cfg.Addr,
		Started: time.Now(),
		catalog: reg,
		limits:  cfg.Limits,
		router:  r,
	}
	if cfg.AuthToken != "" {
		s.guard = auth.BearerToken(cfg.AuthToken)
	}
	s.registerRoutes()
	return s
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

func (s *Server) Serve() error {
	log.Info().Str("server", s.ID).Str("addr", s.Addr).Msg("serving")
	return s.router.Run(s.Addr)
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Started).String(),
			"service": s.ID,
			"version": Version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/v1", auth.Require(s.guard))
	v1.GET("/catalog", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.catalog.Describe())
	})
	v1.POST("/decode", s.handleDecode)
	v1.POST("/resolve/:union", s.handleResolve)
}

// handleResolve resolves a single protobuf wrapper, sent as a protojson Any,
// against a named catalog union.
func (s *Server) handleResolve(c *gin.Context) {
	name := c.Param("union")
	schema, ok := s.catalog.Union(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown union " + name})
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, int64(s.limits.MaxPayloadBytes)))
	if err != nil {
		c.JSON(frameStatus(err), gin.H{"error": err.Error()})
		return
	}
	raw, err := protoconv.FromJSON(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	branch, err := schema.Resolve(raw)
	if err != nil {
		observability.RecordResolution(name, raw.Kind().String(), observability.OutcomeUnexpected)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	observability.RecordResolution(name, raw.Kind().String(), observability.OutcomeResolved)
	c.JSON(http.StatusOK, branch)
}

// handleDecode reads exactly one frame from the request body.
func (s *Server) handleDecode(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, int64(frame.HeaderLen)+int64(s.limits.MaxPayloadBytes))
	msg, err := protocol.Decode(body, s.limits)
	if err != nil {
		c.JSON(frameStatus(err), gin.H{"error": err.Error()})
		return
	}
	if n, err := io.Copy(io.Discard, body); n > 0 || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "trailing bytes after frame"})
		return
	}

	rec, err := s.catalog.Decode(msg)
	if err != nil {
		status := decodeStatus(err)
		log.Warn().
			Str("server", s.ID).
			Uint32("message_type", uint32(msg.Type())).
			Int("status", status).
			Err(err).
			Msg("decode failed")
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func frameStatus(err error) int {
	var tooBig *http.MaxBytesError
	if errors.Is(err, frame.ErrPayloadTooLarge) || errors.As(err, &tooBig) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func decodeStatus(err error) int {
	var missing record.MissingFieldError
	switch {
	case errors.Is(err, catalog.ErrUnknownMessageType):
		return http.StatusNotFound
	case errors.Is(err, union.ErrUnexpectedKind), errors.As(err, &missing):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}

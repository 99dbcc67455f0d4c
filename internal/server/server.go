package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	xrate "golang.org/x/time/rate"

	"github.com/beriox/bexp/internal/experiment"
)

// Options configures a Server.
type Options struct {
	Port      int
	TokenFile string

	// Beacon ingest rate limit; zero rate disables limiting.
	BeaconRate  float64
	BeaconBurst int

	// Registry enables the /metrics endpoint when set.
	Registry *prometheus.Registry
}

type Server struct {
	engine    *experiment.Engine
	log       *zap.Logger
	opts      Options
	token     string
	router    *http.ServeMux
	limiter   *xrate.Limiter
	startTime time.Time
}

func New(engine *experiment.Engine, log *zap.Logger, opts Options) *Server {
	srv := &Server{
		engine:    engine,
		log:       log,
		opts:      opts,
		token:     generateToken(),
		router:    http.NewServeMux(),
		startTime: time.Now(),
	}

	if opts.BeaconRate > 0 {
		burst := opts.BeaconBurst
		if burst <= 0 {
			burst = int(opts.BeaconRate)
		}
		srv.limiter = xrate.NewLimiter(xrate.Limit(opts.BeaconRate), burst)
	}

	srv.setupRoutes()
	return srv
}

func (s *Server) setupRoutes() {
	// Public endpoints
	s.router.HandleFunc("/health", s.handleHealth)
	s.router.HandleFunc("/b", s.handleBeacon)
	s.router.HandleFunc("/v1/assign", s.handleAssign)
	s.router.HandleFunc("/v1/experiments", s.handleExperiments)
	s.router.HandleFunc("/v1/experiments/", s.handleExperimentSub)

	if s.opts.Registry != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.opts.Registry, promhttp.HandlerOpts{}))
	}
}

func (s *Server) Start() error {
	// Write token to file for the token command
	if s.opts.TokenFile != "" {
		if err := os.WriteFile(s.opts.TokenFile, []byte(s.token), 0o600); err != nil {
			s.log.Warn("failed to write token file", zap.Error(err))
		}
	}

	addr := fmt.Sprintf(":%d", s.opts.Port)
	s.log.Info("server listening",
		zap.String("action", "serve"),
		zap.String("addr", addr),
	)

	return http.ListenAndServe(addr, s.router)
}

func (s *Server) Token() string {
	return s.token
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func generateToken() string {
	bytes := make([]byte, 4)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to a simple token if crypto/rand fails
		return "a1b2c3d4"
	}
	return hex.EncodeToString(bytes)
}

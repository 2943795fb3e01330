// Package server assembles the router and owns the listener lifecycle.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/infra-challenge/greeter/internal/config"
	"github.com/infra-challenge/greeter/internal/http/health"
	"github.com/infra-challenge/greeter/internal/http/routes"
	"github.com/infra-challenge/greeter/internal/platform/apiconfig"
	applog "github.com/infra-challenge/greeter/internal/platform/logging"
	"github.com/infra-challenge/greeter/internal/platform/metrics"
	appmiddleware "github.com/infra-challenge/greeter/internal/platform/middleware"
	"github.com/infra-challenge/greeter/internal/platform/respond"
)

// Title names the API in the OpenAPI document.
const Title = "Infra Challenge App"

// ErrBind wraps every failure to acquire a listening socket.
var ErrBind = errors.New("bind failed")

// State is the lifecycle state of the main listener.
type State int32

const (
	StateStopped State = iota
	StateListening
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateListening:
		return "listening"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

type Server struct {
	cfg      *config.Config
	router   *chi.Mux
	api      huma.API
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	state    atomic.Int32

	openAPI func() ([]byte, error)
}

// New builds the router, middleware stack and API. Nothing is bound until
// Listen or Run is called.
func New(cfg *config.Config, version string) *Server {
	s := &Server{
		cfg:      cfg,
		registry: prometheus.NewRegistry(),
	}
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.metrics = metrics.New(s.registry)

	router := chi.NewRouter()
	router.NotFound(respond.NotFoundHandler())
	router.MethodNotAllowed(respond.MethodNotAllowedHandler())
	router.Use(
		appmiddleware.Security(),
		appmiddleware.Vary("Accept"),
		appmiddleware.CORS(cfg.CORSAllowedOrigins),
		appmiddleware.RequestID(),
		// Trusts X-Forwarded-For; deploy behind a proxy that overwrites it.
		chimiddleware.RealIP,
		chimiddleware.RequestSize(cfg.MaxBodyBytes),
		s.metrics.Middleware(),
		applog.RequestLogger(cfg.TraceProject),
		applog.AccessLogger(),
		respond.Recoverer(),
	)

	s.api = humachi.New(router, apiconfig.New(Title, version))
	apiconfig.AdvertiseCBOR(s.api)
	routes.Register(s.api)

	s.router = router
	s.openAPI = sync.OnceValues(func() ([]byte, error) {
		return json.Marshal(s.api.OpenAPI())
	})
	return s
}

// Handler returns the public router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// API returns the huma API backing the public router.
func (s *Server) API() huma.API {
	return s.api
}

// Registry returns the Prometheus registry scraped by /metrics.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// State reports whether the main listener is currently serving.
func (s *Server) State() State {
	return State(s.state.Load())
}

// AdminHandler serves health, metrics and the OpenAPI document. It is kept
// off the public router so the public surface stays a single route.
func (s *Server) AdminHandler() http.Handler {
	r := chi.NewRouter()
	r.NotFound(respond.NotFoundHandler())
	r.MethodNotAllowed(respond.MethodNotAllowedHandler())
	r.Use(appmiddleware.RequestID(), respond.Recoverer())

	r.Get("/health", health.Handler(func() bool { return s.State() == StateListening }))
	r.Method(http.MethodGet, "/metrics", promhttp.InstrumentMetricHandler(
		s.registry,
		promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}),
	))
	r.Get("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := s.openAPI()
		if err != nil {
			applog.LogError(r.Context(), "failed to marshal openapi document", err)
			respond.WriteProblem(w, r, http.StatusInternalServerError, "internal server error")
			return
		}
		w.Header().Set("Content-Type", "application/vnd.oai.openapi+json")
		_, _ = w.Write(doc)
	})
	return r
}

// Listen binds the configured main address.
func (s *Server) Listen() (net.Listener, error) {
	return listen(s.cfg.Addr())
}

func listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBind, addr, err)
	}
	return ln, nil
}

func (s *Server) httpServer(h http.Handler) *http.Server {
	return &http.Server{
		Handler:           h,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
		MaxHeaderBytes:    s.cfg.MaxHeaderBytes,
		ErrorLog:          zap.NewStdLog(applog.Logger().Named("http")),
	}
}

// Serve runs the public router on ln until ctx is cancelled, then shuts down
// gracefully within the configured timeout. It returns nil after a clean
// shutdown. ln is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.state.Store(int32(StateListening))
	defer s.state.Store(int32(StateStopped))

	applog.LogInfo(ctx, "server listening", zap.String("addr", ln.Addr().String()))
	return s.serve(ctx, s.httpServer(s.router), ln)
}

func (s *Server) serve(ctx context.Context, srv *http.Server, ln net.Listener) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", ln.Addr(), err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		return fmt.Errorf("shutdown %s: %w", ln.Addr(), err)
	}
	<-serveErr
	return nil
}

// Run binds the main listener and, when configured, the admin listener, then
// serves both until ctx is cancelled or either fails. A bind failure is
// returned before anything is served.
func (s *Server) Run(ctx context.Context) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}

	var adminLn net.Listener
	if s.cfg.AdminAddr != "" {
		adminLn, err = listen(s.cfg.AdminAddr)
		if err != nil {
			_ = ln.Close()
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Serve(gctx, ln)
	})
	if adminLn != nil {
		g.Go(func() error {
			applog.LogInfo(gctx, "admin listening", zap.String("addr", adminLn.Addr().String()))
			return s.serve(gctx, s.httpServer(s.AdminHandler()), adminLn)
		})
	}
	return g.Wait()
}

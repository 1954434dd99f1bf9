// Package api serves the pilight HTTP interface: the command endpoint,
// the status page, the live status feed and metrics.
package api

import (
	"context"
	"crypto/subtle"
	"embed"
	"html/template"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/rs/zerolog/log"

	"github.com/begillespie/pilight/internal/led"
)

//go:embed templates/*.html
var templates embed.FS

// Executor runs a text command. *command.Dispatcher satisfies it.
type Executor interface {
	Execute(raw string) string
}

// Options wires the server to the rest of the process.
type Options struct {
	Token    string
	Executor Executor
	Snapshot func() led.Snapshot
	WS       http.Handler // live status feed, optional
	Metrics  http.Handler // Prometheus handler, optional
	Title    string
}

type Server struct {
	api   huma.API
	mux   *http.ServeMux
	opts  Options
	token atomic.Pointer[string]
	page  *template.Template
	now   func() time.Time
}

// NewServer registers every route on a fresh mux.
func NewServer(opts Options) *Server {
	if opts.Title == "" {
		opts.Title = "HELLO"
	}
	mux := http.NewServeMux()
	config := huma.DefaultConfig("pilight", "1.0.0")
	config.Info.Description = "Drive an RGB LED with text commands"
	config.Servers = []*huma.Server{}

	s := &Server{
		api:  humago.New(mux, config),
		mux:  mux,
		opts: opts,
		page: template.Must(template.ParseFS(templates, "templates/main.html")),
		now:  time.Now,
	}
	s.SetToken(opts.Token)
	s.api.UseMiddleware(loggingMiddleware)

	s.registerRoutes()
	mux.HandleFunc("GET /{$}", s.handlePage)
	if opts.WS != nil {
		mux.Handle("GET /ws", opts.WS)
	}
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}
	return s
}

// SetToken replaces the shared secret. Safe to call while serving.
func (s *Server) SetToken(tok string) {
	s.token.Store(&tok)
}

func (s *Server) validToken(tok string) bool {
	want := *s.token.Load()
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(tok), []byte(want)) == 1
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// API returns the huma API, for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Run serves on addr until ctx is cancelled. ready is called once the
// listener is bound.
func (s *Server) Run(ctx context.Context, addr string, ready func()) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:      s.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("HTTP server starting")
		errc <- srv.Serve(ln)
	}()
	if ready != nil {
		ready()
	}
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			_ = srv.Close()
			return err
		}
		<-errc
		return nil
	}
}

type pageData struct {
	Title   string
	Time    string
	State   string
	Applied struct{ R, G, B int }
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	d := pageData{
		Title: s.opts.Title,
		Time:  s.now().Format("2006-01-02 15:04"),
		State: "unknown",
	}
	if s.opts.Snapshot != nil {
		snap := s.opts.Snapshot()
		d.State = snap.State
		d.Applied.R, d.Applied.G, d.Applied.B = snap.Applied.R, snap.Applied.G, snap.Applied.B
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, d); err != nil {
		log.Error().Err(err).Msg("render page")
	}
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/ryanlewis/figpad"
)

// maxRenderText bounds the text accepted by /api/render, in runes.
const maxRenderText = 1024

func newServeCmd(a *app) *cobra.Command {
	var (
		addr  string
		font  string
		flags renderFlags
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve fonts and renders over HTTP",
		Long: `Serve fonts and renders over HTTP.

  GET /fonts/{id}.flf                    raw font file
  GET /api/fonts                         catalog with load states
  GET /api/render?font=&text=&width=     rendered banner as text/plain

Another figpad can use this server with --fonts-url http://ADDR/fonts/.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(a.cfg.Trim)
			if err != nil {
				return err
			}
			loader, err := a.newLoader()
			if err != nil {
				return err
			}
			fetcher, err := a.fetcher()
			if err != nil {
				return err
			}
			s := &server{
				loader:      loader,
				fetcher:     fetcher,
				pipeline:    figpad.NewPipeline(opts...).WithTracer(a.tracer),
				defaultFont: fontOrDefault(font, a.cfg.Font),
				logger:      a.logger,
			}
			return s.listenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "localhost:8080", "listen address")
	cmd.Flags().StringVarP(&font, "font", "f", "", "font used when a request names none")
	flags.bind(cmd.Flags())
	return cmd
}

type server struct {
	loader      *figpad.Loader
	fetcher     figpad.Fetcher
	pipeline    *figpad.Pipeline
	defaultFont string
	logger      *log.Logger
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/fonts/{file}", s.handleFontFile)
	r.Route("/api", func(r chi.Router) {
		r.Get("/fonts", s.handleFonts)
		r.Get("/render", s.handleRender)
	})
	return r
}

func (s *server) listenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("serving", "addr", addr, "fonts", s.loader.Catalog().Len())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start).Round(time.Microsecond),
			"id", middleware.GetReqID(r.Context()))
	})
}

func (s *server) handleFontFile(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	id, ok := strings.CutSuffix(file, ".flf")
	if !ok {
		http.NotFound(w, r)
		return
	}
	location, err := s.loader.Catalog().Locate(figpad.FontID(id))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	data, err := s.fetcher.Fetch(r.Context(), location)
	if err != nil {
		s.logger.Warn("font file unavailable", "font", id, "err", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

type fontInfo struct {
	ID          string `json:"id"`
	Location    string `json:"location"`
	Description string `json:"description,omitempty"`
	State       string `json:"state"`
	Height      int    `json:"height,omitempty"`
}

func (s *server) handleFonts(w http.ResponseWriter, r *http.Request) {
	entries := s.loader.Catalog().Entries()
	infos := make([]fontInfo, len(entries))
	for i, e := range entries {
		infos[i] = fontInfo{
			ID:          string(e.ID),
			Location:    e.Location,
			Description: e.Description,
			State:       s.loader.State(e.ID).String(),
		}
		if f, ok := s.loader.Registry().Get(e.ID); ok {
			infos[i].Height = f.Height
		}
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *server) handleRender(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	text := q.Get("text")
	if utf8.RuneCountInString(text) > maxRenderText {
		http.Error(w, fmt.Sprintf("text longer than %d characters", maxRenderText), http.StatusRequestEntityTooLarge)
		return
	}
	width := 0
	if v := q.Get("width"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, fmt.Sprintf("invalid width %q", v), http.StatusBadRequest)
			return
		}
		width = n
	}

	query := q.Get("font")
	if query == "" {
		query = s.defaultFont
	}
	id, err := s.loader.Catalog().Resolve(query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	font, err := s.loader.Load(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	out, err := s.pipeline.Render(font, text, width)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Figpad-Font", string(id))
	fmt.Fprintln(w, out)
}

// statusFor maps load and render errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, figpad.ErrUnknownFont):
		return http.StatusNotFound
	case errors.Is(err, figpad.ErrFontFetch):
		return http.StatusBadGateway
	case errors.Is(err, figpad.ErrBadFontFormat):
		return http.StatusInternalServerError
	case errors.Is(err, figpad.ErrUnsupportedRune), errors.Is(err, figpad.ErrLayoutConflict):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

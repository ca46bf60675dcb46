package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"monthcal/internal/capture"
	"monthcal/internal/config"
	appLog "monthcal/internal/log"
	"monthcal/internal/model"
	"monthcal/internal/pipeline"
	"monthcal/internal/render"
)

// ResultSource provides the most recent pipeline result.
type ResultSource interface {
	Last() *pipeline.Result
}

// Server exposes the latest rendered calendar over HTTP.
type Server struct {
	cfg     *config.Config
	results ResultSource
	mux     *http.ServeMux
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, results ResultSource) *Server {
	s := &Server{
		cfg:     cfg,
		results: results,
		mux:     http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Blank credentials disable auth rather than locking everyone out.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="monthcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/preview.png", s.handlePreview)
	s.mux.HandleFunc("/", s.handleCalendar)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleCalendar serves the page produced by the latest run.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	res := s.results.Last()
	if res == nil {
		http.Error(w, "calendar not rendered yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.HTML)
}

// handlePreview serves the PNG captured next to the latest page.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	res := s.results.Last()
	if res == nil {
		http.NotFound(w, r)
		return
	}
	// http.ServeFile maps a missing file to 404.
	http.ServeFile(w, r, capture.PNGPath(res.Path))
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	Month       string   `json:"month"`
	First       string   `json:"first"`
	Last        string   `json:"last"`
	PaddingDays []int    `json:"padding_days"`
	Days        []dayDTO `json:"days"`
	Skipped     int      `json:"skipped"`
}

type dayDTO struct {
	Day    int        `json:"day"`
	Events []eventDTO `json:"events"`
}

// eventDTO is a JSON-friendly view of an event.
type eventDTO struct {
	CalendarID string    `json:"calendar_id"`
	Title      string    `json:"title"`
	AllDay     bool      `json:"all_day"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Time       string    `json:"time"`
	Location   string    `json:"location,omitempty"`
}

// handleEvents returns the day buckets of the latest run.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	res := s.results.Last()
	if res == nil {
		writeError(w, http.StatusServiceUnavailable, "calendar not rendered yet")
		return
	}

	win := res.Grid.Window
	resp := eventsResponse{
		Month:       win.Title(),
		First:       win.First.Format("2006-01-02"),
		Last:        win.Last.Format("2006-01-02"),
		PaddingDays: res.Grid.PaddingDays(),
		Days:        make([]dayDTO, 0, win.Days()),
		Skipped:     res.Skipped,
	}
	for d := 1; d <= win.Days(); d++ {
		day := dayDTO{Day: d, Events: []eventDTO{}}
		for _, ev := range res.Buckets[d] {
			day.Events = append(day.Events, toDTO(ev))
		}
		resp.Days = append(resp.Days, day)
	}

	writeJSON(w, http.StatusOK, resp)
}

func toDTO(ev model.Event) eventDTO {
	dto := eventDTO{
		CalendarID: ev.CalendarID,
		Title:      ev.Title,
		Time:       render.TimeLabel(ev.When),
		Location:   ev.ShortLocation(),
	}
	switch v := ev.When.(type) {
	case model.TimedEvent:
		dto.Start, dto.End = v.Start, v.End
	case model.AllDayEvent:
		dto.AllDay = true
		dto.Start, dto.End = v.StartDate, v.EndDate
	}
	return dto
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// MonthReader produces the serialized month of a user without storing anything
type MonthReader interface {
	PeekMonthJSON(ctx context.Context, userID string, year int, month time.Month) ([]byte, error)
}

// Pinger reports storage health
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the HTTP surface
type Options struct {
	DefaultUser    string
	AllowedOrigins []string
}

type handler struct {
	months MonthReader
	health Pinger
	opts   Options
	logger *zap.Logger
}

// NewRouter returns the read-only API router
func NewRouter(months MonthReader, health Pinger, opts Options, logger *zap.Logger) *chi.Mux {
	h := &handler{months: months, health: health, opts: opts, logger: logger}

	r := chi.NewRouter()
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", h.healthz)
	r.Route("/api", func(r chi.Router) {
		r.Get("/month", h.month)
	})

	return r
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Ping(r.Context()); err != nil {
			h.logger.Warn("Health check failed", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "storage unavailable", nil)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// month serves GET /api/month?year=YYYY&month=MM&user=ID
func (h *handler) month(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	details := map[string]string{}

	year, err := strconv.Atoi(q.Get("year"))
	if err != nil || year < 1 || year > 9999 {
		details["year"] = "must be a four digit year"
	}
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil || month < 1 || month > 12 {
		details["month"] = "must be 1..12"
	}
	user := q.Get("user")
	if user == "" {
		user = h.opts.DefaultUser
	}
	if user == "" {
		details["user"] = "is required"
	}
	if len(details) > 0 {
		badRequest(w, "Invalid query", details)
		return
	}

	data, err := h.months.PeekMonthJSON(r.Context(), user, year, time.Month(month))
	if err != nil {
		h.logger.Warn("Failed to read month",
			zap.String("user", user),
			zap.Int("year", year),
			zap.Int("month", month),
			zap.Error(err))
		handleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chiMiddleware.GetReqID(r.Context())))
		})
	}
}

// Run serves handler on addr until ctx is cancelled
func Run(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Warn("HTTP server shutdown error", zap.Error(err))
		return err
	}
	return nil
}

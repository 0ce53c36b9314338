package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/recwire/internal/observability"
	"github.com/danmuck/recwire/internal/protocol"
	"github.com/danmuck/recwire/internal/protocol/frame"
	"github.com/danmuck/recwire/internal/record"
	"github.com/danmuck/recwire/internal/store"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

type Options struct {
	Addr         string
	CorsOrigins  []string
	Scheme       record.Scheme
	Limits       protocol.Limits
	// MaxBodyBytes caps request bodies. Zero means the frame payload default.
	MaxBodyBytes int64
}

// Server exposes a RecordStore over HTTP.
type Server struct {
	Addr     string
	Appeared time.Time

	store   *store.RecordStore
	types   *record.Registry
	scheme  record.Scheme
	limits  protocol.Limits
	maxBody int64
	router  *gin.Engine
}

func New(st *store.RecordStore, opts Options) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(opts.CorsOrigins),
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	if opts.Scheme == 0 {
		opts.Scheme = record.SchemeTagged
	}
	if opts.Limits == (protocol.Limits{}) {
		opts.Limits = protocol.DefaultLimits()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = int64(frame.DefaultLimits().MaxPayloadBytes)
	}
	s := &Server{
		Addr:     opts.Addr,
		Appeared: time.Now(),
		store:    st,
		types:    st.Types(),
		scheme:   opts.Scheme,
		limits:   opts.Limits,
		maxBody:  opts.MaxBodyBytes,
		router:   r,
	}
	s.RegisterRoutes()
	return s
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

// Serve listens on Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.Addr).Str("driver", s.store.Driver()).Msg("recwire listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("recwire shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		out = append(out, origin)
	}
	if len(out) == 0 {
		return []string{"http://localhost:3000"}
	}
	return out
}

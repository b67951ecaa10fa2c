package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/memberops-lab/memberflow/pkg/utils/logging"
	"github.com/memberops-lab/memberflow/pkg/utils/safe"
)

type Server struct {
	router         *chi.Mux
	webhookHandler *WebhookHandler
	signingSecret  string
}

type Options func(*Server)

// WithSigningSecret enables HMAC signature verification on the webhook route.
// Without it deliveries are accepted unverified, which is only acceptable
// behind a trusted proxy.
func WithSigningSecret(secret string) Options {
	return func(s *Server) {
		s.signingSecret = secret
	}
}

func New(webhookHandler *WebhookHandler, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:         r,
		webhookHandler: webhookHandler,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	r.Route("/hooks/billing", func(r chi.Router) {
		if s.signingSecret != "" {
			r.Use(WebhookSignatureMiddleware(s.signingSecret))
		}
		r.Post("/event", s.webhookHandler.ServeHTTP)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	safe.Write(r.Context(), w, []byte(`{"status":"ok"}`))
}

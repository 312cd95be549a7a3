package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/securescan-api/internal/config"
	"github.com/securescan-api/internal/transport/http/handler"
	appmiddleware "github.com/securescan-api/internal/transport/http/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// NewRouter builds the application router. The returned closer stops the
// rate limiter's background cleanup.
func NewRouter(cfg *config.Config, deps *Deps) (http.Handler, func()) {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.RequestLog(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	otpRL := appmiddleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	healthH := handler.NewHealthHandler()
	otpH := handler.NewOTPHandler(deps.OTP, deps.Tickets, log)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)

		r.Route("/otp", func(r chi.Router) {
			r.Use(otpRL.Limit)
			r.Post("/send", otpH.Send)
			r.Post("/verify", otpH.Verify)
			r.Post("/resend", otpH.Resend)
		})
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	return r, otpRL.Close
}

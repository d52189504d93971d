// Package devserver is an in-memory stand-in for the production storefront
// backend. It implements the same HTTP contract — auth, cart, orders and the
// Wompi transaction init — against seeded data, so the client can be
// developed and tested without the real API.
package devserver

import (
	"encoding/json"
	"net/http"
	"time"

	"venezia-storefront/internal/config"
	"venezia-storefront/internal/logger"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type Server struct {
	store  *store
	log    *zap.Logger
	logins *loginLimiter

	jwtSecret        string
	wompiPublicKey   string
	wompiIntegrity   string
	wompiRedirectURL string
}

func NewServer(cfg *config.Config) *Server {
	return &Server{
		store:            newStore(),
		log:              logger.L(),
		logins:           newLoginLimiter(),
		jwtSecret:        cfg.JWTSecret,
		wompiPublicKey:   cfg.WompiPublicKey,
		wompiIntegrity:   cfg.WompiIntegritySecret,
		wompiRedirectURL: cfg.WompiRedirectURL,
	}
}

// Router assembles the full HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(s.requestLogger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.With(s.logins.middleware).Post("/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Post("/logout", s.handleLogout)
		r.Get("/user", s.handleCurrentUser)
		r.Put("/profile", s.handleUpdateProfile)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", s.handleGetCart)
			r.Post("/", s.handleAddCartItem)
			r.Put("/{itemID}", s.handleUpdateCartItem)
			r.Delete("/{itemID}", s.handleRemoveCartItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", s.handleListOrders)
			r.Post("/", s.handleCreateOrder)
			r.Post("/{orderID}/cancel", s.handleCancelOrder)
			r.Put("/{orderID}/status", s.handleUpdateOrderStatus)
		})

		r.Post("/payments/wompi/init", s.handleInitWompi)
	})

	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeCodedError emits the {code, message} shape the client maps onto
// business-rule handling.
func (s *Server) writeCodedError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, map[string]string{"code": code, "message": message})
}

package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"finledger/internal/logging"
	"finledger/internal/server/config"
)

// Server is the HTTP front of the ledger. Construct with NewServer, start
// with Run, stop with Shutdown.
type Server struct {
	env     *Env
	httpSrv *http.Server
	limiter *Limiter
	db      *sql.DB
}

// NewServer wires the router: global middleware, public auth endpoints and
// the authenticated API.
func NewServer(cfg *config.Config, logger logging.Logger, db *sql.DB,
	users UserProvider, ledger LedgerProvider, export ExportProvider) *Server {

	env := &Env{Logger: logger, Config: cfg}
	limiter := NewLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)

	authHandler := NewAuthHandler(env, users)
	txHandler := NewTransactionHandler(env, ledger)
	exportHandler := NewExportHandler(env, export)

	r := chi.NewRouter()

	r.Use(RequestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(limiter.Middleware(env))
	r.Use(AuthMiddleware([]byte(cfg.SecretKey), logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", authHandler.Register)
		api.Post("/auth/login", authHandler.Login)

		api.Group(func(private chi.Router) {
			private.Use(RequireAuth(env))

			private.Get("/me", authHandler.Me)

			private.Post("/transactions", txHandler.Create)
			private.Get("/transactions", txHandler.List)
			private.Get("/transactions/{id}", txHandler.Get)
			private.Patch("/transactions/{id}", txHandler.Update)
			private.Delete("/transactions/{id}", txHandler.Delete)

			private.Post("/transactions/export", exportHandler.Export)

			private.Get("/summary", txHandler.Summary)
		})
	})

	return &Server{
		env: env,
		httpSrv: &http.Server{
			Addr:              cfg.EndpointAddr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		limiter: limiter,
		db:      db,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.httpSrv.Shutdown(ctx)
}

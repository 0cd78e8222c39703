package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/nlopez/go-prodportal/internal/auth"
	"github.com/nlopez/go-prodportal/internal/chat"
	"github.com/nlopez/go-prodportal/internal/config"
	"github.com/nlopez/go-prodportal/internal/database"
)

type PortalApp struct {
	log            *log.Logger
	db             database.PortalRepository
	mux            *http.Server
	cs             *chat.ChatServer
	auth           *auth.Authenticator
	allowedOrigins []string
}

func NewPortalApp(mux *http.ServeMux, logger *log.Logger, cs *chat.ChatServer, db database.PortalRepository, authn *auth.Authenticator, cfg *config.Config) *PortalApp {
	s := &PortalApp{
		log:            logger,
		db:             db,
		cs:             cs,
		auth:           authn,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("POST /api/auth/register", s.createAccount)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/products", s.listProducts)
	mux.HandleFunc("GET /api/products/{id}", s.getProduct)
	mux.Handle("POST /api/products", s.authMiddleware(s.adminOnly(s.createProduct)))
	mux.Handle("PUT /api/products/{id}", s.authMiddleware(s.adminOnly(s.updateProduct)))
	mux.Handle("DELETE /api/products/{id}", s.authMiddleware(s.adminOnly(s.deleteProduct)))
	mux.Handle("GET /ws", http.HandlerFunc(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *PortalApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *PortalApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}

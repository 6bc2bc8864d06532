package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/netpad-project/netpad/internal/admin"
	"github.com/netpad-project/netpad/internal/api/handler"
	"github.com/netpad-project/netpad/internal/api/middleware"
	"github.com/netpad-project/netpad/internal/game"
	"github.com/netpad-project/netpad/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger       *slog.Logger
	AdminService *admin.Service
	Runtime      *game.Runtime
	Storage      storage.Storage
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	adminHandler := handler.NewAdminHandler(cfg.AdminService)
	gameHandler := handler.NewGameHandler(cfg.Runtime, cfg.Storage)
	accountsHandler := handler.NewAccountsHandler(cfg.Storage)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AdminService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Admin session routes (login needs no auth)
	api.HandleFunc("/admin/login", adminHandler.Login).Methods(http.MethodPost)
	adminProtected := api.PathPrefix("/admin").Subrouter()
	adminProtected.Use(authMiddleware)
	adminProtected.HandleFunc("/logout", adminHandler.Logout).Methods(http.MethodPost)

	// Game control routes (all require auth)
	gameRoutes := api.PathPrefix("/game").Subrouter()
	gameRoutes.Use(authMiddleware)
	gameRoutes.HandleFunc("", gameHandler.Status).Methods(http.MethodGet)
	gameRoutes.HandleFunc("/controls", gameHandler.Controls).Methods(http.MethodGet)
	gameRoutes.HandleFunc("/players/{id}/kick", gameHandler.Kick).Methods(http.MethodPost)
	gameRoutes.HandleFunc("/players/{id}/ban", gameHandler.Ban).Methods(http.MethodPost)
	gameRoutes.HandleFunc("/banned/{id}/pardon", gameHandler.Pardon).Methods(http.MethodPost)
	gameRoutes.HandleFunc("/lock", gameHandler.Lock).Methods(http.MethodPost)
	gameRoutes.HandleFunc("/unlock", gameHandler.Unlock).Methods(http.MethodPost)
	gameRoutes.HandleFunc("/close", gameHandler.Close).Methods(http.MethodPost)
	gameRoutes.HandleFunc("/message", gameHandler.Message).Methods(http.MethodPost)
	gameRoutes.HandleFunc("/event", gameHandler.Event).Methods(http.MethodPost)
	gameRoutes.HandleFunc("/archive/save", gameHandler.SaveArchive).Methods(http.MethodPost)
	gameRoutes.HandleFunc("/archive/load", gameHandler.LoadArchive).Methods(http.MethodPost)

	// Account routes (all require auth)
	accounts := api.PathPrefix("/accounts").Subrouter()
	accounts.Use(authMiddleware)
	accounts.HandleFunc("", accountsHandler.List).Methods(http.MethodGet)
	accounts.HandleFunc("", accountsHandler.Create).Methods(http.MethodPost)
	accounts.HandleFunc("/{id}", accountsHandler.Delete).Methods(http.MethodDelete)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

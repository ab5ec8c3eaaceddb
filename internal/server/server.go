package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"score-wallet/internal/auth"
	"score-wallet/internal/cache"
	"score-wallet/internal/config"
	"score-wallet/internal/handler"
	"score-wallet/internal/repository"
	"score-wallet/internal/service"
	"score-wallet/internal/signature"
)

// Server represents the HTTP server
type Server struct {
	router *mux.Router
	server *http.Server
	db     *sql.DB
	redis  *redis.Client
	logger *slog.Logger
	port   string
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	// Initialize database connection
	db, err := sql.Open("postgres", cfg.GetDBConnectionString())
	if err != nil {
		return nil, err
	}

	// Configure connection pool for better performance
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Test database connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if logger != nil {
		logger.Info("Successfully connected to database")
	}

	// Redis is optional: with no address configured the cache layer is a
	// pass-through and every read goes to the database.
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			db.Close()
			return nil, err
		}
		if logger != nil {
			logger.Info("Successfully connected to redis", "addr", cfg.RedisAddr)
		}
	}

	// Initialize store (Unit of Work)
	store := repository.NewStore(db, logger)

	// Initialize collaborators
	verifier := signature.NewVerifier(cfg.WebhookSecret)
	tokens := auth.NewManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	cacheLayer := cache.New(redisClient)

	// Initialize services
	userService := service.NewUserService(store, cacheLayer, logger)
	walletService := service.NewWalletService(store, verifier, cacheLayer, logger)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(userService, tokens)
	userHandler := handler.NewUserHandler(userService)
	walletHandler := handler.NewWalletHandler(walletService)
	adminHandler := handler.NewAdminHandler(userService, walletService)

	// Setup router
	router := mux.NewRouter()

	// Add middleware for logging
	router.Use(loggingMiddleware(logger))

	// Auth routes (no token required)
	router.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	router.HandleFunc("/auth/token", authHandler.Login).Methods("POST")
	router.HandleFunc("/auth/refresh", authHandler.Refresh).Methods("POST")

	requireAuth := authMiddleware(tokens, userService)

	// User routes
	userRouter := router.PathPrefix("/users").Subrouter()
	userRouter.Use(requireAuth)
	userRouter.HandleFunc("/me", userHandler.Me).Methods("GET")
	userRouter.HandleFunc("/fullname", userHandler.FullName).Methods("GET")
	userRouter.HandleFunc("/email", userHandler.UpdateEmail).Methods("PATCH")
	userRouter.HandleFunc("/password", userHandler.UpdatePassword).Methods("PATCH")

	// Wallet routes
	walletRouter := router.PathPrefix("/wallets").Subrouter()
	walletRouter.Use(requireAuth)
	walletRouter.HandleFunc("/balances", walletHandler.GetBalances).Methods("GET")
	walletRouter.HandleFunc("/topup", walletHandler.TopUp).Methods("POST")
	walletRouter.HandleFunc("/withdraw", walletHandler.Withdraw).Methods("POST")
	walletRouter.HandleFunc("/accounts", walletHandler.CreateAccount).Methods("POST")
	walletRouter.HandleFunc("/accounts", walletHandler.DeleteAccounts).Methods("DELETE")
	walletRouter.HandleFunc("/payments", walletHandler.ListPayments).Methods("GET")

	// Admin routes
	adminRouter := router.PathPrefix("/admin").Subrouter()
	adminRouter.Use(requireAuth, adminMiddleware())
	adminRouter.HandleFunc("/users", adminHandler.ListUsers).Methods("GET")
	adminRouter.HandleFunc("/users", adminHandler.CreateUser).Methods("POST")
	adminRouter.HandleFunc("/users/{user_id}", adminHandler.DeleteUser).Methods("DELETE")
	adminRouter.HandleFunc("/users/email", adminHandler.UpdateUserEmail).Methods("PATCH")
	adminRouter.HandleFunc("/users/disable", adminHandler.DisableUser).Methods("PATCH")
	adminRouter.HandleFunc("/users/enable", adminHandler.EnableUser).Methods("PATCH")
	adminRouter.HandleFunc("/users/balances", adminHandler.UserBalances).Methods("GET")
	adminRouter.HandleFunc("/payments", adminHandler.ListPayments).Methods("GET")

	// Health check
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		// Check database connectivity in health check
		if err := db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": "database unavailable"})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}).Methods("GET")

	return &Server{
		router: router,
		db:     db,
		redis:  redisClient,
		logger: logger,
	}, nil
}

// Start starts the HTTP server on the specified port
func (s *Server) Start(port string) (string, error) {
	// Create listener first to get actual port
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return "", err
	}

	// Get the actual port being used
	addr := listener.Addr().(*net.TCPAddr)
	s.port = strconv.Itoa(addr.Port)

	// Create HTTP server
	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if s.logger != nil {
		s.logger.Info("Starting server", "port", s.port)
	}

	// Start server in background
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Error("Server failed to start", "error", err)
			}
		}
	}()

	return s.port, nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	if s.logger != nil {
		s.logger.Info("Shutting down server")
	}

	// Close database connection
	if s.db != nil {
		s.db.Close()
	}

	if s.redis != nil {
		s.redis.Close()
	}

	// Shutdown HTTP server
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// GetPort returns the port the server is listening on
func (s *Server) GetPort() string {
	return s.port
}

// GetBaseURL returns the base URL for the server
func (s *Server) GetBaseURL() string {
	return "http://localhost:" + s.port
}

// GetRouter returns the router for testing purposes
func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// StartServer starts the server with the given configuration
func StartServer(cfg *config.Config) (*Server, string, error) {
	// Initialize logger - use io.Discard for tests to avoid noisy output
	var logger *slog.Logger
	if cfg.ServerPort == "0" {
		// Test environment - use discard logger
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	} else {
		// Production environment - use stdout
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	server, err := NewServer(cfg, logger)
	if err != nil {
		return nil, "", err
	}

	// Start the server and get the actual port
	port, err := server.Start(cfg.ServerPort)
	if err != nil {
		return nil, "", err
	}

	return server, port, nil
}

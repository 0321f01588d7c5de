// Package devapi is a local development backend implementing the REST
// contract the rechargex client consumes.
package devapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rechargex-dev/rechargex/internal/assert"
	"github.com/rechargex-dev/rechargex/internal/config"
)

// Server represents the HTTP server
type Server struct {
	router  *gin.Engine
	db      *gorm.DB
	config  config.DevAPIConfig
	logger  zerolog.Logger
	tokens  *Tokens
	limiter *clientLimiters
	version string
}

// New creates a new server instance
func New(cfg config.DevAPIConfig, zlog zerolog.Logger, version string) (*Server, error) {
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	secret, err := jwtSecret(db, cfg.JWTSecret, zlog)
	if err != nil {
		return nil, err
	}
	tokens, err := NewTokens(secret, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}

	server := &Server{
		db:      db,
		config:  cfg,
		logger:  zlog,
		tokens:  tokens,
		version: version,
	}
	if cfg.AuthRatePerSecond > 0 {
		server.limiter = newClientLimiters(cfg.AuthRatePerSecond, cfg.AuthBurst)
	}

	if err := server.seed(); err != nil {
		return nil, err
	}

	server.setupRouter()

	return server, nil
}

// initDatabase opens the SQLite database
func initDatabase(cfg config.DevAPIConfig, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns    = 8
		maxIdleConns    = 4
		connMaxLifetime = 5 * time.Minute
		busyTimeout     = 5000 // 5 seconds
	)

	db, err := gorm.Open(sqlite.Open(withPragmas(cfg.DatabaseURL, busyTimeout)), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Every connection to an in-memory database sees its own copy
	if isMemoryDSN(cfg.DatabaseURL) {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(maxOpenConns)
		sqlDB.SetMaxIdleConns(maxIdleConns)
		sqlDB.SetConnMaxLifetime(connMaxLifetime)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// journal_mode is stored in the database file; the rest is set per connection by the DSN
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		zlog.Warn().Err(err).Msg("Failed to enable WAL journal mode")
	}

	return db, nil
}

// withPragmas appends the per-connection pragmas to dsn so every pooled
// connection enforces foreign keys and waits on locks
func withPragmas(dsn string, busyTimeout int) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join([]string{
		"_pragma=foreign_keys(1)",
		fmt.Sprintf("_pragma=busy_timeout(%d)", busyTimeout),
		"_pragma=synchronous(NORMAL)",
	}, "&")
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

// jwtSecret returns the configured secret, or the one generated on first start
func jwtSecret(db *gorm.DB, configured string, zlog zerolog.Logger) (string, error) {
	if configured != "" {
		return configured, nil
	}

	var settings Settings
	err := db.First(&settings).Error
	if err == nil {
		zlog.Debug().Msg("Loaded JWT secret from database")
		return settings.JWTSecret, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to load settings: %w", err)
	}

	// 64 hex characters = 32 bytes of randomness
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	settings.JWTSecret = hex.EncodeToString(secretBytes)
	assert.Length(settings.JWTSecret, 64)
	if err := db.Create(&settings).Error; err != nil {
		return "", fmt.Errorf("failed to save settings: %w", err)
	}
	zlog.Info().Msg("Generated JWT secret")
	return settings.JWTSecret, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(loggingMiddleware(s.logger))

	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Public endpoints
	s.router.GET("/health", s.healthCheck)
	throttled := s.router.Group("")
	throttled.Use(RateLimitMiddleware(s.limiter, s.logger))
	{
		throttled.POST("/users/login", s.login)
		throttled.POST("/users/register", s.register)
	}
	s.router.GET("/plans", s.listPlans)
	s.router.GET("/feedbacks/approved", s.listApprovedFeedbacks)
	s.router.Static("/uploads", s.config.UploadDir)

	authed := s.router.Group("")
	authed.Use(JWTAuthMiddleware(s.db, s.tokens, s.logger))
	{
		authed.GET("/users/profile", s.getProfile)
		authed.PUT("/users/:id", s.updateUser)
		authed.POST("/users/upload-photo", s.uploadPhoto)

		authed.GET("/transactions/user/:id", s.listUserTransactions)
		authed.POST("/transactions", s.createTransaction)

		authed.POST("/feedbacks", s.createFeedback)
	}

	admin := s.router.Group("")
	admin.Use(JWTAuthMiddleware(s.db, s.tokens, s.logger), AdminOnlyMiddleware(s.logger))
	{
		admin.GET("/users", s.listUsers)
		admin.DELETE("/users/:id", s.deleteUser)

		admin.POST("/plans", s.createPlan)
		admin.PUT("/plans/:id", s.updatePlan)
		admin.DELETE("/plans/:id", s.deletePlan)

		admin.GET("/transactions", s.listTransactions)
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "rechargex-devapi",
		"version":   s.version,
	})
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close closes the database connection
func (s *Server) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Start serves until SIGINT or SIGTERM
func (s *Server) Start() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.config.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-sigChan:
		s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	// Close database connection to flush WAL writes
	if err := s.Close(); err != nil {
		s.logger.Error().Err(err).Msg("Error closing database")
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}

// Package server is the binge sync and storefront server
package server

import (
	"database/sql"
	"embed"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/existflow/binge/internal/config"
	"github.com/existflow/binge/internal/logger"
	"github.com/existflow/binge/internal/unlock"
)

//go:embed schema/*.sql
var embedMigrations embed.FS

// DefaultCatalog is the product list sold by the storefront
var DefaultCatalog = []unlock.Product{
	{
		ID:          config.DefaultProductID,
		Title:       "Binge Unlimited",
		Description: "Create as many open projects as you like.",
		PriceMinor:  499,
		Currency:    "USD",
	},
}

// Server is the sync server
type Server struct {
	db      *sql.DB
	catalog map[string]unlock.Product
	order   []string
	echo    *echo.Echo
}

// New connects to Postgres, migrates the schema and sets up routes
func New(dbURL string) (*Server, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return newServer(db, DefaultCatalog), nil
}

func newServer(db *sql.DB, catalog []unlock.Product) *Server {
	s := &Server{
		db:      db,
		catalog: make(map[string]unlock.Product, len(catalog)),
	}
	for _, p := range catalog {
		s.catalog[p.ID] = p
		s.order = append(s.order, p.ID)
	}
	s.setupEcho()
	return s
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(gooseLogger{})

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.Up(db, "schema"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) {
	logger.Info(fmt.Sprintf(format, v...), logger.F("component", "migrate"))
}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	logger.Error(fmt.Sprintf(format, v...), logger.F("component", "migrate"))
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(requestLogger)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())

	e.GET("/health", s.handleHealth)

	api := e.Group("/api/v1")

	api.POST("/register", s.handleRegister)
	api.POST("/login", s.handleLogin)
	api.GET("/store/products", s.handleProducts)

	protected := api.Group("")
	protected.Use(s.authMiddleware)
	protected.GET("/me", s.handleMe)
	protected.POST("/logout", s.handleLogout)
	protected.GET("/sync", s.handleSyncPull)
	protected.POST("/sync", s.handleSyncPush)
	protected.POST("/clear", s.handleClear)
	protected.POST("/store/purchases", s.handlePurchase)
	protected.POST("/store/restore", s.handleRestore)

	s.echo = e
}

// Close closes the database connection
func (s *Server) Close() error {
	return s.db.Close()
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start starts the server
func (s *Server) Start(addr string) error {
	logger.Info("Sync server listening", logger.F("addr", addr))
	return s.echo.Start(addr)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

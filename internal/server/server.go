// Package server exposes the Telegram webhook endpoint and the REST API
// over a single gin engine.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dkovalov/taskboard/internal/bot"
	"github.com/dkovalov/taskboard/internal/taskstore"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Opts holds configuration for the HTTP server.
type Opts struct {
	DB       *gorm.DB
	Router   *bot.Router
	Tasks    *taskstore.Store
	Telegram *bot.Client // optional; webhook admin endpoints fail without it
	Port     int
	Out      io.Writer
}

// NewEngine builds the gin engine with all routes registered. Exposed
// separately from Start for httptest use.
func NewEngine(opts Opts) (*gin.Engine, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("server: db is required")
	}
	if opts.Router == nil {
		return nil, fmt.Errorf("server: bot router is required")
	}
	if opts.Tasks == nil {
		return nil, fmt.Errorf("server: task store is required")
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	registerRoutes(engine, opts)
	return engine, nil
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts Opts) error {
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	engine, err := NewEngine(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: engine,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Taskboard API listening on http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// registerRoutes sets up the webhook and REST routes.
func registerRoutes(engine *gin.Engine, opts Opts) {
	api := engine.Group("/api")

	// Telegram webhook.
	api.POST("/telegram/webhook", handleWebhook(opts.Router, opts.Out))
	api.POST("/telegram/set-webhook", handleSetWebhook(opts.Telegram))
	api.GET("/telegram/webhook-info", handleWebhookInfo(opts.Telegram))
	api.POST("/telegram/delete-webhook", handleDeleteWebhook(opts.Telegram))

	// Accounts.
	api.GET("/users", handleUserList(opts.DB))
	api.POST("/users", handleUserCreate(opts.DB))
	api.GET("/users/:id", handleUserShow(opts.DB))
	api.PUT("/users/:id", handleUserUpdate(opts.DB))
	api.DELETE("/users/:id", handleUserDelete(opts.DB))

	// Tasks.
	api.GET("/tasks", handleTaskList(opts.DB, opts.Tasks))
	api.POST("/tasks", handleTaskCreate(opts.DB, opts.Tasks))
	api.GET("/tasks/:id", handleTaskShow(opts.DB, opts.Tasks))
	api.PUT("/tasks/:id", handleTaskUpdate(opts.DB, opts.Tasks))
	api.DELETE("/tasks/:id", handleTaskDelete(opts.DB, opts.Tasks))
	api.DELETE("/tasks/:id/files/:fileID", handleTaskFileRemove(opts.DB, opts.Tasks))
}

// respond writes the standard REST envelope.
func respond(c *gin.Context, code int, success bool, message string, data interface{}) {
	body := gin.H{"success": success}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(code, body)
}

// respondValidation writes a 422 envelope with per-field errors.
func respondValidation(c *gin.Context, errs map[string]string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"success": false,
		"message": "Validation error",
		"errors":  errs,
	})
}

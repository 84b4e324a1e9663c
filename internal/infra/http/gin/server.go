package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"bookingrule/internal/infra/config"
	"bookingrule/internal/infra/obs"
)

type WidgetHTTP interface {
	Open(c *gin.Context)
	Get(c *gin.Context)
	ChangeInventory(c *gin.Context)
	SelectPickup(c *gin.Context)
	EditDropoff(c *gin.Context)
}

type InventoryHTTP interface {
	Rule(c *gin.Context)
	Calendar(c *gin.Context)
	Block(c *gin.Context)
	Release(c *gin.Context)
}

type Handlers struct {
	Widget    WidgetHTTP
	Inventory InventoryHTTP
	Metrics   http.Handler
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics))
	}

	api := router.Group("/api/v1")
	if h.Widget != nil {
		sessions := api.Group("/sessions")
		sessions.POST("", h.Widget.Open)
		sessions.GET("/:id", h.Widget.Get)
		sessions.POST("/:id/inventory", h.Widget.ChangeInventory)
		sessions.POST("/:id/pickup", h.Widget.SelectPickup)
		sessions.POST("/:id/dropoff", h.Widget.EditDropoff)
	}
	if h.Inventory != nil {
		inventory := api.Group("/inventory/:id")
		inventory.GET("/rule", h.Inventory.Rule)
		inventory.GET("/calendar", h.Inventory.Calendar)
		inventory.POST("/blocks", h.Inventory.Block)
		inventory.DELETE("/blocks/:reference", h.Inventory.Release)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}

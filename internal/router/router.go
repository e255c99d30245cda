package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"workspace-state-engine/internal/controller"
	"workspace-state-engine/internal/handler"
	"workspace-state-engine/internal/metrics"
	"workspace-state-engine/internal/middleware"
	"workspace-state-engine/internal/service"
)

// Config holds the router dependencies
type Config struct {
	Registry       *controller.Registry
	Logger         *zap.Logger
	JWTSecret      string
	BasePath       string
	Metrics        *metrics.Metrics
	AllowedOrigins []string
}

// Setup creates the gin engine with all routes and middleware
func Setup(cfg Config) *gin.Engine {
	r := gin.New()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	stateService := service.NewStateService(cfg.Registry, cfg.Logger)

	stateHandler := handler.NewStateHandler(stateService, cfg.Logger)
	workspaceHandler := handler.NewWorkspaceHandler(stateService, cfg.Logger)
	pageHandler := handler.NewPageHandler(stateService, cfg.Logger)
	cardHandler := handler.NewCardHandler(stateService, cfg.Logger)
	wsHandler := handler.NewWSHandler(stateService, cfg.JWTSecret, cfg.Logger)
	healthHandler := handler.NewHealthHandler()

	// Health and metrics endpoints (no auth)
	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group(cfg.BasePath)
	{
		// Health under base path for ingress probes
		api.GET("/health", healthHandler.Health)
		api.GET("/ready", healthHandler.Ready)

		// WebSocket feed authenticates itself via query token
		api.GET("/ws/state", wsHandler.HandleStateFeed)

		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(cfg.JWTSecret))
		{
			// State and history
			authenticated.GET("/state", stateHandler.GetState)
			authenticated.GET("/state/sync-status", stateHandler.GetSyncStatus)
			authenticated.POST("/state/save", stateHandler.Save)
			authenticated.POST("/state/undo", stateHandler.Undo)
			authenticated.POST("/state/redo", stateHandler.Redo)

			// Workspaces
			authenticated.POST("/workspaces", workspaceHandler.CreateWorkspace)
			authenticated.PUT("/workspaces/reorder", workspaceHandler.ReorderWorkspaces)
			authenticated.PUT("/workspaces/:workspaceId", workspaceHandler.UpdateWorkspace)
			authenticated.DELETE("/workspaces/:workspaceId", workspaceHandler.DeleteWorkspace)
			authenticated.PUT("/workspaces/:workspaceId/activate", workspaceHandler.ActivateWorkspace)

			// Pages
			authenticated.POST("/pages", pageHandler.CreatePage)
			authenticated.PUT("/pages/:pageId", pageHandler.UpdatePage)
			authenticated.DELETE("/pages/:pageId", pageHandler.DeletePage)
			authenticated.PUT("/pages/:pageId/activate", pageHandler.ActivatePage)

			// Board columns
			authenticated.POST("/pages/:pageId/columns", cardHandler.CreateColumn)
			authenticated.PUT("/pages/:pageId/columns/reorder", cardHandler.ReorderColumns)
			authenticated.PUT("/pages/:pageId/columns/:columnId", cardHandler.RenameColumn)
			authenticated.DELETE("/pages/:pageId/columns/:columnId", cardHandler.DeleteColumn)

			// Cards
			authenticated.POST("/pages/:pageId/cards", cardHandler.CreateCard)
			authenticated.PUT("/pages/:pageId/cards/move", cardHandler.MoveCard)
			authenticated.PUT("/pages/:pageId/cards/:cardId", cardHandler.UpdateCard)
			authenticated.DELETE("/pages/:pageId/cards/:cardId", cardHandler.DeleteCard)
		}
	}

	return r
}

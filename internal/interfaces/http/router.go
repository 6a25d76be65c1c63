// Package http wires the gin engine, middleware and route groups.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"veilink/internal/interfaces/http/handlers"
	"veilink/internal/interfaces/http/middleware"
	"veilink/internal/shared/logger"
)

// Router represents the HTTP router configuration.
type Router struct {
	engine  *gin.Engine
	user    *handlers.UserHandler
	agent   *handlers.AgentHandler
	forward *handlers.ForwardHandler
	network *handlers.NetworkHandler
	wallet  *handlers.WalletHandler
	logger  logger.Interface
}

// NewRouter creates a new Router with the given handlers.
func NewRouter(
	user *handlers.UserHandler,
	agent *handlers.AgentHandler,
	forward *handlers.ForwardHandler,
	network *handlers.NetworkHandler,
	wallet *handlers.WalletHandler,
	log logger.Interface,
) *Router {
	return &Router{
		engine:  gin.New(),
		user:    user,
		agent:   agent,
		forward: forward,
		network: network,
		wallet:  wallet,
		logger:  log,
	}
}

// SetupRoutes registers middleware and all API routes.
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.Logger(r.logger))
	r.engine.Use(middleware.Recovery())

	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Account creation is the only route without an identity header.
	r.engine.POST("/api/v1/users", r.user.Create)

	api := r.engine.Group("/api/v1")
	api.Use(middleware.Identity())

	api.GET("/users/me", r.user.Me)

	agents := api.Group("/agents")
	{
		agents.POST("", r.agent.Register)
		agents.GET("", r.agent.List)
		agents.POST("/:id/shares", r.agent.Share)
		agents.DELETE("/:id/shares/:userID", r.agent.Unshare)
	}

	forwards := api.Group("/forwards")
	{
		forwards.POST("", r.forward.Create)
		forwards.GET("", r.forward.List)
		forwards.DELETE("/:id", r.forward.Delete)
	}

	networks := api.Group("/networks")
	{
		networks.POST("", r.network.Create)
		networks.DELETE("/:forwardID", r.network.Delete)
	}

	wallet := api.Group("/wallet")
	{
		wallet.GET("", r.wallet.GetBalance)
		wallet.GET("/logs", r.wallet.ListBalanceLogs)
	}
}

// GetEngine returns the underlying gin engine.
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

package routes

import (
	"sysmon/internal/controllers"
	"sysmon/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterPanelRoutes registers the panel API. Clicks are authenticated when
// authEnabled is set and always go through the stricter clicks limiter.
func RegisterPanelRoutes(r *gin.Engine, panels *controllers.PanelController, authEnabled bool, clicks *middleware.RateLimiter) {
	group := r.Group("/panels")
	if authEnabled {
		group.Use(middleware.AuthMiddleware())
	}
	{
		group.GET("", panels.ListPanels)
		group.GET("/:name", panels.GetPanel)
		group.POST("/:name/buttons/:id/click",
			middleware.RateLimitMiddleware(clicks),
			panels.ClickButton,
		)
	}
}

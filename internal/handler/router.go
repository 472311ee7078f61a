package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/visdata-app/visdata/internal/middleware"
)

type RouterDeps struct {
	Auth            *AuthHandler
	Users           *UserHandler
	Files           *FileHandler
	Visualize       *VisualizeHandler
	AI              *AIHandler
	Resolver        middleware.UserResolver
	LoginRateWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	credentials := api.Group("")
	if deps.LoginRateWindow > 0 {
		credentials.Use(middleware.RateLimit(deps.LoginRateWindow))
	}
	credentials.POST("/auth/token", deps.Auth.Token)
	credentials.POST("/users/", deps.Users.Register)

	authGroup := api.Group("")
	authGroup.Use(middleware.Auth(deps.Resolver))
	authGroup.GET("/users/me", deps.Users.Me)

	authGroup.POST("/files/upload", deps.Files.Upload)
	authGroup.GET("/files/", deps.Files.List)
	authGroup.DELETE("/files/:id", deps.Files.Delete)

	authGroup.GET("/visualize/:id/data", deps.Visualize.Data)

	authGroup.GET("/ai/recommend_chart/:id", deps.AI.RecommendChart)
	authGroup.GET("/ai/analyze_file/:id", deps.AI.AnalyzeFile)
	authGroup.POST("/ai/chat", deps.AI.Chat)
}

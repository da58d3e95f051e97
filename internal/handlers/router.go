package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/alex-l-clark/task-manager/internal/config"
	"github.com/alex-l-clark/task-manager/internal/middleware"
	"github.com/alex-l-clark/task-manager/internal/storage"
)

// NewRouter wires the full HTTP surface: auth endpoints, session restore,
// owner-scoped task CRUD, and a storage health check.
func NewRouter(cfg *config.Config, blob storage.Blob, auth *AuthHandler, tasks *TaskHandler, parser middleware.TokenParser) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit))
	}

	router.GET("/health", func(c *gin.Context) {
		if err := blob.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.POST("/register", auth.Register)
		api.POST("/login", auth.Login)
		api.GET("/session", auth.Session)

		authed := api.Group("")
		authed.Use(middleware.RequireAuth(parser))
		{
			authed.POST("/logout", auth.Logout)
			authed.GET("/tasks", tasks.GetTasks)
			authed.POST("/tasks", tasks.CreateTask)
			authed.GET("/tasks/:id", tasks.GetTaskByID)
			authed.PUT("/tasks/:id", tasks.UpdateTask)
			authed.DELETE("/tasks/:id", tasks.DeleteTask)
		}
	}

	return router
}

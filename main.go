package main

import (
	"log"
	"net/http"

	controller "github.com/mkovaleva/ThoughtFlow/controller"
	"github.com/mkovaleva/ThoughtFlow/initializers"
	middleware "github.com/mkovaleva/ThoughtFlow/middleware"
	service "github.com/mkovaleva/ThoughtFlow/service"

	"github.com/gin-gonic/gin"
)

func init() {
	if err := initializers.LoadEnv(); err != nil {
		log.Println("[WARN] No .env file loaded, relying on environment")
	}
	if err := initializers.ConnectDB(); err != nil {
		log.Fatalf("[CRITICAL] Failed to initialize database connection: %s", err)
	}
	if err := initializers.Migrate(); err != nil {
		log.Fatalf("[CRITICAL] Failed to run database migrations: %s", err)
	}
}

func main() {
	assistantService, err := service.NewAssistantService(initializers.DB)
	if err != nil {
		log.Fatalf("Failed to initialize assistant service: %s", err)
	}

	assistantController := controller.NewAssistantController(assistantService)

	router := gin.Default()
	router.Use(middleware.CORSMiddleware())

	// Global rate limiter for most routes
	router.Use(middleware.GlobalRateLimiter.Limit())

	// The message webhook hits the extraction engine; keep it strict
	router.POST("/messages",
		middleware.StrictRateLimiter.Limit(),
		assistantController.HandleMessage)
	router.POST("/callbacks", assistantController.HandleCallback)

	router.POST("/users/init", assistantController.InitUser)

	router.GET("/notes", assistantController.ListNotes)
	router.GET("/notes/:id", assistantController.GetNote)
	router.DELETE("/notes/:id", assistantController.DeleteNote)

	router.GET("/tasks", assistantController.ListTasks)
	router.PUT("/tasks/:id/toggle", assistantController.ToggleTask)

	router.GET("/meetings", assistantController.ListMeetings)

	router.GET("/projects", assistantController.ListProjects)
	router.POST("/projects",
		middleware.StrictRateLimiter.Limit(),
		assistantController.CreateProject)

	router.GET("/search", assistantController.Search)

	// Healthcheck endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	router.Run(":8080")
}

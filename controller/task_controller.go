package controller

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListTasks returns the user's open tasks, soonest due first
func (c *AssistantController) ListTasks(ctx *gin.Context) {
	userID, ok := c.resolveUser(ctx)
	if !ok {
		return
	}

	tasks, err := c.service.GetPendingTasks(userID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"total": len(tasks),
	})
}

// ToggleTask flips a task's completion status
func (c *AssistantController) ToggleTask(ctx *gin.Context) {
	taskID := ctx.Param("id")
	if taskID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Task ID required"})
		return
	}

	isDone, err := c.service.ToggleTask(taskID)
	if err != nil {
		log.Printf("[ToggleTask] Error toggling task: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"is_done": isDone})
}

// ListProjects returns the user's projects with open-task counts
func (c *AssistantController) ListProjects(ctx *gin.Context) {
	userID, ok := c.resolveUser(ctx)
	if !ok {
		return
	}

	projects, err := c.service.GetProjectsWithCounts(userID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"projects": projects})
}

// CreateProject adds a project with its keyword list
func (c *AssistantController) CreateProject(ctx *gin.Context) {
	userID, ok := c.resolveUser(ctx)
	if !ok {
		return
	}

	var req struct {
		Name     string `json:"name" binding:"required"`
		Keywords string `json:"keywords"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := c.service.CreateProject(userID, req.Name, req.Keywords)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusCreated, project)
}

// InitUser creates the user and its default project if missing
func (c *AssistantController) InitUser(ctx *gin.Context) {
	var req struct {
		ChatID   int64  `json:"chat_id" binding:"required"`
		Username string `json:"username"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := c.service.InitUser(req.ChatID, req.Username)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, user)
}

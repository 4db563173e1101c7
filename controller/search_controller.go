package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Search runs a cross-entity search over the user's tasks, notes, and meetings
func (c *AssistantController) Search(ctx *gin.Context) {
	userID, ok := c.resolveUser(ctx)
	if !ok {
		return
	}

	query := ctx.Query("q")
	if query == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'q' is required"})
		return
	}

	results, err := c.service.SearchEverything(userID, query)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Search completed successfully",
		"results": results,
	})
}

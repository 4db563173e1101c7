package controller

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// resolveUser turns the chat_id query parameter into a user record.
func (c *AssistantController) resolveUser(ctx *gin.Context) (string, bool) {
	chatID, err := strconv.ParseInt(ctx.Query("chat_id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'chat_id' is required"})
		return "", false
	}
	user, err := c.service.GetUserByChatID(chatID)
	if err != nil {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Please start the bot with /start first."})
		return "", false
	}
	return user.ID, true
}

// ListNotes returns the user's latest notes
func (c *AssistantController) ListNotes(ctx *gin.Context) {
	userID, ok := c.resolveUser(ctx)
	if !ok {
		return
	}

	notes, err := c.service.GetRecentNotes(userID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"notes": notes,
		"total": len(notes),
	})
}

// GetNote returns one note with its full raw transcript. This is the
// "open note" callback the transport wires to the reply button.
func (c *AssistantController) GetNote(ctx *gin.Context) {
	noteID := ctx.Param("id")
	if noteID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Note ID required"})
		return
	}

	note, err := c.service.GetNote(noteID)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Note not found"})
		return
	}
	ctx.JSON(http.StatusOK, note)
}

// DeleteNote removes a note
func (c *AssistantController) DeleteNote(ctx *gin.Context) {
	noteID := ctx.Param("id")
	if noteID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Note ID required"})
		return
	}

	if err := c.service.DeleteNote(noteID); err != nil {
		log.Printf("[DeleteNote] Error deleting note: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Note deleted"})
}

// ListMeetings returns the user's latest meetings
func (c *AssistantController) ListMeetings(ctx *gin.Context) {
	userID, ok := c.resolveUser(ctx)
	if !ok {
		return
	}

	meetings, err := c.service.GetRecentMeetings(userID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"meetings": meetings,
		"total":    len(meetings),
	})
}

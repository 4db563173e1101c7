package controller

import (
	"errors"
	"log"
	"net/http"
	"strings"

	service "github.com/mkovaleva/ThoughtFlow/service"

	"github.com/gin-gonic/gin"
)

// AssistantController manages HTTP requests from the chat transport
type AssistantController struct {
	service *service.AssistantService
}

// NewAssistantController initializes the controller with the service
func NewAssistantController(service *service.AssistantService) *AssistantController {
	return &AssistantController{service}
}

// HandleMessage runs one inbound message through the pipeline. The
// transport sends either text or a voice clip (raw bytes for server-side
// transcription, or already-transcribed text plus the clip's metadata).
func (c *AssistantController) HandleMessage(ctx *gin.Context) {
	var req struct {
		ChatID        int64   `json:"chat_id" binding:"required"`
		Username      string  `json:"username"`
		Text          string  `json:"text"`
		VoiceData     []byte  `json:"voice_data"`
		VoiceFileID   *string `json:"voice_file_id"`
		VoiceDuration *int    `json:"voice_duration"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := c.service.ProcessMessage(service.IncomingMessage{
		ChatID:        req.ChatID,
		Username:      req.Username,
		Text:          req.Text,
		VoiceData:     req.VoiceData,
		VoiceFileID:   req.VoiceFileID,
		VoiceDuration: req.VoiceDuration,
	})
	if err != nil {
		if errors.Is(err, service.ErrUnknownUser) {
			ctx.JSON(http.StatusForbidden, gin.H{"error": "Please start the bot with /start first."})
			return
		}
		if errors.Is(err, service.ErrTranscriptionFailed) {
			log.Printf("[HandleMessage] Transcription error: %v", err)
			ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Could not transcribe the voice message. Please try again or send it as text."})
			return
		}
		var extractionErr *service.ExtractionError
		if errors.As(err, &extractionErr) {
			log.Printf("[HandleMessage] Extraction error: %v", err)
			ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Error processing your message. Please try again."})
			return
		}
		log.Printf("[HandleMessage] Error processing message: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Error processing your message. Please try again."})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"reply":   resp.Reply,
		"note_id": resp.NoteID,
	})
}

// HandleCallback reacts to transport button callbacks, e.g.
// "tasks:save:<batch>" and "tasks:cancel:<batch>".
func (c *AssistantController) HandleCallback(ctx *gin.Context) {
	var req struct {
		Data string `json:"data" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	parts := strings.Split(req.Data, ":")
	if len(parts) != 3 || parts[0] != "tasks" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown callback data"})
		return
	}

	switch parts[1] {
	case "save":
		count, err := c.service.SaveTaskBatch(parts[2])
		if err != nil {
			log.Printf("[HandleCallback] Error saving batch: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"message": "Tasks saved", "count": count})
	case "cancel":
		c.service.CancelTaskBatch(parts[2])
		ctx.JSON(http.StatusOK, gin.H{"message": "Batch cancelled"})
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown callback action"})
	}
}

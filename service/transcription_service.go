package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"
)

// Transcriber converts a voice clip into text. Transcription happens
// upstream of the pipeline; the pipeline itself only consumes the text.
type Transcriber interface {
	Transcribe(audio []byte) (string, error)
}

// WhisperTranscriber sends the clip to the OpenAI Whisper API.
type WhisperTranscriber struct{}

func NewWhisperTranscriber() *WhisperTranscriber {
	return &WhisperTranscriber{}
}

// Transcribe uploads the audio as a multipart form and returns the
// transcribed text.
func (t *WhisperTranscriber) Transcribe(audio []byte) (string, error) {
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY is not set")
	}

	whisperModel := os.Getenv("WHISPER_MODEL")
	if whisperModel == "" {
		whisperModel = "whisper-1"
	}
	language := os.Getenv("WHISPER_LANGUAGE")

	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	if err := w.WriteField("model", whisperModel); err != nil {
		return "", fmt.Errorf("failed to write model field: %w", err)
	}
	if language != "" {
		if err := w.WriteField("language", language); err != nil {
			return "", fmt.Errorf("failed to write language field: %w", err)
		}
	}

	fw, err := w.CreateFormFile("file", "voice.ogg")
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return "", fmt.Errorf("failed to write audio bytes: %w", err)
	}
	w.Close()

	req, err := http.NewRequest("POST", "https://api.openai.com/v1/audio/transcriptions", &b)
	if err != nil {
		return "", fmt.Errorf("failed to create transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", w.FormDataContentType())

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read transcription response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Transcribe] Whisper API error, status %s: %s", resp.Status, truncate(string(bodyBytes), 200))
		return "", fmt.Errorf("transcription failed with status %s", resp.Status)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(bodyBytes, &result); err != nil {
		return "", fmt.Errorf("failed to parse transcription response: %w", err)
	}
	if result.Text == "" {
		return "", fmt.Errorf("transcription returned empty text")
	}
	return result.Text, nil
}

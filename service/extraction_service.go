package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	model "github.com/mkovaleva/ThoughtFlow/models"
)

// RateLimiter struct to manage API call rate limiting
type RateLimiter struct {
	mu           sync.Mutex
	requestCount map[string]int
	limit        int
	window       time.Duration
	lastReset    time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requestCount: make(map[string]int),
		limit:        limit,
		window:       window,
		lastReset:    time.Now(),
	}
}

// Allow checks if a request is allowed based on rate limit
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.lastReset) > rl.window {
		rl.requestCount = make(map[string]int)
		rl.lastReset = time.Now()
	}

	rl.requestCount[key]++
	return rl.requestCount[key] <= rl.limit
}

// Global rate limiter for extraction-engine calls: 50 per minute
var llmRateLimiter = NewRateLimiter(50, 1*time.Minute)

// ExtractedTask is a task descriptor produced by the extraction engine.
type ExtractedTask struct {
	Title    string  `json:"title"`
	Priority string  `json:"priority"`
	DueDate  *string `json:"due_date"`
}

// ExtractedMeeting is a meeting descriptor produced by the extraction engine.
type ExtractedMeeting struct {
	Title        string   `json:"title"`
	Participants []string `json:"participants"`
	Agenda       []string `json:"agenda"`
	Goal         *string  `json:"goal"`
}

// ExtractionResult is the transient outcome of one message's extraction.
// It exists only for the duration of that message's processing.
type ExtractionResult struct {
	Summary     string             `json:"summary"`
	CleanedText string             `json:"cleaned_text"`
	Tasks       []ExtractedTask    `json:"tasks"`
	Meetings    []ExtractedMeeting `json:"meetings"`
}

// ExtractionError reports an empty, malformed, or summary-less reply from
// the extraction engine. Fragment carries a short excerpt of the offending
// response for diagnostics. Never retried automatically.
type ExtractionError struct {
	Reason   string
	Fragment string
}

func (e *ExtractionError) Error() string {
	if e.Fragment == "" {
		return fmt.Sprintf("extraction failed: %s", e.Reason)
	}
	return fmt.Sprintf("extraction failed: %s: %q", e.Reason, e.Fragment)
}

const extractionPrompt = `You are an assistant that processes voice transcriptions. Analyze the text and:

1. CLEAN: Remove filler words (um, uh, like, you know), false starts, and off-topic content
2. SUMMARIZE: Create a 1-2 sentence summary of the core content
3. EXTRACT TASKS: Find action items with deadlines/priorities
4. EXTRACT MEETINGS: Find scheduled events with participants/agendas

Text: %s
Today: %s

Reply ONLY with valid JSON:
{
  "summary": "concise 1-2 sentence summary",
  "cleaned_text": "cleaned version without filler words",
  "tasks": [
    {"title": "task description", "priority": "low/medium/high/urgent", "due_date": "YYYY-MM-DD or null"}
  ],
  "meetings": [
    {"title": "meeting title", "participants": ["name1"], "agenda": ["item1"], "goal": "goal or null"}
  ]
}

Priority rules:
- "urgent", "asap", "critical" -> urgent
- "important", "priority" -> high
- Default -> medium
- "someday", "not urgent" -> low

Date rules:
- "tomorrow" -> tomorrow's date
- "Monday" -> next Monday
- "next week" -> Monday of next week
- Not specified -> null

If no tasks found, return empty array. If no meetings found, return empty array.
Return ONLY the JSON, no markdown.`

// Extract sends free-form text to the extraction engine and parses the
// reply into an ExtractionResult. The reference date resolves relative
// date expressions ("tomorrow", weekday names) into absolute dates.
func (s *AssistantService) Extract(text string, today time.Time) (*ExtractionResult, error) {
	if !llmRateLimiter.Allow("extraction_call") {
		log.Println("Rate limit exceeded for extraction-engine calls locally")
		return nil, fmt.Errorf("rate limit exceeded for extraction calls")
	}

	prompt := fmt.Sprintf(extractionPrompt, text, today.Format("2006-01-02"))
	log.Printf("[Extract] Extracting from text, length: %d", len(text))

	content, err := callChatCompletion(prompt)
	if err != nil {
		return nil, err
	}

	result, err := parseExtractionPayload(content)
	if err != nil {
		return nil, err
	}

	// The engine occasionally omits cleaned_text; the raw input is the
	// only sensible substitute.
	if result.CleanedText == "" {
		result.CleanedText = text
	}
	return result, nil
}

// parseExtractionPayload strips optional markdown fencing and decodes the
// engine reply. Missing optional sub-fields default to their neutral value;
// a missing summary fails the whole extraction.
func parseExtractionPayload(content string) (*ExtractionResult, error) {
	jsonText := stripJSONFence(content)
	if jsonText == "" {
		return nil, &ExtractionError{Reason: "empty response"}
	}

	var result ExtractionResult
	if err := json.Unmarshal([]byte(jsonText), &result); err != nil {
		log.Printf("[parseExtractionPayload] JSON parse error: %v", err)
		return nil, &ExtractionError{Reason: "invalid JSON", Fragment: truncate(jsonText, 100)}
	}

	if strings.TrimSpace(result.Summary) == "" {
		return nil, &ExtractionError{Reason: "missing summary", Fragment: truncate(jsonText, 100)}
	}

	for i := range result.Tasks {
		result.Tasks[i].Priority = NormalizePriority(result.Tasks[i].Priority)
	}
	return &result, nil
}

// NormalizePriority maps anything outside the accepted set to medium. The
// lenient default mirrors the priority rules given to the engine: an
// out-of-set value is engine noise, not a reason to drop the task.
func NormalizePriority(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case model.PriorityLow:
		return model.PriorityLow
	case model.PriorityHigh:
		return model.PriorityHigh
	case model.PriorityUrgent:
		return model.PriorityUrgent
	default:
		return model.PriorityMedium
	}
}

var fenceRe = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// stripJSONFence unwraps a ```json fenced block if the engine added one.
func stripJSONFence(text string) string {
	text = strings.TrimSpace(text)
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

// callChatCompletion sends a prompt to the Groq chat-completions API in
// JSON mode and returns the reply content. Retries transparently on 429.
// Kept as a package function so tests can patch it.
var callChatCompletion = func(prompt string) (string, error) {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		log.Println("ERROR: GROQ_API_KEY environment variable is not set")
		return "", fmt.Errorf("GROQ_API_KEY environment variable is not set")
	}

	llmModel := os.Getenv("GROQ_MODEL")
	if llmModel == "" {
		llmModel = "llama-3.3-70b-versatile"
	}

	reqBody, err := json.Marshal(map[string]interface{}{
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"model":       llmModel,
		"temperature": 0.3,
		"max_tokens":  2000,
		"response_format": map[string]string{
			"type": "json_object",
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create request body: %w", err)
	}

	// Retry logic for rate limiting
	const maxRetries = 3
	var resp *http.Response
	for attempt := 0; attempt < maxRetries; attempt++ {
		req, err := http.NewRequest("POST", "https://api.groq.com/openai/v1/chat/completions", bytes.NewBuffer(reqBody))
		if err != nil {
			return "", fmt.Errorf("failed to create chat-completion request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+apiKey)
		req.Header.Set("Content-Type", "application/json")

		client := &http.Client{Timeout: 30 * time.Second}
		resp, err = client.Do(req)
		if err == nil && resp.StatusCode != 429 { // 429 is Too Many Requests
			break
		}
		if err != nil {
			log.Printf("ERROR sending chat-completion request (attempt %d): %v", attempt+1, err)
		} else if resp.StatusCode == 429 {
			log.Printf("Rate limit hit (attempt %d), status: %s", attempt+1, resp.Status)
			resp.Body.Close()
		}
		if attempt < maxRetries-1 {
			waitTime := time.Duration(10*(attempt+1)) * time.Second
			log.Printf("Retrying in %v...", waitTime)
			time.Sleep(waitTime)
		}
	}
	if resp == nil {
		return "", fmt.Errorf("chat-completion request failed after %d attempts", maxRetries)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Non-200 status code: %d, status: %s", resp.StatusCode, resp.Status)
		return "", fmt.Errorf("chat-completion request failed with status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read chat-completion response: %w", err)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		log.Printf("ERROR parsing chat-completion response structure: %v", err)
		return "", &ExtractionError{Reason: "malformed engine envelope", Fragment: truncate(string(body), 100)}
	}
	if len(result.Choices) == 0 {
		return "", &ExtractionError{Reason: "empty response"}
	}
	return result.Choices[0].Message.Content, nil
}

package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// StructuredNote is the typed result of the explicit /note flow.
type StructuredNote struct {
	Title   *string  `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

const tasksPrompt = `You are an assistant for structuring thoughts. Reply ONLY with valid JSON, no explanations or markdown.

Text: %s
Today: %s

Extract ALL tasks from the text. Return a JSON object:
{"tasks": [{"title": "task description", "priority": "low/medium/high/urgent", "due_date": "YYYY-MM-DD or null"}]}

Date rules:
- "tomorrow" -> tomorrow's date
- "on Monday" -> next Monday
- "next week" -> Monday of next week
- Not specified -> null

Priority rules:
- "urgent", "asap", "critical" -> urgent
- "important", "priority" -> high
- Default -> medium
- "someday", "not urgent" -> low

IMPORTANT: Return ONLY the JSON, no markdown code blocks, no explanations.`

const meetingPrompt = `You are an assistant for structuring thoughts. Reply ONLY with valid JSON, no explanations or markdown.

Text: %s
Today: %s

Structure the text as a meeting. Return a JSON object:
{"title": "meeting title", "participants": ["name1", "name2"], "agenda": ["item1", "item2"], "goal": "meeting goal or null"}

IMPORTANT: Return ONLY the JSON, no markdown code blocks, no explanations.`

const notePrompt = `You are an assistant for structuring thoughts. Reply ONLY with valid JSON, no explanations or markdown.

Text: %s

Clean the text from filler words and extract tags. Return a JSON object:
{"title": "short title or null", "content": "cleaned text", "tags": ["tag1", "tag2"]}

IMPORTANT: Return ONLY the JSON, no markdown code blocks, no explanations.`

// StructureTasks turns an explicit /task message into task descriptors.
func (s *AssistantService) StructureTasks(text string, today time.Time) ([]ExtractedTask, error) {
	if !llmRateLimiter.Allow("structuring_call") {
		return nil, fmt.Errorf("rate limit exceeded for structuring calls")
	}

	log.Printf("[StructureTasks] Structuring text as tasks, length: %d", len(text))
	content, err := callChatCompletion(fmt.Sprintf(tasksPrompt, text, today.Format("2006-01-02")))
	if err != nil {
		return nil, err
	}

	var payload struct {
		Tasks []ExtractedTask `json:"tasks"`
	}
	jsonText := stripJSONFence(content)
	if err := json.Unmarshal([]byte(jsonText), &payload); err != nil {
		return nil, &ExtractionError{Reason: "invalid JSON", Fragment: truncate(jsonText, 100)}
	}
	for i := range payload.Tasks {
		payload.Tasks[i].Priority = NormalizePriority(payload.Tasks[i].Priority)
	}
	return payload.Tasks, nil
}

// StructureMeeting turns an explicit /meet message into one meeting descriptor.
func (s *AssistantService) StructureMeeting(text string, today time.Time) (*ExtractedMeeting, error) {
	if !llmRateLimiter.Allow("structuring_call") {
		return nil, fmt.Errorf("rate limit exceeded for structuring calls")
	}

	log.Printf("[StructureMeeting] Structuring text as meeting, length: %d", len(text))
	content, err := callChatCompletion(fmt.Sprintf(meetingPrompt, text, today.Format("2006-01-02")))
	if err != nil {
		return nil, err
	}

	var meeting ExtractedMeeting
	jsonText := stripJSONFence(content)
	if err := json.Unmarshal([]byte(jsonText), &meeting); err != nil {
		return nil, &ExtractionError{Reason: "invalid JSON", Fragment: truncate(jsonText, 100)}
	}
	if meeting.Title == "" {
		return nil, &ExtractionError{Reason: "missing meeting title", Fragment: truncate(jsonText, 100)}
	}
	return &meeting, nil
}

// StructureNote turns an explicit /note message into cleaned content plus tags.
func (s *AssistantService) StructureNote(text string) (*StructuredNote, error) {
	if !llmRateLimiter.Allow("structuring_call") {
		return nil, fmt.Errorf("rate limit exceeded for structuring calls")
	}

	log.Printf("[StructureNote] Structuring text as note, length: %d", len(text))
	content, err := callChatCompletion(fmt.Sprintf(notePrompt, text))
	if err != nil {
		return nil, err
	}

	var note StructuredNote
	jsonText := stripJSONFence(content)
	if err := json.Unmarshal([]byte(jsonText), &note); err != nil {
		return nil, &ExtractionError{Reason: "invalid JSON", Fragment: truncate(jsonText, 100)}
	}
	if note.Content == "" {
		note.Content = text
	}
	return &note, nil
}

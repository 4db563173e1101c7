package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	model "github.com/mkovaleva/ThoughtFlow/models"
)

// SearchResult is one cross-entity hit.
type SearchResult struct {
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"created_at"`
	IsDone     bool      `json:"is_done"`
}

const searchLimit = 10

// SearchEverything searches the user's tasks, notes, and meetings. Notes go
// through Elasticsearch when a client is configured; everything else (and
// notes as fallback) uses ILIKE against the database. Newest first, capped.
func (s *AssistantService) SearchEverything(userID, query string) ([]SearchResult, error) {
	results := []SearchResult{}
	pattern := "%" + query + "%"

	var tasks []model.Task
	if err := s.db.Where("user_id = ? AND title ILIKE ?", userID, pattern).
		Limit(searchLimit).Find(&tasks).Error; err != nil {
		log.Printf("[SearchEverything] Task search error: %v", err)
		return nil, err
	}
	for _, task := range tasks {
		results = append(results, SearchResult{
			EntityType: "task",
			EntityID:   task.ID,
			Title:      task.Title,
			CreatedAt:  task.CreatedAt,
			IsDone:     task.IsDone,
		})
	}

	noteResults, err := s.searchNotes(userID, query, pattern)
	if err != nil {
		return nil, err
	}
	results = append(results, noteResults...)

	var meetings []model.Meeting
	if err := s.db.Where("user_id = ? AND (title ILIKE ? OR agenda ILIKE ?)", userID, pattern, pattern).
		Limit(searchLimit).Find(&meetings).Error; err != nil {
		log.Printf("[SearchEverything] Meeting search error: %v", err)
		return nil, err
	}
	for _, meeting := range meetings {
		results = append(results, SearchResult{
			EntityType: "meeting",
			EntityID:   meeting.ID,
			Title:      meeting.Title,
			CreatedAt:  meeting.CreatedAt,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	if len(results) > searchLimit {
		results = results[:searchLimit]
	}
	return results, nil
}

// searchNotes prefers the Elasticsearch notes index and falls back to the
// database when the client is absent or the query fails.
func (s *AssistantService) searchNotes(userID, query, pattern string) ([]SearchResult, error) {
	if s.esClient != nil {
		hits, err := s.searchNotesES(userID, query)
		if err == nil {
			return hits, nil
		}
		log.Printf("[searchNotes] Elasticsearch search failed, falling back to database: %v", err)
	}

	var notes []model.Note
	if err := s.db.Where("user_id = ? AND (title ILIKE ? OR content ILIKE ?)", userID, pattern, pattern).
		Limit(searchLimit).Find(&notes).Error; err != nil {
		log.Printf("[searchNotes] Note search error: %v", err)
		return nil, err
	}

	results := make([]SearchResult, 0, len(notes))
	for _, note := range notes {
		title := note.Title
		if title == "" {
			title = truncate(note.Content, 50)
		}
		results = append(results, SearchResult{
			EntityType: "note",
			EntityID:   note.ID,
			Title:      title,
			CreatedAt:  note.CreatedAt,
		})
	}
	return results, nil
}

// searchNotesES queries the notes index, scoped to the user.
func (s *AssistantService) searchNotesES(userID, query string) ([]SearchResult, error) {
	searchQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":  query,
						"fields": []string{"title", "content", "raw_transcript"},
					},
				},
				"filter": map[string]interface{}{
					"term": map[string]interface{}{"user_id": userID},
				},
			},
		},
		"size": searchLimit,
	}
	body, err := json.Marshal(searchQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := s.esClient.Search(
		s.esClient.Search.WithContext(context.Background()),
		s.esClient.Search.WithIndex("notes"),
		s.esClient.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search failed: %s", res.String())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source struct {
					NoteID    string    `json:"note_id"`
					Title     string    `json:"title"`
					Content   string    `json:"content"`
					CreatedAt time.Time `json:"created_at"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := make([]SearchResult, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		title := hit.Source.Title
		if title == "" {
			title = truncate(hit.Source.Content, 50)
		}
		results = append(results, SearchResult{
			EntityType: "note",
			EntityID:   hit.Source.NoteID,
			Title:      title,
			CreatedAt:  hit.Source.CreatedAt,
		})
	}
	return results, nil
}

package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mkovaleva/ThoughtFlow/models"
)

// DBInterface defines the GORM-like surface the capture flow relies on,
// for mocking.
type DBInterface interface {
	Create(value interface{}) DBInterface
	Error() error
	Transaction(fn func(tx DBInterface) error) error
}

// MockDB implements DBInterface with testify/mock
type MockDB struct {
	mock.Mock
}

func (m *MockDB) Create(value interface{}) DBInterface {
	m.Called(value)
	return m
}

func (m *MockDB) Error() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockDB) Transaction(fn func(tx DBInterface) error) error {
	m.Called()
	return fn(m)
}

// TestCaptureService mirrors CaptureExtraction's transactional step order
// against DBInterface: note first, then dependents referencing its id, all
// inside one transaction.
type TestCaptureService struct {
	db DBInterface
}

func (s *TestCaptureService) CaptureExtraction(result *ExtractionResult, user models.User, projects []models.Project, rawText string) (string, error) {
	defaultProj := DefaultProject(projects)

	var noteID string
	err := s.db.Transaction(func(tx DBInterface) error {
		note := buildNote(result, user, defaultProj, rawText, nil, nil)
		note.ID = "note-fixed"
		if err := tx.Create(&note).Error(); err != nil {
			return err
		}
		noteID = note.ID

		for _, extracted := range result.Tasks {
			task := buildTask(extracted, user, projects, note.ID, rawText, nil)
			if err := tx.Create(&task).Error(); err != nil {
				return err
			}
		}
		for _, extracted := range result.Meetings {
			meeting := buildMeeting(extracted, user, note.ID, rawText, nil, nil)
			if err := tx.Create(&meeting).Error(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return noteID, nil
}

func TestCaptureExtractionFlow(t *testing.T) {
	result := &ExtractionResult{
		Summary: "Call John about the budget and set up a team meeting.",
		Tasks:   []ExtractedTask{{Title: "Call John about budget", Priority: "medium"}},
		Meetings: []ExtractedMeeting{
			{Title: "Team meeting", Participants: []string{"Alice", "Bob"}},
		},
	}

	t.Run("Success", func(t *testing.T) {
		mockDB := new(MockDB)
		mockDB.On("Transaction").Return(nil)

		var created []interface{}
		mockDB.On("Create", mock.Anything).
			Run(func(args mock.Arguments) {
				created = append(created, args.Get(0))
			}).
			Return(mockDB)
		mockDB.On("Error").Return(nil)

		service := &TestCaptureService{db: mockDB}
		noteID, err := service.CaptureExtraction(result, testUser(), testProjects(), "raw text")

		assert.NoError(t, err)
		assert.Equal(t, "note-fixed", noteID)
		assert.Len(t, created, 3)

		// Note first, dependents referencing its id afterwards.
		note, ok := created[0].(*models.Note)
		assert.True(t, ok)
		task, ok := created[1].(*models.Task)
		assert.True(t, ok)
		meeting, ok := created[2].(*models.Meeting)
		assert.True(t, ok)

		assert.Equal(t, note.ID, *task.SourceNoteID)
		assert.Equal(t, note.ID, *meeting.SourceNoteID)
		assert.Equal(t, note.UserID, task.UserID)
		assert.Equal(t, note.UserID, meeting.UserID)
	})

	t.Run("Create failure aborts the transaction", func(t *testing.T) {
		mockDB := new(MockDB)
		mockDB.On("Transaction").Return(nil)
		mockDB.On("Create", mock.Anything).Return(mockDB)
		mockDB.On("Error").Return(errors.New("db error"))

		service := &TestCaptureService{db: mockDB}
		noteID, err := service.CaptureExtraction(result, testUser(), testProjects(), "raw text")

		assert.Error(t, err)
		assert.Empty(t, noteID)
	})

	t.Run("No extractions still creates the note", func(t *testing.T) {
		mockDB := new(MockDB)
		mockDB.On("Transaction").Return(nil)

		var created []interface{}
		mockDB.On("Create", mock.Anything).
			Run(func(args mock.Arguments) {
				created = append(created, args.Get(0))
			}).
			Return(mockDB)
		mockDB.On("Error").Return(nil)

		service := &TestCaptureService{db: mockDB}
		noteID, err := service.CaptureExtraction(&ExtractionResult{Summary: "Just thinking out loud about my day"}, testUser(), testProjects(), "raw")

		assert.NoError(t, err)
		assert.NotEmpty(t, noteID)
		assert.Len(t, created, 1)
	})
}

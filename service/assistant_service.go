package services

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/elastic/go-elasticsearch/v8"
	"gorm.io/gorm"

	model "github.com/mkovaleva/ThoughtFlow/models"
)

// ErrUnknownUser is returned when the message sender has no user record.
// Nothing is persisted; the transport prompts the user to initialize first.
var ErrUnknownUser = errors.New("unknown user, initialize with /start first")

// ErrTranscriptionFailed marks a voice clip that could not be turned into
// text. Nothing is persisted; the transport asks the user to retry or type
// the message instead.
var ErrTranscriptionFailed = errors.New("voice transcription failed")

// AssistantService owns the message pipeline: routing, extraction,
// persistence, and projection, plus the listing and search operations the
// transport exposes.
type AssistantService struct {
	db          *gorm.DB
	esClient    *elasticsearch.Client
	s3Client    *s3.S3
	transcriber Transcriber

	sessions *SessionStore
	pending  *PendingStore

	compactAnswer bool
}

// NewAssistantService initializes the service with the database handle and
// the optional Elasticsearch and S3 clients. Both search indexing and voice
// archival degrade gracefully when unconfigured.
func NewAssistantService(db *gorm.DB) (*AssistantService, error) {
	svc := &AssistantService{
		db:            db,
		sessions:      NewSessionStore(),
		pending:       NewPendingStore(),
		compactAnswer: strings.EqualFold(os.Getenv("IS_COMPACT_ANSWER"), "true"),
		transcriber:   NewWhisperTranscriber(),
	}

	esURL := os.Getenv("ELASTICSEARCH_URL")
	if esURL != "" {
		esClient, err := elasticsearch.NewClient(elasticsearch.Config{
			Addresses: []string{esURL},
		})
		if err != nil {
			log.Printf("Warning: Failed to create Elasticsearch client: %v", err)
		} else {
			svc.esClient = esClient
		}
	}

	region := os.Getenv("SUPABASE_REGION")
	endpoint := os.Getenv("SUPABASE_S3_ENDPOINT")
	accessKey := os.Getenv("SUPABASE_ACCESS_KEY")
	secretKey := os.Getenv("SUPABASE_SECRET_KEY")
	if region != "" && endpoint != "" && accessKey != "" && secretKey != "" {
		sess, err := session.NewSession(&aws.Config{
			Region:           aws.String(region),
			Endpoint:         aws.String(endpoint),
			DisableSSL:       aws.Bool(false),
			Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
			S3ForcePathStyle: aws.Bool(true),
		})
		if err != nil {
			log.Printf("Warning: Failed to create AWS session: %v", err)
		} else {
			svc.s3Client = s3.New(sess)
		}
	} else {
		log.Println("Voice archival disabled: S3 configuration incomplete")
	}

	return svc, nil
}

// IncomingMessage is what the transport delivers: typed text, or a voice
// clip (already transcribed upstream, or raw bytes for the Whisper adapter)
// plus its metadata.
type IncomingMessage struct {
	ChatID        int64
	Username      string
	Text          string
	VoiceData     []byte
	VoiceFileID   *string
	VoiceDuration *int
}

// MessageResponse carries the projected reply plus the note id backing the
// transport's "open note" affordance (empty when no note was created).
type MessageResponse struct {
	Reply  string
	NoteID string
}

// ProcessMessage runs one message through the pipeline: resolve the sender,
// resolve text (transcribing voice if needed), route on conversational
// state, and execute the chosen branch. Each message is processed
// sequentially; failures are terminal for the message and leave persisted
// state untouched.
func (s *AssistantService) ProcessMessage(msg IncomingMessage) (*MessageResponse, error) {
	user, err := s.GetUserByChatID(msg.ChatID)
	if err != nil {
		return nil, err
	}

	text, voiceFileID, err := s.resolveMessageText(user.ID, msg)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("message carries no text")
	}

	state := s.sessions.Get(msg.ChatID)
	switch Route(state, text) {
	case RouteCommand:
		return s.handleCommand(msg.ChatID, text)
	case RouteTaskInput:
		s.sessions.Clear(msg.ChatID)
		reply, err := s.ProcessTaskInput(*user, text, voiceFileID)
		if err != nil {
			return nil, err
		}
		return &MessageResponse{Reply: reply}, nil
	case RouteMeetingInput:
		s.sessions.Clear(msg.ChatID)
		reply, err := s.ProcessMeetingInput(*user, text, voiceFileID, msg.VoiceDuration)
		if err != nil {
			return nil, err
		}
		return &MessageResponse{Reply: reply}, nil
	case RouteNoteInput:
		s.sessions.Clear(msg.ChatID)
		reply, err := s.ProcessNoteInput(*user, text, voiceFileID, msg.VoiceDuration)
		if err != nil {
			return nil, err
		}
		return &MessageResponse{Reply: reply}, nil
	default:
		return s.processAutoExtraction(*user, text, voiceFileID, msg.VoiceDuration)
	}
}

// resolveMessageText returns the message text, transcribing the voice clip
// when no text came with it. A freshly transcribed clip is also archived,
// best-effort, when the transport did not supply a file id.
func (s *AssistantService) resolveMessageText(userID string, msg IncomingMessage) (string, *string, error) {
	text := msg.Text
	voiceFileID := msg.VoiceFileID
	if text == "" && len(msg.VoiceData) > 0 {
		transcript, err := s.transcriber.Transcribe(msg.VoiceData)
		if err != nil {
			log.Printf("[resolveMessageText] Transcription error: %v", err)
			return "", nil, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
		}
		text = transcript

		if voiceFileID == nil && s.s3Client != nil {
			if key, err := s.StoreVoice(userID, msg.VoiceData); err != nil {
				log.Printf("[resolveMessageText] Voice archival error: %v", err)
			} else {
				voiceFileID = &key
			}
		}
	}
	return text, voiceFileID, nil
}

// GetUserByChatID resolves the sender. ErrUnknownUser stops processing
// before anything is persisted.
func (s *AssistantService) GetUserByChatID(chatID int64) (*model.User, error) {
	var user model.User
	if err := s.db.Where("chat_id = ?", chatID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return &user, nil
}

// processAutoExtraction is the free-form path: extract, persist the linked
// note/tasks/meetings atomically, project the reply.
func (s *AssistantService) processAutoExtraction(user model.User, text string, voiceFileID *string, voiceDuration *int) (*MessageResponse, error) {
	result, err := s.Extract(text, time.Now())
	if err != nil {
		return nil, err
	}

	projects, err := s.GetUserProjects(user.ID)
	if err != nil {
		return nil, err
	}

	noteID, err := s.CaptureExtraction(result, user, projects, text, voiceFileID, voiceDuration)
	if err != nil {
		return nil, err
	}

	return &MessageResponse{
		Reply:  FormatExtractionResponse(result, s.compactAnswer),
		NoteID: noteID,
	}, nil
}

// handleCommand reacts to command-marker messages. Commands only announce
// intent (setting the conversational state); the actual work happens when
// the follow-up message arrives.
func (s *AssistantService) handleCommand(chatID int64, text string) (*MessageResponse, error) {
	command := strings.Fields(strings.TrimSpace(text))[0]
	switch command {
	case "/task":
		s.sessions.Set(chatID, StateAwaitingTaskInput)
		return &MessageResponse{Reply: "Send a voice message or text with tasks"}, nil
	case "/meet":
		s.sessions.Set(chatID, StateAwaitingMeetingInput)
		return &MessageResponse{Reply: "Send a voice message or text about the meeting"}, nil
	case "/note":
		s.sessions.Set(chatID, StateAwaitingNoteInput)
		return &MessageResponse{Reply: "Send a voice message or text for the note"}, nil
	case "/cancel":
		s.sessions.Clear(chatID)
		return &MessageResponse{Reply: "Cancelled"}, nil
	default:
		return &MessageResponse{Reply: "Unknown command. Use /task, /meet or /note"}, nil
	}
}

package services

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
)

// StoreVoice archives a voice clip in the configured S3-compatible bucket
// and returns the object key, kept on the note/task as its voice file id.
func (s *AssistantService) StoreVoice(userID string, audio []byte) (string, error) {
	if s.s3Client == nil {
		return "", fmt.Errorf("voice storage is not configured")
	}

	bucket := os.Getenv("SUPABASE_BUCKET")
	if bucket == "" {
		log.Println("SUPABASE_BUCKET environment variable is not set")
		return "", fmt.Errorf("bucket name not configured")
	}

	key := fmt.Sprintf("voice/%s/%d-%s.ogg", userID, time.Now().Unix(), uuid.NewString()[:8])

	_, err := s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(audio),
		ContentType: aws.String("audio/ogg"),
	})
	if err != nil {
		log.Printf("[StoreVoice] S3 upload error: %v", err)
		return "", fmt.Errorf("failed to upload voice clip: %w", err)
	}

	log.Printf("[StoreVoice] Voice clip stored at %s", key)
	return key, nil
}

package quiz

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"consultant-hub/internal/assistant"
	"consultant-hub/internal/media"
	"consultant-hub/internal/models"
)

var ErrValidation = errors.New("invalid quiz submission")

const fallbackRecommendation = "Recommendations are unavailable right now. A consultant will review your answers."

// quizOwner groups quiz uploads that arrive without a logged-in consultant.
const anonymousOwner = "quiz"

type Answers struct {
	Answer1 string
	Answer2 string
	Answer3 string
}

type Service struct {
	db        *gorm.DB
	storage   *media.Storage
	assistant *assistant.Client
	log       *zap.Logger
}

func NewService(db *gorm.DB, storage *media.Storage, client *assistant.Client, log *zap.Logger) *Service {
	return &Service{db: db, storage: storage, assistant: client, log: log}
}

// Submit stores the quiz answers and asks the assistant for short
// recommendations. Assistant failure degrades to a fallback line; the
// submission row is stored either way.
func (s *Service) Submit(ctx context.Context, consultantID *string, a Answers, image *media.Upload) (*models.QuizSubmission, error) {
	if strings.TrimSpace(a.Answer1) == "" || strings.TrimSpace(a.Answer2) == "" {
		return nil, fmt.Errorf("%w: the first two answers are required", ErrValidation)
	}

	sub := &models.QuizSubmission{
		ID:           uuid.New().String(),
		ConsultantID: consultantID,
		Answer1:      a.Answer1,
		Answer2:      a.Answer2,
		Answer3:      a.Answer3,
	}

	var imagePart *assistant.ImagePart
	if image != nil {
		data, err := io.ReadAll(image.Data)
		if err != nil {
			return nil, err
		}
		owner := anonymousOwner
		if consultantID != nil {
			owner = *consultantID
		}
		stored, err := s.storage.Store(ctx, owner, image.Filename, image.ContentType, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		sub.ImagePath = stored.Path
		imagePart = &assistant.ImagePart{MimeType: stored.MimeType, Data: data}
	}

	sub.Recommendations = s.recommend(ctx, a, imagePart)

	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		if sub.ImagePath != "" {
			_ = s.storage.Remove(ctx, sub.ImagePath)
		}
		return nil, err
	}
	return sub, nil
}

func (s *Service) recommend(ctx context.Context, a Answers, image *assistant.ImagePart) string {
	prompt := fmt.Sprintf(
		"You are a health assistant. Analyze the following quiz answers and provide 3 short recommendations:\nQ1: %s\nQ2: %s\nQ3: %s",
		a.Answer1, a.Answer2, a.Answer3)

	text, err := s.assistant.Generate(ctx, prompt, image)
	if err != nil {
		if !errors.Is(err, assistant.ErrDisabled) {
			s.log.Warn("assistant recommendation failed", zap.Error(err))
		}
		return fallbackRecommendation
	}

	// Drop blank lines so templates can split on newlines directly.
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return fallbackRecommendation
	}
	return strings.Join(lines, "\n")
}

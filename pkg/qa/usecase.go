package qa

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lexaprendiz/lexaprendiz/pkg/llm"
	"github.com/lexaprendiz/lexaprendiz/pkg/metrics"
)

// DefaultSystemPrompt frames the model as a consultant on the apprenticeship law.
const DefaultSystemPrompt = "Você é LexAprendiz, um consultor jurídico, pedagógico e administrativo " +
	"especializado na Lei da Aprendizagem (Lei nº 10.097/2000) e na legislação brasileira sobre " +
	"aprendizagem profissional. Responda com clareza, formalidade e acessibilidade, citando fontes " +
	"legais quando possível."

// MaxQuestionRunes bounds what is sent to the model.
const MaxQuestionRunes = 4000

// UseCase covers asking questions and reading the caller's history.
type UseCase interface {
	Ask(ctx context.Context, userID uuid.UUID, question string) (Question, error)
	History(ctx context.Context, userID uuid.UUID, search string, limit, offset int) ([]Question, error)
}

type service struct {
	repo         Repository
	llm          llm.ChatModel
	systemPrompt string
	log          *zap.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewService(repo Repository, model llm.ChatModel, systemPrompt string, log *zap.Logger, m *metrics.Metrics) UseCase {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &service{
		repo:         repo,
		llm:          model,
		systemPrompt: systemPrompt,
		log:          log,
		metrics:      m,
		now:          time.Now,
	}
}

// Ask forwards the question to the model and stores the pair. Nothing is
// stored when the model fails.
func (s *service) Ask(ctx context.Context, userID uuid.UUID, question string) (Question, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Question{}, ErrEmptyQuestion
	}
	if utf8.RuneCountInString(question) > MaxQuestionRunes {
		return Question{}, ErrQuestionTooLong
	}

	start := s.now()
	answer, err := s.llm.Ask(ctx, s.systemPrompt, question)
	elapsed := s.now().Sub(start)
	if err != nil {
		s.metrics.Question(askOutcome(err), elapsed)
		s.log.Warn("llm request failed",
			zap.String("user_id", userID.String()),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return Question{}, err
	}
	s.metrics.Question("ok", elapsed)

	q := Question{
		ID:        uuid.New(),
		UserID:    userID,
		Content:   question,
		Response:  answer,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, q); err != nil {
		s.log.Error("persist question failed", zap.String("user_id", userID.String()), zap.Error(err))
		return Question{}, fmt.Errorf("save question: %w", err)
	}
	return q, nil
}

func (s *service) History(ctx context.Context, userID uuid.UUID, search string, limit, offset int) ([]Question, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, userID, strings.TrimSpace(search), limit, offset)
}

func askOutcome(err error) string {
	switch {
	case errors.Is(err, llm.ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, llm.ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "upstream_error"
	}
}

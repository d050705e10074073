package qa

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Question is one question/answer pair asked by a user.
type Question struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Content   string    `json:"content"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"createdAt"`
}

var (
	ErrEmptyQuestion   = errors.New("question is empty")
	ErrQuestionTooLong = errors.New("question is too long")
)

// Repository persists question/answer pairs.
type Repository interface {
	Create(ctx context.Context, q Question) error
	// ListByUser returns the newest first. search, when not empty, matches
	// content or response case-insensitively.
	ListByUser(ctx context.Context, userID uuid.UUID, search string, limit, offset int) ([]Question, error)
}

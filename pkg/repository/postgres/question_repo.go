package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexaprendiz/lexaprendiz/pkg/auth"
	"github.com/lexaprendiz/lexaprendiz/pkg/qa"
)

// QuestionRepository implements qa.Repository.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

func (r *QuestionRepository) Create(ctx context.Context, q qa.Question) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO questions (id, user_id, content, response, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, q.ID, q.UserID, q.Content, q.Response, q.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
		return auth.ErrNotFound
	}
	return err
}

func (r *QuestionRepository) ListByUser(ctx context.Context, userID uuid.UUID, search string, limit, offset int) ([]qa.Question, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, content, response, created_at
		FROM questions
		WHERE user_id = $1
		  AND ($2 = '' OR strpos(lower(content), lower($2)) > 0 OR strpos(lower(response), lower($2)) > 0)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`, userID, search, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []qa.Question{}
	for rows.Next() {
		var q qa.Question
		if err := rows.Scan(&q.ID, &q.UserID, &q.Content, &q.Response, &q.CreatedAt); err != nil {
			return nil, err
		}
		q.CreatedAt = q.CreatedAt.UTC()
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ qa.Repository = (*QuestionRepository)(nil)

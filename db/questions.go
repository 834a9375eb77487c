package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"quizbank-server/models"
)

const questionColumns = `id, title, options, correct_answer, category_id, image, difficulty, created_at, updated_at`

func scanQuestion(row pgx.Row) (models.Question, error) {
	var q models.Question
	err := row.Scan(&q.ID, &q.Title, &q.Options, &q.CorrectAnswer, &q.CategoryID, &q.Image, &q.Difficulty, &q.CreatedAt, &q.UpdatedAt)
	return q, err
}

func (s *PGStore) queryQuestions(ctx context.Context, sql string, args ...any) ([]models.Question, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	questions := []models.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question row: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (s *PGStore) ListQuestionsByCategories(ctx context.Context, categoryIDs []uuid.UUID) ([]models.Question, error) {
	return s.queryQuestions(ctx, `
		SELECT `+questionColumns+` FROM questions
		WHERE category_id = ANY($1::uuid[])
		ORDER BY created_at ASC, id
	`, uuidStrings(categoryIDs))
}

func (s *PGStore) GetQuestionsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Question, error) {
	return s.queryQuestions(ctx, `
		SELECT `+questionColumns+` FROM questions WHERE id = ANY($1::uuid[])
	`, uuidStrings(ids))
}

func (s *PGStore) GetQuestion(ctx context.Context, id uuid.UUID) (models.Question, error) {
	q, err := scanQuestion(s.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
	if err != nil {
		return models.Question{}, notFound(err)
	}
	return q, nil
}

func (s *PGStore) CountQuestionsByCategory(ctx context.Context, categoryID uuid.UUID) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions WHERE category_id = $1`, categoryID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count questions for category %s: %w", categoryID, err)
	}
	return n, nil
}

func (s *PGStore) CreateQuestion(ctx context.Context, q *models.Question) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO questions (id, title, options, correct_answer, category_id, image, difficulty)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, q.ID, q.Title, q.Options, q.CorrectAnswer, q.CategoryID, q.Image, q.Difficulty).Scan(&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert question: %w", err)
	}
	return nil
}

func (s *PGStore) UpdateQuestion(ctx context.Context, q *models.Question) error {
	err := s.pool.QueryRow(ctx, `
		UPDATE questions SET
			title = $1,
			options = $2,
			correct_answer = $3,
			image = $4,
			difficulty = $5,
			updated_at = NOW()
		WHERE id = $6
		RETURNING created_at, updated_at
	`, q.Title, q.Options, q.CorrectAnswer, q.Image, q.Difficulty, q.ID).Scan(&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return notFound(err)
	}
	return nil
}

func (s *PGStore) DeleteQuestion(ctx context.Context, id uuid.UUID) (models.Question, error) {
	q, err := scanQuestion(s.pool.QueryRow(ctx, `DELETE FROM questions WHERE id = $1 RETURNING `+questionColumns, id))
	if err != nil {
		return models.Question{}, notFound(err)
	}
	return q, nil
}

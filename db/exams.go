package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"quizbank-server/models"
)

const examColumns = `id, title, subject_id, category_ids::text[], question_ids::text[],
	duration, open_time, close_time, attempts, score_per_question, created_at`

func scanExam(row pgx.Row) (models.PracticeExam, error) {
	var (
		e           models.PracticeExam
		categoryIDs []string
		questionIDs []string
	)
	if err := row.Scan(&e.ID, &e.Title, &e.SubjectID, &categoryIDs, &questionIDs,
		&e.Duration, &e.OpenTime, &e.CloseTime, &e.Attempts, &e.ScorePerQuestion, &e.CreatedAt); err != nil {
		return models.PracticeExam{}, err
	}
	var err error
	if e.CategoryIDs, err = parseUUIDs(categoryIDs); err != nil {
		return models.PracticeExam{}, err
	}
	if e.QuestionIDs, err = parseUUIDs(questionIDs); err != nil {
		return models.PracticeExam{}, err
	}
	return e, nil
}

func (s *PGStore) queryExams(ctx context.Context, sql string, args ...any) ([]models.PracticeExam, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query practice exams: %w", err)
	}
	defer rows.Close()

	exams := []models.PracticeExam{}
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan practice exam: %w", err)
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

func (s *PGStore) ListExams(ctx context.Context) ([]models.PracticeExam, error) {
	return s.queryExams(ctx, `SELECT `+examColumns+` FROM practice_exams ORDER BY created_at DESC`)
}

func (s *PGStore) GetExamsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.PracticeExam, error) {
	return s.queryExams(ctx, `SELECT `+examColumns+` FROM practice_exams WHERE id = ANY($1::uuid[])`, uuidStrings(ids))
}

func (s *PGStore) GetExam(ctx context.Context, id uuid.UUID) (models.PracticeExam, error) {
	e, err := scanExam(s.pool.QueryRow(ctx, `SELECT `+examColumns+` FROM practice_exams WHERE id = $1`, id))
	if err != nil {
		return models.PracticeExam{}, notFound(err)
	}
	return e, nil
}

func (s *PGStore) CreateExam(ctx context.Context, e *models.PracticeExam) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.QuestionIDs == nil {
		e.QuestionIDs = []uuid.UUID{}
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO practice_exams (id, title, subject_id, category_ids, question_ids,
			duration, open_time, close_time, attempts, score_per_question)
		VALUES ($1, $2, $3, $4::uuid[], $5::uuid[], $6, $7, $8, $9, $10)
		RETURNING created_at
	`, e.ID, e.Title, e.SubjectID, uuidStrings(e.CategoryIDs), uuidStrings(e.QuestionIDs),
		e.Duration, e.OpenTime, e.CloseTime, e.Attempts, e.ScorePerQuestion).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert practice exam: %w", err)
	}
	return nil
}

func (s *PGStore) UpdateExam(ctx context.Context, e *models.PracticeExam) error {
	res, err := s.pool.Exec(ctx, `
		UPDATE practice_exams SET
			title = $1,
			subject_id = $2,
			category_ids = $3::uuid[],
			duration = $4,
			open_time = $5,
			close_time = $6,
			attempts = $7,
			score_per_question = $8
		WHERE id = $9
	`, e.Title, e.SubjectID, uuidStrings(e.CategoryIDs), e.Duration, e.OpenTime, e.CloseTime,
		e.Attempts, e.ScorePerQuestion, e.ID)
	if err != nil {
		return fmt.Errorf("failed to update practice exam %s: %w", e.ID, err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) DeleteExam(ctx context.Context, id uuid.UUID) error {
	res, err := s.pool.Exec(ctx, `DELETE FROM practice_exams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete practice exam %s: %w", id, err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) SetExamQuestions(ctx context.Context, examID uuid.UUID, ids []uuid.UUID) error {
	res, err := s.pool.Exec(ctx, `UPDATE practice_exams SET question_ids = $1::uuid[] WHERE id = $2`, uuidStrings(ids), examID)
	if err != nil {
		return fmt.Errorf("failed to update question sequence of exam %s: %w", examID, err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyShuffle writes the exam order and every rewritten question in one transaction.
func (s *PGStore) ApplyShuffle(ctx context.Context, examID uuid.UUID, order []uuid.UUID, questions []models.Question) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin shuffle transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	res, err := tx.Exec(ctx, `UPDATE practice_exams SET question_ids = $1::uuid[] WHERE id = $2`, uuidStrings(order), examID)
	if err != nil {
		return fmt.Errorf("failed to persist shuffled order for exam %s: %w", examID, err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}

	for _, q := range questions {
		if _, err := tx.Exec(ctx, `
			UPDATE questions SET options = $1, correct_answer = $2, updated_at = NOW() WHERE id = $3
		`, q.Options, q.CorrectAnswer, q.ID); err != nil {
			return fmt.Errorf("failed to persist shuffled options for question %s: %w", q.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit shuffle for exam %s: %w", examID, err)
	}
	return nil
}

// --- classes ---

const classColumns = `id, name, teacher_id, student_ids::text[], exam_ids::text[]`

func scanClass(row pgx.Row) (models.Class, error) {
	var (
		c        models.Class
		students []string
		exams    []string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.TeacherID, &students, &exams); err != nil {
		return models.Class{}, err
	}
	var err error
	if c.StudentIDs, err = parseUUIDs(students); err != nil {
		return models.Class{}, err
	}
	if c.ExamIDs, err = parseUUIDs(exams); err != nil {
		return models.Class{}, err
	}
	return c, nil
}

func (s *PGStore) queryClasses(ctx context.Context, sql string, args ...any) ([]models.Class, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query classes: %w", err)
	}
	defer rows.Close()

	classes := []models.Class{}
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan class: %w", err)
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

func (s *PGStore) ListClasses(ctx context.Context) ([]models.Class, error) {
	return s.queryClasses(ctx, `SELECT `+classColumns+` FROM classes ORDER BY name`)
}

func (s *PGStore) ListClassesByStudent(ctx context.Context, studentID uuid.UUID) ([]models.Class, error) {
	return s.queryClasses(ctx, `SELECT `+classColumns+` FROM classes WHERE $1 = ANY(student_ids) ORDER BY name`, studentID)
}

func (s *PGStore) GetClass(ctx context.Context, id uuid.UUID) (models.Class, error) {
	c, err := scanClass(s.pool.QueryRow(ctx, `SELECT `+classColumns+` FROM classes WHERE id = $1`, id))
	if err != nil {
		return models.Class{}, notFound(err)
	}
	return c, nil
}

func (s *PGStore) CreateClass(ctx context.Context, c *models.Class) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.StudentIDs == nil {
		c.StudentIDs = []uuid.UUID{}
	}
	if c.ExamIDs == nil {
		c.ExamIDs = []uuid.UUID{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO classes (id, name, teacher_id, student_ids, exam_ids)
		VALUES ($1, $2, $3, $4::uuid[], $5::uuid[])
	`, c.ID, c.Name, c.TeacherID, uuidStrings(c.StudentIDs), uuidStrings(c.ExamIDs))
	if err != nil {
		return fmt.Errorf("failed to insert class: %w", err)
	}
	return nil
}

func (s *PGStore) SaveClassMembers(ctx context.Context, c *models.Class) error {
	res, err := s.pool.Exec(ctx, `
		UPDATE classes SET student_ids = $1::uuid[], exam_ids = $2::uuid[] WHERE id = $3
	`, uuidStrings(c.StudentIDs), uuidStrings(c.ExamIDs), c.ID)
	if err != nil {
		return fmt.Errorf("failed to update class %s: %w", c.ID, err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- users ---

func (s *PGStore) FindUserByUsername(ctx context.Context, username string) (models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, password, role, name FROM users WHERE username = $1
	`, username).Scan(&u.ID, &u.Username, &u.Password, &u.Role, &u.Name)
	if err != nil {
		return models.User{}, notFound(err)
	}
	return u, nil
}

func (s *PGStore) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, password, role, name FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Username, &u.Password, &u.Role, &u.Name)
	if err != nil {
		return models.User{}, notFound(err)
	}
	return u, nil
}

func (s *PGStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, username, password, role, name) VALUES ($1, $2, $3, $4, $5)
	`, u.ID, u.Username, u.Password, u.Role, u.Name)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert user %s: %w", u.Username, err)
	}
	return nil
}

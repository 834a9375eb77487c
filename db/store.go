package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"quizbank-server/models"
)

var (
	// ErrNotFound is returned when a lookup by a well-formed id matches nothing.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("duplicate record")
)

// SubjectStore reads and seeds subjects.
type SubjectStore interface {
	ListSubjects(ctx context.Context) ([]models.Subject, error)
	GetSubject(ctx context.Context, id uuid.UUID) (models.Subject, error)
	CreateSubject(ctx context.Context, s *models.Subject) error
}

// CategoryStore manages categories.
type CategoryStore interface {
	ListCategories(ctx context.Context, subjectID uuid.UUID) ([]models.Category, error)
	GetCategoriesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	UpdateCategory(ctx context.Context, id uuid.UUID, name, description string) (models.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

// QuestionStore manages the question bank.
type QuestionStore interface {
	// ListQuestionsByCategories returns questions in ascending creation order.
	ListQuestionsByCategories(ctx context.Context, categoryIDs []uuid.UUID) ([]models.Question, error)
	// GetQuestionsByIDs returns the questions that exist, in no particular order.
	GetQuestionsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Question, error)
	GetQuestion(ctx context.Context, id uuid.UUID) (models.Question, error)
	CountQuestionsByCategory(ctx context.Context, categoryID uuid.UUID) (int, error)
	CreateQuestion(ctx context.Context, q *models.Question) error
	UpdateQuestion(ctx context.Context, q *models.Question) error
	// DeleteQuestion removes the question and returns what was removed.
	DeleteQuestion(ctx context.Context, id uuid.UUID) (models.Question, error)
}

// ExamStore manages practice exams.
type ExamStore interface {
	ListExams(ctx context.Context) ([]models.PracticeExam, error)
	GetExam(ctx context.Context, id uuid.UUID) (models.PracticeExam, error)
	GetExamsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.PracticeExam, error)
	CreateExam(ctx context.Context, e *models.PracticeExam) error
	// UpdateExam overwrites every field except the question sequence.
	UpdateExam(ctx context.Context, e *models.PracticeExam) error
	DeleteExam(ctx context.Context, id uuid.UUID) error
	// SetExamQuestions replaces the whole question sequence.
	SetExamQuestions(ctx context.Context, examID uuid.UUID, ids []uuid.UUID) error
	// ApplyShuffle persists a new question order and rewritten questions together.
	ApplyShuffle(ctx context.Context, examID uuid.UUID, order []uuid.UUID, questions []models.Question) error
}

// ClassStore manages classes.
type ClassStore interface {
	ListClasses(ctx context.Context) ([]models.Class, error)
	GetClass(ctx context.Context, id uuid.UUID) (models.Class, error)
	ListClassesByStudent(ctx context.Context, studentID uuid.UUID) ([]models.Class, error)
	CreateClass(ctx context.Context, c *models.Class) error
	// SaveClassMembers overwrites the student and exam sets.
	SaveClassMembers(ctx context.Context, c *models.Class) error
}

// UserStore looks up accounts.
type UserStore interface {
	FindUserByUsername(ctx context.Context, username string) (models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
}

// Store is the full persistence surface of the server.
type Store interface {
	SubjectStore
	CategoryStore
	QuestionStore
	ExamStore
	ClassStore
	UserStore
	Close()
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid stored id %q: %w", s, err)
		}
		out = append(out, id)
	}
	return out, nil
}

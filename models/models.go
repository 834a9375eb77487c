package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Difficulty levels a question can carry.
const (
	DifficultyEasy     = "Easy"
	DifficultyMedium   = "Medium"
	DifficultyHard     = "Hard"
	DifficultyVeryHard = "Very Hard"
)

// Roles a user can hold.
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// difficultyAliases maps the labels used by older spreadsheets onto the canonical values.
var difficultyAliases = map[string]string{
	"easy":       DifficultyEasy,
	"medium":     DifficultyMedium,
	"hard":       DifficultyHard,
	"very hard":  DifficultyVeryHard,
	"very-hard":  DifficultyVeryHard,
	"dễ":         DifficultyEasy,
	"trung bình": DifficultyMedium,
	"khó":        DifficultyHard,
	"rất khó":    DifficultyVeryHard,
}

// ParseDifficulty returns the canonical difficulty for s and whether s named one.
func ParseDifficulty(s string) (string, bool) {
	d, ok := difficultyAliases[normalizeLabel(s)]
	return d, ok
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// NormalizeDifficulty falls back to Medium for anything that is not a known level.
func NormalizeDifficulty(s string) string {
	if d, ok := ParseDifficulty(s); ok {
		return d
	}
	return DifficultyMedium
}

// Subject is the top-level grouping (a course).
type Subject struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Category groups questions within a subject.
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	SubjectID   uuid.UUID `json:"subjectId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Question is a single multiple-choice item in a category's bank.
type Question struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Options       []string  `json:"options"`
	CorrectAnswer int       `json:"correctAnswer"`
	CategoryID    uuid.UUID `json:"categoryId"`
	Image         *string   `json:"image"` // stored filename, nil when absent
	Difficulty    string    `json:"difficulty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ValidAnswer reports whether CorrectAnswer indexes into Options.
func (q Question) ValidAnswer() bool {
	return q.CorrectAnswer >= 0 && q.CorrectAnswer < len(q.Options)
}

// QuestionView is a question with its derived display URL.
type QuestionView struct {
	Question
	ImageURL *string `json:"imageUrl"`
}

// PracticeExam is an ordered assembly of bank questions.
type PracticeExam struct {
	ID               uuid.UUID   `json:"id"`
	Title            string      `json:"title"`
	SubjectID        uuid.UUID   `json:"subjectId"`
	CategoryIDs      []uuid.UUID `json:"categoryIds"`
	QuestionIDs      []uuid.UUID `json:"questionIds"` // order is significant
	Duration         int         `json:"duration"`    // minutes
	OpenTime         *time.Time  `json:"openTime"`
	CloseTime        *time.Time  `json:"closeTime"`
	Attempts         int         `json:"attempts"`
	ScorePerQuestion float64     `json:"scorePerQuestion"`
	CreatedAt        time.Time   `json:"createdAt"`
}

// HasCategory reports whether id is one of the exam's categories.
func (e PracticeExam) HasCategory(id uuid.UUID) bool {
	for _, c := range e.CategoryIDs {
		if c == id {
			return true
		}
	}
	return false
}

// NamedRef is a populated reference (id plus display name).
type NamedRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ExamDetail is an exam with its subject and categories populated.
type ExamDetail struct {
	PracticeExam
	Subject    *NamedRef  `json:"subject"`
	Categories []NamedRef `json:"categories"`
}

// Class scopes exam visibility to enrolled students.
type Class struct {
	ID         uuid.UUID   `json:"id"`
	Name       string      `json:"name"`
	TeacherID  *uuid.UUID  `json:"teacherId"`
	StudentIDs []uuid.UUID `json:"studentIds"`
	ExamIDs    []uuid.UUID `json:"examIds"`
}

// ClassView is a class with its teacher populated.
type ClassView struct {
	Class
	Teacher *UserRef `json:"teacher"`
}

// User is an account. Password is stored as configured by the credential scheme.
type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Password string    `json:"-"`
	Role     string    `json:"role"`
	Name     string    `json:"name"`
}

// UserRef is the public projection of a user.
type UserRef struct {
	ID       uuid.UUID `json:"id,omitempty"`
	Username string    `json:"username"`
	Name     string    `json:"name"`
	Role     string    `json:"role,omitempty"`
}

// Attempt is one completed run of a student through an exam.
type Attempt struct {
	ExamID      uuid.UUID      `json:"examId"`
	Score       int            `json:"score"`
	Total       int            `json:"total"`
	Answers     map[string]int `json:"answers"` // question id -> chosen option index
	CompletedAt time.Time      `json:"completedAt"`
}

// --- request/response shapes ---

// CategoryRequest creates or updates a category.
type CategoryRequest struct {
	Name        string `json:"name" binding:"required,notblank"`
	Description string `json:"description"`
}

// ExamRequest creates or updates an exam. Numeric fields arrive loosely typed
// and are parsed with defaults.
type ExamRequest struct {
	Title            string   `json:"title"`
	Subject          string   `json:"subject"`
	Categories       []string `json:"categories"`
	Duration         any      `json:"duration"`
	Attempts         any      `json:"attempts"`
	ScorePerQuestion any      `json:"scorePerQuestion"`
	OpenTime         string   `json:"openTime"`
	CloseTime        string   `json:"closeTime"`
}

// AttachQuestionRequest creates a new question directly inside an exam.
type AttachQuestionRequest struct {
	Title         string   `json:"title" binding:"required,notblank"`
	Options       []string `json:"options" binding:"required,min=1"`
	CorrectAnswer *int     `json:"correctAnswer" binding:"required"`
	Difficulty    string   `json:"difficulty"`
	CategoryID    string   `json:"categoryId" binding:"omitempty,uuid"`
}

// BulkAttachRequest attaches existing bank questions by id.
type BulkAttachRequest struct {
	QuestionIDs []string `json:"questionIds"`
}

// RandomAttachRequest samples unattached bank questions.
type RandomAttachRequest struct {
	Count      int    `json:"count" binding:"required,gt=0"`
	CategoryID string `json:"categoryId" binding:"omitempty,uuid"`
}

// LoginRequest carries the credential pair.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ClassRequest creates a class.
type ClassRequest struct {
	Name      string `json:"name" binding:"required,notblank"`
	TeacherID string `json:"teacherId" binding:"omitempty,uuid"`
}

// ImportResult reports a spreadsheet import. Errors may be non-empty even when
// Imported is positive.
type ImportResult struct {
	Message  string   `json:"message"`
	Imported int      `json:"imported"`
	Errors   []string `json:"errors"`
}

// AnswerRequest records one answer during an attempt.
type AnswerRequest struct {
	QuestionID string `json:"questionId" binding:"required"`
	Answer     *int   `json:"answer" binding:"required"`
}

// ClassStudentRequest enrolls a student in a class.
type ClassStudentRequest struct {
	StudentID string `json:"studentId" binding:"required,uuid"`
}

// ClassExamRequest assigns an exam to a class.
type ClassExamRequest struct {
	ExamID string `json:"examId" binding:"required,uuid"`
}

// StudentExam is an exam as listed for an enrolled student.
type StudentExam struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	SubjectID uuid.UUID  `json:"subject"`
	Duration  int        `json:"duration"`
	OpenTime  *time.Time `json:"openTime"`
	CloseTime *time.Time `json:"closeTime"`
	Status    string     `json:"status"`
}

// QuestionFilter narrows a question listing.
type QuestionFilter struct {
	Difficulty string `form:"difficulty" binding:"omitempty,difficulty"`
}

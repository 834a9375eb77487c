package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizbank-server/models"
)

// pgFixture owns one subject and one category; everything created under them
// is removed when the test ends, so the tests can share a development database.
type pgFixture struct {
	ctx      context.Context
	store    *PGStore
	subject  models.Subject
	category models.Category
}

func newPGFixture(t *testing.T) *pgFixture {
	t.Helper()
	url := os.Getenv("QUIZBANK_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("QUIZBANK_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := InitDB(ctx, url)
	require.NoError(t, err)
	require.NoError(t, CreateSchema(ctx, pool))

	f := &pgFixture{ctx: ctx, store: NewPGStore(pool)}
	f.subject = models.Subject{Name: "pg-test-" + uuid.NewString()}
	require.NoError(t, f.store.CreateSubject(ctx, &f.subject))
	f.category = models.Category{Name: "Joins", SubjectID: f.subject.ID}
	require.NoError(t, f.store.CreateCategory(ctx, &f.category))

	t.Cleanup(func() {
		for _, sql := range []string{
			`DELETE FROM practice_exams WHERE subject_id = $1`,
			`DELETE FROM questions WHERE category_id IN (SELECT id FROM categories WHERE subject_id = $1)`,
			`DELETE FROM categories WHERE subject_id = $1`,
			`DELETE FROM subjects WHERE id = $1`,
		} {
			_, err := pool.Exec(ctx, sql, f.subject.ID)
			assert.NoError(t, err)
		}
		pool.Close()
	})
	return f
}

func (f *pgFixture) question(t *testing.T, title string) models.Question {
	t.Helper()
	q := models.Question{
		Title:         title,
		Options:       []string{title + "-0", title + "-1", title + "-2"},
		CorrectAnswer: 2,
		CategoryID:    f.category.ID,
		Difficulty:    models.DifficultyHard,
	}
	require.NoError(t, f.store.CreateQuestion(f.ctx, &q))
	return q
}

func (f *pgFixture) exam(t *testing.T, categoryIDs []uuid.UUID, questionIDs []uuid.UUID) models.PracticeExam {
	t.Helper()
	open := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	e := models.PracticeExam{
		Title:            "Final",
		SubjectID:        f.subject.ID,
		CategoryIDs:      categoryIDs,
		QuestionIDs:      questionIDs,
		Duration:         45,
		OpenTime:         &open,
		Attempts:         2,
		ScorePerQuestion: 0.5,
	}
	require.NoError(t, f.store.CreateExam(f.ctx, &e))
	return e
}

func TestPGStoreSubjectsAndUsers(t *testing.T) {
	f := newPGFixture(t)

	dup := models.Subject{Name: f.subject.Name}
	assert.True(t, errors.Is(f.store.CreateSubject(f.ctx, &dup), ErrDuplicate))

	got, err := f.store.GetSubject(f.ctx, f.subject.ID)
	require.NoError(t, err)
	assert.Equal(t, f.subject.Name, got.Name)
	_, err = f.store.GetSubject(f.ctx, uuid.New())
	assert.True(t, errors.Is(err, ErrNotFound))

	u := models.User{Username: "pg-user-" + uuid.NewString(), Password: "secret", Role: models.RoleStudent, Name: "Pat"}
	require.NoError(t, f.store.CreateUser(f.ctx, &u))
	t.Cleanup(func() { f.store.pool.Exec(f.ctx, `DELETE FROM users WHERE id = $1`, u.ID) })

	again := models.User{Username: u.Username, Password: "other", Role: models.RoleTeacher}
	assert.True(t, errors.Is(f.store.CreateUser(f.ctx, &again), ErrDuplicate))

	found, err := f.store.FindUserByUsername(f.ctx, u.Username)
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
	_, err = f.store.FindUserByUsername(f.ctx, "nobody-"+uuid.NewString())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPGStoreQuestions(t *testing.T) {
	f := newPGFixture(t)
	q := f.question(t, "inner")

	got, err := f.store.GetQuestion(f.ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.Options, got.Options)
	assert.Equal(t, 2, got.CorrectAnswer)
	assert.Equal(t, models.DifficultyHard, got.Difficulty)

	_, err = f.store.GetQuestion(f.ctx, uuid.New())
	assert.True(t, errors.Is(err, ErrNotFound))

	bad := models.Question{Title: "bad", Options: []string{"only"}, CorrectAnswer: 1, CategoryID: f.category.ID, Difficulty: models.DifficultyEasy}
	assert.Error(t, f.store.CreateQuestion(f.ctx, &bad), "correct_answer must index into options")

	orphan := models.Question{Title: "orphan", Options: []string{"x"}, CategoryID: uuid.New(), Difficulty: models.DifficultyEasy}
	assert.Error(t, f.store.CreateQuestion(f.ctx, &orphan))

	removed, err := f.store.DeleteQuestion(f.ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "inner", removed.Title)
	_, err = f.store.DeleteQuestion(f.ctx, q.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPGStoreExamKeepsIDOrder(t *testing.T) {
	f := newPGFixture(t)
	second := models.Category{Name: "Indexes", SubjectID: f.subject.ID}
	require.NoError(t, f.store.CreateCategory(f.ctx, &second))
	q1, q2, q3 := f.question(t, "q1"), f.question(t, "q2"), f.question(t, "q3")
	dangling := uuid.New()

	e := f.exam(t, []uuid.UUID{second.ID, f.category.ID}, []uuid.UUID{q3.ID, dangling, q1.ID})

	got, err := f.store.GetExam(f.ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{second.ID, f.category.ID}, got.CategoryIDs)
	assert.Equal(t, []uuid.UUID{q3.ID, dangling, q1.ID}, got.QuestionIDs)
	assert.Equal(t, 45, got.Duration)
	assert.Equal(t, 2, got.Attempts)
	require.NotNil(t, got.OpenTime)
	assert.True(t, e.OpenTime.Equal(*got.OpenTime))
	assert.Nil(t, got.CloseTime)

	order := []uuid.UUID{q2.ID, q1.ID, q3.ID}
	require.NoError(t, f.store.SetExamQuestions(f.ctx, e.ID, order))
	got, err = f.store.GetExam(f.ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, order, got.QuestionIDs)

	got.Title = "Renamed"
	got.QuestionIDs = nil
	require.NoError(t, f.store.UpdateExam(f.ctx, &got))
	got, err = f.store.GetExam(f.ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, order, got.QuestionIDs, "UpdateExam leaves the sequence alone")

	_, err = f.store.GetExam(f.ctx, uuid.New())
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(f.store.SetExamQuestions(f.ctx, uuid.New(), order), ErrNotFound))
	require.NoError(t, f.store.DeleteExam(f.ctx, e.ID))
	assert.True(t, errors.Is(f.store.DeleteExam(f.ctx, e.ID), ErrNotFound))
}

func TestPGStoreApplyShuffle(t *testing.T) {
	f := newPGFixture(t)
	q1, q2 := f.question(t, "q1"), f.question(t, "q2")
	e := f.exam(t, []uuid.UUID{f.category.ID}, []uuid.UUID{q1.ID, q2.ID})

	r1 := q1
	r1.Options = []string{"q1-2", "q1-0", "q1-1"}
	r1.CorrectAnswer = 0
	r2 := q2
	r2.Options = []string{"q2-1", "q2-2", "q2-0"}
	r2.CorrectAnswer = 1
	require.NoError(t, f.store.ApplyShuffle(f.ctx, e.ID, []uuid.UUID{q2.ID, q1.ID}, []models.Question{r1, r2}))

	got, err := f.store.GetExam(f.ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{q2.ID, q1.ID}, got.QuestionIDs)
	for _, want := range []models.Question{r1, r2} {
		stored, err := f.store.GetQuestion(f.ctx, want.ID)
		require.NoError(t, err)
		assert.Equal(t, want.Options, stored.Options)
		assert.Equal(t, want.CorrectAnswer, stored.CorrectAnswer)
		assert.Equal(t, want.Title+"-2", stored.Options[stored.CorrectAnswer])
	}

	// A rejected rewrite rolls back the order written earlier in the transaction.
	broken := r1
	broken.CorrectAnswer = 5
	err = f.store.ApplyShuffle(f.ctx, e.ID, []uuid.UUID{q1.ID, q2.ID}, []models.Question{broken})
	require.Error(t, err)
	got, err = f.store.GetExam(f.ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{q2.ID, q1.ID}, got.QuestionIDs)

	err = f.store.ApplyShuffle(f.ctx, uuid.New(), nil, []models.Question{r1})
	assert.True(t, errors.Is(err, ErrNotFound))
}

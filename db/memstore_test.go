package db

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizbank-server/models"
)

func TestMemStoreQuestionsInCreationOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	cat := uuid.New()

	var ids []uuid.UUID
	for _, title := range []string{"first", "second", "third"} {
		q := models.Question{Title: title, Options: []string{"a"}, CategoryID: cat}
		require.NoError(t, s.CreateQuestion(ctx, &q))
		ids = append(ids, q.ID)
	}
	other := models.Question{Title: "elsewhere", Options: []string{"a"}, CategoryID: uuid.New()}
	require.NoError(t, s.CreateQuestion(ctx, &other))

	qs, err := s.ListQuestionsByCategories(ctx, []uuid.UUID{cat})
	require.NoError(t, err)
	require.Len(t, qs, 3)
	for i, q := range qs {
		assert.Equal(t, ids[i], q.ID)
	}

	n, err := s.CountQuestionsByCategory(ctx, cat)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestMemStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	q := models.Question{Title: "q", Options: []string{"a", "b"}, CategoryID: uuid.New()}
	require.NoError(t, s.CreateQuestion(ctx, &q))

	got, err := s.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	got.Options[0] = "mutated"

	again, err := s.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", again.Options[0])
}

func TestMemStoreGetQuestionsByIDsSkipsMissing(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	q := models.Question{Title: "q", Options: []string{"a"}, CategoryID: uuid.New()}
	require.NoError(t, s.CreateQuestion(ctx, &q))

	qs, err := s.GetQuestionsByIDs(ctx, []uuid.UUID{uuid.New(), q.ID, q.ID})
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, q.ID, qs[0].ID)
}

func TestMemStoreUpdateExamKeepsQuestions(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	e := models.PracticeExam{Title: "Quiz"}
	require.NoError(t, s.CreateExam(ctx, &e))
	assert.NotNil(t, e.QuestionIDs)

	order := []uuid.UUID{uuid.New(), uuid.New()}
	require.NoError(t, s.SetExamQuestions(ctx, e.ID, order))

	e.Title = "Renamed"
	e.QuestionIDs = nil
	require.NoError(t, s.UpdateExam(ctx, &e))

	got, err := s.GetExam(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, order, got.QuestionIDs)

	assert.ErrorIs(t, s.UpdateExam(ctx, &models.PracticeExam{ID: uuid.New()}), ErrNotFound)
	assert.ErrorIs(t, s.SetExamQuestions(ctx, uuid.New(), order), ErrNotFound)
}

func TestMemStoreApplyShuffle(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	q := models.Question{Title: "q", Options: []string{"a", "b", "c"}, CorrectAnswer: 0, CategoryID: uuid.New()}
	require.NoError(t, s.CreateQuestion(ctx, &q))
	e := models.PracticeExam{Title: "Quiz", QuestionIDs: []uuid.UUID{q.ID}}
	require.NoError(t, s.CreateExam(ctx, &e))

	rewritten := q
	rewritten.Title = "ignored"
	rewritten.Options = []string{"c", "a", "b"}
	rewritten.CorrectAnswer = 1
	require.NoError(t, s.ApplyShuffle(ctx, e.ID, []uuid.UUID{q.ID}, []models.Question{rewritten}))

	got, err := s.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "q", got.Title, "only options and answer are rewritten")
	assert.Equal(t, []string{"c", "a", "b"}, got.Options)
	assert.Equal(t, 1, got.CorrectAnswer)
}

func TestMemStoreClassesByStudent(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	student := uuid.New()

	a := models.Class{Name: "B-class", StudentIDs: []uuid.UUID{student}}
	b := models.Class{Name: "A-class"}
	require.NoError(t, s.CreateClass(ctx, &a))
	require.NoError(t, s.CreateClass(ctx, &b))

	all, err := s.ListClasses(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A-class", all[0].Name)
	assert.NotNil(t, all[0].StudentIDs)

	mine, err := s.ListClassesByStudent(ctx, student)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, a.ID, mine[0].ID)

	b.StudentIDs = []uuid.UUID{student}
	require.NoError(t, s.SaveClassMembers(ctx, &b))
	mine, err = s.ListClassesByStudent(ctx, student)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestMemStoreUsers(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	u := models.User{Username: "ana", Password: "pw", Role: models.RoleStudent}
	require.NoError(t, s.CreateUser(ctx, &u))
	assert.ErrorIs(t, s.CreateUser(ctx, &models.User{Username: "ana"}), ErrDuplicate)

	found, err := s.FindUserByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	_, err = s.FindUserByUsername(ctx, "ANA")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetUser(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

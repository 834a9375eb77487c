package attempt

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

func TestKeyString(t *testing.T) {
	id := uuid.MustParse("8a3c6a0e-2f4b-4f3e-9b7a-1c2d3e4f5a6b")
	k := Key{Owner: "alice", ExamID: id, Kind: KindAnswers}
	assert.Equal(t, "attempt:alice:exam-8a3c6a0e-2f4b-4f3e-9b7a-1c2d3e4f5a6b-answers", k.String())
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	k := Key{Owner: "bob", ExamID: uuid.New(), Kind: KindHistory}

	_, err := s.Get(ctx, k)
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Set(ctx, k, []byte("v1")))
	v, err := s.Get(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(v))

	require.NoError(t, s.Delete(ctx, k))
	_, err = s.Get(ctx, k)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStartFixesDeadlineOnce(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(NewMemoryStore())
	examID := uuid.New()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	deadline, err := tr.Start(ctx, "alice", examID, 30*time.Minute, 0, now)
	require.NoError(t, err)
	assert.True(t, deadline.Equal(now.Add(30*time.Minute)))

	again, err := tr.Start(ctx, "alice", examID, 90*time.Minute, 0, now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.True(t, again.Equal(deadline), "a running attempt keeps its deadline")

	other, err := tr.Start(ctx, "bob", examID, 90*time.Minute, 0, now)
	require.NoError(t, err)
	assert.True(t, other.Equal(now.Add(90*time.Minute)), "owners are independent")
}

func TestAnswerRequiresStart(t *testing.T) {
	tr := NewTracker(NewMemoryStore())
	_, err := tr.Answer(context.Background(), "alice", uuid.New(), uuid.New(), 1)
	assert.True(t, errors.Is(err, ErrNotStarted))
}

func TestSubmitScoresAndClears(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	tr := NewTracker(store)
	examID := uuid.New()
	now := time.Now()

	questions := []models.Question{
		{ID: uuid.New(), Options: []string{"a", "b"}, CorrectAnswer: 0},
		{ID: uuid.New(), Options: []string{"a", "b"}, CorrectAnswer: 1},
		{ID: uuid.New(), Options: []string{"a", "b", "c"}, CorrectAnswer: 2},
	}

	_, err := tr.Start(ctx, "alice", examID, time.Hour, 0, now)
	require.NoError(t, err)
	_, err = tr.Answer(ctx, "alice", examID, questions[0].ID, 0)
	require.NoError(t, err)
	_, err = tr.Answer(ctx, "alice", examID, questions[1].ID, 0)
	require.NoError(t, err)
	answers, err := tr.Answer(ctx, "alice", examID, questions[1].ID, 1)
	require.NoError(t, err)
	assert.Len(t, answers, 2, "re-answering overwrites")

	result, err := tr.Submit(ctx, "alice", examID, questions, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Score)
	assert.Equal(t, 3, result.Total)

	history, err := tr.History(ctx, "alice", examID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 2, history[0].Score)

	_, err = store.Get(ctx, Key{Owner: "alice", ExamID: examID, Kind: KindAnswers})
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = store.Get(ctx, Key{Owner: "alice", ExamID: examID, Kind: KindEndTime})
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = tr.Submit(ctx, "alice", examID, questions, now)
	assert.True(t, errors.Is(err, ErrNotStarted))
}

func TestStartEnforcesAttemptLimit(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(NewMemoryStore())
	examID := uuid.New()
	now := time.Now()

	_, err := tr.Start(ctx, "alice", examID, time.Hour, 1, now)
	require.NoError(t, err)
	_, err = tr.Submit(ctx, "alice", examID, nil, now)
	require.NoError(t, err)

	_, err = tr.Start(ctx, "alice", examID, time.Hour, 1, now)
	assert.True(t, errors.Is(err, ErrNoAttemptsLeft))

	_, err = tr.Start(ctx, "alice", examID, time.Hour, 0, now)
	assert.NoError(t, err, "zero means unlimited")
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("QUIZBANK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("QUIZBANK_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client, err := InitRedis(ctx, addr, "", 0)
	require.NoError(t, err)
	defer client.Close()

	s := NewRedisStore(client, time.Minute)
	k := Key{Owner: "redis-test", ExamID: uuid.New(), Kind: KindAnswers}
	defer s.Delete(ctx, k)

	_, err = s.Get(ctx, k)
	assert.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, s.Set(ctx, k, []byte(`{"q":1}`)))
	v, err := s.Get(ctx, k)
	require.NoError(t, err)
	assert.JSONEq(t, `{"q":1}`, string(v))
	require.NoError(t, s.Delete(ctx, k))
	_, err = s.Get(ctx, k)
	assert.True(t, errors.Is(err, ErrNotFound))
}

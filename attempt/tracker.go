package attempt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"quizbank-server/models"
)

// ErrNoAttemptsLeft is returned by Start when the owner used up the exam's attempts.
var ErrNoAttemptsLeft = errors.New("no attempts left for this exam")

// ErrNotStarted is returned when answering or submitting without a running attempt.
var ErrNotStarted = errors.New("attempt has not been started")

// Tracker runs the lifecycle of one owner's attempt at an exam: a deadline
// is fixed on start, answers accumulate, and submit scores them into the
// history and clears the in-progress values.
type Tracker struct {
	store Store
}

func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

func key(owner string, examID uuid.UUID, kind Kind) Key {
	return Key{Owner: owner, ExamID: examID, Kind: kind}
}

// Start returns the attempt deadline, fixing it at now+duration on the first
// call and reusing it afterwards. maxAttempts <= 0 means unlimited.
func (t *Tracker) Start(ctx context.Context, owner string, examID uuid.UUID, duration time.Duration, maxAttempts int, now time.Time) (time.Time, error) {
	raw, err := t.store.Get(ctx, key(owner, examID, KindEndTime))
	switch {
	case err == nil:
		ms, perr := strconv.ParseInt(string(raw), 10, 64)
		if perr == nil {
			return time.UnixMilli(ms), nil
		}
		// Unreadable deadline: start over.
	case !errors.Is(err, ErrNotFound):
		return time.Time{}, err
	}

	if maxAttempts > 0 {
		history, err := t.History(ctx, owner, examID)
		if err != nil {
			return time.Time{}, err
		}
		if len(history) >= maxAttempts {
			return time.Time{}, ErrNoAttemptsLeft
		}
	}

	deadline := now.Add(duration).Truncate(time.Millisecond)
	if err := t.store.Set(ctx, key(owner, examID, KindEndTime), []byte(strconv.FormatInt(deadline.UnixMilli(), 10))); err != nil {
		return time.Time{}, err
	}
	return deadline, nil
}

// Deadline returns the running attempt's deadline.
func (t *Tracker) Deadline(ctx context.Context, owner string, examID uuid.UUID) (time.Time, error) {
	raw, err := t.store.Get(ctx, key(owner, examID, KindEndTime))
	if errors.Is(err, ErrNotFound) {
		return time.Time{}, ErrNotStarted
	}
	if err != nil {
		return time.Time{}, err
	}
	ms, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt deadline for %s: %w", key(owner, examID, KindEndTime), err)
	}
	return time.UnixMilli(ms), nil
}

// Answers returns the answers recorded so far, keyed by question id.
func (t *Tracker) Answers(ctx context.Context, owner string, examID uuid.UUID) (map[string]int, error) {
	answers := map[string]int{}
	if err := t.load(ctx, key(owner, examID, KindAnswers), &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

// Answer records option as the answer to questionID and returns all answers.
func (t *Tracker) Answer(ctx context.Context, owner string, examID, questionID uuid.UUID, option int) (map[string]int, error) {
	if _, err := t.Deadline(ctx, owner, examID); err != nil {
		return nil, err
	}
	answers, err := t.Answers(ctx, owner, examID)
	if err != nil {
		return nil, err
	}
	answers[questionID.String()] = option
	if err := t.save(ctx, key(owner, examID, KindAnswers), answers); err != nil {
		return nil, err
	}
	return answers, nil
}

// Submit scores the recorded answers against questions, appends the result to
// the history and clears the in-progress answers and deadline.
func (t *Tracker) Submit(ctx context.Context, owner string, examID uuid.UUID, questions []models.Question, now time.Time) (models.Attempt, error) {
	if _, err := t.Deadline(ctx, owner, examID); err != nil {
		return models.Attempt{}, err
	}
	answers, err := t.Answers(ctx, owner, examID)
	if err != nil {
		return models.Attempt{}, err
	}

	result := models.Attempt{
		ExamID:      examID,
		Total:       len(questions),
		Answers:     answers,
		CompletedAt: now.UTC(),
	}
	for _, q := range questions {
		if chosen, ok := answers[q.ID.String()]; ok && chosen == q.CorrectAnswer {
			result.Score++
		}
	}

	history, err := t.History(ctx, owner, examID)
	if err != nil {
		return models.Attempt{}, err
	}
	history = append(history, result)
	if err := t.save(ctx, key(owner, examID, KindHistory), history); err != nil {
		return models.Attempt{}, err
	}
	if err := t.store.Delete(ctx, key(owner, examID, KindAnswers), key(owner, examID, KindEndTime)); err != nil {
		return models.Attempt{}, err
	}
	return result, nil
}

// History returns completed attempts, oldest first.
func (t *Tracker) History(ctx context.Context, owner string, examID uuid.UUID) ([]models.Attempt, error) {
	history := []models.Attempt{}
	if err := t.load(ctx, key(owner, examID, KindHistory), &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (t *Tracker) load(ctx context.Context, k Key, v any) error {
	raw, err := t.store.Get(ctx, k)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("corrupt value at %s: %w", k, err)
	}
	return nil
}

func (t *Tracker) save(ctx context.Context, k Key, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", k, err)
	}
	return t.store.Set(ctx, k, data)
}

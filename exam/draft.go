package exam

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"quizbank-server/models"
)

const (
	DefaultDuration         = 60
	DefaultAttempts         = 1
	DefaultScorePerQuestion = 1.0
)

// timeLayouts are tried in order for open/close times. The last one is what an
// HTML datetime-local input submits.
var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"}

// BuildExam validates an exam request and turns it into an exam record with
// defaults applied. Every id is checked before the caller writes anything.
func BuildExam(req models.ExamRequest) (models.PracticeExam, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return models.PracticeExam{}, validationf("Title is required")
	}
	subjectID, err := uuid.Parse(strings.TrimSpace(req.Subject))
	if err != nil {
		return models.PracticeExam{}, validationf("A valid subject id is required")
	}
	if len(req.Categories) == 0 {
		return models.PracticeExam{}, validationf("At least one category is required")
	}
	categoryIDs := make([]uuid.UUID, 0, len(req.Categories))
	for _, raw := range req.Categories {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return models.PracticeExam{}, validationf("Invalid category id: %s", raw)
		}
		categoryIDs = append(categoryIDs, id)
	}

	openTime, err := parseOptionalTime(req.OpenTime)
	if err != nil {
		return models.PracticeExam{}, validationf("Invalid openTime: %s", req.OpenTime)
	}
	closeTime, err := parseOptionalTime(req.CloseTime)
	if err != nil {
		return models.PracticeExam{}, validationf("Invalid closeTime: %s", req.CloseTime)
	}
	if openTime != nil && closeTime != nil && closeTime.Before(*openTime) {
		return models.PracticeExam{}, validationf("closeTime must not be before openTime")
	}

	return models.PracticeExam{
		Title:            title,
		SubjectID:        subjectID,
		CategoryIDs:      categoryIDs,
		Duration:         intOrDefault(req.Duration, DefaultDuration),
		OpenTime:         openTime,
		CloseTime:        closeTime,
		Attempts:         intOrDefault(req.Attempts, DefaultAttempts),
		ScorePerQuestion: floatOrDefault(req.ScorePerQuestion, DefaultScorePerQuestion),
	}, nil
}

func parseOptionalTime(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.ParseInLocation(layout, s, time.Local)
		if err == nil {
			return &t, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// intOrDefault accepts JSON numbers and numeric strings. Zero, negative and
// unparsable values fall back to def.
func intOrDefault(v any, def int) int {
	n := def
	switch t := v.(type) {
	case float64:
		n = int(t)
	case int:
		n = t
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			n = parsed
		} else if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			n = int(f)
		}
	}
	if n <= 0 {
		return def
	}
	return n
}

func floatOrDefault(v any, def float64) float64 {
	f := def
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			f = parsed
		}
	}
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

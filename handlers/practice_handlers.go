package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"quizbank-server/attempt"
	"quizbank-server/exam"
	"quizbank-server/models"
)

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

func attemptOwner(c *gin.Context) (string, bool) {
	owner := strings.TrimSpace(c.Query("student"))
	if owner == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student query parameter is required"})
		return "", false
	}
	return owner, true
}

// StartAttempt opens (or resumes) a timed attempt. The exam must be inside
// its availability window.
// POST /api/practice/:id/start?student=
func StartAttempt(asm *exam.Assembler, tracker *attempt.Tracker, now Clock) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		owner, ok := attemptOwner(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		detail, err := asm.Get(ctx, id)
		if err != nil {
			respondError(c, "start attempt", err)
			return
		}
		t := now()
		status := exam.Availability(detail.PracticeExam, t)
		if status != exam.StatusOpen {
			c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Exam is not available (%s)", status), "status": status})
			return
		}
		deadline, err := tracker.Start(ctx, owner, id, time.Duration(detail.Duration)*time.Minute, detail.Attempts, t)
		if err != nil {
			respondError(c, "start attempt", err)
			return
		}
		remaining := int(deadline.Sub(t).Round(time.Second) / time.Second)
		if remaining < 0 {
			remaining = 0
		}
		c.JSON(http.StatusOK, gin.H{
			"examId":           id,
			"endTime":          deadline.UnixMilli(),
			"remainingSeconds": remaining,
			"status":           status,
		})
	}
}

// GetAnswers returns the answers recorded in the running attempt.
// GET /api/practice/:id/answers?student=
func GetAnswers(tracker *attempt.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		owner, ok := attemptOwner(c)
		if !ok {
			return
		}
		answers, err := tracker.Answers(c.Request.Context(), owner, id)
		if err != nil {
			respondError(c, "retrieve answers", err)
			return
		}
		c.JSON(http.StatusOK, answers)
	}
}

// SaveAnswer records one answer in the running attempt.
// PUT /api/practice/:id/answers?student=
func SaveAnswer(tracker *attempt.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		owner, ok := attemptOwner(c)
		if !ok {
			return
		}
		var req models.AnswerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindingError(c, err)
			return
		}
		questionID, err := uuid.Parse(strings.TrimSpace(req.QuestionID))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid questionId"})
			return
		}
		answers, err := tracker.Answer(c.Request.Context(), owner, id, questionID, *req.Answer)
		if err != nil {
			respondError(c, "save answer", err)
			return
		}
		c.JSON(http.StatusOK, answers)
	}
}

// SubmitAttempt scores the running attempt against the exam's current
// questions and moves it to the history.
// POST /api/practice/:id/submit?student=
func SubmitAttempt(asm *exam.Assembler, tracker *attempt.Tracker, now Clock) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		owner, ok := attemptOwner(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		questions, err := asm.ExamView(ctx, id)
		if err != nil {
			respondError(c, "submit attempt", err)
			return
		}
		result, err := tracker.Submit(ctx, owner, id, questions, now())
		if err != nil {
			respondError(c, "submit attempt", err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// AttemptHistory lists completed attempts, oldest first.
// GET /api/practice/:id/history?student=
func AttemptHistory(tracker *attempt.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		owner, ok := attemptOwner(c)
		if !ok {
			return
		}
		history, err := tracker.History(c.Request.Context(), owner, id)
		if err != nil {
			respondError(c, "retrieve attempt history", err)
			return
		}
		c.JSON(http.StatusOK, history)
	}
}

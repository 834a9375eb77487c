package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"quizbank-server/attempt"
	"quizbank-server/db"
	"quizbank-server/exam"
)

// respondError maps a failure onto a status code. Anything unclassified is a
// store or integration failure: it is logged with op and hidden from the caller.
func respondError(c *gin.Context, op string, err error) {
	var examErr *exam.Error
	switch {
	case errors.As(err, &examErr):
		c.JSON(statusForKind(examErr.Kind), gin.H{"error": examErr.Message})
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, attempt.ErrNotStarted):
		c.JSON(http.StatusConflict, gin.H{"error": "Attempt has not been started"})
	case errors.Is(err, attempt.ErrNoAttemptsLeft):
		c.JSON(http.StatusConflict, gin.H{"error": "No attempts left for this exam"})
	default:
		log.Printf("Error during %s: %v", op, err)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to %s", op)})
	}
}

func statusForKind(k exam.ErrorKind) int {
	switch k {
	case exam.KindValidation:
		return http.StatusBadRequest
	case exam.KindNotFound:
		return http.StatusNotFound
	case exam.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// paramID parses a path parameter as a uuid, answering 400 when it is malformed.
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s: %q", name, raw)})
		return uuid.Nil, false
	}
	return id, true
}

// optionalID parses a body field that may be empty.
func optionalID(raw string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// bindingError turns a binding failure into a short client message naming the field.
func bindingError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Field %s failed %s validation", fe.Field(), fe.Tag())})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

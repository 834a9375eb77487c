package exam

import (
	"time"

	"quizbank-server/models"
)

// Status describes whether an exam can be taken right now.
type Status string

const (
	StatusUnscheduled Status = "unscheduled"
	StatusNotOpen     Status = "not_open"
	StatusClosed      Status = "closed"
	StatusOpen        Status = "open"
)

// Availability evaluates the exam's window at now. An exam without an open
// time is unscheduled; a missing close time leaves the window open-ended.
func Availability(e models.PracticeExam, now time.Time) Status {
	if e.OpenTime == nil {
		return StatusUnscheduled
	}
	switch {
	case now.Before(*e.OpenTime):
		return StatusNotOpen
	case e.CloseTime != nil && now.After(*e.CloseTime):
		return StatusClosed
	default:
		return StatusOpen
	}
}

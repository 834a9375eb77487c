package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"quizbank-server/exam"
	"quizbank-server/models"
	"quizbank-server/storage"
)

// ListExams returns every practice exam with subject and category names.
// GET /api/practice-exams
func ListExams(asm *exam.Assembler) gin.HandlerFunc {
	return func(c *gin.Context) {
		exams, err := asm.List(c.Request.Context())
		if err != nil {
			respondError(c, "retrieve practice exams", err)
			return
		}
		c.JSON(http.StatusOK, exams)
	}
}

// GetExam returns one practice exam with subject and category names.
// GET /api/practice-exams/:id
func GetExam(asm *exam.Assembler) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		detail, err := asm.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, "retrieve practice exam", err)
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

// CreateExam creates an exam with no questions attached.
// POST /api/practice-exams
func CreateExam(asm *exam.Assembler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ExamRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindingError(c, err)
			return
		}
		created, err := asm.Create(c.Request.Context(), req)
		if err != nil {
			respondError(c, "create practice exam", err)
			return
		}
		c.JSON(http.StatusCreated, created)
	}
}

// UpdateExam replaces an exam's settings; attached questions are kept.
// PUT /api/practice-exams/:id
func UpdateExam(asm *exam.Assembler) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req models.ExamRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindingError(c, err)
			return
		}
		updated, err := asm.Update(c.Request.Context(), id, req)
		if err != nil {
			respondError(c, "update practice exam", err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

// DeleteExam removes an exam.
// DELETE /api/practice-exams/:id
func DeleteExam(asm *exam.Assembler) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := asm.Delete(c.Request.Context(), id); err != nil {
			respondError(c, "delete practice exam", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Practice exam deleted"})
	}
}

// BankQuestions lists every question in the exam's categories.
// GET /api/practice-exams/:id/all-questions
func BankQuestions(asm *exam.Assembler, assets *storage.LocalAssets) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		questions, err := asm.BankView(c.Request.Context(), id)
		if err != nil {
			respondError(c, "retrieve bank questions", err)
			return
		}
		c.JSON(http.StatusOK, questionViews(assets, questions))
	}
}

// ExamQuestions lists the attached questions in exam order.
// GET /api/practice-exams/:id/questions
func ExamQuestions(asm *exam.Assembler, assets *storage.LocalAssets) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		questions, err := asm.ExamView(c.Request.Context(), id)
		if err != nil {
			respondError(c, "retrieve exam questions", err)
			return
		}
		c.JSON(http.StatusOK, questionViews(assets, questions))
	}
}

// AttachNewQuestion creates a question and appends it to the exam.
// POST /api/practice-exams/:id/questions
func AttachNewQuestion(asm *exam.Assembler, assets *storage.LocalAssets) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req models.AttachQuestionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindingError(c, err)
			return
		}
		categoryID, err := optionalID(req.CategoryID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid categoryId"})
			return
		}
		q, err := asm.AttachNew(c.Request.Context(), id, models.Question{
			Title:         strings.TrimSpace(req.Title),
			Options:       req.Options,
			CorrectAnswer: *req.CorrectAnswer,
			Difficulty:    req.Difficulty,
		}, categoryID)
		if err != nil {
			respondError(c, "add question to exam", err)
			return
		}
		c.JSON(http.StatusCreated, questionView(assets, q))
	}
}

// AttachBulkQuestions attaches existing bank questions by id, all or nothing.
// POST /api/practice-exams/:id/questions/bulk
func AttachBulkQuestions(asm *exam.Assembler) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req models.BulkAttachRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "questionIds must be a non-empty array"})
			return
		}
		if len(req.QuestionIDs) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "questionIds must be a non-empty array"})
			return
		}
		ids := make([]uuid.UUID, 0, len(req.QuestionIDs))
		for _, raw := range req.QuestionIDs {
			qid, err := uuid.Parse(strings.TrimSpace(raw))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid question id: %q", raw)})
				return
			}
			ids = append(ids, qid)
		}
		added, err := asm.AttachBulk(c.Request.Context(), id, ids)
		if err != nil {
			respondError(c, "add questions to exam", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Added %d questions", added), "count": added})
	}
}

// AttachRandomQuestions attaches a random sample of unattached bank questions.
// POST /api/practice-exams/:id/questions/random
func AttachRandomQuestions(asm *exam.Assembler) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req models.RandomAttachRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindingError(c, err)
			return
		}
		categoryID, err := optionalID(req.CategoryID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid categoryId"})
			return
		}
		added, err := asm.AttachRandom(c.Request.Context(), id, req.Count, categoryID)
		if err != nil {
			respondError(c, "add random questions to exam", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Added %d questions", added), "count": added})
	}
}

// DetachQuestion removes a question from the exam; the bank keeps it.
// DELETE /api/practice-exams/:id/questions/:questionId
func DetachQuestion(asm *exam.Assembler) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		questionID, ok := paramID(c, "questionId")
		if !ok {
			return
		}
		if err := asm.Detach(c.Request.Context(), id, questionID); err != nil {
			respondError(c, "remove question from exam", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Question removed from exam"})
	}
}

// ShuffleExam randomizes question order and every question's option order.
// POST /api/practice-exams/:id/shuffle
func ShuffleExam(asm *exam.Assembler) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		count, err := asm.Shuffle(c.Request.Context(), id)
		if err != nil {
			respondError(c, "shuffle exam", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Exam shuffled", "count": count})
	}
}

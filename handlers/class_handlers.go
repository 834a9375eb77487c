package handlers

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"quizbank-server/db"
	"quizbank-server/exam"
	"quizbank-server/models"
)

// CreateClass creates an empty class.
// POST /api/classes
func CreateClass(store db.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ClassRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindingError(c, err)
			return
		}
		teacherID, err := optionalID(req.TeacherID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid teacherId"})
			return
		}
		ctx := c.Request.Context()
		if teacherID != nil {
			teacher, err := store.GetUser(ctx, *teacherID)
			if errors.Is(err, db.ErrNotFound) || (err == nil && teacher.Role != models.RoleTeacher) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "teacherId does not name a teacher"})
				return
			}
			if err != nil {
				respondError(c, "create class", err)
				return
			}
		}
		class := models.Class{Name: strings.TrimSpace(req.Name), TeacherID: teacherID}
		if err := store.CreateClass(ctx, &class); err != nil {
			respondError(c, "create class", err)
			return
		}
		c.JSON(http.StatusCreated, class)
	}
}

// ListClasses returns every class with its teacher's name and username.
// GET /api/classes
func ListClasses(store db.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		classes, err := store.ListClasses(ctx)
		if err != nil {
			respondError(c, "retrieve classes", err)
			return
		}
		teachers := map[uuid.UUID]*models.UserRef{}
		views := make([]models.ClassView, 0, len(classes))
		for _, class := range classes {
			view := models.ClassView{Class: class}
			if class.TeacherID != nil {
				ref, seen := teachers[*class.TeacherID]
				if !seen {
					u, err := store.GetUser(ctx, *class.TeacherID)
					if err != nil && !errors.Is(err, db.ErrNotFound) {
						respondError(c, "retrieve classes", err)
						return
					}
					if err == nil {
						ref = &models.UserRef{ID: u.ID, Username: u.Username, Name: u.Name}
					}
					teachers[*class.TeacherID] = ref
				}
				view.Teacher = ref
			}
			views = append(views, view)
		}
		c.JSON(http.StatusOK, views)
	}
}

// AddStudent enrolls a student; enrolling twice changes nothing.
// POST /api/classes/:classId/add-student
func AddStudent(store db.ClassStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		classID, ok := paramID(c, "classId")
		if !ok {
			return
		}
		var req models.ClassStudentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindingError(c, err)
			return
		}
		studentID := uuid.MustParse(req.StudentID)
		updateClassMembers(c, store, classID, "Student added to class", func(class *models.Class) {
			if !slices.Contains(class.StudentIDs, studentID) {
				class.StudentIDs = append(class.StudentIDs, studentID)
			}
		})
	}
}

// AddExam assigns an exam to a class; assigning twice changes nothing.
// POST /api/classes/:classId/add-exam
func AddExam(store db.ClassStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		classID, ok := paramID(c, "classId")
		if !ok {
			return
		}
		var req models.ClassExamRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindingError(c, err)
			return
		}
		examID := uuid.MustParse(req.ExamID)
		updateClassMembers(c, store, classID, "Exam assigned to class", func(class *models.Class) {
			if !slices.Contains(class.ExamIDs, examID) {
				class.ExamIDs = append(class.ExamIDs, examID)
			}
		})
	}
}

func updateClassMembers(c *gin.Context, store db.ClassStore, classID uuid.UUID, message string, mutate func(*models.Class)) {
	ctx := c.Request.Context()
	class, err := store.GetClass(ctx, classID)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Class not found"})
		return
	}
	if err != nil {
		respondError(c, "update class", err)
		return
	}
	mutate(&class)
	if err := store.SaveClassMembers(ctx, &class); err != nil {
		respondError(c, "update class", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "classItem": class})
}

// StudentExams lists the exams assigned to any class the student is in, with
// each exam's availability at now().
// GET /api/classes/student/:studentId/exams
func StudentExams(store db.Store, now Clock) gin.HandlerFunc {
	return func(c *gin.Context) {
		studentID, ok := paramID(c, "studentId")
		if !ok {
			return
		}
		ctx := c.Request.Context()
		classes, err := store.ListClassesByStudent(ctx, studentID)
		if err != nil {
			respondError(c, "retrieve student exams", err)
			return
		}
		var examIDs []uuid.UUID
		for _, class := range classes {
			for _, id := range class.ExamIDs {
				if !slices.Contains(examIDs, id) {
					examIDs = append(examIDs, id)
				}
			}
		}
		exams, err := store.GetExamsByIDs(ctx, examIDs)
		if err != nil {
			respondError(c, "retrieve student exams", err)
			return
		}
		byID := make(map[uuid.UUID]models.PracticeExam, len(exams))
		for _, e := range exams {
			byID[e.ID] = e
		}

		t := now()
		out := make([]models.StudentExam, 0, len(examIDs))
		for _, id := range examIDs {
			e, ok := byID[id]
			if !ok {
				continue
			}
			out = append(out, models.StudentExam{
				ID:        e.ID,
				Title:     e.Title,
				SubjectID: e.SubjectID,
				Duration:  e.Duration,
				OpenTime:  e.OpenTime,
				CloseTime: e.CloseTime,
				Status:    string(exam.Availability(e, t)),
			})
		}
		c.JSON(http.StatusOK, out)
	}
}

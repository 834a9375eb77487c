package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"quizbank-server/attempt"
	"quizbank-server/auth"
	"quizbank-server/db"
	"quizbank-server/exam"
	"quizbank-server/storage"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Store     db.Store
	Assets    *storage.LocalAssets
	Assembler *exam.Assembler
	Verifier  auth.CredentialVerifier
	// Tracker enables the /api/practice routes when non-nil.
	Tracker *attempt.Tracker
	// Now defaults to time.Now.
	Now Clock
}

// Register mounts every route on router.
func Register(router *gin.Engine, d Deps) {
	RegisterValidators()
	if d.Now == nil {
		d.Now = time.Now
	}

	router.Static(d.Assets.URLPrefix, d.Assets.Dir)

	api := router.Group("/api")
	{
		api.GET("/subjects", ListSubjects(d.Store))
		api.POST("/login", Login(d.Store, d.Verifier))
	}

	// Every wildcard here is :id because gin requires one name per segment;
	// on GET and POST /:id it names a subject, elsewhere a category.
	categories := api.Group("/categories")
	{
		categories.POST("/upload", UploadImage(d.Assets))
		categories.GET("/:id", ListCategories(d.Store))
		categories.POST("/:id", CreateCategory(d.Store))
		categories.PUT("/:id", UpdateCategory(d.Store))
		categories.DELETE("/:id", DeleteCategory(d.Store))
		categories.GET("/:id/questions", ListQuestions(d.Store, d.Assets, "id"))
	}

	questions := api.Group("/questions")
	{
		questions.GET("/:categoryId", ListQuestions(d.Store, d.Assets, "categoryId"))
		questions.POST("/:categoryId", CreateQuestion(d.Store, d.Assets))
		questions.POST("/:categoryId/import", ImportQuestions(d.Store))
	}
	// PUT and DELETE live in their own method trees, so :id does not clash.
	api.PUT("/questions/:id", UpdateQuestion(d.Store, d.Assets))
	api.DELETE("/questions/:id", DeleteQuestion(d.Store, d.Assets))

	exams := api.Group("/practice-exams")
	{
		exams.GET("", ListExams(d.Assembler))
		exams.POST("", CreateExam(d.Assembler))
		exams.GET("/:id", GetExam(d.Assembler))
		exams.PUT("/:id", UpdateExam(d.Assembler))
		exams.DELETE("/:id", DeleteExam(d.Assembler))
		exams.GET("/:id/all-questions", BankQuestions(d.Assembler, d.Assets))
		exams.GET("/:id/questions", ExamQuestions(d.Assembler, d.Assets))
		exams.POST("/:id/questions", AttachNewQuestion(d.Assembler, d.Assets))
		exams.POST("/:id/questions/bulk", AttachBulkQuestions(d.Assembler))
		exams.POST("/:id/questions/random", AttachRandomQuestions(d.Assembler))
		exams.DELETE("/:id/questions/:questionId", DetachQuestion(d.Assembler))
		exams.POST("/:id/shuffle", ShuffleExam(d.Assembler))
	}

	classes := api.Group("/classes")
	{
		classes.GET("", ListClasses(d.Store))
		classes.POST("", CreateClass(d.Store))
		classes.POST("/:classId/add-student", AddStudent(d.Store))
		classes.POST("/:classId/add-exam", AddExam(d.Store))
		classes.GET("/student/:studentId/exams", StudentExams(d.Store, d.Now))
	}

	if d.Tracker == nil {
		return
	}
	practice := api.Group("/practice/:id")
	{
		practice.POST("/start", StartAttempt(d.Assembler, d.Tracker, d.Now))
		practice.GET("/answers", GetAnswers(d.Tracker))
		practice.PUT("/answers", SaveAnswer(d.Tracker))
		practice.POST("/submit", SubmitAttempt(d.Assembler, d.Tracker, d.Now))
		practice.GET("/history", AttemptHistory(d.Tracker))
	}
}

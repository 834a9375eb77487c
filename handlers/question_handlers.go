package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"

	"quizbank-server/db"
	"quizbank-server/ingestion"
	"quizbank-server/models"
	"quizbank-server/storage"
)

// questionInput is a create/update payload after decoding either a
// multipart form or a JSON body.
type questionInput struct {
	Title         string
	Options       []string
	CorrectAnswer int
	Difficulty    string
}

type questionJSON struct {
	Title         string          `json:"title"`
	Options       json.RawMessage `json:"options"`
	CorrectAnswer any             `json:"correctAnswer"`
	Difficulty    string          `json:"difficulty"`
}

// decodeOptions accepts a list of strings, or a single string that may hold
// a JSON-encoded list. A string that does not decode becomes a one-element list.
func decodeOptions(values []string) []string {
	if len(values) != 1 {
		return values
	}
	var decoded []string
	if err := json.Unmarshal([]byte(values[0]), &decoded); err == nil {
		return decoded
	}
	return values
}

func parseAnswerIndex(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t != float64(int(t)) {
			return 0, false
		}
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	default:
		return 0, false
	}
}

func readQuestionInput(c *gin.Context) (questionInput, error) {
	var (
		in     questionInput
		answer any
	)
	if c.ContentType() == binding.MIMEJSON {
		var body questionJSON
		if err := c.ShouldBindJSON(&body); err != nil {
			return in, err
		}
		in.Title, in.Difficulty, answer = body.Title, body.Difficulty, body.CorrectAnswer
		if len(body.Options) > 0 {
			var list []string
			var single string
			switch {
			case json.Unmarshal(body.Options, &list) == nil:
				in.Options = list
			case json.Unmarshal(body.Options, &single) == nil:
				in.Options = decodeOptions([]string{single})
			default:
				return in, fmt.Errorf("options must be a list of strings")
			}
		}
	} else {
		in.Title = c.PostForm("title")
		in.Difficulty = c.PostForm("difficulty")
		answer = c.PostForm("correctAnswer")
		values := c.PostFormArray("options")
		if len(values) == 0 {
			values = c.PostFormArray("options[]")
		}
		in.Options = decodeOptions(values)
	}

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return in, fmt.Errorf("title is required")
	}
	if len(in.Options) == 0 {
		return in, fmt.Errorf("at least one option is required")
	}
	idx, ok := parseAnswerIndex(answer)
	if !ok {
		return in, fmt.Errorf("correctAnswer must be an integer")
	}
	if idx < 0 || idx >= len(in.Options) {
		return in, fmt.Errorf("correctAnswer must be between 0 and %d", len(in.Options)-1)
	}
	in.CorrectAnswer = idx
	in.Difficulty = models.NormalizeDifficulty(in.Difficulty)
	return in, nil
}

func questionView(assets *storage.LocalAssets, q models.Question) models.QuestionView {
	return models.QuestionView{Question: q, ImageURL: assets.URL(q.Image)}
}

func questionViews(assets *storage.LocalAssets, qs []models.Question) []models.QuestionView {
	out := make([]models.QuestionView, 0, len(qs))
	for _, q := range qs {
		out = append(out, questionView(assets, q))
	}
	return out
}

// ListQuestions returns a category's questions, oldest first, with image URLs.
// param names the path parameter holding the category id.
// GET /api/questions/:categoryId
// GET /api/categories/:id/questions
func ListQuestions(store db.QuestionStore, assets *storage.LocalAssets, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		categoryID, ok := paramID(c, param)
		if !ok {
			return
		}
		var filter models.QuestionFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			bindingError(c, err)
			return
		}
		questions, err := store.ListQuestionsByCategories(c.Request.Context(), []uuid.UUID{categoryID})
		if err != nil {
			respondError(c, "retrieve questions", err)
			return
		}
		if filter.Difficulty != "" {
			want := models.NormalizeDifficulty(filter.Difficulty)
			kept := questions[:0]
			for _, q := range questions {
				if q.Difficulty == want {
					kept = append(kept, q)
				}
			}
			questions = kept
		}
		c.JSON(http.StatusOK, questionViews(assets, questions))
	}
}

// CreateQuestion adds a question to a category's bank, with an optional image.
// POST /api/questions/:categoryId
func CreateQuestion(store db.Store, assets *storage.LocalAssets) gin.HandlerFunc {
	return func(c *gin.Context) {
		categoryID, ok := paramID(c, "categoryId")
		if !ok {
			return
		}
		in, err := readQuestionInput(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx := c.Request.Context()
		if cats, err := store.GetCategoriesByIDs(ctx, []uuid.UUID{categoryID}); err != nil {
			respondError(c, "create question", err)
			return
		} else if len(cats) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}

		image, ok := saveImageUpload(c, assets)
		if !ok {
			return
		}
		q := models.Question{
			Title:         in.Title,
			Options:       in.Options,
			CorrectAnswer: in.CorrectAnswer,
			CategoryID:    categoryID,
			Image:         image,
			Difficulty:    in.Difficulty,
		}
		if err := store.CreateQuestion(ctx, &q); err != nil {
			if image != nil {
				_ = assets.Remove(*image)
			}
			respondError(c, "create question", err)
			return
		}
		c.JSON(http.StatusCreated, questionView(assets, q))
	}
}

// UpdateQuestion replaces a question's fields. Without a new image the stored
// one is kept; a new image replaces the old file.
// PUT /api/questions/:id
func UpdateQuestion(store db.QuestionStore, assets *storage.LocalAssets) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		in, err := readQuestionInput(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx := c.Request.Context()
		existing, err := store.GetQuestion(ctx, id)
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
			return
		}
		if err != nil {
			respondError(c, "update question", err)
			return
		}

		image, ok := saveImageUpload(c, assets)
		if !ok {
			return
		}
		q := existing
		q.Title = in.Title
		q.Options = in.Options
		q.CorrectAnswer = in.CorrectAnswer
		q.Difficulty = in.Difficulty
		if image != nil {
			q.Image = image
		}
		if err := store.UpdateQuestion(ctx, &q); err != nil {
			if image != nil {
				_ = assets.Remove(*image)
			}
			if errors.Is(err, db.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
				return
			}
			respondError(c, "update question", err)
			return
		}
		if image != nil && existing.Image != nil {
			if err := assets.Remove(*existing.Image); err != nil {
				log.Printf("Error removing replaced image of question %s: %v", id, err)
			}
		}
		c.JSON(http.StatusOK, questionView(assets, q))
	}
}

// DeleteQuestion removes a question and its image file.
// DELETE /api/questions/:id
func DeleteQuestion(store db.QuestionStore, assets *storage.LocalAssets) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		deleted, err := store.DeleteQuestion(c.Request.Context(), id)
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
			return
		}
		if err != nil {
			respondError(c, "delete question", err)
			return
		}
		if deleted.Image != nil {
			if err := assets.Remove(*deleted.Image); err != nil {
				respondError(c, "remove question image", err)
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"message": "Deleted"})
	}
}

// ImportQuestions bulk-creates questions from the first sheet of an uploaded
// spreadsheet. Bad rows are reported in the response; they do not fail the
// request.
// POST /api/questions/:categoryId/import
func ImportQuestions(store db.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		categoryID, ok := paramID(c, "categoryId")
		if !ok {
			return
		}
		fh, err := c.FormFile("excelFile")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Please choose a spreadsheet file (field excelFile)"})
			return
		}
		if _, err := storage.CheckExtension(fh.Filename, storage.SpreadsheetExtensions); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Only .xlsx spreadsheets are allowed; save legacy .xls files as .xlsx"})
			return
		}

		ctx := c.Request.Context()
		if cats, err := store.GetCategoriesByIDs(ctx, []uuid.UUID{categoryID}); err != nil {
			respondError(c, "import questions", err)
			return
		} else if len(cats) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}

		f, err := fh.Open()
		if err != nil {
			respondError(c, "read uploaded spreadsheet", err)
			return
		}
		defer f.Close()
		rows, err := ingestion.ReadWorkbook(f)
		if errors.Is(err, ingestion.ErrLegacyWorkbook) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Legacy .xls workbooks are not supported; save the file as .xlsx"})
			return
		} else if err != nil {
			log.Printf("Rejected spreadsheet %q for category %s: %v", fh.Filename, categoryID, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read the spreadsheet"})
			return
		}

		result, err := ingestion.ProcessRows(ctx, store, categoryID, rows)
		if err != nil {
			respondError(c, "import questions", err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

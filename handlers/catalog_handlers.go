package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"quizbank-server/db"
	"quizbank-server/models"
	"quizbank-server/storage"
)

// ListSubjects returns every subject sorted by name.
// GET /api/subjects
func ListSubjects(store db.SubjectStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		subjects, err := store.ListSubjects(c.Request.Context())
		if err != nil {
			respondError(c, "retrieve subjects", err)
			return
		}
		c.JSON(http.StatusOK, subjects)
	}
}

// ListCategories returns the categories of a subject, newest first.
// GET /api/categories/:id (subject id)
func ListCategories(store db.CategoryStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		subjectID, ok := paramID(c, "id")
		if !ok {
			return
		}
		categories, err := store.ListCategories(c.Request.Context(), subjectID)
		if err != nil {
			respondError(c, "retrieve categories", err)
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

// CreateCategory adds a category under a subject.
// POST /api/categories/:id (subject id)
func CreateCategory(store db.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		subjectID, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req models.CategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindingError(c, err)
			return
		}

		ctx := c.Request.Context()
		if _, err := store.GetSubject(ctx, subjectID); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Subject not found"})
				return
			}
			respondError(c, "create category", err)
			return
		}

		category := models.Category{
			Name:        strings.TrimSpace(req.Name),
			Description: strings.TrimSpace(req.Description),
			SubjectID:   subjectID,
		}
		if err := store.CreateCategory(ctx, &category); err != nil {
			respondError(c, "create category", err)
			return
		}
		c.JSON(http.StatusCreated, category)
	}
}

// UpdateCategory renames a category and replaces its description.
// PUT /api/categories/:id
func UpdateCategory(store db.CategoryStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req models.CategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindingError(c, err)
			return
		}
		category, err := store.UpdateCategory(c.Request.Context(), id, strings.TrimSpace(req.Name), strings.TrimSpace(req.Description))
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		if err != nil {
			respondError(c, "update category", err)
			return
		}
		c.JSON(http.StatusOK, category)
	}
}

// DeleteCategory removes a category that no question references.
// DELETE /api/categories/:id
func DeleteCategory(store db.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		ctx := c.Request.Context()
		count, err := store.CountQuestionsByCategory(ctx, id)
		if err != nil {
			respondError(c, "delete category", err)
			return
		}
		if count > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Cannot delete category: it still has %d question(s)", count)})
			return
		}
		if err := store.DeleteCategory(ctx, id); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
				return
			}
			respondError(c, "delete category", err)
			return
		}
		log.Printf("Deleted category %s", id)
		c.JSON(http.StatusOK, gin.H{"message": "Deleted"})
	}
}

// UploadImage stores a standalone image and returns its public URL.
// POST /api/categories/upload
func UploadImage(assets *storage.LocalAssets) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, ok := saveImageUpload(c, assets)
		if !ok {
			return
		}
		if name == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Please choose an image file"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Upload successful", "imageUrl": assets.URL(name)})
	}
}

// saveImageUpload stores the optional "image" file of a multipart request.
// It returns nil when no file was sent and false when a response was written.
func saveImageUpload(c *gin.Context, assets *storage.LocalAssets) (*string, bool) {
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, true
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid image upload: %v", err)})
		return nil, false
	}
	if _, err := storage.CheckExtension(fh.Filename, storage.ImageExtensions); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only image files (.jpg, .jpeg, .png, .gif) are allowed"})
		return nil, false
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, "read uploaded image", err)
		return nil, false
	}
	defer f.Close()
	name, err := assets.SaveImage(fh.Filename, f)
	if err != nil {
		respondError(c, "store uploaded image", err)
		return nil, false
	}
	return &name, true
}

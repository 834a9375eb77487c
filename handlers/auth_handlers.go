package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"quizbank-server/auth"
	"quizbank-server/db"
	"quizbank-server/models"
)

// Login checks a username/password pair. No token or session is issued; the
// response only identifies the account.
// POST /api/login
func Login(store db.UserStore, verifier auth.CredentialVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
			return
		}
		user, err := store.FindUserByUsername(c.Request.Context(), req.Username)
		if errors.Is(err, db.ErrNotFound) || (err == nil && !verifier.Verify(user.Password, req.Password)) {
			log.Printf("Failed login for %q", req.Username)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
			return
		}
		if err != nil {
			respondError(c, "log in", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Login successful",
			"user":    models.UserRef{ID: user.ID, Username: user.Username, Name: user.Name, Role: user.Role},
		})
	}
}

package handler

import (
	"errors"
	"net/http"
	"strings"

	"Voxline/internal/auth"
	"Voxline/internal/hub"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const userIDKey = "userID"

// AuthMiddleware resolves the bearer token to the calling user; requests
// without a valid token stop with 401
func AuthMiddleware(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := verifier.Verify(auth.CredentialFromRequest(c.Request))
		if err != nil {
			message := auth.ErrInvalidCredentials.Error()
			if errors.Is(err, auth.ErrMissingCredentials) {
				message = auth.ErrMissingCredentials.Error()
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": message})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUser(c *gin.Context) primitive.ObjectID {
	return c.MustGet(userIDKey).(primitive.ObjectID)
}

// statusFor maps an error kind onto the REST status codes
func statusFor(kind hub.ErrorKind) int {
	switch kind {
	case hub.KindValidation, hub.KindConflict:
		return http.StatusBadRequest
	case hub.KindNotFound:
		return http.StatusNotFound
	case hub.KindForbidden:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var ee *hub.EventError
	if !errors.As(err, &ee) {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	status := statusFor(ee.Kind)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"message": ee.Message})
}

// bindJSON decodes the body; a malformed body answers 400
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		message := "Invalid request body"
		if strings.Contains(err.Error(), "EOF") {
			message = "Request body is required"
		}
		c.JSON(http.StatusBadRequest, gin.H{"message": message})
		return false
	}
	return true
}

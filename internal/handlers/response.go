package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dialaservice/internal/helpers"
	"dialaservice/internal/middleware"
	"dialaservice/internal/models"
)

const (
	maxUploadBytes    = helpers.MaxImageSize + 1<<20
	streamKeepAlive   = 25 * time.Second
	invalidPayloadMsg = "Invalid request payload"
)

// abortWithError maps service errors to a status and the response envelope.
// Unexpected errors are attached to the context for ErrorHandler to log.
func abortWithError(c *gin.Context, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, models.FieldErrorResponse(verr.Field, verr.Message))
	case errors.Is(err, models.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, models.ErrorResponse(err.Error()))
	case errors.Is(err, models.ErrConflict):
		c.AbortWithStatusJSON(http.StatusConflict, models.ErrorResponse(err.Error()))
	case errors.Is(err, models.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse(err.Error()))
	case errors.Is(err, models.ErrInvalidTransition):
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
	default:
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse("Something went wrong"))
	}
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse(msg))
}

// currentUser returns the caller's claims and the access token the auth
// guard validated.
func currentUser(c *gin.Context) (*helpers.EnhancedClaims, uuid.UUID, string, bool) {
	value, exists := c.Get(middleware.UserKey)
	claims, ok := value.(*helpers.EnhancedClaims)
	if !exists || !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse("Unauthorized"))
		return nil, uuid.Nil, "", false
	}
	id := claims.ID()
	if id == uuid.Nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse("invalid user ID in token"))
		return nil, uuid.Nil, "", false
	}
	return claims, id, c.GetString(middleware.AccessTokenKey), true
}

func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		badRequest(c, "invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the body into form, answering 400 on malformed JSON.
func bindJSON(c *gin.Context, form interface{}) bool {
	if err := c.ShouldBindJSON(form); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
			"message": invalidPayloadMsg,
		})
		return false
	}
	return true
}

// uploadedFile opens the multipart "file" field. The caller closes it.
func uploadedFile(c *gin.Context) (io.ReadCloser, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	header, err := c.FormFile("file")
	if err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, models.FieldErrorResponse("file", "File size must be less than 5MB"))
			return nil, false
		}
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, models.FieldErrorResponse("file", "Please choose a file to upload"))
		return nil, false
	}
	if header.Size > helpers.MaxImageSize {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, models.FieldErrorResponse("file", "File size must be less than 5MB"))
		return nil, false
	}
	file, err := header.Open()
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	return file, true
}

// stream writes every value from ch as a server-sent event named event until
// ch closes or the client goes away. A ping keeps idle proxies from dropping
// the connection.
func stream[T any](c *gin.Context, event string, ch <-chan T) {
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(streamKeepAlive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case v, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(event, v)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dialaservice/internal/models"
	"dialaservice/internal/services"
)

func VerificationStatus(vs *services.VerificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, id, token, ok := currentUser(c)
		if !ok {
			return
		}
		state, err := vs.Status(c.Request.Context(), id, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.RedirectResponse(state, "", state.Next))
	}
}

func ResendVerification(vs *services.VerificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, id, token, ok := currentUser(c)
		if !ok {
			return
		}
		state, err := vs.Resend(c.Request.Context(), id, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(state, "Verification request sent"))
	}
}

// VerificationStream sends the current status, then a fresh one every time
// the caller's provider row changes.
func VerificationStream(vs *services.VerificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, id, token, ok := currentUser(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		current, err := vs.Status(ctx, id, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		updates, err := vs.Watch(ctx, id, token)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.SSEvent("status", current)
		c.Writer.Flush()
		stream(c, "status", updates)
	}
}

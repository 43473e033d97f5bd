package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dialaservice/internal/models"
	"dialaservice/internal/services"
)

func PendingProviders(as *services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, _, token, ok := currentUser(c)
		if !ok {
			return
		}
		providers, err := as.PendingProviders(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(providers, len(providers)))
	}
}

func ApproveProvider(as *services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, _, token, ok := currentUser(c)
		if !ok {
			return
		}
		providerID, ok := paramID(c, "id")
		if !ok {
			return
		}
		outcome, err := as.Approve(c.Request.Context(), providerID, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(outcome, outcome.Message))
	}
}

func RejectProvider(as *services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, _, token, ok := currentUser(c)
		if !ok {
			return
		}
		providerID, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req struct {
			Reason string `json:"reason"`
		}
		// The reason is optional, so an empty body is fine.
		if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
			return
		}

		outcome, err := as.Reject(c.Request.Context(), providerID, req.Reason, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(outcome, outcome.Message))
	}
}

// AdminStream relays every providers change so the pending list can refresh.
func AdminStream(as *services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, err := as.Watch(c.Request.Context())
		if err != nil {
			abortWithError(c, err)
			return
		}
		defer sub.Close()
		stream(c, "change", sub.Events())
	}
}

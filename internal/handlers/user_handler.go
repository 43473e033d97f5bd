package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dialaservice/internal/models"
	"dialaservice/internal/services"
)

func GetUser(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := paramID(c, "id")
		if !ok {
			return
		}
		claims, callerID, token, ok := currentUser(c)
		if !ok {
			return
		}

		// Authorization check: user can access their own data or admin can access any
		if callerID != userID && !claims.IsAdmin() {
			c.JSON(http.StatusForbidden, models.ErrorResponse("access denied"))
			return
		}

		user, err := u.GetUser(c.Request.Context(), userID, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(user, ""))
	}
}

func UpdateUser(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := paramID(c, "id")
		if !ok {
			return
		}
		claims, callerID, token, ok := currentUser(c)
		if !ok {
			return
		}
		if callerID != userID && !claims.IsAdmin() {
			c.JSON(http.StatusForbidden, models.ErrorResponse("Access denied"))
			return
		}

		var fields map[string]interface{}
		if !bindJSON(c, &fields) {
			return
		}

		user, err := u.UpdateUser(c.Request.Context(), fields, userID, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(user, "User updated"))
	}
}

func DeleteUser(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := paramID(c, "id")
		if !ok {
			return
		}
		claims, _, token, ok := currentUser(c)
		if !ok {
			return
		}
		if !claims.IsAdmin() {
			c.JSON(http.StatusForbidden, models.ErrorResponse("Access denied: only admins can delete users"))
			return
		}

		if err := u.DeleteUser(c.Request.Context(), userID, token); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "user deleted successfully"))
	}
}

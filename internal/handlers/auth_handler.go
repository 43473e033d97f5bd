package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dialaservice/internal/helpers"
	"dialaservice/internal/models"
	"dialaservice/internal/services"
)

func Signup(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form models.SignupForm
		if !bindJSON(c, &form) {
			return
		}

		res, err := u.CreateUser(c.Request.Context(), &form)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(res.User, "Check your email to confirm your account"))
	}
}

// Login signs in with email and password. Tokens only travel as httpOnly
// cookies; the body carries the auth user.
func Login(u *services.UserService, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if !bindJSON(c, &req) {
			return
		}

		tokenRes, err := u.AuthenticateUser(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			var verr *models.ValidationError
			if errors.As(err, &verr) {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error(), "message": "invalid email or password"})
			return
		}
		if tokenRes.AccessToken == "" {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse("invalid token response"))
			return
		}

		helpers.SetSessionCookies(c, tokenRes.AccessToken, tokenRes.ExpiresIn, tokenRes.RefreshToken, secureCookies)
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"user": tokenRes.User}, "Signed in"))
	}
}

func MagicLink(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form models.MagicLinkForm
		if !bindJSON(c, &form) {
			return
		}
		if err := u.SendMagicLink(c.Request.Context(), &form); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "Check your email for the magic link!"))
	}
}

// Logout revokes the session when there is one and always clears the cookies.
func Logout(u *services.UserService, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := c.Cookie(helpers.AccessTokenCookie); err == nil && token != "" {
			u.Logout(c.Request.Context(), token)
		}
		helpers.ClearSessionCookies(c, secureCookies)
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "Logged out successfully"))
	}
}

func Profile() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _, _, ok := currentUser(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(claims, ""))
	}
}

// CompleteAccount saves the account page and tells the client where to go
// next.
func CompleteAccount(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, id, token, ok := currentUser(c)
		if !ok {
			return
		}
		var form models.AccountForm
		if !bindJSON(c, &form) {
			return
		}

		profile, next, err := u.CompleteAccount(c.Request.Context(), id, claims.Email, &form, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.RedirectResponse(profile, "Profile updated successfully!", next))
	}
}

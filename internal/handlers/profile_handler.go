package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dialaservice/internal/middleware"
	"dialaservice/internal/models"
	"dialaservice/internal/services"
)

func GetProviderProfile(ps *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, id, token, ok := currentUser(c)
		if !ok {
			return
		}
		provider, err := ps.GetProfile(c.Request.Context(), id, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(provider, ""))
	}
}

func UpdateProviderProfile(ps *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, id, token, ok := currentUser(c)
		if !ok {
			return
		}
		var form models.ProfileForm
		if !bindJSON(c, &form) {
			return
		}
		provider, err := ps.UpdateProfile(c.Request.Context(), id, &form, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(provider, "Profile updated successfully!"))
	}
}

func UploadProfilePicture(ps *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, id, token, ok := currentUser(c)
		if !ok {
			return
		}
		file, ok := uploadedFile(c)
		if !ok {
			return
		}
		defer file.Close()

		provider, err := ps.UploadPicture(c.Request.Context(), id, file, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(provider, "Profile picture updated"))
	}
}

// SkillCatalogue is public so the job form can list categories.
func SkillCatalogue(ps *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		skills, err := ps.Catalogue(c.Request.Context(), c.GetString(middleware.AccessTokenKey))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(skills, len(skills)))
	}
}

func ProviderSkills(ps *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, id, token, ok := currentUser(c)
		if !ok {
			return
		}
		sel, err := ps.Skills(c.Request.Context(), id, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(sel, ""))
	}
}

func UpdateProviderSkills(ps *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, id, token, ok := currentUser(c)
		if !ok {
			return
		}
		var form models.SkillsForm
		if !bindJSON(c, &form) {
			return
		}
		provider, err := ps.UpdateSkills(c.Request.Context(), id, &form, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(provider, "Skills updated"))
	}
}

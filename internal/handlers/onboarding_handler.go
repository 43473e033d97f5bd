package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dialaservice/internal/models"
	"dialaservice/internal/services"
)

func GetOnboarding(ob *services.OnboardingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, id, token, ok := currentUser(c)
		if !ok {
			return
		}
		state, err := ob.State(c.Request.Context(), id, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(state, ""))
	}
}

func SaveBasicInfo(ob *services.OnboardingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, id, token, ok := currentUser(c)
		if !ok {
			return
		}
		var form models.BasicInfoForm
		if !bindJSON(c, &form) {
			return
		}
		state, err := ob.SaveBasicInfo(c.Request.Context(), id, &form, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(state, "Basic information saved"))
	}
}

func SaveOnboardingSkills(ob *services.OnboardingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, id, token, ok := currentUser(c)
		if !ok {
			return
		}
		var form models.SkillsForm
		if !bindJSON(c, &form) {
			return
		}
		state, err := ob.SaveSkills(c.Request.Context(), id, &form, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(state, "Skills saved"))
	}
}

func UploadIDDocument(ob *services.OnboardingService) gin.HandlerFunc {
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

		state, err := ob.UploadIDDocument(c.Request.Context(), id, file, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(state, "ID document uploaded"))
	}
}

func OnboardingBack(ob *services.OnboardingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, id, token, ok := currentUser(c)
		if !ok {
			return
		}
		state, err := ob.Back(c.Request.Context(), id, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(state, ""))
	}
}

func OnboardingGoTo(ob *services.OnboardingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, id, token, ok := currentUser(c)
		if !ok {
			return
		}
		step, err := strconv.Atoi(c.Param("step"))
		if err != nil {
			badRequest(c, "step must be a number")
			return
		}
		state, err := ob.GoTo(c.Request.Context(), id, step, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(state, ""))
	}
}

// CompleteOnboarding finishes the wizard. A missing provider row sends the
// client home.
func CompleteOnboarding(ob *services.OnboardingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, id, token, ok := currentUser(c)
		if !ok {
			return
		}
		provider, next, err := ob.Complete(c.Request.Context(), id, token)
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ApiResponse{
				Success: false,
				Error:   "Provider profile not found. Please try again.",
				Next:    next,
			})
			return
		}
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.RedirectResponse(provider, "Onboarding complete", next))
	}
}

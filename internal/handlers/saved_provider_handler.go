package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dialaservice/internal/models"
	"dialaservice/internal/services"
)

func SaveProvider(s *services.SavedProviderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, customerID, token, ok := currentUser(c)
		if !ok {
			return
		}
		providerID, ok := paramID(c, "provider_id")
		if !ok {
			return
		}

		saved, err := s.SaveProvider(c.Request.Context(), customerID, providerID, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(saved, "Provider saved"))
	}
}

func UnsaveProvider(s *services.SavedProviderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, customerID, _, ok := currentUser(c)
		if !ok {
			return
		}
		providerID, ok := paramID(c, "provider_id")
		if !ok {
			return
		}

		if err := s.UnsaveProvider(c.Request.Context(), customerID, providerID); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "Provider removed from saved list"))
	}
}

func SavedProviders(s *services.SavedProviderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, customerID, _, ok := currentUser(c)
		if !ok {
			return
		}
		saved, err := s.SavedProviders(c.Request.Context(), customerID)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(saved, len(saved)))
	}
}

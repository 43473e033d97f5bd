package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dialaservice/internal/models"
	"dialaservice/internal/services"
)

func CalendarWeek(cs *services.CalendarService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, id, token, ok := currentUser(c)
		if !ok {
			return
		}
		week, err := cs.Week(c.Request.Context(), id, c.Query("date"), token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(week, ""))
	}
}

func DaySlots(cs *services.CalendarService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, id, token, ok := currentUser(c)
		if !ok {
			return
		}
		groups, err := cs.DaySlots(c.Request.Context(), id, c.Query("date"), token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(groups, ""))
	}
}

func CreateSlot(cs *services.CalendarService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, id, token, ok := currentUser(c)
		if !ok {
			return
		}
		var form models.TimeSlotForm
		if !bindJSON(c, &form) {
			return
		}
		slot, err := cs.CreateSlot(c.Request.Context(), id, &form, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(slot, "Time slot added"))
	}
}

func UpdateSlot(cs *services.CalendarService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, providerID, token, ok := currentUser(c)
		if !ok {
			return
		}
		slotID, ok := paramID(c, "id")
		if !ok {
			return
		}
		var form models.SlotUpdateForm
		if !bindJSON(c, &form) {
			return
		}
		slot, err := cs.UpdateSlot(c.Request.Context(), providerID, slotID, &form, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(slot, "Time slot updated"))
	}
}

func DeleteSlot(cs *services.CalendarService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, providerID, token, ok := currentUser(c)
		if !ok {
			return
		}
		slotID, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := cs.DeleteSlot(c.Request.Context(), providerID, slotID, token); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "Time slot deleted"))
	}
}

func RecurringSlots(cs *services.CalendarService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, id, token, ok := currentUser(c)
		if !ok {
			return
		}
		slots, err := cs.RecurringSlots(c.Request.Context(), id, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(slots, len(slots)))
	}
}

// CreateRecurringSlot fills fields missing from the body with the form
// defaults before validating.
func CreateRecurringSlot(cs *services.CalendarService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, id, token, ok := currentUser(c)
		if !ok {
			return
		}
		form := models.NewRecurringSlotForm()
		if !bindJSON(c, &form) {
			return
		}
		slot, err := cs.CreateRecurringSlot(c.Request.Context(), id, &form, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(slot, "Recurring slot added"))
	}
}

func UpdateRecurringSlot(cs *services.CalendarService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, providerID, token, ok := currentUser(c)
		if !ok {
			return
		}
		slotID, ok := paramID(c, "id")
		if !ok {
			return
		}
		var form models.RecurringSlotUpdateForm
		if !bindJSON(c, &form) {
			return
		}
		slot, err := cs.UpdateRecurringSlot(c.Request.Context(), providerID, slotID, &form, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(slot, "Recurring slot updated"))
	}
}

func DeleteRecurringSlot(cs *services.CalendarService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, providerID, token, ok := currentUser(c)
		if !ok {
			return
		}
		slotID, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := cs.DeleteRecurringSlot(c.Request.Context(), providerID, slotID, token); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "Recurring slot deleted"))
	}
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dialaservice/internal/models"
	"dialaservice/internal/services"
)

func CreateJob(js *services.JobService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, customerID, token, ok := currentUser(c)
		if !ok {
			return
		}
		var form models.JobForm
		if !bindJSON(c, &form) {
			return
		}
		job, err := js.CreateJob(c.Request.Context(), customerID, &form, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(job, "Job posted!"))
	}
}

func CustomerJobs(js *services.JobService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, customerID, token, ok := currentUser(c)
		if !ok {
			return
		}
		jobs, err := js.CustomerJobs(c.Request.Context(), customerID, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(jobs, len(jobs)))
	}
}

func CustomerJobsStream(js *services.JobService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, customerID, _, ok := currentUser(c)
		if !ok {
			return
		}
		sub, err := js.WatchCustomerJobs(c.Request.Context(), customerID)
		if err != nil {
			abortWithError(c, err)
			return
		}
		defer sub.Close()
		stream(c, "change", sub.Events())
	}
}

func ReviewJob(js *services.JobService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, customerID, token, ok := currentUser(c)
		if !ok {
			return
		}
		jobID, ok := paramID(c, "id")
		if !ok {
			return
		}
		var form models.ReviewForm
		if !bindJSON(c, &form) {
			return
		}
		review, err := js.ReviewJob(c.Request.Context(), customerID, jobID, &form, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(review, "Thanks for your review!"))
	}
}

func ProviderReviews(js *services.JobService) gin.HandlerFunc {
	return func(c *gin.Context) {
		providerID, ok := paramID(c, "id")
		if !ok {
			return
		}
		reviews, err := js.ProviderReviews(c.Request.Context(), providerID)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(reviews, ""))
	}
}

func ProviderDashboard(js *services.JobService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, providerID, token, ok := currentUser(c)
		if !ok {
			return
		}
		dash, err := js.Dashboard(c.Request.Context(), providerID, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(dash, ""))
	}
}

func ProviderDashboardStream(js *services.JobService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, providerID, _, ok := currentUser(c)
		if !ok {
			return
		}
		sub, err := js.WatchProviderJobs(c.Request.Context(), providerID)
		if err != nil {
			abortWithError(c, err)
			return
		}
		defer sub.Close()
		stream(c, "change", sub.Events())
	}
}

func AvailableJobs(js *services.JobService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, providerID, token, ok := currentUser(c)
		if !ok {
			return
		}
		jobs, err := js.AvailableJobs(c.Request.Context(), providerID, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(jobs, len(jobs)))
	}
}

func AcceptJob(js *services.JobService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, providerID, token, ok := currentUser(c)
		if !ok {
			return
		}
		jobID, ok := paramID(c, "id")
		if !ok {
			return
		}
		job, err := js.AcceptJob(c.Request.Context(), providerID, jobID, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(job, "Job accepted"))
	}
}

func UpdateJobStatus(js *services.JobService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, providerID, token, ok := currentUser(c)
		if !ok {
			return
		}
		jobID, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req struct {
			Status models.JobStatus `json:"status" binding:"required"`
		}
		if !bindJSON(c, &req) {
			return
		}
		job, err := js.UpdateStatus(c.Request.Context(), providerID, jobID, req.Status, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(job, "Job updated"))
	}
}

func ScheduleJob(js *services.JobService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, providerID, token, ok := currentUser(c)
		if !ok {
			return
		}
		var form models.ScheduleJobForm
		if !bindJSON(c, &form) {
			return
		}
		job, err := js.ScheduleJob(c.Request.Context(), providerID, &form, token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(job, "Job scheduled"))
	}
}

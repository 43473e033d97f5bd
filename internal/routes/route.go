package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"dialaservice/internal/container"
	"dialaservice/internal/handlers"
	"dialaservice/internal/middleware"
	"dialaservice/internal/models"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	if container.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	secure := container.Config.IsProduction()

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     container.Config.FrontendURLs,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", "Cache-Control"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
	}))

	// Add middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "dialaservice-api"})
	})

	// API version 1
	v1 := r.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "OK",
				"service": "dialaservice-api",
			})
		})

		// public routes
		v1.POST("/signup", handlers.Signup(container.UserService))
		v1.POST("/login", handlers.Login(container.UserService, secure))
		v1.POST("/magic-link", handlers.MagicLink(container.UserService))
		v1.POST("/logout", handlers.Logout(container.UserService, secure))
		v1.GET("/skills", handlers.SkillCatalogue(container.ProfileService))
		v1.GET("/providers/:id/reviews", handlers.ProviderReviews(container.JobService))
	}

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(container.Validator, container.UserService, secure, container.Logger))
	{
		protected.GET("/profile", handlers.Profile())
		protected.POST("/account", handlers.CompleteAccount(container.UserService))
	}

	userRoutes := protected.Group("/users")
	{
		userRoutes.GET("/:id", handlers.GetUser(container.UserService))
		userRoutes.PATCH("/:id", handlers.UpdateUser(container.UserService))
		userRoutes.DELETE("/:id", handlers.DeleteUser(container.UserService))
	}

	adminRoutes := protected.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	{
		adminRoutes.GET("/providers/pending", handlers.PendingProviders(container.AdminService))
		adminRoutes.POST("/providers/:id/approve", handlers.ApproveProvider(container.AdminService))
		adminRoutes.POST("/providers/:id/reject", handlers.RejectProvider(container.AdminService))
		adminRoutes.GET("/stream", handlers.AdminStream(container.AdminService))
	}

	customerRoutes := protected.Group("/customer", middleware.RequireRole(models.RoleCustomer))
	{
		customerRoutes.POST("/jobs", handlers.CreateJob(container.JobService))
		customerRoutes.GET("/jobs", handlers.CustomerJobs(container.JobService))
		customerRoutes.GET("/jobs/stream", handlers.CustomerJobsStream(container.JobService))
		customerRoutes.POST("/jobs/:id/review", handlers.ReviewJob(container.JobService))

		customerRoutes.GET("/saved-providers", handlers.SavedProviders(container.SavedProviderService))
		customerRoutes.POST("/saved-providers/:provider_id", handlers.SaveProvider(container.SavedProviderService))
		customerRoutes.DELETE("/saved-providers/:provider_id", handlers.UnsaveProvider(container.SavedProviderService))
	}

	providerRoutes := protected.Group("/provider", middleware.RequireRole(models.RoleProvider))
	{
		onboarding := providerRoutes.Group("/onboarding")
		onboarding.GET("", handlers.GetOnboarding(container.OnboardingService))
		onboarding.PUT("/basic-info", handlers.SaveBasicInfo(container.OnboardingService))
		onboarding.PUT("/skills", handlers.SaveOnboardingSkills(container.OnboardingService))
		onboarding.POST("/id-document", handlers.UploadIDDocument(container.OnboardingService))
		onboarding.POST("/back", handlers.OnboardingBack(container.OnboardingService))
		onboarding.POST("/goto/:step", handlers.OnboardingGoTo(container.OnboardingService))
		onboarding.POST("/complete", handlers.CompleteOnboarding(container.OnboardingService))

		providerRoutes.GET("/verification", handlers.VerificationStatus(container.VerificationService))
		providerRoutes.POST("/verification/resend", handlers.ResendVerification(container.VerificationService))
		providerRoutes.GET("/verification/stream", handlers.VerificationStream(container.VerificationService))

		providerRoutes.GET("/dashboard", handlers.ProviderDashboard(container.JobService))
		providerRoutes.GET("/dashboard/stream", handlers.ProviderDashboardStream(container.JobService))
		providerRoutes.GET("/jobs/available", handlers.AvailableJobs(container.JobService))
		providerRoutes.POST("/jobs/:id/accept", handlers.AcceptJob(container.JobService))
		providerRoutes.PATCH("/jobs/:id/status", handlers.UpdateJobStatus(container.JobService))

		providerRoutes.GET("/profile", handlers.GetProviderProfile(container.ProfileService))
		providerRoutes.PUT("/profile", handlers.UpdateProviderProfile(container.ProfileService))
		providerRoutes.POST("/profile/picture", handlers.UploadProfilePicture(container.ProfileService))
		providerRoutes.GET("/skills", handlers.ProviderSkills(container.ProfileService))
		providerRoutes.PUT("/skills", handlers.UpdateProviderSkills(container.ProfileService))

		providerRoutes.GET("/calendar", handlers.CalendarWeek(container.CalendarService))
		providerRoutes.POST("/calendar/jobs", handlers.ScheduleJob(container.JobService))
		providerRoutes.GET("/slots", handlers.DaySlots(container.CalendarService))
		providerRoutes.POST("/slots", handlers.CreateSlot(container.CalendarService))
		providerRoutes.PATCH("/slots/:id", handlers.UpdateSlot(container.CalendarService))
		providerRoutes.DELETE("/slots/:id", handlers.DeleteSlot(container.CalendarService))
		providerRoutes.GET("/recurring-slots", handlers.RecurringSlots(container.CalendarService))
		providerRoutes.POST("/recurring-slots", handlers.CreateRecurringSlot(container.CalendarService))
		providerRoutes.PATCH("/recurring-slots/:id", handlers.UpdateRecurringSlot(container.CalendarService))
		providerRoutes.DELETE("/recurring-slots/:id", handlers.DeleteRecurringSlot(container.CalendarService))
	}

	return r
}

package container

import (
	"log/slog"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/redis/go-redis/v9"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"

	"dialaservice/internal/config"
	"dialaservice/internal/cron"
	"dialaservice/internal/helpers"
	"dialaservice/internal/models"
	"dialaservice/internal/notify"
	"dialaservice/internal/realtime"
	"dialaservice/internal/services"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *slog.Logger
	Cloudinary *cloudinary.Cloudinary
	// Database clients
	SupabaseClient *supabase.Client
	MongoDBClient  *mongo.Client
	RedisClient    *redis.Client

	Validator helpers.TokenValidator
	Broker    realtime.Broker
	Mailer    notify.Mailer
	Reviews   models.ReviewsRepo

	UserService          *services.UserService
	OnboardingService    *services.OnboardingService
	VerificationService  *services.VerificationService
	AdminService         *services.AdminService
	JobService           *services.JobService
	CalendarService      *services.CalendarService
	ProfileService       *services.ProfileService
	SavedProviderService *services.SavedProviderService

	// Reminders is nil when the reminder job cannot run.
	Reminders *cron.Reminders
}

// NewContainer creates a new dependency injection container. redisClient and
// serviceClient are optional.
func NewContainer(
	cfg *config.Config,
	logger *slog.Logger,
	cld *cloudinary.Cloudinary,
	supabaseClient *supabase.Client,
	serviceClient *supabase.Client,
	mongoDBClient *mongo.Client,
	redisClient *redis.Client,
	validator helpers.TokenValidator,
) *Container {
	// Initialize repositories
	supa := models.SupabaseNewRepo(supabaseClient, cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.IDBucket)
	mongo := models.MongodbNewRepo(mongoDBClient, cfg.MongoDBName)

	var broker realtime.Broker
	if redisClient != nil {
		broker = realtime.NewRedisBroker(redisClient, logger)
		logger.Info("Realtime events via Redis pub/sub")
	} else {
		broker = realtime.NewMemoryBroker(logger)
		logger.Info("Realtime events in process only")
	}

	mailer := notify.New(cfg, logger)
	images := helpers.CloudinaryUploader{Cld: cld}

	c := &Container{
		Config:         cfg,
		Logger:         logger,
		Cloudinary:     cld,
		SupabaseClient: supabaseClient,
		MongoDBClient:  mongoDBClient,
		RedisClient:    redisClient,
		Validator:      validator,
		Broker:         broker,
		Mailer:         mailer,
		Reviews:        mongo,

		UserService:          services.NewUserService(supa, supa, broker, logger),
		OnboardingService:    services.NewOnboardingService(supa, supa, supa, broker, logger),
		VerificationService:  services.NewVerificationService(supa, broker, logger),
		AdminService:         services.NewAdminService(supa, supa, mailer, cfg.AppURL, broker, logger),
		JobService:           services.NewJobService(supa, supa, supa, mongo, broker, logger),
		CalendarService:      services.NewCalendarService(supa, supa, broker, logger, time.Local),
		ProfileService:       services.NewProfileService(supa, supa, images, broker, logger),
		SavedProviderService: services.NewSavedProviderService(mongo, supa),
	}

	if cfg.RemindersEnabled() && serviceClient != nil {
		// Rows are read with the service key; the job has no user session.
		service := models.SupabaseNewRepo(serviceClient, "", "", cfg.IDBucket)
		c.Reminders = cron.NewReminders(service, service, mailer, logger)
	}
	return c
}

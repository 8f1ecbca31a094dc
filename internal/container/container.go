package container

import (
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/majdjoubi/halqa/internal/auth"
	"github.com/majdjoubi/halqa/internal/config"
	"github.com/majdjoubi/halqa/internal/events"
	"github.com/majdjoubi/halqa/internal/models"
	"github.com/majdjoubi/halqa/internal/services"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *slog.Logger
	Cloudinary *cloudinary.Cloudinary
	// Database clients
	SupabaseClient *supabase.Client
	MongoDBClient  *mongo.Client
	Producer       *events.KafkaProducer

	AuthService    *services.AuthService
	TeacherService *services.TeacherService
	BookingService *services.BookingService
	PaymentService *services.PaymentService
}

// NewContainer creates a new dependency injection container. The auth
// backend variant is selected here, once: a nil Supabase client means the
// provider is unconfigured and the local in-memory backend takes over.
func NewContainer(
	cfg *config.Config,
	logger *slog.Logger,
	cld *cloudinary.Cloudinary,
	supabaseClient *supabase.Client,
	mongoDBClient *mongo.Client,
	supaUrl, supaKey string,
) *Container {
	mongoRepo := models.MongodbNewRepo(mongoDBClient)
	producer := events.NewKafkaProducer(cfg.KafkaBroker, cfg.KafkaTopic)
	store := auth.NewStore()

	var backend auth.Backend
	var profiles models.ProfileRepo
	var directory models.TeacherDirectory
	if supabaseClient != nil {
		supaRepo := models.SupabaseNewRepo(supabaseClient, supaUrl, supaKey)
		backend = auth.NewLiveBackend(supabaseClient, logger)
		profiles = supaRepo
		directory = supaRepo
	} else {
		logger.Warn("Supabase is not configured, auth runs on the local in-memory backend")
		memRepo := models.NewMemoryProfileRepo()
		backend = auth.NewLocalBackend(auth.LocalSimulatedDelay)
		profiles = memRepo
		directory = memRepo
	}

	authService := services.NewAuthService(backend, profiles, store, producer, logger)
	teacherService := services.NewTeacherService(directory)
	bookingService := services.NewBookingService(mongoRepo, producer, logger)
	paymentService := services.NewPaymentService(mongoRepo, producer, logger)

	return &Container{
		Config:         cfg,
		Logger:         logger,
		Cloudinary:     cld,
		SupabaseClient: supabaseClient,
		MongoDBClient:  mongoDBClient,
		Producer:       producer,
		AuthService:    authService,
		TeacherService: teacherService,
		BookingService: bookingService,
		PaymentService: paymentService,
	}
}

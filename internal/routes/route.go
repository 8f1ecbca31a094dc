package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/majdjoubi/halqa/internal/container"
	"github.com/majdjoubi/halqa/internal/handlers"
	"github.com/majdjoubi/halqa/internal/middleware"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(c *container.Container) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{c.Config.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(c.Logger))
	r.Use(middleware.ErrorHandler(c.Logger))
	r.Use(gin.Recovery())

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(c.AuthService))

		// public routes
		v1.POST("/signup", handlers.SignUp(c.AuthService))
		v1.POST("/signin", handlers.SignIn(c.AuthService))
		v1.POST("/signout", handlers.SignOut(c.AuthService))

		// teacher directory is browsable without an account
		v1.GET("/teachers", handlers.ListTeachers(c.TeacherService))
		v1.GET("/teachers/:id", handlers.GetTeacher(c.TeacherService))

		// anonymous donations are allowed
		v1.POST("/donations", handlers.CreateDonation(c.PaymentService))
	}

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(c.AuthService, c.Logger))

	authRoutes := protected.Group("/auth")
	{
		authRoutes.GET("/session", handlers.GetSession(c.AuthService))
		authRoutes.PATCH("/profile", handlers.UpdateProfile(c.AuthService))
		authRoutes.POST("/profile/image", handlers.UploadProfileImage(c.AuthService))
	}

	bookingRoutes := protected.Group("/bookings")
	{
		bookingRoutes.POST("/", handlers.CreateBooking(c.BookingService))
		bookingRoutes.GET("/", handlers.ListMyBookings(c.BookingService))
		bookingRoutes.POST("/:id/cancel", handlers.CancelBooking(c.BookingService))
		bookingRoutes.POST("/:id/confirm", handlers.ConfirmBooking(c.BookingService))
	}

	paymentRoutes := protected.Group("/payments")
	{
		paymentRoutes.GET("/donations", handlers.ListMyDonations(c.PaymentService))
		paymentRoutes.POST("/subscriptions", handlers.CreateSubscription(c.PaymentService))
		paymentRoutes.DELETE("/subscriptions/:id", handlers.CancelSubscription(c.PaymentService))
	}

	return r
}

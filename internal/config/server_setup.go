package config

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/aestheticclinic/clinic-backend/internal/di"
	"github.com/aestheticclinic/clinic-backend/internal/domain"
	"github.com/aestheticclinic/clinic-backend/internal/handler"
	"github.com/aestheticclinic/clinic-backend/internal/logs"
	"github.com/aestheticclinic/clinic-backend/internal/middleware"
	"github.com/aestheticclinic/clinic-backend/internal/repository"
	"github.com/aestheticclinic/clinic-backend/internal/service"
	"github.com/aestheticclinic/clinic-backend/internal/utils"
)

// ServerSetup wires the repositories, services, and handlers and returns
// the configured router.
func ServerSetup() *gin.Engine {
	logger := logs.NewLogger()
	db := InitDatabase()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewDoctorProfileRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	reportRepo := repository.NewReportRepository(db)
	contactRepo := repository.NewContactRepository(db)

	var notifier service.Notifier
	if broker := os.Getenv("KAFKA_BROKER"); broker != "" {
		producer, err := di.NewKafkaProducer(broker)
		if err != nil {
			log.Fatalf("Failed to create Kafka producer: %v", err)
		}
		notifier = producer
	}

	bookingService := service.NewBookingService(appointmentRepo, userRepo, profileRepo, notifier, logger)
	authService := service.NewAuthService(userRepo, secret, logger)
	profileService := service.NewProfileService(userRepo, profileRepo, logger)
	accountService := service.NewAccountService(userRepo, profileRepo, appointmentRepo, reportRepo, logger)
	reportService := service.NewReportService(reportRepo, userRepo, logger)
	contactService := service.NewContactService(contactRepo, notifier, logger)

	authHandler := handler.NewAuthHandler(authService, logger)
	patientHandler := handler.NewPatientHandler(bookingService, accountService, reportService, logger)
	doctorHandler := handler.NewDoctorHandler(bookingService, profileService, reportService, logger)
	adminHandler := handler.NewAdminHandler(accountService, contactService, logger)
	publicHandler := handler.NewPublicHandler(accountService, contactService, logger)

	go utils.StartReminderScheduler(bookingService, logger)

	router := gin.Default()
	router.Use(middleware.CORS(di.Getenv("CORS_ORIGIN", "*")))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	api := router.Group("/api")

	public := api.Group("/public")
	public.GET("/doctors", publicHandler.ListDoctors)
	public.POST("/contact", publicHandler.SubmitContact)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login/patient", authHandler.Login(domain.RolePatient))
	auth.POST("/login/doctor", authHandler.Login(domain.RoleDoctor))
	auth.POST("/login/admin", authHandler.Login(domain.RoleAdmin))
	auth.GET("/me", middleware.RequireAuth(secret), authHandler.Me)
	auth.POST("/logout", authHandler.Logout)

	patient := api.Group("/patient", middleware.RequireAuth(secret, domain.RolePatient))
	patient.GET("/doctors", patientHandler.ListDoctors)
	patient.GET("/slots", patientHandler.AvailableSlots)
	patient.POST("/appointments", patientHandler.CreateAppointment)
	patient.GET("/appointments", patientHandler.MyAppointments)
	patient.DELETE("/appointments/:id", patientHandler.CancelAppointment)
	patient.GET("/reports", patientHandler.MyReports)

	doctor := api.Group("/doctor", middleware.RequireAuth(secret, domain.RoleDoctor))
	doctor.GET("/profile", doctorHandler.GetProfile)
	doctor.PUT("/profile", doctorHandler.SaveProfile)
	doctor.GET("/appointments", doctorHandler.MyAppointments)
	doctor.PATCH("/appointments/:id/status", doctorHandler.SetStatus)
	doctor.DELETE("/appointments/:id", doctorHandler.DeleteAppointment)
	doctor.POST("/reports", doctorHandler.CreateReport)
	doctor.GET("/reports", doctorHandler.MyReports)

	admin := api.Group("/admin", middleware.RequireAuth(secret, domain.RoleAdmin))
	admin.POST("/doctors", adminHandler.CreateDoctor)
	admin.PATCH("/doctors/:id", adminHandler.UpdateDoctor)
	admin.DELETE("/doctors/:id", adminHandler.DeleteDoctor)
	admin.GET("/patients", adminHandler.ListPatients)
	admin.DELETE("/patients/:id", adminHandler.DeletePatient)
	admin.GET("/users", adminHandler.ListUsers)
	admin.GET("/stats", adminHandler.Stats)
	admin.GET("/inquiries", adminHandler.ListInquiries)
	admin.PATCH("/inquiries/:id/read", adminHandler.MarkInquiryRead)
	admin.DELETE("/inquiries/:id", adminHandler.DeleteInquiry)

	return router
}

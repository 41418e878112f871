package main

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"github.com/huntboard/team-lock-service/internal/app"
	"github.com/huntboard/team-lock-service/internal/config"
	"github.com/huntboard/team-lock-service/internal/controllers"
	"github.com/huntboard/team-lock-service/internal/middleware"
	"github.com/huntboard/team-lock-service/internal/repositories"
	"github.com/huntboard/team-lock-service/internal/services"
	"github.com/huntboard/team-lock-service/internal/utils"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize application:", err)
	}
	defer application.Close()

	//----------------------------------------------------------------------
	// Repositories
	//----------------------------------------------------------------------
	codeRegistryRepo := repositories.NewCodeRegistryRepository(application.DB)
	deviceLockRepo := repositories.NewDeviceLockRepository(application.DB)
	teamRecordRepo := repositories.NewTeamRecordRepository(application.DB)
	rateLimitRepo := repositories.NewRateLimitRepository(application.DB)

	//----------------------------------------------------------------------
	// Services
	//----------------------------------------------------------------------
	rateLimiterService := services.NewRateLimiterService(rateLimitRepo, cfg)
	tokenService := services.NewTokenService(cfg)

	verificationService := services.NewVerificationService(
		codeRegistryRepo,
		deviceLockRepo,
		rateLimiterService,
		tokenService,
		cfg,
	)

	cleanupService := services.NewCleanupService(deviceLockRepo, rateLimitRepo)

	//----------------------------------------------------------------------
	// Controllers
	//----------------------------------------------------------------------
	lockController := controllers.NewLockController(verificationService)
	teamRecordController := controllers.NewTeamRecordController(teamRecordRepo)
	healthController := controllers.NewHealthController(application)

	//----------------------------------------------------------------------
	// Router & Endpoints
	//----------------------------------------------------------------------
	router := mux.NewRouter()

	// Health
	router.HandleFunc("/health", healthController.HealthCheckHandler).Methods("GET")

	// /lock/v1: acquiring and resolving lock tokens
	lockRouter := router.PathPrefix("/lock").Subrouter()
	lockV1 := lockRouter.PathPrefix("/v1").Subrouter()
	lockV1.HandleFunc("/verify", lockController.Verify).Methods("POST")
	lockV1.HandleFunc("/context", lockController.Context).Methods("GET")

	// /teams/v1: every team-scoped route goes through the lock guard,
	// so no endpoint can forget the token/team cross-check.
	teamsRouter := router.PathPrefix("/teams").Subrouter()
	teamsV1 := teamsRouter.PathPrefix("/v1").Subrouter()
	teamsV1.Use(middleware.TeamLockMiddleware(tokenService))
	teamsV1.HandleFunc("/{teamId}/record", teamRecordController.GetRecord).Methods("GET")
	teamsV1.HandleFunc("/{teamId}/record", teamRecordController.UpdateRecord).Methods("PUT")

	//----------------------------------------------------------------------
	// Setup daily cleanup via cron
	//----------------------------------------------------------------------
	c := cron.New()

	_, schErr := c.AddFunc("0 3 * * *", func() {
		if e := cleanupService.CleanupDaily(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Scheduled lock/rate-limit cleanup failed")
		}
	})
	if schErr != nil {
		utils.Logger.WithError(schErr).Fatal("Failed to schedule cleanup job")
	}

	c.Start()

	co := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AppUrl},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", middleware.LockTokenHeader},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("Failed to start server:", err)
	}
}

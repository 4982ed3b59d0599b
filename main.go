package main

import (
	"log"
	"time"

	"github.com/Sreehari-776/AgentMarket/config"
	"github.com/Sreehari-776/AgentMarket/controllers"
	"github.com/Sreehari-776/AgentMarket/routes"
	"github.com/Sreehari-776/AgentMarket/utils"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

func main() {
	if err := utils.InitLogger(); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	utils.LogInfo("Starting AgentMarket server")

	cfg, err := config.LoadConfig()
	if err != nil {
		utils.LogError("Failed to load config: %v", err)
		log.Fatalf("Failed to load config: %v", err)
	}

	config.InitDB()
	utils.LogInfo("Database connected and migrated")

	if err := utils.EnsurePlatformUser(); err != nil {
		utils.LogError("Failed to seed platform account: %v", err)
		log.Fatalf("Failed to seed platform account: %v", err)
	}

	if err := controllers.CreateSampleAdmin(); err != nil {
		utils.LogError("Failed to seed admin account: %v", err)
	}

	// Hourly sweep for pending transactions whose gateway confirmation never
	// arrived
	scheduler := cron.New()
	window := time.Duration(cfg.ReconcileWindowHours) * time.Hour
	if _, err := scheduler.AddFunc("@hourly", func() {
		if _, err := utils.ReconcileStaleTransactions(window); err != nil {
			utils.LogError("Scheduled reconciliation failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("Failed to schedule reconciliation: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	routes.SetupRoutes(router)

	utils.LogInfo("Server listening on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		utils.LogError("Server failed: %v", err)
		log.Fatalf("Server failed: %v", err)
	}
}

package main

import (
	"log"
	"os"

	"github.com/aestheticclinic/clinic-backend/internal/config"
	"github.com/aestheticclinic/clinic-backend/internal/di"
)

func main() {
	di.LoadEnv()
	port := di.Getenv("PORT", "8080")
	if broker := os.Getenv("KAFKA_BROKER"); broker != "" {
		di.EnsureTopicExists(broker, di.NotificationTopic)
	}
	router := config.ServerSetup()
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

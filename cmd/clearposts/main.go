// Command clearposts deletes every post from the MongoDB store.
package main

import (
	"context"
	"os"
	"time"

	"github.com/anonto42/board-service/backend/internal/repositories"
	"github.com/anonto42/board-service/backend/pkg/config"
	"github.com/anonto42/board-service/backend/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New(os.Stdout, cfg.IsProduction(), cfg.LogLevel)

	client, err := config.InitMongo(cfg)
	if err != nil {
		log.Error("failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	repo := repositories.NewMongoPostRepository(client.Database(cfg.MongoDatabase))
	deleted, err := repo.DeleteAllPosts(ctx)
	cancel()

	if derr := client.Disconnect(context.Background()); derr != nil {
		log.Error("failed to disconnect from MongoDB", "error", derr)
	}
	if err != nil {
		log.Error("failed to delete posts", "error", err)
		os.Exit(1)
	}
	log.Info("deleted all posts", "count", deleted, "database", cfg.MongoDatabase)
}

package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/bugscope/backend/internal/api"
	"github.com/bugscope/backend/internal/config"
	"github.com/bugscope/backend/internal/db"
)

func main() {
	cfg := config.Load()

	app := fiber.New(fiber.Config{
		AppName: "Bugscope API",
	})

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "bugscope-backend",
		})
	})

	// The run store is optional: without Neo4j the service still analyzes,
	// it just answers synchronously and keeps no history.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	dbClient, err := db.NewNeo4jClient(ctx, db.Neo4jConfig{
		URI:      cfg.Neo4jURI,
		Username: cfg.Neo4jUser,
		Password: cfg.Neo4jPass,
	})
	cancel()
	if err != nil {
		log.Printf("run store unavailable, continuing without persistence: %v", err)
		dbClient = nil
	} else {
		defer dbClient.Close()
		if err := dbClient.CreateIndexes(context.Background()); err != nil {
			log.Printf("failed to create indexes: %v", err)
		}
	}

	handler := api.NewHandler(cfg, dbClient)
	api.SetupRoutes(app, handler)

	log.Printf("Starting Bugscope backend on port %s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}

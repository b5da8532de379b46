package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/weiwei-tsao/friendsfeed/internal/business/seed"
	"github.com/weiwei-tsao/friendsfeed/internal/platform/config"
	firestoreclient "github.com/weiwei-tsao/friendsfeed/internal/platform/firestore"
	"github.com/weiwei-tsao/friendsfeed/internal/platform/logger"
	"github.com/weiwei-tsao/friendsfeed/internal/repository"
)

func main() {
	ctx := context.Background()

	_ = godotenv.Load(".env.local", ".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logg.Sync()

	client, credsSource, err := firestoreclient.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer client.Close()
	logg.Info("connected to Firestore", "project", cfg.FirebaseProjectID, "credentials", credsSource)

	seeder := seed.NewSeeder(
		repository.NewContactRepository(client),
		repository.NewProductRepository(client),
		logg,
	)
	res, err := seeder.Run(ctx)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	if res.AlreadySeeded {
		fmt.Println("Seed data already exists")
		return
	}
	fmt.Printf("Seeded %d contacts and %d products\n", res.Created, res.Products)
}

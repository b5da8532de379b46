package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/weiwei-tsao/friendsfeed/internal/business/friends"
	"github.com/weiwei-tsao/friendsfeed/internal/business/ingest"
	"github.com/weiwei-tsao/friendsfeed/internal/business/seed"
	"github.com/weiwei-tsao/friendsfeed/internal/platform/auth"
	"github.com/weiwei-tsao/friendsfeed/internal/platform/config"
	firestoreclient "github.com/weiwei-tsao/friendsfeed/internal/platform/firestore"
	apirouter "github.com/weiwei-tsao/friendsfeed/internal/platform/http"
	"github.com/weiwei-tsao/friendsfeed/internal/platform/logger"
	redisclient "github.com/weiwei-tsao/friendsfeed/internal/platform/redis"
	"github.com/weiwei-tsao/friendsfeed/internal/repository"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load(".env.local", ".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	logg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer logg.Sync()

	gin.SetMode(cfg.GinMode)

	firestoreClient, credsSource, err := firestoreclient.New(ctx, cfg)
	if err != nil {
		logg.Fatal("firestore init failed", "error", err)
	}
	defer firestoreClient.Close()

	if err := firestoreclient.Ping(ctx, firestoreClient); err != nil {
		logg.Fatal("firestore ping failed", "error", err)
	}
	logg.Info("connected to Firestore", "project", cfg.FirebaseProjectID, "credentials", credsSource)

	rdb, err := redisclient.New(ctx, cfg)
	if err != nil {
		logg.Fatal("redis init failed", "error", err)
	}
	if rdb != nil {
		defer rdb.Close()
		logg.Info("catalog cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CatalogCacheTTL.String())
	}

	contactRepo := repository.NewContactRepository(firestoreClient)
	feedRepo := repository.NewFeedRepository(firestoreClient)
	uploadRepo := repository.NewUploadRepository(firestoreClient)
	userRepo := repository.NewUserRepository(firestoreClient)
	catalog := repository.NewCachedCatalog(repository.NewProductRepository(firestoreClient), rdb, cfg.CatalogCacheTTL, logg)

	feedService := friends.NewService(contactRepo, feedRepo, userRepo, logg)
	similarity := friends.NewSimilarityFinder(catalog, feedRepo)

	jobs := ingest.NewJobManager()
	// jobs outlive the request that queued them, so they hang off a background context
	pool := ingest.NewPool(context.Background(), cfg.IngestWorkers, cfg.IngestQueueSize, jobs, logg)
	ingestor := ingest.NewIngestor(contactRepo, catalog, uploadRepo, ingest.NewHTTPFetcher(), logg)
	uploadService := ingest.NewService(uploadRepo, ingestor, pool, jobs, logg)

	var seeder apirouter.SeedRunner
	if cfg.SeedEndpointEnabled {
		seeder = seed.NewSeeder(contactRepo, catalog, logg)
	}

	router := apirouter.NewRouter(apirouter.Deps{
		Feeds:          feedService,
		Similarity:     similarity,
		Uploads:        uploadService,
		Contacts:       contactRepo,
		Seeder:         seeder,
		Auth:           auth.NewVerifier(cfg.JWTSecretKey),
		Log:            logg,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("server error", "error", err)
		}
	}()
	logg.Info("server listening", "port", cfg.Port, "ingestWorkers", cfg.IngestWorkers)

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error("server shutdown error", "error", err)
	}
	if err := pool.Shutdown(shutdownCtx); err != nil {
		logg.Warn("ingest pool shutdown incomplete", "error", err)
	}
	logg.Info("server exited")
}

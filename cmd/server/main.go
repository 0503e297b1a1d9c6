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

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"

	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/es"
	"github.com/clipstream/backend/internal/events"
	"github.com/clipstream/backend/internal/handlers"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repo"
	"github.com/clipstream/backend/internal/service"
	"github.com/clipstream/backend/internal/storage"
	"github.com/clipstream/backend/internal/tokens"
	httpserver "github.com/clipstream/backend/internal/transport/http"
	"github.com/clipstream/backend/pkg/db"
)

func main() {
	ctx := context.Background()

	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	gormDB, err := db.Open(ctx, configuration.DSN())
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}
	if err := gormDB.AutoMigrate(
		&models.User{}, &models.Video{}, &models.Comment{},
		&models.Tweet{}, &models.Subscription{}, &models.WatchEntry{},
	); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	issuer := tokens.NewIssuer(
		[]byte(configuration.ACCESS_SECRET),
		[]byte(configuration.REFRESH_SECRET),
		configuration.ACCESS_TTL,
		configuration.REFRESH_TTL,
	)

	producer := events.NewProducer([]string{configuration.KAFKA_ADDRESS})

	esClient, err := es.NewClient(configuration)
	if err != nil {
		log.Fatalf("elasticsearch init error: %v", err)
	}

	media, err := storage.New(ctx, configuration)
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}

	repository := repo.New(gormDB)
	sessions := service.NewSessionService(repository, issuer)
	aggregates := service.NewAggregateService(repository)

	e := echo.New()
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover(), echomw.RequestID(), middleware.RequestLogger(logger))

	deps := httpserver.Deps{
		DB:                  gormDB,
		Issuer:              issuer,
		AuthHandler:         &handlers.AuthHandler{Sessions: sessions, Storage: media, Producer: producer},
		UserHandler:         &handlers.UserHandler{Repo: repository, Aggregates: aggregates, Storage: media},
		CommentHandler:      &handlers.CommentHandler{DB: gormDB, Aggregates: aggregates},
		TweetHandler:        &handlers.TweetHandler{DB: gormDB},
		VideoHandler:        &handlers.VideoHandler{DB: gormDB, Storage: media, Producer: producer, ES: esClient, Index: "videos"},
		SubscriptionHandler: &handlers.SubscriptionHandler{DB: gormDB},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         configuration.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := gormDB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}

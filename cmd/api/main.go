package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/review-auth-api/internal/config"
	"github.com/review-auth-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/review-auth-api/internal/infrastructure/jwt"
	redisstore "github.com/review-auth-api/internal/infrastructure/redis"
	s3infra "github.com/review-auth-api/internal/infrastructure/s3"
	"github.com/review-auth-api/internal/infrastructure/smtp"
	"github.com/review-auth-api/internal/infrastructure/sns"
	transporthttp "github.com/review-auth-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// Redis holds codes, throttle keys and refresh sessions; the service
	// cannot authenticate anyone without it.
	kv, err := redisstore.NewStore(context.Background(), cfg)
	if err != nil {
		log.Fatalf("redis not available: %v", err)
	}

	// JWT provider. Signing keys are required; there is no password fallback.
	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("JWT provider not available: %v", err)
	}

	// S3 store for submitted manuscripts.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	// SNS decision-event publisher (optional; decisions still apply without it).
	var publisher sns.EventPublisher
	if cfg.SNSTopicARN != "" {
		if p, err := sns.NewPublisher(cfg); err == nil {
			publisher = p
		} else {
			log.Printf("WARN: SNS publisher not available: %v", err)
		}
	}

	deps := &transporthttp.Deps{
		UserRepo:    dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		InviteRepo:  dynamo.NewInviteRepo(dynamoClient, cfg.DynamoTables.ReviewerInvites),
		ArticleRepo: dynamo.NewArticleRepo(dynamoClient, cfg.DynamoTables.Articles, cfg.DynamoTables.Reviewers),
		KV:          kv,
		S3Store:     s3Store,
		Mailer:      mailer,
		Publisher:   publisher,
		JWTProvider: jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}

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

	api "famsync-backend/cmd/api"
	attentiondomain "famsync-backend/internal/attention/domain"
	attentionRepo "famsync-backend/internal/attention/repository"
	"famsync-backend/internal/attention/scheduler"
	attentionUsecase "famsync-backend/internal/attention/usecase"
	authdomain "famsync-backend/internal/auth/domain"
	authRepo "famsync-backend/internal/auth/repository"
	familydomain "famsync-backend/internal/family/domain"
	familyRepo "famsync-backend/internal/family/repository"
	"famsync-backend/internal/notification"
	"famsync-backend/pkg/config"
	"famsync-backend/pkg/database"
	"famsync-backend/pkg/events"
	"famsync-backend/pkg/fcm"

	"google.golang.org/api/option"
)

func main() {
	// Load configuration
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(&authdomain.FCMToken{}, &familydomain.FamilyMember{}, &attentiondomain.AttentionMode{}, &attentiondomain.AttentionRequest{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	fcmTokenRepo := authRepo.NewFCMTokenRepository(db)
	memberRepo := familyRepo.NewMemberRepository(db)
	requestRepo := attentionRepo.NewGormRequestRepository(db)
	modeRepo := attentionRepo.NewModeRepository(db)

	// Initialize FCM Client (optional, requests still work without push)
	var sender notification.Sender
	if cfg.FirebaseCredentials != "" {
		fcmClient, err := fcm.NewClient(ctx, cfg.FirebaseCredentials)
		if err != nil {
			log.Printf("[WARN] Failed to initialize FCM client (push notifications disabled): %v", err)
		} else {
			sender = fcmClient
		}
	} else {
		log.Printf("[WARN] No Firebase credentials configured, FCM disabled")
	}
	dispatcher := notification.NewService(fcmTokenRepo, sender)

	// Initialize use cases (dependency injection)
	attentionUc := attentionUsecase.NewAttentionUsecase(requestRepo, modeRepo, memberRepo, dispatcher)

	// Lifecycle events (optional)
	if cfg.GoogleProjectID != "" && cfg.AttentionEventsTopic != "" {
		var opts []option.ClientOption
		if cfg.GoogleCredentials != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.GoogleCredentials))
		}
		publisher, err := events.NewPublisher(ctx, cfg.GoogleProjectID, cfg.AttentionEventsTopic, opts...)
		if err != nil {
			log.Printf("[WARN] Failed to initialize event publisher: %v", err)
		} else {
			attentionUc.SetEventPublisher(publisher)
			defer publisher.Close()
		}
	} else {
		log.Printf("[WARN] GOOGLE_PROJECT_ID or ATTENTION_EVENTS_TOPIC not configured, lifecycle events disabled")
	}

	// Expiry scheduler
	expiryScheduler := scheduler.NewExpiryScheduler(requestRepo, attentionUc, cfg.ExpirySweepInterval)
	attentionUc.SetExpiryTracker(expiryScheduler)
	expiryScheduler.Start()
	defer expiryScheduler.Stop()

	// Initialize HTTP handler
	handler := api.NewHandler(attentionUc, fcmTokenRepo, cfg)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler.Engine(),
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/alex-l-clark/task-manager/internal/auth"
	"github.com/alex-l-clark/task-manager/internal/config"
	"github.com/alex-l-clark/task-manager/internal/handlers"
	"github.com/alex-l-clark/task-manager/internal/session"
	"github.com/alex-l-clark/task-manager/internal/store"
	"github.com/alex-l-clark/task-manager/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	blob, err := storage.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("failed to initialize storage: %v", err)
	}

	hasher := auth.NewHasher(cfg.Auth.HashScheme, cfg.Auth.BCryptCost)

	userStore, err := store.NewUserStore(ctx, blob, hasher)
	if err != nil {
		log.Fatalf("failed to load user store: %v", err)
	}
	taskStore, err := store.NewTaskStore(ctx, blob)
	if err != nil {
		log.Fatalf("failed to load task store: %v", err)
	}

	sessions := session.NewManager(blob, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	if username, err := sessions.Current(ctx); err == nil {
		log.Printf("restored session for %q with %d tasks", username, len(taskStore.ListTasksForUser(username)))
	}

	router := handlers.NewRouter(cfg, blob,
		handlers.NewAuthHandler(userStore, sessions),
		handlers.NewTaskHandler(taskStore),
		sessions,
	)

	server := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("task-manager listening on %s (storage: %s)", server.Addr, cfg.Storage.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

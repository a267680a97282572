package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"rollcall/internal/attendance"
	"rollcall/internal/cleanup"
	"rollcall/internal/cloudinary"
	"rollcall/internal/config"
	"rollcall/internal/queue"
	"rollcall/internal/store"
)

// Worker drains the asset-cleanup queue and retries persisted failures on a
// schedule. Destroys here are best-effort; anything that still fails stays in
// pending_deletions for the next pass.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "rollcall:cleanup")
	}

	if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
		log.Fatal("Cloudinary not configured; cleanup worker has nothing to do")
	}
	cdnClient := cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)

	ledger := attendance.NewRepository(db.Client)
	sweeper := cleanup.NewSweeper(cdnClient, cleanup.NewPendingStore(db.Client), ledger)

	sched := cron.New()
	_, err = sched.AddFunc(cfg.CleanupSchedule, func() {
		destroyed, kept, remaining, err := sweeper.Sweep(ctx)
		if err != nil {
			log.Printf("scheduled sweep failed: %v", err)
			return
		}
		log.Printf("scheduled sweep done: %d destroyed, %d kept, %d remaining", destroyed, kept, remaining)
	})
	if err != nil {
		log.Fatalf("invalid CLEANUP_SCHEDULE %q: %v", cfg.CleanupSchedule, err)
	}
	sched.Start()
	defer sched.Stop()

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		sweeper.Handle(ctx, msg)
	}

	log.Println("worker stopped")
}

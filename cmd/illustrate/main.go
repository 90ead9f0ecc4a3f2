// Command illustrate drains the image prompt queue and spools jobs to
// a JSONL file for the image synthesis pipeline.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/generativefiction/fortuna-engine/internal/config"
	"github.com/generativefiction/fortuna-engine/internal/logger"
	"github.com/generativefiction/fortuna-engine/pkg/imagegen"
)

const dequeueTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting image prompt spooler", "redis_url", cfg.RedisURL)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error("Failed to close Redis client", "error", err)
		}
	}()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	spoolPath := os.Getenv("IMAGE_SPOOL_PATH")
	if spoolPath == "" {
		spoolPath = "image_prompts.jsonl"
	}
	spool, err := os.OpenFile(spoolPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Error("Failed to open spool file", "path", spoolPath, "error", err)
		os.Exit(1)
	}
	defer spool.Close()

	queue := imagegen.NewQueue(rdb, log)

	ctx, cancel := context.WithCancel(context.Background())
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info("Shutting down...")
		cancel()
	}()

	enc := json.NewEncoder(spool)
	for {
		job, err := queue.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Error("Failed to dequeue image prompt", "error", err)
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			if depth, err := queue.Depth(ctx); err == nil && depth > 0 {
				log.Warn("Queue reports pending prompts but dequeue timed out", "depth", depth)
			}
			continue
		}
		if err := enc.Encode(job); err != nil {
			log.Error("Failed to spool image prompt", "error", err)
			continue
		}
		log.Info("Spooled image prompt", "queued_at", job.QueuedAt)
	}

	log.Info("Spooler exited")
}

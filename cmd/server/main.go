package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"huddle/internal/app"
)

func main() {
	addr := flag.String("addr", envOrDefault("HUDDLE_ADDR", ":8800"), "server listen address")
	path := flag.String("path", envOrDefault("HUDDLE_PATH", "/join"), "websocket join path")
	db := flag.String("db", envOrDefault("HUDDLE_DB_PATH", ""), "sqlite asset index path (defaults to a per-user path)")
	uploads := flag.String("uploads", envOrDefault("HUDDLE_UPLOAD_DIR", ""), "directory for uploaded attachments")
	maxUpload := flag.Int64("max-upload", 10*1024*1024, "maximum upload size in bytes")
	flag.Parse()

	cfg := app.ServerConfig{
		Addr:           *addr,
		Path:           app.NormalizeJoinPath(*path),
		DBPath:         *db,
		UploadDir:      *uploads,
		MaxUploadBytes: *maxUpload,
	}
	if cfg.DBPath == "" {
		cfg.DBPath = app.DefaultDBPath()
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = app.DefaultUploadDir()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handle, err := app.RunServer(ctx, cfg)
	if err != nil {
		log.Fatalf("server error: %v", err)
	}
	log.Printf("Huddle server listening on %s (ws path %s, uploads %s)", handle.Addr(), cfg.Path, cfg.UploadDir)

	if err := handle.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "huddle-server: %v\n", err)
		os.Exit(1)
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

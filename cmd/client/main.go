package main

import (
	"flag"
	"fmt"
	"os"

	"huddle/internal/app"
)

func main() {
	defaultServer := envOrDefault("HUDDLE_SERVER", "ws://localhost:8800/join")
	defaultName := envOrDefault("HUDDLE_NAME", "")

	serverJoinURL := flag.String("server", defaultServer, "WebSocket join URL (e.g., ws://localhost:8800/join)")
	name := flag.String("name", defaultName, "display name to prefill the join prompt with")
	flag.Parse()

	cfg := app.ClientConfig{
		ServerURL: *serverJoinURL,
		Name:      *name,
	}

	if err := app.RunClient(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

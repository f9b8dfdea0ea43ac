package main

// Run one cleanup sweep and print the result:
//   go run ./cmd/sweep -now 2024-01-08T00:00:00Z

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"constructia-backend/internal/bootstrap"
	"constructia-backend/internal/shared/config"
	"constructia-backend/internal/shared/telemetry"
)

func main() {
	nowFlag := flag.String("now", "", "sweep instant in RFC3339 (defaults to the current time)")
	flag.Parse()

	now, err := parseNow(*nowFlag, time.Now)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	app, err := bootstrap.Build(config.Load())
	if err != nil {
		telemetry.Error("sweep.bootstrap_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	res, err := app.Sweeper.Sweep(context.Background(), now)
	app.Shutdown()
	if err != nil {
		telemetry.Error("sweep.failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	out, _ := json.Marshal(res)
	fmt.Println(string(out))
}

func parseNow(raw string, clock func() time.Time) (time.Time, error) {
	if raw == "" {
		return clock().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -now: %w", err)
	}
	return t.UTC(), nil
}

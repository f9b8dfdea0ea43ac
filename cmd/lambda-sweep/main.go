package main

// Build the scheduled sweep binary:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-sweep

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"constructia-backend/internal/bootstrap"
	"constructia-backend/internal/cleanup"
	"constructia-backend/internal/shared/config"
	"constructia-backend/internal/shared/telemetry"
)

var (
	initOnce sync.Once
	initErr  error
	app      *bootstrap.App
)

func initApp() {
	built, err := bootstrap.Build(config.Load())
	if err != nil {
		initErr = err
		return
	}
	app = built
}

// handler runs on an EventBridge schedule. The event time is the sweep instant.
func handler(ctx context.Context, event events.CloudWatchEvent) (cleanup.Result, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		telemetry.Error("lambda.bootstrap_failed", map[string]any{"error": initErr.Error()})
		return cleanup.Result{}, initErr
	}

	now := event.Time
	if now.IsZero() {
		now = time.Now().UTC()
	}
	res, err := app.Sweeper.Sweep(ctx, now)
	if app.Audit != nil {
		if ferr := app.Audit.Flush(ctx); ferr != nil {
			telemetry.Warn("lambda.audit_flush_failed", map[string]any{"error": ferr.Error()})
		}
	}
	return res, err
}

func main() {
	lambda.Start(handler)
}

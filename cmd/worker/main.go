package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"golang.org/x/sync/errgroup"

	"constructia-backend/internal/bootstrap"
	"constructia-backend/internal/cleanup"
	"constructia-backend/internal/shared/config"
	"constructia-backend/internal/shared/telemetry"
	"constructia-backend/internal/workerproc"
)

const (
	defaultVisibilitySeconds  = 300
	defaultWorkerConcurrency  = 4
	defaultShutdownTimeoutSec = 30
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		telemetry.Error("worker.bootstrap_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer app.Shutdown()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.SweepInterval > 0 && app.Sweeper != nil {
		g.Go(func() error {
			return cleanup.RunEvery(gctx, app.Sweeper, cfg.SweepInterval, nil)
		})
	}

	queueURL := strings.TrimSpace(cfg.SQSQueueURL)
	if queueURL != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			stop()
			fatal(app, "worker.aws_config_failed", err)
		}
		client := sqs.NewFromConfig(awsCfg)
		p := poller{
			client:          client,
			queueURL:        queueURL,
			proc:            app.HandoffService,
			visibility:      envInt("CT_SQS_VISIBILITY_TIMEOUT_SECONDS", defaultVisibilitySeconds),
			concurrency:     envInt("CT_WORKER_CONCURRENCY", defaultWorkerConcurrency),
			shutdownTimeout: time.Duration(envInt("CT_SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)) * time.Second,
		}
		g.Go(func() error { return p.run(gctx) })
	} else {
		telemetry.Warn("worker.queue_disabled", map[string]any{"key": "CT_SQS_QUEUE_URL"})
	}

	telemetry.Info("worker.started", map[string]any{
		"queue":          queueURL,
		"sweep_interval": cfg.SweepInterval.String(),
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		fatal(app, "worker.stopped", err)
	}
	telemetry.Info("worker.stopped", nil)
}

var exit = os.Exit

type shutdowner interface {
	Shutdown()
}

// fatal drains the app before exiting so buffered audit entries are persisted.
func fatal(app shutdowner, event string, err error) {
	telemetry.Error(event, map[string]any{"error": err.Error()})
	app.Shutdown()
	exit(1)
}

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type poller struct {
	client          sqsAPI
	queueURL        string
	proc            workerproc.Handoffer
	visibility      int
	concurrency     int
	shutdownTimeout time.Duration
}

func (p poller) run(ctx context.Context) error {
	sem := make(chan struct{}, max(1, p.concurrency))
	var wg sync.WaitGroup

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		default:
		}

		resp, err := p.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(p.queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   int32(p.visibility),
			AttributeNames:      []sqstypes.QueueAttributeName{sqstypes.QueueAttributeName("ApproximateReceiveCount")},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break pollLoop
			}
			telemetry.Warn("worker.receive_failed", map[string]any{"error": err.Error()})
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				// In-flight handoffs finish even when shutdown is requested.
				handleMessage(context.WithoutCancel(ctx), p.client, p.queueURL, p.proc, m)
			}(msg)
		}
	}

	telemetry.Info("worker.draining", map[string]any{"timeout": p.shutdownTimeout.String()})
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(p.shutdownTimeout):
		telemetry.Warn("worker.drain_timeout", nil)
	}
	return ctx.Err()
}

func handleMessage(ctx context.Context, client sqsAPI, queueURL string, proc workerproc.Handoffer, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)

	decoded, meta, err := workerproc.ParseMessage(body)
	if err != nil {
		fields := baseFields(msg, decoded.DocumentID, decoded.RequestID)
		fields["body_len"] = meta.BodyLen
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}
		fields["error"] = err.Error()
		telemetry.Error("worker.handoff.invalid_message", fields)
		deleteMessage(ctx, client, queueURL, msg, decoded.DocumentID, decoded.RequestID)
		return
	}

	telemetry.Info("worker.handoff.received", baseFields(msg, decoded.DocumentID, decoded.RequestID))

	ctxWithParsed := workerproc.WithParsedMessage(ctx, decoded)
	if err := workerproc.HandleMessage(ctxWithParsed, proc, body); err != nil {
		fields := baseFields(msg, decoded.DocumentID, decoded.RequestID)
		fields["error"] = err.Error()
		if workerproc.IsPermanent(err) {
			fields["permanent"] = true
			telemetry.Error("worker.handoff.failed", fields)
			deleteMessage(ctx, client, queueURL, msg, decoded.DocumentID, decoded.RequestID)
			return
		}
		telemetry.Warn("worker.handoff.failed", fields)
		return
	}

	if deleteMessage(ctx, client, queueURL, msg, decoded.DocumentID, decoded.RequestID) {
		telemetry.Info("worker.handoff.completed", baseFields(msg, decoded.DocumentID, decoded.RequestID))
	}
}

func deleteMessage(ctx context.Context, client sqsAPI, queueURL string, msg sqstypes.Message, documentID, requestID string) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, documentID, requestID)
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.handoff.delete_failed", fields)
		return false
	}
	if _, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, documentID, requestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.handoff.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, documentID, requestID string) map[string]any {
	fields := map[string]any{
		"documentId":     documentID,
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
	if strings.TrimSpace(requestID) != "" {
		fields["request_id"] = requestID
	}
	return fields
}

func receiveCount(msg sqstypes.Message) int {
	if msg.Attributes == nil {
		return 0
	}
	raw := msg.Attributes["ApproximateReceiveCount"]
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}

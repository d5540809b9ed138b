package trigger

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/flaboy/aira-books/pkg/config"
	"github.com/flaboy/aira-books/pkg/errors"
	"github.com/flaboy/aira-books/pkg/syncer"
)

// syncRequest 队列中的同步请求消息
type syncRequest struct {
	Action string `json:"action"`
	TeamID uint   `json:"team_id"`
}

// Listener long-polls an SQS queue for sync requests and dispatches them to
// the sync engine. Requests for a team with a run in flight are dropped, not
// retried, so a chatty producer cannot pile up duplicate runs.
type Listener struct {
	engine *syncer.Syncer
	cfg    *config.BooksConfig
}

func NewListener(engine *syncer.Syncer, cfg *config.BooksConfig) *Listener {
	return &Listener{engine: engine, cfg: cfg}
}

func (l *Listener) Start(ctx context.Context) error {
	var awsCfg aws.Config
	var err error

	if l.cfg.Trigger.AWSAccessKey != "" && l.cfg.Trigger.AWSSecret != "" {
		awsCfg, err = awsConfig.LoadDefaultConfig(ctx,
			awsConfig.WithRegion(l.cfg.Trigger.AWSRegion),
			awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				l.cfg.Trigger.AWSAccessKey,
				l.cfg.Trigger.AWSSecret,
				"",
			)),
		)
	} else {
		// 回退到默认凭证链
		awsCfg, err = awsConfig.LoadDefaultConfig(ctx,
			awsConfig.WithRegion(l.cfg.Trigger.AWSRegion),
		)
	}
	if err != nil {
		return err
	}

	client := sqs.NewFromConfig(awsCfg)
	slog.Info("sync trigger listener started", "queue", l.cfg.Trigger.SQSQueueURL)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		output, err := client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(l.cfg.Trigger.SQSQueueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20, // 长轮询
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("error receiving from sqs", "error", err)
			time.Sleep(5 * time.Second)
			continue
		}

		for _, message := range output.Messages {
			l.handleMessage(ctx, message.Body)

			_, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
				QueueUrl:      aws.String(l.cfg.Trigger.SQSQueueURL),
				ReceiptHandle: message.ReceiptHandle,
			})
			if err != nil {
				slog.Error("error deleting sqs message", "error", err)
			}
		}
	}
}

func (l *Listener) handleMessage(ctx context.Context, body *string) {
	if body == nil {
		return
	}

	var request syncRequest
	if err := json.Unmarshal([]byte(*body), &request); err != nil {
		slog.Error("unparseable sync request", "error", err)
		return
	}
	if request.Action != "" && request.Action != "sync" {
		slog.Warn("unknown trigger action, skipping", "action", request.Action)
		return
	}
	if request.TeamID == 0 {
		slog.Error("sync request without team_id")
		return
	}

	run, err := l.engine.Run(ctx, request.TeamID)
	if err == errors.ErrSyncAlreadyRunning {
		slog.Warn("sync already running, request dropped", "team_id", request.TeamID)
		return
	}
	if err != nil {
		slog.Error("triggered sync failed", "team_id", request.TeamID, "error", err)
		return
	}
	slog.Info("triggered sync finished",
		"team_id", request.TeamID,
		"sync_run_id", run.ID,
		"successful_invoices", run.SuccessfulInvoices,
		"failed_invoices", run.FailedInvoices)
}

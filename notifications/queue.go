package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anjiri1684/elevate_lms/logger"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	TaskSendEmail = "email.send"
	emailQueue    = "mail"
)

func NewSendEmailTask(msg Message) (*asynq.Task, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSendEmail, data, asynq.MaxRetry(5), asynq.Queue(emailQueue)), nil
}

func ParseSendEmailTask(task *asynq.Task) (Message, error) {
	var msg Message
	if err := json.Unmarshal(task.Payload(), &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

func redisOpt(redisURL string) (asynq.RedisClientOpt, error) {
	if redisURL == "" {
		return asynq.RedisClientOpt{}, fmt.Errorf("redis url not configured")
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}
	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}

// QueueMailer enqueues messages for the worker; delivery retries are handled by asynq.
type QueueMailer struct {
	client *asynq.Client
	direct Mailer
	worker *asynq.Server
}

func NewQueueMailer(redisURL string, direct Mailer) (*QueueMailer, error) {
	opt, err := redisOpt(redisURL)
	if err != nil {
		return nil, err
	}
	return &QueueMailer{client: asynq.NewClient(opt), direct: direct}, nil
}

func (q *QueueMailer) Send(ctx context.Context, msg Message) error {
	task, err := NewSendEmailTask(msg)
	if err != nil {
		return err
	}
	_, err = q.client.EnqueueContext(ctx, task)
	return err
}

// Handle delivers one queued message through the direct mailer.
func (q *QueueMailer) Handle(ctx context.Context, task *asynq.Task) error {
	msg, err := ParseSendEmailTask(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return q.direct.Send(ctx, msg)
}

// StartWorker runs the asynq server in the background.
func (q *QueueMailer) StartWorker(redisURL string, concurrency int) error {
	opt, err := redisOpt(redisURL)
	if err != nil {
		return err
	}
	if concurrency < 1 {
		concurrency = 5
	}
	q.worker = asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{emailQueue: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Module("mail").Error("queued email failed", zap.String("task", task.Type()), zap.Error(err))
		}),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskSendEmail, q.Handle)
	return q.worker.Start(mux)
}

func (q *QueueMailer) Shutdown() {
	if q.worker != nil {
		q.worker.Shutdown()
	}
	_ = q.client.Close()
}

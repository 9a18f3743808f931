// Package worker consumes verification jobs enqueued by the reporting
// application and publishes the outcomes back on a result queue.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sandipsawant10/flood-management-sub002/internal/config"
	"github.com/sandipsawant10/flood-management-sub002/internal/core/service"
	"github.com/sandipsawant10/flood-management-sub002/internal/models"
)

const (
	consumerTag        = "flood-verifier-consumer"
	connectRetryDelay  = 5 * time.Second
	maxConnectRetries  = 10
	verifyTimeout      = 60 * time.Second
	publishTimeout     = 30 * time.Second
	defaultConcurrency = 10
)

// VerificationJob is the message the reporting application enqueues when a
// report needs automated verification.
type VerificationJob struct {
	ReportID string `json:"reportId"`
}

// JobConsumer consumes verification jobs from RabbitMQ with a bounded
// number of concurrent workers.
type JobConsumer struct {
	conn            *amqp.Connection
	channel         *amqp.Channel
	cfg             *config.Config
	svc             *service.VerificationService
	logger          *slog.Logger
	done            chan bool
	isStopping      bool
	notifyConnClose chan *amqp.Error
	notifyChanClose chan *amqp.Error
	semaphore       chan struct{}
	wg              sync.WaitGroup
	concurrency     int
}

func NewJobConsumer(cfg *config.Config, svc *service.VerificationService, concurrency int, logger *slog.Logger) (*JobConsumer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if svc == nil {
		return nil, fmt.Errorf("verification service cannot be nil")
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	jc := &JobConsumer{
		cfg:         cfg,
		svc:         svc,
		logger:      logger.With("component", "job-consumer"),
		done:        make(chan bool),
		concurrency: concurrency,
		semaphore:   make(chan struct{}, concurrency),
	}

	if err := jc.connect(); err != nil {
		jc.logger.Warn("initial connection failed, retrying once", "error", err)
		time.Sleep(connectRetryDelay)
		if err = jc.connect(); err != nil {
			return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
		}
	}
	return jc, nil
}

func (jc *JobConsumer) connect() error {
	var err error
	jc.conn, err = amqp.Dial(jc.cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("dial RabbitMQ: %w", err)
	}

	jc.channel, err = jc.conn.Channel()
	if err != nil {
		jc.conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	jc.notifyConnClose = make(chan *amqp.Error)
	jc.notifyChanClose = make(chan *amqp.Error)
	jc.conn.NotifyClose(jc.notifyConnClose)
	jc.channel.NotifyClose(jc.notifyChanClose)

	// Must match the producer's assertion.
	if _, err = jc.channel.QueueDeclare(jc.cfg.VerifyQueueName, true, false, false, false, nil); err != nil {
		jc.channel.Close()
		jc.conn.Close()
		return fmt.Errorf("declare queue %s: %w", jc.cfg.VerifyQueueName, err)
	}

	if err = jc.channel.Qos(jc.concurrency, 0, false); err != nil {
		jc.logger.Warn("failed to set QoS", "error", err)
	}

	jc.logger.Info("connected to RabbitMQ", "queue", jc.cfg.VerifyQueueName, "prefetch", jc.concurrency)
	return nil
}

// StartConsuming blocks until the context is cancelled, Stop is called or a
// fatal connection error exhausts the reconnect attempts.
func (jc *JobConsumer) StartConsuming(ctx context.Context) {
	if jc.channel == nil || jc.conn == nil || jc.conn.IsClosed() {
		if err := jc.handleReconnect(ctx); err != nil {
			jc.logger.Error("reconnect before consuming failed, consumer stopping", "error", err)
			return
		}
	}

	deliveries, err := jc.channel.Consume(jc.cfg.VerifyQueueName, consumerTag, false, false, false, false, nil)
	if err != nil {
		jc.logger.Error("failed to register consumer", "error", err)
		if reconnErr := jc.handleReconnect(ctx); reconnErr != nil {
			jc.logger.Error("reconnect after consume failure failed, consumer stopping", "error", reconnErr)
		}
		return
	}

	jc.logger.Info("consuming verification jobs", "queue", jc.cfg.VerifyQueueName)

	for {
		select {
		case <-ctx.Done():
			jc.logger.Info("context cancelled, stopping consumer")
			jc.Stop()
			return

		case d, ok := <-deliveries:
			if !ok {
				jc.logger.Warn("delivery channel closed unexpectedly")
				if !jc.isStopping {
					if err := jc.handleReconnect(ctx); err != nil {
						jc.logger.Error("reconnect failed, consumer stopping", "error", err)
					}
				}
				return
			}
			jc.wg.Add(1)
			jc.semaphore <- struct{}{} // blocks when all workers are busy
			go jc.processDelivery(ctx, d)

		case err := <-jc.notifyConnClose:
			jc.logger.Warn("connection closed", "error", err)
			jc.clearNotifications()
			if !jc.isStopping {
				if reconnErr := jc.handleReconnect(ctx); reconnErr != nil {
					jc.logger.Error("reconnect failed, consumer stopping", "error", reconnErr)
				}
			}
			return

		case <-jc.done:
			jc.logger.Info("stop signal received, exiting consumer")
			return
		}
	}
}

func (jc *JobConsumer) processDelivery(ctx context.Context, d amqp.Delivery) {
	defer func() {
		<-jc.semaphore
		jc.wg.Done()
		if r := recover(); r != nil {
			jc.logger.Error("panic recovered while processing delivery", "delivery_tag", d.DeliveryTag, "panic", r)
			if nackErr := d.Nack(false, false); nackErr != nil {
				jc.logger.Error("nack after panic failed", "delivery_tag", d.DeliveryTag, "error", nackErr)
			}
		}
	}()

	var job VerificationJob
	if err := json.Unmarshal(d.Body, &job); err != nil || job.ReportID == "" {
		jc.logger.Warn("dropping unparseable job", "delivery_tag", d.DeliveryTag, "error", err)
		if nackErr := d.Nack(false, false); nackErr != nil {
			jc.logger.Error("nack of unparseable job failed", "delivery_tag", d.DeliveryTag, "error", nackErr)
		}
		return
	}

	verifyCtx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
	outcome, err := jc.svc.VerifyReport(verifyCtx, job.ReportID)
	cancel()

	if err != nil {
		// Unknown or already-moderated reports will not succeed on redelivery.
		if errors.Is(err, models.ErrReportNotFound) || errors.Is(err, models.ErrReportNotPending) {
			jc.logger.Warn("dropping job for unverifiable report", "report_id", job.ReportID, "error", err)
			if ackErr := d.Ack(false); ackErr != nil {
				jc.logger.Error("ack failed", "delivery_tag", d.DeliveryTag, "error", ackErr)
			}
			return
		}
		jc.logger.Error("verification failed", "report_id", job.ReportID, "error", err)
		if nackErr := d.Nack(false, false); nackErr != nil {
			jc.logger.Error("nack failed", "delivery_tag", d.DeliveryTag, "error", nackErr)
		}
		return
	}

	pubCtx, pubCancel := context.WithTimeout(context.Background(), publishTimeout)
	defer pubCancel()
	if err := jc.publishOutcome(pubCtx, outcome); err != nil {
		jc.logger.Error("failed to publish outcome, requeueing job", "report_id", job.ReportID, "error", err)
		if nackErr := d.Nack(false, true); nackErr != nil {
			jc.logger.Error("nack failed", "delivery_tag", d.DeliveryTag, "error", nackErr)
		}
		return
	}

	if err := d.Ack(false); err != nil {
		jc.logger.Error("ack failed", "delivery_tag", d.DeliveryTag, "error", err)
	}
}

func (jc *JobConsumer) publishOutcome(ctx context.Context, outcome *models.VerificationOutcome) error {
	if jc.channel == nil || jc.conn == nil || jc.conn.IsClosed() {
		if err := jc.handleReconnect(ctx); err != nil {
			return fmt.Errorf("reconnect before publish: %w", err)
		}
	}

	if _, err := jc.channel.QueueDeclare(jc.cfg.ResultQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare result queue: %w", err)
	}

	body, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("marshal outcome: %w", err)
	}

	err = jc.channel.PublishWithContext(ctx, "", jc.cfg.ResultQueueName, false, false, amqp.Publishing{
		ContentType:   "application/json",
		Body:          body,
		DeliveryMode:  amqp.Persistent,
		Timestamp:     time.Now(),
		MessageId:     uuid.NewString(),
		CorrelationId: outcome.ReportID,
	})
	if err != nil {
		return fmt.Errorf("publish outcome: %w", err)
	}

	jc.logger.Info("published verification outcome", "report_id", outcome.ReportID, "overall_status", outcome.OverallStatus)
	return nil
}

func (jc *JobConsumer) clearNotifications() {
	if jc.notifyConnClose != nil {
		close(jc.notifyConnClose)
		jc.notifyConnClose = nil
	}
	if jc.notifyChanClose != nil {
		close(jc.notifyChanClose)
		jc.notifyChanClose = nil
	}
}

func (jc *JobConsumer) handleReconnect(ctx context.Context) error {
	jc.clearNotifications()
	if jc.channel != nil {
		jc.channel.Close()
		jc.channel = nil
	}
	if jc.conn != nil {
		jc.conn.Close()
		jc.conn = nil
	}

	for i := 0; i < maxConnectRetries; i++ {
		if jc.isStopping || ctx.Err() != nil {
			return fmt.Errorf("reconnect aborted: %w", ctx.Err())
		}
		jc.logger.Info("reconnect attempt", "attempt", i+1)
		if err := jc.connect(); err == nil {
			go jc.StartConsuming(ctx)
			return nil
		}
		select {
		case <-time.After(connectRetryDelay):
		case <-ctx.Done():
			return ctx.Err()
		case <-jc.done:
			return fmt.Errorf("reconnect aborted: consumer stopped")
		}
	}
	return fmt.Errorf("failed to reconnect after %d attempts", maxConnectRetries)
}

// Stop signals the consume loop to exit. Safe to call more than once.
func (jc *JobConsumer) Stop() {
	jc.isStopping = true
	select {
	case jc.done <- true:
	default:
	}
}

// Close waits for in-flight workers and releases the RabbitMQ resources.
func (jc *JobConsumer) Close() {
	jc.wg.Wait()
	if jc.channel != nil {
		if err := jc.channel.Close(); err != nil {
			jc.logger.Warn("error closing channel", "error", err)
		}
		jc.channel = nil
	}
	if jc.conn != nil {
		if err := jc.conn.Close(); err != nil {
			jc.logger.Warn("error closing connection", "error", err)
		}
		jc.conn = nil
	}
	jc.logger.Info("consumer closed")
}

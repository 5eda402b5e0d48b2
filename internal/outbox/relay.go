package outbox

import (
	"context"
	"log"
	"sync"
	"time"

	"ai-resume-go/internal/storage/models"
	"ai-resume-go/internal/tracing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultPollingInterval = 5 * time.Second
	defaultBatchSize       = 10
	maxRetryCount          = 5
)

// Publisher 把消息投递到消息代理，由 storage.RabbitMQ 实现
type Publisher interface {
	PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool) error
}

// RelayOption 配置 MessageRelay
type RelayOption func(*MessageRelay)

// WithPollingInterval 设置轮询间隔
func WithPollingInterval(d time.Duration) RelayOption {
	return func(r *MessageRelay) {
		if d > 0 {
			r.pollingInterval = d
		}
	}
}

// WithBatchSize 设置每次轮询处理的消息数
func WithBatchSize(n int) RelayOption {
	return func(r *MessageRelay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithRelayLogger 设置日志记录器
func WithRelayLogger(l *log.Logger) RelayOption {
	return func(r *MessageRelay) {
		if l != nil {
			r.logger = l
		}
	}
}

// MessageRelay 轮询 outbox 表并将消息发布到消息代理。
type MessageRelay struct {
	db              *gorm.DB
	publisher       Publisher
	logger          *log.Logger
	pollingInterval time.Duration
	batchSize       int
	done            chan struct{}
	stopOnce        sync.Once
	wg              sync.WaitGroup
	tracer          trace.Tracer
}

// NewMessageRelay 创建一个新的 MessageRelay 实例。
func NewMessageRelay(db *gorm.DB, publisher Publisher, opts ...RelayOption) *MessageRelay {
	r := &MessageRelay{
		db:              db,
		publisher:       publisher,
		logger:          log.New(log.Writer(), "[OutboxRelay] ", log.LstdFlags),
		pollingInterval: defaultPollingInterval,
		batchSize:       defaultBatchSize,
		done:            make(chan struct{}),
		tracer:          otel.Tracer("ai-resume-go/outbox"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start 开始消息中继的轮询过程。
func (r *MessageRelay) Start() {
	r.logger.Printf("MessageRelay starting, interval=%s batch=%d", r.pollingInterval, r.batchSize)
	ticker := time.NewTicker(r.pollingInterval)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-r.done:
				r.logger.Println("MessageRelay stopped.")
				return
			case <-ticker.C:
				if err := r.processPendingMessages(context.Background()); err != nil {
					r.logger.Printf("Error processing pending messages: %v", err)
				}
			}
		}
	}()
}

// Stop 停止轮询并等待当前批次结束，可重复调用
func (r *MessageRelay) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
	})
	r.wg.Wait()
}

// processPendingMessages 获取并处理一批来自 outbox 表的待处理消息。
func (r *MessageRelay) processPendingMessages(ctx context.Context) error {
	var messages []models.OutboxMessage

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer tx.Rollback()

	// SKIP LOCKED 让多个实例可以同时轮询而不重复投递
	err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ?", models.OutboxStatusPending).
		Order("created_at asc").
		Limit(r.batchSize).
		Find(&messages).Error
	if err != nil {
		r.logger.Printf("Failed to fetch pending outbox messages: %v", err)
		return err
	}

	// 空轮询不创建 span
	if len(messages) == 0 {
		return tx.Commit().Error
	}

	ctx, span := r.tracer.Start(ctx, "outbox.ProcessBatch",
		trace.WithAttributes(attribute.Int("messaging.batch.message_count", len(messages))),
	)
	defer span.End()

	for i := range messages {
		msg := &messages[i]
		pubErr := r.publisher.PublishMessage(ctx, msg.TargetExchange, msg.TargetRoutingKey, []byte(msg.Payload), true)
		if pubErr != nil {
			r.logger.Printf("Failed to publish message %s (AggregateID: %s): %v. Retries: %d", msg.EventID, msg.AggregateID, pubErr, msg.RetryCount+1)
			tracing.RecordRabbitMQNack(span, msg.EventID, pubErr.Error())
		}
		applyPublishResult(msg, pubErr, time.Now())

		if err := tx.Save(msg).Error; err != nil {
			// 整批回滚，下次轮询重新拾取
			r.logger.Printf("Failed to update outbox message %s: %v", msg.EventID, err)
			tracing.RecordError(span, err, tracing.ErrorTypeDB)
			return err
		}
	}

	return tx.Commit().Error
}

// applyPublishResult 根据发布结果推进消息状态：成功置 SENT，失败累加重试，达到上限置 FAILED
func applyPublishResult(msg *models.OutboxMessage, pubErr error, now time.Time) {
	if pubErr == nil {
		msg.Status = models.OutboxStatusSent
		msg.ProcessedAt = &now
		msg.ErrorMessage = ""
		return
	}
	msg.RetryCount++
	msg.ErrorMessage = tracing.TruncateString(pubErr.Error(), 1000)
	if msg.RetryCount >= maxRetryCount {
		msg.Status = models.OutboxStatusFailed
		msg.ProcessedAt = &now
	}
}

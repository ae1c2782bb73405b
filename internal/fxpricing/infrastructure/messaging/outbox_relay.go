package messaging

import (
	"context"
	"time"

	"github.com/wyfcoding/fxpricing/pkg/logger"
	"github.com/wyfcoding/fxpricing/pkg/metrics"
	"github.com/wyfcoding/fxpricing/pkg/utils"
	"github.com/wyfcoding/pkg/messagequeue/outbox"
	"gorm.io/gorm"
)

// DeadLetterSink 接收超过重试次数的事件
type DeadLetterSink interface {
	Send(ctx context.Context, topic, key string, value []byte, reason string) error
}

// RelayConfig outbox 转发配置
type RelayConfig struct {
	BatchSize           int
	Interval            time.Duration
	SendRetries         int
	Retention           time.Duration
	MaintenanceInterval time.Duration
}

func (c RelayConfig) withDefaults() RelayConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.Interval <= 0 {
		c.Interval = time.Second
	}
	if c.SendRetries <= 0 {
		c.SendRetries = 1
	}
	if c.Retention <= 0 {
		c.Retention = 7 * 24 * time.Hour
	}
	if c.MaintenanceInterval <= 0 {
		c.MaintenanceInterval = time.Minute
	}
	return c
}

// OutboxRelay 由 outbox.Processor 扫描投递，自身负责死信转移与过期清理
type OutboxRelay struct {
	db        *gorm.DB
	pusher    outbox.Pusher
	dlq       DeadLetterSink
	metrics   *metrics.Metrics
	cfg       RelayConfig
	processor *outbox.Processor
}

// NewOutboxRelay dlq 与 m 可为 nil
func NewOutboxRelay(db *gorm.DB, manager *outbox.Manager, pusher outbox.Pusher, dlq DeadLetterSink, m *metrics.Metrics, cfg RelayConfig) *OutboxRelay {
	r := &OutboxRelay{
		db:      db,
		pusher:  pusher,
		dlq:     dlq,
		metrics: m,
		cfg:     cfg.withDefaults(),
	}
	r.processor = outbox.NewProcessor(manager, r.push, r.cfg.BatchSize, r.cfg.Interval)
	return r
}

// push 单条投递，失败的退避与重试计数交给 Processor
func (r *OutboxRelay) push(ctx context.Context, topic, key string, payload []byte) error {
	err := utils.RetryWithBackoff(ctx, r.cfg.SendRetries, 50*time.Millisecond, time.Second, func() error {
		return r.pusher.Push(ctx, topic, key, payload)
	})
	if err != nil {
		r.metrics.RecordOutbox("failed", 1)
		return err
	}
	r.metrics.RecordOutbox("sent", 1)
	return nil
}

// Run 启动 Processor 并周期性维护 outbox 表，直到 ctx 结束
func (r *OutboxRelay) Run(ctx context.Context) error {
	logger.Info(ctx, "outbox relay started", "interval", r.cfg.Interval, "batch_size", r.cfg.BatchSize)
	r.processor.Start()
	defer r.processor.Stop()

	ticker := time.NewTicker(r.cfg.MaintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(context.Background(), "outbox relay stopped")
			return nil
		case <-ticker.C:
			r.maintain(ctx)
		}
	}
}

func (r *OutboxRelay) maintain(ctx context.Context) {
	if moved, err := r.DeadLetter(ctx); err != nil {
		logger.Error(ctx, "outbox dead-letter sweep failed", "error", err)
	} else if moved > 0 {
		logger.Warn(ctx, "outbox messages moved to dead letter queue", "count", moved)
	}

	removed, err := r.Cleanup(ctx, time.Now().Add(-r.cfg.Retention))
	if err != nil {
		logger.Error(ctx, "outbox cleanup failed", "error", err)
	} else if removed > 0 {
		logger.Info(ctx, "outbox cleanup removed sent messages", "count", removed)
	}
}

// DeadLetter 把永久失败的消息转入死信队列并从 outbox 移除，dlq 为 nil 时保留原行
func (r *OutboxRelay) DeadLetter(ctx context.Context) (int, error) {
	if r.dlq == nil {
		return 0, nil
	}
	var messages []outbox.OutboxMessage
	if err := r.db.WithContext(ctx).
		Where("status = ?", outbox.StatusFailed).
		Order("id asc").
		Limit(r.cfg.BatchSize).
		Find(&messages).Error; err != nil {
		return 0, err
	}

	moved := 0
	for i := range messages {
		msg := &messages[i]
		if err := r.dlq.Send(ctx, msg.Topic, msg.Key, msg.Payload, msg.LastError); err != nil {
			logger.Error(ctx, "failed to dead-letter outbox message", "id", msg.ID, "topic", msg.Topic, "error", err)
			continue
		}
		if err := r.db.WithContext(ctx).Unscoped().Delete(&outbox.OutboxMessage{}, msg.ID).Error; err != nil {
			return moved, err
		}
		moved++
	}
	r.metrics.RecordOutbox("dead_lettered", moved)
	return moved, nil
}

// Cleanup 删除 before 之前已投递的消息
func (r *OutboxRelay) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Unscoped().
		Where("status = ? AND updated_at < ?", outbox.StatusSent, before).
		Delete(&outbox.OutboxMessage{})
	return res.RowsAffected, res.Error
}

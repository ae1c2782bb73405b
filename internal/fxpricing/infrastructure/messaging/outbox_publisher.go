package messaging

import (
	"context"
	"fmt"

	"github.com/wyfcoding/fxpricing/internal/fxpricing/domain"
	"github.com/wyfcoding/pkg/messagequeue/outbox"
	"gorm.io/gorm"
)

// AutoMigrate 创建或更新 outbox 表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&outbox.OutboxMessage{})
}

// OutboxPublisher 实现 domain.EventPublisher，事件经 outbox.Manager 落库，由 OutboxRelay 投递
type OutboxPublisher struct {
	db      *gorm.DB
	manager *outbox.Manager
}

var _ domain.EventPublisher = (*OutboxPublisher)(nil)

// NewOutboxPublisher 创建新的 OutboxPublisher 实例
func NewOutboxPublisher(db *gorm.DB, manager *outbox.Manager) *OutboxPublisher {
	return &OutboxPublisher{db: db, manager: manager}
}

// Publish 在独立写入中保存事件
func (p *OutboxPublisher) Publish(ctx context.Context, topic, key string, event any) error {
	if err := p.manager.PublishInTx(p.db.WithContext(ctx), topic, key, event); err != nil {
		return fmt.Errorf("outbox: save %s event: %w", topic, err)
	}
	return nil
}

// PublishInTx 使用调用方的事务保存事件，tx 必须是 *gorm.DB
func (p *OutboxPublisher) PublishInTx(ctx context.Context, tx any, topic, key string, event any) error {
	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return fmt.Errorf("outbox: unsupported transaction type %T", tx)
	}
	if err := p.manager.PublishInTx(gormTx.WithContext(ctx), topic, key, event); err != nil {
		return fmt.Errorf("outbox: save %s event: %w", topic, err)
	}
	return nil
}

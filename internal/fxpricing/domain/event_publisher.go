package domain

import "context"

// EventPublisher 领域事件发布者接口
type EventPublisher interface {
	// Publish 独立发布一个事件
	Publish(ctx context.Context, topic string, key string, event any) error

	// PublishInTx 在业务事务内发布事件，tx 为仓储开启的事务句柄
	PublishInTx(ctx context.Context, tx any, topic string, key string, event any) error
}

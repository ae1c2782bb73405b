package utils

import "context"

type txKey struct{}

// WithTx 将事务句柄放入 ctx，仓储与事件发布在同一事务内取用
func WithTx(ctx context.Context, tx any) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// GetTx 取出 ctx 中的事务句柄，不存在时返回 nil
func GetTx(ctx context.Context) any {
	return ctx.Value(txKey{})
}

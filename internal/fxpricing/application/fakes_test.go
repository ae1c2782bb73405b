package application

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/wyfcoding/fxpricing/internal/fxpricing/domain"
	"github.com/wyfcoding/fxpricing/pkg/utils"
)

const fakeTx = "fake-tx"

// memoryRepo 内存仓储，WithTx 失败时丢弃本次事务写入
type memoryRepo struct {
	mu      sync.Mutex
	nextID  uint
	results []*domain.PricingResult
	saveErr error
	staged  []*domain.PricingResult
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	r.staged = nil
	r.mu.Unlock()

	err := fn(utils.WithTx(ctx, fakeTx))

	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		r.results = append(r.results, r.staged...)
	}
	r.staged = nil
	return err
}

func (r *memoryRepo) Save(ctx context.Context, result *domain.PricingResult) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	result.ID = r.nextID
	if utils.GetTx(ctx) == nil {
		r.results = append(r.results, result)
		return nil
	}
	r.staged = append(r.staged, result)
	return nil
}

func (r *memoryRepo) GetLatest(ctx context.Context, symbol string) (*domain.PricingResult, error) {
	history, err := r.GetHistory(ctx, symbol, 1)
	if err != nil || len(history) == 0 {
		return nil, err
	}
	return history[0], nil
}

func (r *memoryRepo) GetHistory(_ context.Context, symbol string, limit int) ([]*domain.PricingResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.PricingResult
	for _, res := range r.results {
		if res.Symbol == symbol {
			out = append(out, res)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]*domain.PricingResult
	gets    int
	getErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]*domain.PricingResult)}
}

func (c *memoryCache) Get(_ context.Context, symbol string) (*domain.PricingResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.entries[symbol], nil
}

func (c *memoryCache) Set(_ context.Context, result *domain.PricingResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[result.Symbol] = result
	return nil
}

type publishedEvent struct {
	topic string
	key   string
	event any
	tx    any
}

type recordingPublisher struct {
	mu        sync.Mutex
	events    []publishedEvent
	inTxErr   error
	publishFn func(topic string) error
}

var _ domain.EventPublisher = (*recordingPublisher)(nil)

func (p *recordingPublisher) Publish(_ context.Context, topic, key string, event any) error {
	if p.publishFn != nil {
		if err := p.publishFn(topic); err != nil {
			return err
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic: topic, key: key, event: event})
	return nil
}

func (p *recordingPublisher) PublishInTx(_ context.Context, tx any, topic, key string, event any) error {
	if p.inTxErr != nil {
		return p.inTxErr
	}
	if tx == nil {
		return errors.New("publish in tx without transaction")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic: topic, key: key, event: event, tx: tx})
	return nil
}

func (p *recordingPublisher) byTopic(topic string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.topic == topic {
			out = append(out, e)
		}
	}
	return out
}

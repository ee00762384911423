package service

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"

	"comments-service/internal/model"
	"comments-service/pkg/logger"
)

// Indexer 搜索索引消费端
type Indexer interface {
	IndexFromEvent(ctx context.Context, event *model.CommentCreatedEvent) error
}

// Notifier 实时推送消费端
type Notifier interface {
	NotifyCommentCreated(ctx context.Context, event *model.CommentCreatedEvent) error
}

// EventConsumer 集成事件消费者
// 每条消息驱动两个相互隔离的副作用：写搜索索引、广播实时通知。
// 任何一步失败都只记日志，不会影响另一步，也不会阻塞位点提交
type EventConsumer struct {
	indexer  Indexer
	notifier Notifier
	retries  int
	logger   logger.Logger
}

// NewEventConsumer 创建事件消费者
func NewEventConsumer(indexer Indexer, notifier Notifier, retries int, log logger.Logger) *EventConsumer {
	if retries < 0 {
		retries = 0
	}
	return &EventConsumer{
		indexer:  indexer,
		notifier: notifier,
		retries:  retries,
		logger:   log,
	}
}

// HandleMessage 处理一条消息
// 总是返回nil：无法解析或处理失败的消息记日志后放弃，避免卡死分区
func (c *EventConsumer) HandleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var envelope model.IntegrationEvent
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		c.logger.Error(ctx, "Failed to unmarshal integration event, dropping",
			logger.F("topic", msg.Topic),
			logger.F("offset", msg.Offset),
			logger.F("error", err.Error()))
		return nil
	}

	switch envelope.Type {
	case model.EventTypeCommentCreated:
		if envelope.CommentCreated == nil {
			c.logger.Error(ctx, "Integration event missing payload, dropping",
				logger.F("type", envelope.Type),
				logger.F("offset", msg.Offset))
			return nil
		}
		c.handleCommentCreated(ctx, envelope.CommentCreated)
	default:
		c.logger.Warn(ctx, "Unknown integration event type, skipping",
			logger.F("type", envelope.Type),
			logger.F("offset", msg.Offset))
	}
	return nil
}

func (c *EventConsumer) handleCommentCreated(ctx context.Context, event *model.CommentCreatedEvent) {
	if err := c.withRetries(ctx, func() error {
		return c.indexer.IndexFromEvent(ctx, event)
	}); err != nil {
		c.logger.Error(ctx, "Failed to index comment",
			logger.F("comment_id", event.CommentID),
			logger.F("error", err.Error()))
	}

	if err := c.withRetries(ctx, func() error {
		return c.notifier.NotifyCommentCreated(ctx, event)
	}); err != nil {
		c.logger.Error(ctx, "Failed to broadcast comment notification",
			logger.F("comment_id", event.CommentID),
			logger.F("error", err.Error()))
	}
}

func (c *EventConsumer) withRetries(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}

package service

import (
	"context"
	"encoding/json"
	"strconv"

	"comments-service/internal/model"
	"comments-service/pkg/logger"
)

// Broker 消息代理发送端
type Broker interface {
	SendMessage(topic string, key, value []byte) error
}

// EventPublisher 集成事件发布器
// 存储事务提交成功后收割聚合上的领域事件并逐个发布，
// 发布失败只记日志，不影响已提交的写入结果
type EventPublisher struct {
	broker Broker
	topic  string
	logger logger.Logger
}

// NewEventPublisher 创建事件发布器
func NewEventPublisher(broker Broker, topic string, log logger.Logger) *EventPublisher {
	return &EventPublisher{
		broker: broker,
		topic:  topic,
		logger: log,
	}
}

// PublishPending 收割并发布聚合上暂存的全部领域事件
// 同一请求内的事件按产生顺序发布，消息key取评论ID保证同键有序
func (p *EventPublisher) PublishPending(ctx context.Context, comments ...*model.Comment) {
	for _, comment := range comments {
		for _, event := range comment.PullEvents() {
			switch event.EventName() {
			case model.EventTypeCommentCreated:
				p.publishCommentCreated(ctx, comment)
			default:
				p.logger.Warn(ctx, "Unknown domain event, skipping",
					logger.F("event", event.EventName()),
					logger.F("comment_id", comment.ID))
			}
		}
	}
}

func (p *EventPublisher) publishCommentCreated(ctx context.Context, comment *model.Comment) {
	envelope := model.NewCommentCreatedEvent(comment)
	payload, err := json.Marshal(envelope)
	if err != nil {
		p.logger.Error(ctx, "Failed to marshal integration event",
			logger.F("comment_id", comment.ID),
			logger.F("error", err.Error()))
		return
	}

	key := []byte(strconv.FormatInt(comment.ID, 10))
	if err := p.broker.SendMessage(p.topic, key, payload); err != nil {
		p.logger.Error(ctx, "Failed to publish integration event",
			logger.F("comment_id", comment.ID),
			logger.F("topic", p.topic),
			logger.F("error", err.Error()))
		return
	}

	p.logger.Info(ctx, "Integration event published",
		logger.F("type", envelope.Type),
		logger.F("comment_id", comment.ID))
}

package model

import "time"

// 事件类型标签
const (
	EventTypeCommentCreated = "comment.created"
)

// DomainEvent 领域事件
// 在内存中随聚合暂存，存储提交成功后被收割一次并转换为集成事件
type DomainEvent interface {
	EventName() string
}

// CommentCreatedDomainEvent 评论已创建领域事件
type CommentCreatedDomainEvent struct {
	CommentID int64
}

// EventName 事件名称
func (e CommentCreatedDomainEvent) EventName() string {
	return EventTypeCommentCreated
}

// IntegrationEvent 集成事件信封
// 按Type标签区分事件变体，新事件类型即新增字段和对应的消费分支
type IntegrationEvent struct {
	Type           string               `json:"type"`
	CommentCreated *CommentCreatedEvent `json:"comment_created,omitempty"`
}

// CommentCreatedEvent 评论创建集成事件
// 字段是评论的扁平冗余副本，消费方不依赖存储层结构
type CommentCreatedEvent struct {
	CommentID int64     `json:"comment_id"`
	UserName  string    `json:"user_name"`
	Email     string    `json:"email"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCommentCreatedEvent 从已持久化的评论构造集成事件
func NewCommentCreatedEvent(c *Comment) *IntegrationEvent {
	return &IntegrationEvent{
		Type: EventTypeCommentCreated,
		CommentCreated: &CommentCreatedEvent{
			CommentID: c.ID,
			UserName:  c.UserName,
			Email:     c.Email,
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
		},
	}
}

package model

import "time"

// CommentDocument 搜索索引文档
// 每条评论一个文档，以评论ID为文档ID，重复写入覆盖旧版本
type CommentDocument struct {
	ID        int64     `json:"id"`
	UserName  string    `json:"user_name"`
	Email     string    `json:"email"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCommentDocument 从集成事件构造搜索文档
func NewCommentDocument(evt *CommentCreatedEvent) *CommentDocument {
	return &CommentDocument{
		ID:        evt.CommentID,
		UserName:  evt.UserName,
		Email:     evt.Email,
		Text:      evt.Text,
		CreatedAt: evt.CreatedAt,
	}
}

// CommentIndexMapping 评论索引的字段映射
func CommentIndexMapping() map[string]interface{} {
	return map[string]interface{}{
		"properties": map[string]interface{}{
			"id":         map[string]interface{}{"type": "long"},
			"user_name":  map[string]interface{}{"type": "text"},
			"email":      map[string]interface{}{"type": "text"},
			"text":       map[string]interface{}{"type": "text"},
			"created_at": map[string]interface{}{"type": "date"},
		},
	}
}

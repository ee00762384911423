package model

import "time"

// CommentDTO 评论视图
// Replies 永远非nil，没有回复时序列化为空数组
type CommentDTO struct {
	ID         int64          `json:"id"`
	UserName   string         `json:"user_name"`
	Email      string         `json:"email"`
	HomePage   string         `json:"home_page,omitempty"`
	Text       string         `json:"text"`
	CreatedAt  time.Time      `json:"created_at"`
	Attachment *AttachmentDTO `json:"attachment,omitempty"`
	Replies    []*CommentDTO  `json:"replies"`
}

// AttachmentDTO 附件视图
type AttachmentDTO struct {
	ID          int64  `json:"id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Kind        string `json:"kind"`
	URL         string `json:"url"`
}

// PagedResult 分页结果
type PagedResult struct {
	Items      []*CommentDTO `json:"items"`
	TotalCount int64         `json:"total_count"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
}

// CaptchaDTO 验证码视图
type CaptchaDTO struct {
	Key   string `json:"key"`
	Image string `json:"image"` // base64编码的PNG
}

package model

import (
	"io"
	"time"
)

// Comment 评论聚合根
// pendingEvents 只在构造时写入，提交成功后由事件发布器收割并清空，
// 已持久化的评论不会再产生领域事件
type Comment struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserName  string    `json:"user_name" gorm:"type:varchar(50);not null;index"`
	Email     string    `json:"email" gorm:"type:varchar(254);not null;index"`
	HomePage  string    `json:"home_page,omitempty" gorm:"type:varchar(2048)"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	ParentID  int64     `json:"parent_id" gorm:"default:0;index"` // 父评论ID（0表示顶级评论）
	RootID    int64     `json:"root_id" gorm:"default:0;index"`   // 根评论ID（用于一次查出整棵评论树）
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	Attachment *Attachment `json:"attachment,omitempty" gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE"`

	pendingEvents []DomainEvent
}

// TableName 指定表名
func (Comment) TableName() string {
	return "comments"
}

// NewComment 创建评论聚合并记录CommentCreated领域事件
func NewComment(id int64, userName, email, homePage, text string, parentID, rootID int64) *Comment {
	c := &Comment{
		ID:        id,
		UserName:  userName,
		Email:     email,
		HomePage:  homePage,
		Text:      text,
		ParentID:  parentID,
		RootID:    rootID,
		CreatedAt: time.Now().UTC(),
	}
	c.pendingEvents = append(c.pendingEvents, CommentCreatedDomainEvent{CommentID: c.ID})
	return c
}

// PullEvents 收割待发布的领域事件并清空
// 第二次调用返回nil，对没有事件的聚合调用是空操作
func (c *Comment) PullEvents() []DomainEvent {
	events := c.pendingEvents
	c.pendingEvents = nil
	return events
}

// HasPendingEvents 是否还有未收割的领域事件
func (c *Comment) HasPendingEvents() bool {
	return len(c.pendingEvents) > 0
}

// SetAttachment 挂载附件，每条评论最多一个
func (c *Comment) SetAttachment(att *Attachment) {
	att.CommentID = c.ID
	c.Attachment = att
}

// IsTopLevel 判断是否为顶级评论
func (c *Comment) IsTopLevel() bool {
	return c.ParentID == 0
}

// Attachment 评论附件，与评论一对一并随评论级联删除
type Attachment struct {
	ID             int64     `json:"id" gorm:"primaryKey"`
	CommentID      int64     `json:"comment_id" gorm:"not null;uniqueIndex"`
	FileName       string    `json:"file_name" gorm:"type:varchar(255);not null"`
	StoredFileName string    `json:"-" gorm:"type:varchar(255);not null;uniqueIndex"`
	ContentType    string    `json:"content_type" gorm:"type:varchar(100);not null"`
	FileSizeBytes  int64     `json:"file_size_bytes" gorm:"not null"`
	Kind           string    `json:"kind" gorm:"type:varchar(10);not null"` // image|text
	CreatedAt      time.Time `json:"created_at"`
}

// TableName 指定表名
func (Attachment) TableName() string {
	return "attachments"
}

// 查询参数结构体

// CreateCommentParams 创建评论参数
type CreateCommentParams struct {
	UserName      string
	Email         string
	HomePage      string
	Text          string
	ParentID      int64
	CaptchaKey    string
	CaptchaAnswer string
	FileName      string
	File          io.Reader
}

// GetCommentsParams 获取顶级评论列表参数
type GetCommentsParams struct {
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Normalize 填充默认值并约束分页和排序参数
func (p *GetCommentsParams) Normalize() {
	if p.Page <= 0 {
		p.Page = DefaultPage
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	switch p.SortBy {
	case SortByUserName, SortByEmail, SortByCreatedAt:
	default:
		p.SortBy = SortByCreatedAt
	}
	switch p.SortOrder {
	case SortOrderAsc, SortOrderDesc:
	default:
		p.SortOrder = SortOrderDesc
	}
}

// SearchCommentsParams 全文搜索参数
type SearchCommentsParams struct {
	Query    string
	Page     int
	PageSize int
}

// Normalize 填充默认分页参数
func (p *SearchCommentsParams) Normalize() {
	if p.Page <= 0 {
		p.Page = DefaultPage
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
}

package dao

import (
	"context"

	"comments-service/internal/model"
)

// CommentDAO 评论数据访问接口
type CommentDAO interface {
	// CreateComment 在一个事务内保存评论及其附件
	CreateComment(ctx context.Context, comment *model.Comment) error
	// GetComment 按ID获取单条评论
	GetComment(ctx context.Context, commentID int64) (*model.Comment, error)
	// GetCommentWithDescendants 获取评论及其所在树的全部后代
	GetCommentWithDescendants(ctx context.Context, commentID int64) (*model.Comment, []*model.Comment, error)
	// GetTopLevelComments 分页获取顶级评论
	GetTopLevelComments(ctx context.Context, params *model.GetCommentsParams) ([]*model.Comment, int64, error)
	// ListComments 按ID游标批量遍历全部评论
	ListComments(ctx context.Context, afterID int64, limit int) ([]*model.Comment, error)
	// GetAttachmentByStoredName 按存储文件名查找附件
	GetAttachmentByStoredName(ctx context.Context, storedName string) (*model.Attachment, error)
}

// SearchDAO 搜索索引数据访问接口
type SearchDAO interface {
	IndexExists(ctx context.Context, indexName string) (bool, error)
	CreateIndex(ctx context.Context, indexName string, mapping map[string]interface{}) error
	DeleteIndex(ctx context.Context, indexName string) error
	// IndexDocument 写入单个文档，文档已存在时覆盖
	IndexDocument(ctx context.Context, indexName string, doc *model.CommentDocument) error
	// BulkIndexDocuments 批量写入文档
	BulkIndexDocuments(ctx context.Context, indexName string, docs []*model.CommentDocument) error
	// SearchComments 全文检索，返回命中的评论ID和总数
	SearchComments(ctx context.Context, indexName, query string, page, pageSize int) ([]int64, int64, error)
}

package dao

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"comments-service/internal/model"
	"comments-service/pkg/database"
)

// commentDAO 基于PostgreSQL的评论数据访问实现
type commentDAO struct {
	db *database.PostgreSQL
}

// NewCommentDAO 创建评论DAO
func NewCommentDAO(db *database.PostgreSQL) CommentDAO {
	return &commentDAO{db: db}
}

// CreateComment 在一个事务内保存评论及其附件
func (d *commentDAO) CreateComment(ctx context.Context, comment *model.Comment) error {
	return d.db.Transaction(ctx, func(tx *gorm.DB) error {
		if comment.ParentID != 0 {
			var parent model.Comment
			if err := tx.Select("id", "root_id").First(&parent, comment.ParentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return model.ErrParentNotFound
				}
				return fmt.Errorf("load parent comment: %w", err)
			}
			comment.RootID = parent.RootID
			if comment.RootID == 0 {
				comment.RootID = parent.ID
			}
		}
		if err := tx.Create(comment).Error; err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
		return nil
	})
}

// GetComment 按ID获取单条评论
func (d *commentDAO) GetComment(ctx context.Context, commentID int64) (*model.Comment, error) {
	var comment model.Comment
	err := d.db.WithContext(ctx).
		Preload("Attachment").
		First(&comment, commentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrCommentNotFound
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &comment, nil
}

// GetCommentWithDescendants 获取评论及其所在树的全部后代
//
// 整棵树共享同一个root_id，一次查询即可取回全部节点，
// 树的组装交给converter完成。
func (d *commentDAO) GetCommentWithDescendants(ctx context.Context, commentID int64) (*model.Comment, []*model.Comment, error) {
	comment, err := d.GetComment(ctx, commentID)
	if err != nil {
		return nil, nil, err
	}

	rootID := comment.RootID
	if rootID == 0 {
		rootID = comment.ID
	}

	var nodes []*model.Comment
	err = d.db.WithContext(ctx).
		Preload("Attachment").
		Where("root_id = ?", rootID).
		Order("created_at ASC, id ASC").
		Find(&nodes).Error
	if err != nil {
		return nil, nil, fmt.Errorf("get descendants: %w", err)
	}

	descendants := make([]*model.Comment, 0, len(nodes))
	for _, n := range nodes {
		if n.ID != comment.ID {
			descendants = append(descendants, n)
		}
	}
	return comment, descendants, nil
}

// GetTopLevelComments 分页获取顶级评论
func (d *commentDAO) GetTopLevelComments(ctx context.Context, params *model.GetCommentsParams) ([]*model.Comment, int64, error) {
	query := d.db.WithContext(ctx).
		Model(&model.Comment{}).
		Where("parent_id = ?", 0)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count top-level comments: %w", err)
	}

	var comments []*model.Comment
	offset := (params.Page - 1) * params.PageSize
	err := query.
		Preload("Attachment").
		Order(buildOrderBy(params.SortBy, params.SortOrder)).
		Offset(offset).
		Limit(params.PageSize).
		Find(&comments).Error
	if err != nil {
		return nil, 0, fmt.Errorf("get top-level comments: %w", err)
	}
	return comments, total, nil
}

// ListComments 按ID游标批量遍历全部评论
func (d *commentDAO) ListComments(ctx context.Context, afterID int64, limit int) ([]*model.Comment, error) {
	var comments []*model.Comment
	err := d.db.WithContext(ctx).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// GetAttachmentByStoredName 按存储文件名查找附件
func (d *commentDAO) GetAttachmentByStoredName(ctx context.Context, storedName string) (*model.Attachment, error) {
	var attachment model.Attachment
	err := d.db.WithContext(ctx).
		Where("stored_file_name = ?", storedName).
		First(&attachment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrFileNotFound
		}
		return nil, fmt.Errorf("get attachment: %w", err)
	}
	return &attachment, nil
}

// buildOrderBy 构造排序子句，字段经过白名单校验
func buildOrderBy(sortBy, direction string) string {
	column := "created_at"
	switch sortBy {
	case model.SortByUserName:
		column = "user_name"
	case model.SortByEmail:
		column = "email"
	case model.SortByCreatedAt:
		column = "created_at"
	}
	dir := "DESC"
	if direction == model.SortOrderAsc {
		dir = "ASC"
	}
	return fmt.Sprintf("%s %s, id %s", column, dir, dir)
}

package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"comments-service/internal/dao"
	"comments-service/internal/model"
	"comments-service/pkg/logger"
)

const reindexBatchSize = 500

// IndexService 搜索索引服务
// 索引存在性检查只在进程生命周期内做一次，之后的写入直接走快路径
type IndexService struct {
	searchDAO    dao.SearchDAO
	commentDAO   dao.CommentDAO
	indexName    string
	indexEnsured atomic.Bool
	logger       logger.Logger
}

// NewIndexService 创建搜索索引服务
func NewIndexService(searchDAO dao.SearchDAO, commentDAO dao.CommentDAO, log logger.Logger) *IndexService {
	return &IndexService{
		searchDAO:  searchDAO,
		commentDAO: commentDAO,
		indexName:  model.SearchIndexName,
		logger:     log,
	}
}

// IndexFromEvent 根据集成事件写入索引文档
// 文档ID取评论ID，重复消费只会覆盖同一文档
func (s *IndexService) IndexFromEvent(ctx context.Context, event *model.CommentCreatedEvent) error {
	if err := s.ensureIndex(ctx); err != nil {
		return err
	}
	return s.searchDAO.IndexDocument(ctx, s.indexName, model.NewCommentDocument(event))
}

// SearchComments 全文检索，返回命中的评论ID和总数
func (s *IndexService) SearchComments(ctx context.Context, params *model.SearchCommentsParams) ([]int64, int64, error) {
	if err := s.ensureIndex(ctx); err != nil {
		return nil, 0, err
	}
	return s.searchDAO.SearchComments(ctx, s.indexName, params.Query, params.Page, params.PageSize)
}

// ReindexAll 全量重建索引内容，按ID游标批量遍历存储
func (s *IndexService) ReindexAll(ctx context.Context) (int64, error) {
	if err := s.ensureIndex(ctx); err != nil {
		return 0, err
	}

	var indexed int64
	var afterID int64
	for {
		comments, err := s.commentDAO.ListComments(ctx, afterID, reindexBatchSize)
		if err != nil {
			return indexed, err
		}
		if len(comments) == 0 {
			return indexed, nil
		}

		docs := make([]*model.CommentDocument, 0, len(comments))
		for _, c := range comments {
			docs = append(docs, &model.CommentDocument{
				ID:        c.ID,
				UserName:  c.UserName,
				Email:     c.Email,
				Text:      c.Text,
				CreatedAt: c.CreatedAt,
			})
		}
		if err := s.searchDAO.BulkIndexDocuments(ctx, s.indexName, docs); err != nil {
			return indexed, err
		}

		indexed += int64(len(docs))
		afterID = comments[len(comments)-1].ID
		s.logger.Info(ctx, "Reindex batch complete",
			logger.F("batch", len(docs)),
			logger.F("total", indexed))
	}
}

// RecreateIndex 删除并重建空索引
func (s *IndexService) RecreateIndex(ctx context.Context) error {
	if err := s.searchDAO.DeleteIndex(ctx, s.indexName); err != nil {
		return fmt.Errorf("recreate index: %w", err)
	}
	s.indexEnsured.Store(false)
	return s.ensureIndex(ctx)
}

func (s *IndexService) ensureIndex(ctx context.Context) error {
	if s.indexEnsured.Load() {
		return nil
	}

	exists, err := s.searchDAO.IndexExists(ctx, s.indexName)
	if err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}
	if !exists {
		if err := s.searchDAO.CreateIndex(ctx, s.indexName, model.CommentIndexMapping()); err != nil {
			return fmt.Errorf("ensure index: %w", err)
		}
		s.logger.Info(ctx, "Search index created", logger.F("index", s.indexName))
	}

	s.indexEnsured.Store(true)
	return nil
}

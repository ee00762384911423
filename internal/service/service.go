package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"comments-service/internal/converter"
	"comments-service/internal/dao"
	"comments-service/internal/model"
	"comments-service/pkg/logger"
	"comments-service/pkg/snowflake"
	"comments-service/pkg/telemetry"
)

var userNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// CommentService 评论业务服务
type CommentService struct {
	commentDAO dao.CommentDAO
	publisher  *EventPublisher
	cache      CacheService
	index      *IndexService
	captcha    *CaptchaService
	storage    *StorageService
	sanitizer  *Sanitizer
	cacheTTL   time.Duration
	logger     logger.Logger
}

// NewCommentService 创建评论服务
func NewCommentService(
	commentDAO dao.CommentDAO,
	publisher *EventPublisher,
	cache CacheService,
	index *IndexService,
	captcha *CaptchaService,
	storage *StorageService,
	cacheTTL time.Duration,
	log logger.Logger,
) *CommentService {
	return &CommentService{
		commentDAO: commentDAO,
		publisher:  publisher,
		cache:      cache,
		index:      index,
		captcha:    captcha,
		storage:    storage,
		sanitizer:  NewSanitizer(),
		cacheTTL:   cacheTTL,
		logger:     log,
	}
}

// CreateComment 创建评论
// 校验、落库、发布事件依次进行；事件发布在事务提交之后，
// 发布失败不回滚评论，客户端总是拿到已持久化的结果
func (s *CommentService) CreateComment(ctx context.Context, params *model.CreateCommentParams) (*model.CommentDTO, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.CreateComment")
	defer span.End()

	if s.captcha != nil {
		if err := s.captcha.Verify(ctx, params.CaptchaKey, params.CaptchaAnswer); err != nil {
			return nil, err
		}
	}
	if err := s.validateParams(params); err != nil {
		return nil, err
	}

	text := s.sanitizer.Sanitize(params.Text)
	if text == "" {
		return nil, model.ErrInvalidText
	}

	comment := model.NewComment(
		snowflake.GenerateID(),
		params.UserName,
		strings.ToLower(params.Email),
		params.HomePage,
		text,
		params.ParentID,
		0,
	)

	var storedName string
	if params.File != nil && params.FileName != "" {
		attachment, err := s.storage.Save(params.FileName, params.File)
		if err != nil {
			return nil, err
		}
		storedName = attachment.StoredFileName
		comment.SetAttachment(attachment)
	}

	if err := s.commentDAO.CreateComment(ctx, comment); err != nil {
		if storedName != "" {
			if rmErr := s.storage.Remove(storedName); rmErr != nil {
				s.logger.Warn(ctx, "Failed to clean up orphaned file",
					logger.F("stored_name", storedName),
					logger.F("error", rmErr.Error()))
			}
		}
		return nil, err
	}

	s.publisher.PublishPending(ctx, comment)

	s.logger.Info(ctx, "Comment created",
		logger.F("comment_id", comment.ID),
		logger.F("parent_id", comment.ParentID))
	return converter.CommentToDTO(comment), nil
}

// GetComments 分页获取顶级评论列表，走读穿缓存
// 缓存命中时直接返回缓存页，TTL内的结果允许落后于最新写入
func (s *CommentService) GetComments(ctx context.Context, params *model.GetCommentsParams) (*model.PagedResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.GetComments")
	defer span.End()

	params.Normalize()
	key := model.ListCacheKey(params.Page, params.PageSize, params.SortBy, params.SortOrder)

	var cached model.PagedResult
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn(ctx, "Cache read failed, falling back to storage",
			logger.F("key", key),
			logger.F("error", err.Error()))
	}
	if hit {
		return &cached, nil
	}

	comments, total, err := s.commentDAO.GetTopLevelComments(ctx, params)
	if err != nil {
		return nil, err
	}

	result := &model.PagedResult{
		Items:      converter.CommentsToDTOs(comments),
		TotalCount: total,
		Page:       params.Page,
		PageSize:   params.PageSize,
	}

	if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
		s.logger.Warn(ctx, "Cache write failed",
			logger.F("key", key),
			logger.F("error", err.Error()))
	}
	return result, nil
}

// GetCommentTree 获取一条评论及其完整回复树
func (s *CommentService) GetCommentTree(ctx context.Context, commentID int64) (*model.CommentDTO, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.GetCommentTree")
	defer span.End()

	comment, descendants, err := s.commentDAO.GetCommentWithDescendants(ctx, commentID)
	if err != nil {
		return nil, err
	}
	return converter.BuildTree(comment, descendants), nil
}

// SearchComments 全文检索评论
// 命中的ID回源存储补全成完整回复树，索引落后时跳过已不存在的评论
func (s *CommentService) SearchComments(ctx context.Context, params *model.SearchCommentsParams) (*model.PagedResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.SearchComments")
	defer span.End()

	params.Normalize()
	ids, total, err := s.index.SearchComments(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search comments: %w", err)
	}

	items := make([]*model.CommentDTO, 0, len(ids))
	for _, id := range ids {
		comment, descendants, err := s.commentDAO.GetCommentWithDescendants(ctx, id)
		if err != nil {
			if errors.Is(err, model.ErrCommentNotFound) {
				s.logger.Warn(ctx, "Search hit missing from storage, skipping",
					logger.F("comment_id", id))
				continue
			}
			return nil, err
		}
		items = append(items, converter.BuildTree(comment, descendants))
	}

	return &model.PagedResult{
		Items:      items,
		TotalCount: total,
		Page:       params.Page,
		PageSize:   params.PageSize,
	}, nil
}

// GetFile 按存储文件名取附件记录和文件内容
func (s *CommentService) GetFile(ctx context.Context, storedName string) (*model.Attachment, *os.File, error) {
	attachment, err := s.commentDAO.GetAttachmentByStoredName(ctx, storedName)
	if err != nil {
		return nil, nil, err
	}
	file, err := s.storage.Open(attachment.StoredFileName)
	if err != nil {
		return nil, nil, err
	}
	return attachment, file, nil
}

func (s *CommentService) validateParams(params *model.CreateCommentParams) error {
	if err := validateUserName(params.UserName); err != nil {
		return err
	}
	if err := validateEmail(params.Email); err != nil {
		return err
	}
	if err := validateHomePage(params.HomePage); err != nil {
		return err
	}
	return s.validateText(params.Text)
}

func validateUserName(name string) error {
	if name == "" || len(name) > model.MaxUserNameLength || !userNamePattern.MatchString(name) {
		return model.ErrInvalidUserName
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" || len(email) > model.MaxEmailLength {
		return model.ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return model.ErrInvalidEmail
	}
	return nil
}

func validateHomePage(homePage string) error {
	if homePage == "" {
		return nil
	}
	if len(homePage) > model.MaxHomePageLength {
		return model.ErrInvalidHomePage
	}
	u, err := url.Parse(homePage)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return model.ErrInvalidHomePage
	}
	return nil
}

func (s *CommentService) validateText(text string) error {
	if strings.TrimSpace(text) == "" || len(text) > model.MaxTextLength {
		return model.ErrInvalidText
	}
	if !s.sanitizer.ValidateTags(text) {
		return model.ErrInvalidText
	}
	return nil
}

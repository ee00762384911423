package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"comments-service/internal/model"
	"comments-service/internal/service"
	"comments-service/pkg/httpx"
	"comments-service/pkg/logger"
	"comments-service/pkg/middleware"
)

// HTTPHandler HTTP协议处理器
type HTTPHandler struct {
	svc     *service.CommentService
	index   *service.IndexService
	captcha *service.CaptchaService
	hub     *service.Hub
	logger  logger.Logger
}

// NewHTTPHandler 创建HTTP处理器
func NewHTTPHandler(
	svc *service.CommentService,
	index *service.IndexService,
	captcha *service.CaptchaService,
	hub *service.Hub,
	log logger.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		svc:     svc,
		index:   index,
		captcha: captcha,
		hub:     hub,
		logger:  log,
	}
}

// RegisterRoutes 注册路由
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine, auth *middleware.AuthMiddleware) {
	api := r.Group("/api/v1")
	{
		api.GET("/comments", h.GetComments)
		api.POST("/comments", h.CreateComment)
		api.GET("/comments/:id", h.GetCommentTree)
		api.GET("/comments/ws", h.ServeWS)
		api.GET("/search", h.SearchComments)
		api.GET("/captcha", h.GetCaptcha)
		api.GET("/files/:name", h.GetFile)

		admin := api.Group("/admin", auth.GinAuth())
		{
			admin.POST("/search/reindex", h.Reindex)
			admin.POST("/search/recreate-index", h.RecreateIndex)
		}
	}

	r.GET("/health", h.Health)
}

// Health 健康检查
func (h *HTTPHandler) Health(c *gin.Context) {
	httpx.WriteStatus(c, http.StatusOK, gin.H{"status": "ok"})
}

// writeServiceError 按业务错误选择HTTP状态码
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrCommentNotFound),
		errors.Is(err, model.ErrFileNotFound):
		httpx.WriteError(c, http.StatusNotFound, err)
	case errors.Is(err, model.ErrParentNotFound),
		errors.Is(err, model.ErrInvalidCaptcha),
		errors.Is(err, model.ErrInvalidUserName),
		errors.Is(err, model.ErrInvalidEmail),
		errors.Is(err, model.ErrInvalidHomePage),
		errors.Is(err, model.ErrInvalidText),
		errors.Is(err, model.ErrFileTypeNotAllowed),
		errors.Is(err, model.ErrFileTooLarge):
		httpx.WriteError(c, http.StatusBadRequest, err)
	default:
		httpx.WriteError(c, http.StatusInternalServerError, err)
	}
}

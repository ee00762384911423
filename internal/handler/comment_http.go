package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"comments-service/internal/model"
	"comments-service/pkg/httpx"
	"comments-service/pkg/logger"
)

// CreateComment 创建评论
// 接收multipart表单，附件字段可选
func (h *HTTPHandler) CreateComment(c *gin.Context) {
	params := &model.CreateCommentParams{
		UserName:      c.PostForm("user_name"),
		Email:         c.PostForm("email"),
		HomePage:      c.PostForm("home_page"),
		Text:          c.PostForm("text"),
		CaptchaKey:    c.PostForm("captcha_key"),
		CaptchaAnswer: c.PostForm("captcha_answer"),
	}
	if raw := c.PostForm("parent_id"); raw != "" {
		parentID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.WriteError(c, http.StatusBadRequest, errInvalidCommentID)
			return
		}
		params.ParentID = parentID
	}

	if fileHeader, err := c.FormFile("file"); err == nil && fileHeader != nil {
		file, err := fileHeader.Open()
		if err != nil {
			httpx.WriteError(c, http.StatusBadRequest, err)
			return
		}
		defer file.Close()
		params.FileName = fileHeader.Filename
		params.File = file
	}

	dto, err := h.svc.CreateComment(c.Request.Context(), params)
	if err != nil {
		h.logger.Warn(c.Request.Context(), "Create comment rejected",
			logger.F("error", err.Error()))
		writeServiceError(c, err)
		return
	}
	httpx.WriteStatus(c, http.StatusCreated, dto)
}

// GetComments 分页获取顶级评论列表
func (h *HTTPHandler) GetComments(c *gin.Context) {
	params := &model.GetCommentsParams{
		Page:      atoiDefault(c.Query("page"), 0),
		PageSize:  atoiDefault(c.Query("page_size"), 0),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	result, err := h.svc.GetComments(c.Request.Context(), params)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	httpx.WriteObject(c, result, nil)
}

// GetCommentTree 获取一条评论及其完整回复树
func (h *HTTPHandler) GetCommentTree(c *gin.Context) {
	commentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httpx.WriteError(c, http.StatusBadRequest, errInvalidCommentID)
		return
	}

	dto, err := h.svc.GetCommentTree(c.Request.Context(), commentID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	httpx.WriteObject(c, dto, nil)
}

func atoiDefault(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

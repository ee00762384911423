package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"comments-service/internal/model"
	"comments-service/pkg/httpx"
	"comments-service/pkg/logger"
)

var (
	errInvalidCommentID = errors.New("invalid comment id")
	errEmptyQuery       = errors.New("query must not be empty")
)

// SearchComments 全文检索评论
func (h *HTTPHandler) SearchComments(c *gin.Context) {
	params := &model.SearchCommentsParams{
		Query:    c.Query("q"),
		Page:     atoiDefault(c.Query("page"), 0),
		PageSize: atoiDefault(c.Query("page_size"), 0),
	}
	if params.Query == "" {
		httpx.WriteError(c, http.StatusBadRequest, errEmptyQuery)
		return
	}

	result, err := h.svc.SearchComments(c.Request.Context(), params)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	httpx.WriteObject(c, result, nil)
}

// Reindex 全量重建索引内容
func (h *HTTPHandler) Reindex(c *gin.Context) {
	indexed, err := h.index.ReindexAll(c.Request.Context())
	if err != nil {
		h.logger.Error(c.Request.Context(), "Reindex failed",
			logger.F("indexed", indexed),
			logger.F("error", err.Error()))
		writeServiceError(c, err)
		return
	}
	httpx.WriteObject(c, gin.H{"indexed": indexed}, nil)
}

// RecreateIndex 删除并重建空索引
func (h *HTTPHandler) RecreateIndex(c *gin.Context) {
	if err := h.index.RecreateIndex(c.Request.Context()); err != nil {
		h.logger.Error(c.Request.Context(), "Recreate index failed",
			logger.F("error", err.Error()))
		writeServiceError(c, err)
		return
	}
	httpx.WriteObject(c, gin.H{"recreated": true}, nil)
}

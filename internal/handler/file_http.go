package handler

import (
	"mime"

	"github.com/gin-gonic/gin"
)

// GetFile 下载附件文件
func (h *HTTPHandler) GetFile(c *gin.Context) {
	attachment, file, err := h.svc.GetFile(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Type", attachment.ContentType)
	c.Header("Content-Disposition", contentDisposition(attachment.FileName))
	c.File(file.Name())
}

// contentDisposition 构造下载头，原始文件名来自用户输入，必须转义
func contentDisposition(fileName string) string {
	return mime.FormatMediaType("inline", map[string]string{"filename": fileName})
}

package handler

import (
	"github.com/gin-gonic/gin"

	"comments-service/pkg/httpx"
)

// GetCaptcha 生成一张验证码
func (h *HTTPHandler) GetCaptcha(c *gin.Context) {
	dto, err := h.captcha.Generate(c.Request.Context())
	httpx.WriteObject(c, dto, err)
}

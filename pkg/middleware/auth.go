package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"comments-service/pkg/auth"
	"comments-service/pkg/logger"
)

// AuthMiddleware 认证中间件配置
type AuthMiddleware struct {
	logger logger.Logger
	jwtKey string
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(log logger.Logger, jwtKey string) *AuthMiddleware {
	return &AuthMiddleware{
		logger: log,
		jwtKey: jwtKey,
	}
}

// GinAuth Gin认证中间件
func (am *AuthMiddleware) GinAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := am.extractTokenFromHeader(c.GetHeader("Authorization"))
		if token == "" {
			am.logger.Warn(c.Request.Context(), "Missing authorization token",
				logger.F("path", c.Request.URL.Path))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization token"})
			c.Abort()
			return
		}

		if !auth.ValidateToken(token, am.jwtKey) {
			am.logger.Warn(c.Request.Context(), "Invalid token",
				logger.F("path", c.Request.URL.Path))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// extractTokenFromHeader 从Authorization头提取token
func (am *AuthMiddleware) extractTokenFromHeader(header string) string {
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}

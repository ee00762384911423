package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// WriteObject 写入成功响应或错误响应
func WriteObject(c *gin.Context, obj interface{}, err error) {
	if err != nil {
		WriteError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    obj,
	})
}

// WriteError 写入错误响应
func WriteError(c *gin.Context, status int, err error) {
	c.JSON(status, Response{
		Code:    status,
		Message: err.Error(),
	})
}

// WriteStatus 写入指定状态的成功响应
func WriteStatus(c *gin.Context, status int, obj interface{}) {
	c.JSON(status, Response{
		Code:    status,
		Message: "success",
		Data:    obj,
	})
}

package api

import (
	"net/http"

	"thyrosight/apperror"
	"thyrosight/config"
	"thyrosight/logger"

	"github.com/gin-gonic/gin"
)

// Response 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PageResponse 分页响应结构
type PageResponse struct {
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	List     interface{} `json:"list"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	SuccessWithMessage(c, "success", data)
}

// SuccessWithMessage 带消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Code:    http.StatusOK,
		Message: message,
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 400 错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized 401 错误响应
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// InternalError 500 错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// NotFound 404 错误响应
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// RespondError 按错误类别返回状态码，存储与内部错误在生产环境隐藏细节
func RespondError(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	status := apperror.HTTPStatus(kind)

	message := "服务器内部错误"
	if appErr, ok := apperror.As(err); ok {
		message = appErr.Message
	}

	entry := logger.FromContext(c).WithError(err).WithField("kind", kind)
	switch kind {
	case apperror.KindStorage, apperror.KindInternal:
		entry.Error("请求处理失败")
		message = config.SafeErrorMessage(err, message)
	case apperror.KindUpstream:
		entry.Warn("分类服务异常")
	default:
		entry.Info("请求被拒绝")
	}

	Error(c, status, message)
}

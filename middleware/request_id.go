package middleware

import (
	"thyrosight/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader 请求 ID 头
const RequestIDHeader = "X-Request-ID"

// RequestID 沿用客户端传入的请求 ID，没有则生成
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(logger.RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// AccessLog 请求结束后输出一条访问日志
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		entry := logger.FromContext(c).WithField("status", c.Writer.Status()).
			WithField("method", c.Request.Method).
			WithField("path", c.FullPath())
		if c.Writer.Status() >= 500 {
			entry.Error("请求失败")
			return
		}
		entry.Debug("请求完成")
	}
}

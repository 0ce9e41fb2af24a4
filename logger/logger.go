package logger

import (
	"os"
	"strings"

	"thyrosight/config"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// 与 middleware 中写入 gin.Context 的键保持一致
const (
	RequestIDKey = "requestID"
	UserIDKey    = "userID"
)

var log = logrus.New()

// Init 根据配置初始化日志
func Init(cfg config.LogConfig) {
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// L 返回全局 logger
func L() *logrus.Logger {
	return log
}

// FromContext 返回携带请求 ID 与用户 ID 的日志条目
func FromContext(c *gin.Context) *logrus.Entry {
	fields := logrus.Fields{}
	if v, ok := c.Get(RequestIDKey); ok {
		fields["request_id"] = v
	}
	if v, ok := c.Get(UserIDKey); ok {
		fields["user_id"] = v
	}
	return log.WithFields(fields)
}

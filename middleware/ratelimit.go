package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// KeyFunc 限流维度
type KeyFunc func(c *gin.Context) string

// ClientIPKey 按客户端 IP 限流
func ClientIPKey(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// UserKey 按当前用户限流，需放在 JWTAuth 之后
func UserKey(c *gin.Context) string {
	if id := GetCurrentUserID(c); id != 0 {
		return fmt.Sprintf("user:%d", id)
	}
	return ClientIPKey(c)
}

// RateLimit 滑动窗口限流，窗口内最多 maxAttempts 次，超过返回 429
// 过期的计数由 go-cache 自动清理
func RateLimit(maxAttempts int, window time.Duration, key KeyFunc, message string) gin.HandlerFunc {
	var mu sync.Mutex
	store := cache.New(window, 2*window)

	return func(c *gin.Context) {
		if maxAttempts <= 0 {
			c.Next()
			return
		}
		k := key(c)
		now := time.Now()
		cutoff := now.Add(-window)

		mu.Lock()
		var timestamps []time.Time
		if v, ok := store.Get(k); ok {
			timestamps = v.([]time.Time)
		}
		kept := timestamps[:0]
		for _, t := range timestamps {
			if t.After(cutoff) {
				kept = append(kept, t)
			}
		}
		if len(kept) >= maxAttempts {
			store.SetDefault(k, kept)
			mu.Unlock()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": message,
			})
			c.Abort()
			return
		}
		store.SetDefault(k, append(kept, now))
		mu.Unlock()
		c.Next()
	}
}

// LoginRateLimit 登录与注册接口限流，按 IP
func LoginRateLimit(maxAttempts int, window time.Duration) gin.HandlerFunc {
	return RateLimit(maxAttempts, window, ClientIPKey, "登录尝试过于频繁，请稍后再试")
}

// PredictRateLimit 分类接口限流，按用户，每分钟 maxRequests 次
func PredictRateLimit(maxRequests int) gin.HandlerFunc {
	return RateLimit(maxRequests, time.Minute, UserKey, "评估请求过于频繁，请稍后再试")
}

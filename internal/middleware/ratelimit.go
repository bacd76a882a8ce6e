package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"scrum-and-tell/internal/repository"
)

// RateLimit 返回一个 Gin 中间件，基于客户端 IP 做固定窗口限流。
// 计数器存放在 Redis，通过 SessionRepository 访问。
// sessions: 会话状态仓储，必须提供。
// maxRequests: 在指定时间窗口内允许的最大请求数。
// window: 速率限制的时间窗口。
func RateLimit(sessions repository.SessionRepository, maxRequests int, window time.Duration) gin.HandlerFunc {
	if sessions == nil {
		panic("SessionRepository cannot be nil for RateLimit middleware")
	}
	if maxRequests <= 0 {
		panic("maxRequests must be positive for RateLimit middleware")
	}
	if window <= 0 {
		panic("window duration must be positive for RateLimit middleware")
	}

	return func(c *gin.Context) {
		// 使用客户端 IP 作为限流键
		// 注意：如果服务在反向代理后面，需要确保获取到真实的客户端 IP
		exceeded, err := sessions.CheckRateLimit(c.Request.Context(), c.ClientIP(), maxRequests, window)
		if err != nil {
			logrus.WithError(err).Error("RateLimit: Redis check failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limiting error"})
			c.Abort()
			return
		}
		if exceeded {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			c.Abort()
			return
		}

		c.Next()
	}
}

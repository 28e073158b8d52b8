package ratelimit

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GinMiddleware 创建 Gin 限流中间件
//
// 参数:
//   - limiter: 限流器实例
//   - keyFunc: 从请求中提取限流键的函数，如果为 nil，默认使用客户端 IP
//   - limitFunc: 获取限流规则的函数
//
// 使用示例:
//
//	r := gin.New()
//	r.Use(ratelimit.GinMiddleware(limiter,
//	    nil, // 使用默认的 IP 作为 key
//	    func(c *gin.Context) ratelimit.Limit {
//	        return ratelimit.Limit{Rate: 10, Burst: 20} // 10 QPS
//	    },
//	))
func GinMiddleware(
	limiter Limiter,
	keyFunc func(*gin.Context) string,
	limitFunc func(*gin.Context) Limit,
) gin.HandlerFunc {
	if keyFunc == nil {
		// 默认使用客户端 IP 作为限流键
		keyFunc = func(c *gin.Context) string {
			return c.ClientIP()
		}
	}

	return func(c *gin.Context) {
		// 提取限流键
		key := keyFunc(c)
		if key == "" {
			c.Next()
			return
		}

		// 获取限流规则
		limit := limitFunc(c)
		if limit.Rate <= 0 || limit.Burst <= 0 {
			// 无效的限流规则，放行
			c.Next()
			return
		}

		// 检查是否允许请求
		allowed, err := limiter.Allow(c.Request.Context(), key, limit)
		if err != nil {
			// 降级策略：限流器出错时放行，避免影响业务
			c.Next()
			return
		}

		if !allowed {
			// 被限流，返回 429
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}

// GinMiddlewarePerPath 创建基于路径的限流中间件
// 不同路径使用不同的限流规则
//
// 使用示例:
//
//	rules := map[string]ratelimit.Limit{
//	    "/webhooks/payplus": {Rate: 50, Burst: 100},
//	}
//	r.Use(ratelimit.GinMiddlewarePerPath(limiter, rules, defaultLimit))
func GinMiddlewarePerPath(
	limiter Limiter,
	pathLimits map[string]Limit,
	defaultLimit Limit,
) gin.HandlerFunc {
	return GinMiddleware(
		limiter,
		func(c *gin.Context) string {
			// 组合 IP 和路径作为限流键
			return c.ClientIP() + ":" + c.Request.URL.Path
		},
		func(c *gin.Context) Limit {
			// 根据路径返回对应的限流规则
			if limit, ok := pathLimits[c.Request.URL.Path]; ok {
				return limit
			}
			return defaultLimit
		},
	)
}

package middleware

import (
	"context"
	"net/http"
	"rewind_backend/internal/service"
	"rewind_backend/internal/util"
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

type ActiveChecker interface {
	IsActive(ctx context.Context, userID string) (service.ActiveStatus, error)
}

// PremiumPaths 需要订阅的路由集合，配置热更新时整体替换
// 以 /* 结尾的条目按前缀匹配
type PremiumPaths struct {
	value atomic.Value
}

type premiumSet struct {
	exact    map[string]bool
	prefixes []string
}

func NewPremiumPaths(paths []string) *PremiumPaths {
	p := &PremiumPaths{}
	p.Set(paths)
	return p
}

func (p *PremiumPaths) Set(paths []string) {
	set := premiumSet{exact: make(map[string]bool, len(paths))}
	for _, path := range paths {
		if strings.HasSuffix(path, "/*") {
			set.prefixes = append(set.prefixes, strings.TrimSuffix(path, "*"))
			continue
		}
		set.exact[path] = true
	}
	p.value.Store(set)
}

func (p *PremiumPaths) Contains(fullPath string) bool {
	set, _ := p.value.Load().(premiumSet)
	if set.exact[fullPath] {
		return true
	}
	for _, prefix := range set.prefixes {
		if strings.HasPrefix(fullPath, prefix) {
			return true
		}
	}
	return false
}

// SubscriptionRequired 付费功能准入，必须挂在 AuthMiddleware 之后
func SubscriptionRequired(paths *PremiumPaths, checker ActiveChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !paths.Contains(c.FullPath()) {
			c.Next()
			return
		}

		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		status, err := checker.IsActive(c.Request.Context(), user.UserID)
		if err != nil {
			util.LogInternalError(c, err)
			c.Abort()
			return
		}
		if !status.Active {
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{
				"error":   "Subscription required",
				"code":    "SUBSCRIPTION_REQUIRED",
				"message": "An active subscription is required to access this feature",
			})
			return
		}
		c.Next()
	}
}

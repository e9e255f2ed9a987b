package middleware

import (
	"context"
	"rewind_backend/internal/model"
	"rewind_backend/internal/util"
	"rewind_backend/pkg/logger"
	"rewind_backend/pkg/security"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*security.SupabaseClaims, error)
}

type UserProvisioner interface {
	Provision(id, email, name string) (*model.User, error)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// AuthMiddleware 校验身份提供方签发的 JWT，首次访问的用户自动建档
func AuthMiddleware(verifier TokenVerifier, users UserProvisioner) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			logger.Log.Debug("Token rejected", zap.String("path", c.FullPath()), zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		user, err := users.Provision(claims.Subject, claims.Email, claims.DisplayName())
		if err != nil {
			util.LogInternalError(c, err)
			c.Abort()
			return
		}

		c.Set("user", &util.Claims{
			UserID: user.ID,
			Email:  user.Email,
			Name:   user.Name,
		})
		c.Next()
	}
}

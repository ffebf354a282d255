package middleware

import (
	"errors"
	"net/http"
	"strings"

	"training_backend/internal/model"
	"training_backend/internal/util"
	"training_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, secret)
		if err != nil {
			logger.Log.Debug("JWT解析错误", zap.Error(err), zap.String("path", c.FullPath()))
			if errors.Is(err, util.ErrTokenExpired) {
				util.Error(c, http.StatusUnauthorized, "Token expired")
			} else {
				util.Unauthorized(c)
			}
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}

func RoleMiddleware(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		if !HasRole(user, roles...) {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// HasRole 管理员拥有所有角色的权限
func HasRole(user *util.Claims, roles ...model.UserRole) bool {
	if user == nil {
		return false
	}
	if user.Role == model.Admin {
		return true
	}
	for _, role := range roles {
		if user.Role == role {
			return true
		}
	}
	return false
}

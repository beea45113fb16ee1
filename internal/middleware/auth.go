package middleware

import (
	"strings"

	"llm_tutor_backend/internal/config"
	"llm_tutor_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware 校验外部身份服务签发的 Bearer 令牌。
// 引擎本身不管理用户，只从令牌里取 user_id。
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
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

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}

package shared

import (
	"strings"

	"github.com/node-dojo/dojo-store-api/internal/http/response"

	"github.com/gin-gonic/gin"
)

// 鉴权中间件写入上下文的身份键
const (
	ContextKeyUserEmail  = "user_email"
	ContextKeyAdminEmail = "admin_email"
)

// GetContextEmail 从上下文读取鉴权邮箱并统一处理错误响应
func GetContextEmail(c *gin.Context, key string) (string, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return "", false
	}
	email, ok := value.(string)
	if !ok || strings.TrimSpace(email) == "" {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return "", false
	}
	return strings.TrimSpace(email), true
}

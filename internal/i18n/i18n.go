package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

// 站点语言常量
const (
	LocaleEN = "en-US"
	LocaleZH = "zh-CN"
)

// Normalize 语言标签归一化（未知语言回退英文）
func Normalize(locale string) string {
	l := strings.ToLower(strings.TrimSpace(locale))
	switch {
	case strings.HasPrefix(l, "zh"):
		return LocaleZH
	default:
		return LocaleEN
	}
}

// ResolveLocale 从请求解析语言：lang 查询参数优先，其次 Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return LocaleEN
	}
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		return Normalize(lang)
	}
	header := c.GetHeader("Accept-Language")
	if header == "" {
		return LocaleEN
	}
	first := header
	if idx := strings.IndexAny(header, ",;"); idx >= 0 {
		first = header[:idx]
	}
	return Normalize(first)
}

// T 按语言取文案，未命中回退英文，再未命中返回 key 本身
func T(locale, key string) string {
	if dict, ok := dictionaries[Normalize(locale)]; ok {
		if text, ok := dict[key]; ok {
			return text
		}
	}
	if text, ok := dictionaries[LocaleEN][key]; ok {
		return text
	}
	return key
}

// Sprintf 按语言取文案并格式化
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}

package public

import "github.com/node-dojo/dojo-store-api/internal/provider"

// Handler 店面侧接口处理器入口
// 说明：该处理器仅用于店面用户与结账回调侧 API。
type Handler struct {
	*provider.Container
}

// New 创建店面侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

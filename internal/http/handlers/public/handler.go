package public

import "github.com/coursebook/internal/provider"

// Handler 公开接口处理器，承载游客与登录用户侧 API
type Handler struct {
	*provider.Container
}

// New 创建公开接口处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

package admin

import "github.com/coursebook/internal/provider"

// Handler 管理端接口处理器，全部路由要求管理员 JWT
type Handler struct {
	*provider.Container
}

// New 创建管理端处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

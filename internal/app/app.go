package app

import (
	"log/slog"
	"net/http"

	"github.com/gowvp/botview/internal/conf"
)

// NewHTTPHandler 组装全部依赖，返回路由与资源清理函数
func NewHTTPHandler(bc *conf.Bootstrap, log *slog.Logger) (http.Handler, func(), error) {
	return wireApp(bc, log)
}

package ioc

import (
	"gitee.com/flycash/repairshop-notification/internal/web"
	"github.com/gotomicro/ego/server/egin"
)

func InitWebServer(h *web.Handler) *egin.Component {
	server := egin.Load("server.http").Build()
	h.PublicRoutes(server.Engine)
	return server
}

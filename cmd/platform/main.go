package main

import (
	"context"

	"gitee.com/flycash/repairshop-notification/cmd/platform/ioc"
	"github.com/gotomicro/ego"
	"github.com/gotomicro/ego/core/elog"
)

// 启动时通过 --config=config/config.yaml 指定配置文件
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := ioc.InitApp()
	for _, t := range app.Tasks {
		go t.Start(ctx)
	}

	if err := ego.New().
		Serve(app.Web).
		Cron(app.Crons...).
		Run(); err != nil {
		elog.Panic("startup", elog.Any("err", err))
	}
}

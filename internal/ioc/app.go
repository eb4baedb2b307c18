package ioc

import (
	"context"

	"github.com/gotomicro/ego/server/egin"
	"github.com/gotomicro/ego/task/ecron"
)

type App struct {
	Web   *egin.Component
	Crons []ecron.Ecron
	Tasks []Task
}

// Task 后台常驻任务，ctx 结束时退出
type Task interface {
	Start(ctx context.Context)
}

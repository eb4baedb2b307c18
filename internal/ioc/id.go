package ioc

import (
	"gitee.com/flycash/repairshop-notification/internal/pkg/clock"
	id "gitee.com/flycash/repairshop-notification/internal/pkg/id_generator"
	"gitee.com/flycash/repairshop-notification/internal/service/delivery"
	"github.com/gotomicro/ego/core/econf"
)

func InitIDGenerator() delivery.IDGenerator {
	type Config struct {
		MachineID uint16 `yaml:"machineID"`
	}
	var cfg Config
	if err := econf.UnmarshalKey("idGenerator", &cfg); err != nil {
		panic(err)
	}
	g, err := id.NewGenerator(cfg.MachineID)
	if err != nil {
		panic(err)
	}
	return g
}

func InitClock() clock.Clock {
	return clock.Real()
}

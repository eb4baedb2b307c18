package id

import (
	"fmt"
	"strconv"
	"time"

	"github.com/sony/sonyflake"
)

// 基准时间 2024-01-01 00:00:00 UTC
var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Generator 生成意图 ID。意图 ID 同时是幂等键，所以用十进制字符串
type Generator struct {
	flake *sonyflake.Sonyflake
}

// NewGenerator machineID 为 0 时使用 sonyflake 默认的私有 IP 低 16 位
func NewGenerator(machineID uint16) (*Generator, error) {
	settings := sonyflake.Settings{StartTime: epoch}
	if machineID != 0 {
		settings.MachineID = func() (uint16, error) { return machineID, nil }
	}
	flake := sonyflake.NewSonyflake(settings)
	if flake == nil {
		return nil, fmt.Errorf("初始化 sonyflake 失败")
	}
	return &Generator{flake: flake}, nil
}

func (g *Generator) NextID() (string, error) {
	v, err := g.flake.NextID()
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(v, 10), nil
}

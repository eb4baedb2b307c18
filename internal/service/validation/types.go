package validation

import (
	"context"
	"time"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/errs"
)

// Input 一次校验的输入，Message 是渲染之后的邮件
type Input struct {
	Intent  domain.NotificationIntent
	Message domain.Message
}

// Stage 校验流水线中的一个阶段。
// error 只用于基础设施故障，校验不通过通过 CheckResult 表达
//
//go:generate mockgen -source=./types.go -destination=./mocks/validation.mock.go -package=validationmocks Stage
type Stage interface {
	Name() string
	Category() errs.ValidationCategory
	Check(ctx context.Context, in Input) (domain.CheckResult, error)
}

type Config struct {
	// MaxBodySize 正文的最大字节数
	MaxBodySize     int           `yaml:"maxBodySize"`
	ReachabilityTTL time.Duration `yaml:"reachabilityTTL"`
	// DisposableDomains 一次性邮箱域名
	DisposableDomains []string `yaml:"disposableDomains"`
	// SuspiciousLinkDomains 短链接之类的可疑域名，只是启发式的检查
	SuspiciousLinkDomains []string `yaml:"suspiciousLinkDomains"`
	RequiredHeaders       []string `yaml:"requiredHeaders"`
}

func DefaultConfig() Config {
	return Config{
		MaxBodySize:     1 << 20,
		ReachabilityTTL: time.Minute,
		DisposableDomains: []string{
			"mailinator.com", "10minutemail.com", "guerrillamail.com",
			"tempmail.com", "yopmail.com", "trashmail.com",
		},
		SuspiciousLinkDomains: []string{"bit.ly", "tinyurl.com", "t.co", "goo.gl", "is.gd", "ow.ly"},
		RequiredHeaders:       []string{"X-Entity-Ref-ID", "List-Unsubscribe"},
	}
}

const (
	fullScore = 100
	// penalty 每个错误扣的分
	penalty = 25
)

func newResult(stage string, errors []string) domain.CheckResult {
	score := fullScore - penalty*len(errors)
	if score < 0 {
		score = 0
	}
	return domain.CheckResult{
		Stage:   stage,
		IsValid: len(errors) == 0,
		Errors:  errors,
		Score:   score,
	}
}

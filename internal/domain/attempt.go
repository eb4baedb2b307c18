package domain

import (
	"time"

	"gitee.com/flycash/repairshop-notification/internal/errs"
)

// AttemptOutcome 单次投递尝试的结果
type AttemptOutcome string

const (
	OutcomeSuccess          AttemptOutcome = "success"
	OutcomeTransientFailure AttemptOutcome = "transientFailure"
	OutcomePermanentFailure AttemptOutcome = "permanentFailure"
)

// DeliveryAttemptRecord 审计记录，只追加，不修改
type DeliveryAttemptRecord struct {
	IntentID      string
	AttemptNumber int
	Provider      string
	Outcome       AttemptOutcome
	ErrorKind     errs.DeliveryErrorKind
	ErrorDetail   string
	Timestamp     time.Time
}

// OutcomeOf 根据供应商错误推导审计结果
func OutcomeOf(err *errs.DeliveryError) AttemptOutcome {
	if err == nil {
		return OutcomeSuccess
	}
	if err.Kind.Retryable() {
		return OutcomeTransientFailure
	}
	return OutcomePermanentFailure
}

// DeliveryStats 某个时间窗口内的投递统计
type DeliveryStats struct {
	Sent        int64
	Failed      int64
	RateLimited int64
	Total       int64
	SuccessRate float64
}

// NewDeliveryStats rateLimited 包含在 failed 里面
func NewDeliveryStats(sent, failed, rateLimited int64) DeliveryStats {
	stats := DeliveryStats{
		Sent:        sent,
		Failed:      failed,
		RateLimited: rateLimited,
		Total:       sent + failed,
	}
	if stats.Total > 0 {
		stats.SuccessRate = float64(sent) / float64(stats.Total)
	}
	return stats
}

// CheckResult 单个校验阶段的结果
type CheckResult struct {
	Stage   string
	IsValid bool
	Errors  []string
	// Score 0-100
	Score int
}

// ValidationReport 校验流水线的汇总结果
type ValidationReport struct {
	Results  []CheckResult
	Category errs.ValidationCategory
}

func (r ValidationReport) IsValid() bool {
	for _, res := range r.Results {
		if !res.IsValid {
			return false
		}
	}
	return true
}

// Score 已执行阶段的平均分
func (r ValidationReport) Score() int {
	if len(r.Results) == 0 {
		return 0
	}
	total := 0
	for _, res := range r.Results {
		total += res.Score
	}
	return total / len(r.Results)
}

// Failure 第一个失败阶段转成错误
func (r ValidationReport) Failure() *errs.ValidationFailure {
	for _, res := range r.Results {
		if !res.IsValid {
			return errs.NewValidationFailure(r.Category, res.Errors...)
		}
	}
	return nil
}

// RateLimitWindow 某个 key 当前滑动窗口的快照
type RateLimitWindow struct {
	Key           string
	WindowStart   time.Time
	CountInWindow int
}

package validation

import (
	"context"
	"fmt"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"github.com/gotomicro/ego/core/elog"
)

// Pipeline 按顺序执行各个阶段，遇到第一个失败就停止
type Pipeline struct {
	stages []Stage
	logger *elog.Component
}

func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{
		stages: stages,
		logger: elog.DefaultLogger,
	}
}

// Validate 返回已经执行过的阶段结果。校验失败时 report.Category 是失败阶段的类别
func (p *Pipeline) Validate(ctx context.Context, in Input) (domain.ValidationReport, error) {
	report := domain.ValidationReport{Results: make([]domain.CheckResult, 0, len(p.stages))}
	for _, stage := range p.stages {
		res, err := stage.Check(ctx, in)
		if err != nil {
			return report, fmt.Errorf("校验阶段 %s 执行失败: %w", stage.Name(), err)
		}
		res.Stage = stage.Name()
		report.Results = append(report.Results, res)
		if !res.IsValid {
			report.Category = stage.Category()
			p.logger.Info("发送前校验未通过",
				elog.String("intentID", in.Intent.ID),
				elog.String("stage", stage.Name()),
				elog.Any("errors", res.Errors))
			return report, nil
		}
	}
	return report, nil
}

// NewDefaultPipeline 按固定顺序组装全部阶段
func NewDefaultPipeline(cfg Config, reachability *ReachabilityStage, limiter RecipientChecker) *Pipeline {
	return NewPipeline(
		NewStructureStage(),
		NewContentStage(cfg.MaxBodySize),
		NewCompletenessStage(),
		reachability,
		NewRateLimitStage(limiter),
		NewSecurityStage(cfg.DisposableDomains, cfg.RequiredHeaders, cfg.SuspiciousLinkDomains),
	)
}

package validation

import (
	"context"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/errs"
)

// CompletenessStage 模板要求的参数必须齐全
type CompletenessStage struct{}

func NewCompletenessStage() *CompletenessStage {
	return &CompletenessStage{}
}

func (s *CompletenessStage) Name() string {
	return "template"
}

func (s *CompletenessStage) Category() errs.ValidationCategory {
	return errs.CategoryTemplate
}

func (s *CompletenessStage) Check(_ context.Context, in Input) (domain.CheckResult, error) {
	if !in.Intent.TemplateID.IsValid() {
		return newResult(s.Name(), []string{"未知模板: " + in.Intent.TemplateID.String()}), nil
	}
	missing := in.Intent.TemplateID.MissingFields(in.Intent.Payload)
	errors := make([]string, 0, len(missing))
	for _, f := range missing {
		errors = append(errors, "缺少参数: "+f)
	}
	return newResult(s.Name(), errors), nil
}

package validation

import (
	"context"
	"regexp"
	"unicode/utf8"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/errs"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

const (
	minRecipientLen  = 5
	maxRecipientLen  = 254
	maxSubjectLength = 200
)

// StructureStage 收件人、发件人、主题和正文的基本结构
type StructureStage struct{}

func NewStructureStage() *StructureStage {
	return &StructureStage{}
}

func (s *StructureStage) Name() string {
	return "structure"
}

func (s *StructureStage) Category() errs.ValidationCategory {
	return errs.CategoryStructure
}

func (s *StructureStage) Check(_ context.Context, in Input) (domain.CheckResult, error) {
	var errors []string
	to := in.Message.To
	switch {
	case to == "":
		errors = append(errors, "收件人为空")
	case len(to) < minRecipientLen || len(to) > maxRecipientLen:
		errors = append(errors, "收件人长度不合法")
	case !emailRegexp.MatchString(to):
		errors = append(errors, "收件人格式不合法")
	}
	if in.Message.From == "" {
		errors = append(errors, "发件人为空")
	}
	switch {
	case in.Message.Subject == "":
		errors = append(errors, "主题为空")
	case utf8.RuneCountInString(in.Message.Subject) > maxSubjectLength:
		errors = append(errors, "主题过长")
	}
	if in.Message.HTML == "" && in.Message.Text == "" {
		errors = append(errors, "正文为空")
	}
	return newResult(s.Name(), errors), nil
}

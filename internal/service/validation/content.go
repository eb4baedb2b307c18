package validation

import (
	"context"
	"fmt"
	"strings"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/errs"
)

// activeContentMarkers 模板注入的典型特征
var activeContentMarkers = []string{"<script", "<iframe", "<object", "<embed"}

// ContentStage 正文大小和活动内容检查
type ContentStage struct {
	maxBodySize int
}

func NewContentStage(maxBodySize int) *ContentStage {
	if maxBodySize <= 0 {
		maxBodySize = DefaultConfig().MaxBodySize
	}
	return &ContentStage{maxBodySize: maxBodySize}
}

func (s *ContentStage) Name() string {
	return "content"
}

func (s *ContentStage) Category() errs.ValidationCategory {
	return errs.CategoryContent
}

func (s *ContentStage) Check(_ context.Context, in Input) (domain.CheckResult, error) {
	var errors []string
	if size := len(in.Message.HTML) + len(in.Message.Text); size > s.maxBodySize {
		errors = append(errors, fmt.Sprintf("正文过大: %d > %d", size, s.maxBodySize))
	}
	for _, body := range []string{in.Message.HTML, in.Message.Text} {
		lower := strings.ToLower(body)
		for _, marker := range activeContentMarkers {
			if strings.Contains(lower, marker) {
				errors = append(errors, "正文包含活动内容: "+marker+">")
			}
		}
	}
	return newResult(s.Name(), errors), nil
}

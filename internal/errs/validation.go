package errs

import (
	"fmt"
	"strings"
)

// ValidationCategory 校验失败的类别，调用方据此给用户展示提示
type ValidationCategory string

const (
	CategoryStructure    ValidationCategory = "structure"
	CategoryContent      ValidationCategory = "content"
	CategoryTemplate     ValidationCategory = "template"
	CategoryReachability ValidationCategory = "reachability"
	CategoryRateLimited  ValidationCategory = "rateLimited"
	CategorySecurity     ValidationCategory = "security"
)

func (c ValidationCategory) String() string {
	return string(c)
}

// ValidationFailure 发送前校验失败，永远不会自动重试
type ValidationFailure struct {
	Category ValidationCategory
	Errors   []string
}

func NewValidationFailure(category ValidationCategory, errors ...string) *ValidationFailure {
	return &ValidationFailure{Category: category, Errors: errors}
}

func (v *ValidationFailure) Error() string {
	if len(v.Errors) == 0 {
		return fmt.Sprintf("%s: %s", ErrValidationFailed.Error(), v.Category)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidationFailed.Error(), v.Category, strings.Join(v.Errors, "; "))
}

func (v *ValidationFailure) Is(target error) bool {
	if target == ErrValidationFailed {
		return true
	}
	return v.Category == CategoryRateLimited && target == ErrRateLimited
}

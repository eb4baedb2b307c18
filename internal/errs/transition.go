package errs

import "fmt"

// InvalidTransition 维修单状态机拒绝的流转，维修单状态保持不变
type InvalidTransition struct {
	Lifecycle string
	From      string
	To        string
}

func (e *InvalidTransition) Error() string {
	return fmt.Sprintf("%s: lifecycle=%s %s -> %s", ErrInvalidTransition.Error(), e.Lifecycle, e.From, e.To)
}

func (e *InvalidTransition) Is(target error) bool {
	return target == ErrInvalidTransition
}

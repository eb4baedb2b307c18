package sequential

import (
	"context"
	"fmt"

	"gitee.com/flycash/repairshop-notification/internal/errs"
	"gitee.com/flycash/repairshop-notification/internal/service/provider"
)

var (
	_ provider.Selector        = (*selector)(nil)
	_ provider.SelectorBuilder = (*SelectorBuilder)(nil)
)

// selector 按配置顺序返回供应商，第一个是主供应商，其余是备用供应商
type selector struct {
	idx       int
	providers []provider.Provider
}

func (r *selector) Next(_ context.Context) (provider.Provider, error) {
	if len(r.providers) == r.idx {
		return nil, fmt.Errorf("%w", errs.ErrNoAvailableProvider)
	}

	p := r.providers[r.idx]
	r.idx++
	return p, nil
}

type SelectorBuilder struct {
	providers []provider.Provider
}

func NewSelectorBuilder(providers ...provider.Provider) *SelectorBuilder {
	return &SelectorBuilder{providers: providers}
}

func (s *SelectorBuilder) Build() (provider.Selector, error) {
	if len(s.providers) == 0 {
		return nil, fmt.Errorf("%w", errs.ErrNoAvailableProvider)
	}
	return &selector{
		providers: s.providers,
	}, nil
}

// Primary 主供应商，校验阶段用它做连通性检查
func (s *SelectorBuilder) Primary() provider.Provider {
	if len(s.providers) == 0 {
		return nil
	}
	return s.providers[0]
}

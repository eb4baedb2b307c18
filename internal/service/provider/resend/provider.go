package resend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/errs"
	"gitee.com/flycash/repairshop-notification/internal/service/provider"
	"github.com/resend/resend-go/v2"
)

var (
	_ provider.Provider      = (*Provider)(nil)
	_ provider.HealthChecker = (*Provider)(nil)
)

type Config struct {
	APIKey  string        `yaml:"apiKey"`
	BaseURL string        `yaml:"baseURL"`
	Timeout time.Duration `yaml:"timeout"`
	ReplyTo string        `yaml:"replyTo"`
}

// Provider 主供应商，支持自定义头部、追踪标签和供应商侧幂等键
type Provider struct {
	name    string
	client  *resend.Client
	replyTo string
}

func NewProvider(name string, cfg Config) (*Provider, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: &statusRecorder{next: http.DefaultTransport},
	}
	client := resend.NewCustomClient(httpClient, cfg.APIKey)
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("resend BaseURL 不合法: %w", err)
		}
		client.BaseURL = u
	}
	return &Provider{name: name, client: client, replyTo: cfg.ReplyTo}, nil
}

func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) Send(ctx context.Context, msg domain.Message) (domain.SendResponse, error) {
	ctx, holder := withStatusHolder(ctx)
	req := &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
		Headers: msg.Headers,
		Tags:    toTags(msg.Tags),
		ReplyTo: p.replyTo,
	}
	var opts *resend.SendEmailOptions
	if msg.IntentID != "" {
		opts = &resend.SendEmailOptions{IdempotencyKey: msg.IntentID}
	}
	resp, err := p.client.Emails.SendWithOptions(ctx, req, opts)
	if err != nil {
		return domain.SendResponse{}, p.classify(err, holder.code)
	}
	return domain.SendResponse{Provider: p.name, ProviderMessageID: resp.Id}, nil
}

// CheckHealth 列出域名，同时验证了网络和 API Key
func (p *Provider) CheckHealth(ctx context.Context) error {
	ctx, holder := withStatusHolder(ctx)
	_, err := p.client.Domains.ListWithContext(ctx)
	if err != nil {
		return p.classify(err, holder.code)
	}
	return nil
}

func (p *Provider) classify(err error, code int) *errs.DeliveryError {
	if errors.Is(err, resend.ErrRateLimit) {
		return errs.NewDeliveryError(p.name, errs.KindProviderUnavailable, err)
	}
	if code != 0 {
		return errs.NewDeliveryError(p.name, errs.ClassifyResponse(code, err.Error()), fmt.Errorf("HTTP %d: %w", code, err))
	}
	return errs.ClassifyError(p.name, err)
}

// toTags 标签按名字排序，保证请求体稳定
func toTags(tags map[string]string) []resend.Tag {
	if len(tags) == 0 {
		return nil
	}
	res := make([]resend.Tag, 0, len(tags))
	for k, v := range tags {
		res = append(res, resend.Tag{Name: k, Value: v})
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Name < res[j].Name
	})
	return res
}

package relay

import (
	"context"
	"fmt"
	"time"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/errs"
	"gitee.com/flycash/repairshop-notification/internal/service/provider"
	"github.com/go-resty/resty/v2"
)

var (
	_ provider.Provider      = (*Provider)(nil)
	_ provider.HealthChecker = (*Provider)(nil)
)

type Config struct {
	Endpoint string        `yaml:"endpoint"`
	Token    string        `yaml:"token"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Provider 备用供应商，简单的 HTTP 中继接口。
// 只发送主题、正文和收发件人，不携带头部和追踪标签
type Provider struct {
	name   string
	client *resty.Client
}

type sendReq struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html,omitempty"`
	Text    string `json:"text,omitempty"`
}

type sendResp struct {
	MessageID string `json:"messageId"`
}

type errResp struct {
	Error string `json:"error"`
}

func NewProvider(name string, cfg Config) *Provider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetTimeout(timeout).
		SetAuthToken(cfg.Token).
		SetHeader("Accept", "application/json")
	return &Provider{name: name, client: client}
}

func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) Send(ctx context.Context, msg domain.Message) (domain.SendResponse, error) {
	var res sendResp
	var failure errResp
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(sendReq{
			From:    msg.From,
			To:      msg.To,
			Subject: msg.Subject,
			HTML:    msg.HTML,
			Text:    msg.Text,
		}).
		SetResult(&res).
		SetError(&failure).
		Post("/v1/messages")
	if err != nil {
		return domain.SendResponse{}, errs.ClassifyError(p.name, err)
	}
	if resp.IsError() {
		return domain.SendResponse{}, errs.NewDeliveryError(p.name,
			errs.ClassifyResponse(resp.StatusCode(), failure.Error),
			fmt.Errorf("HTTP %d: %s", resp.StatusCode(), failure.Error))
	}
	return domain.SendResponse{Provider: p.name, ProviderMessageID: res.MessageID}, nil
}

func (p *Provider) CheckHealth(ctx context.Context) error {
	resp, err := p.client.R().SetContext(ctx).Get("/v1/health")
	if err != nil {
		return errs.ClassifyError(p.name, err)
	}
	if resp.IsError() {
		return errs.NewDeliveryError(p.name,
			errs.ClassifyStatusCode(resp.StatusCode()),
			fmt.Errorf("HTTP %d", resp.StatusCode()))
	}
	return nil
}

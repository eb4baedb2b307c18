package template

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/errs"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Renderer 把模板和参数渲染成邮件。只负责渲染，参数是否完整由校验流水线判断
//
//go:generate mockgen -source=./template.go -destination=./mocks/template.mock.go -package=templatemocks Renderer
type Renderer interface {
	Render(ctx context.Context, id domain.TemplateID, payload map[string]string) (domain.Message, error)
}

// Source 单个模板的原始内容，Body 是 Markdown
type Source struct {
	Subject string
	Body    string
}

type compiled struct {
	subject *template.Template
	body    *template.Template
}

// MarkdownRenderer 主题和正文用 text/template 填充参数，正文再由 goldmark 转成 HTML。
// 正文里面的原始 HTML 会被 goldmark 丢弃
type MarkdownRenderer struct {
	md        goldmark.Markdown
	templates map[domain.TemplateID]compiled
}

// NewMarkdownRenderer sources 为空时使用内置模板
func NewMarkdownRenderer(sources map[domain.TemplateID]Source) (*MarkdownRenderer, error) {
	if len(sources) == 0 {
		sources = BuiltinSources()
	}
	r := &MarkdownRenderer{
		md:        goldmark.New(goldmark.WithExtensions(extension.Linkify)),
		templates: make(map[domain.TemplateID]compiled, len(sources)),
	}
	for id, src := range sources {
		if !id.IsValid() {
			return nil, fmt.Errorf("%w: %q", errs.ErrUnknownTemplate, id)
		}
		subject, err := template.New(id.String() + ".subject").Option("missingkey=zero").Parse(src.Subject)
		if err != nil {
			return nil, fmt.Errorf("解析模板主题失败 %s: %w", id, err)
		}
		body, err := template.New(id.String() + ".body").Option("missingkey=zero").Parse(src.Body)
		if err != nil {
			return nil, fmt.Errorf("解析模板正文失败 %s: %w", id, err)
		}
		r.templates[id] = compiled{subject: subject, body: body}
	}
	return r, nil
}

func (r *MarkdownRenderer) Render(_ context.Context, id domain.TemplateID, payload map[string]string) (domain.Message, error) {
	tpl, ok := r.templates[id]
	if !ok {
		return domain.Message{}, fmt.Errorf("%w: %q", errs.ErrUnknownTemplate, id)
	}
	if payload == nil {
		payload = map[string]string{}
	}
	var subject, body, html bytes.Buffer
	if err := tpl.subject.Execute(&subject, payload); err != nil {
		return domain.Message{}, fmt.Errorf("渲染模板主题失败 %s: %w", id, err)
	}
	if err := tpl.body.Execute(&body, payload); err != nil {
		return domain.Message{}, fmt.Errorf("渲染模板正文失败 %s: %w", id, err)
	}
	if err := r.md.Convert(body.Bytes(), &html); err != nil {
		return domain.Message{}, fmt.Errorf("转换 Markdown 失败 %s: %w", id, err)
	}
	return domain.Message{
		Subject: strings.TrimSpace(subject.String()),
		HTML:    html.String(),
		Text:    body.String(),
	}, nil
}

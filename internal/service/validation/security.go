package validation

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/errs"
	"github.com/ecodeclub/ekit/slice"
)

var linkRegexp = regexp.MustCompile(`(?i)https?://[^\s"'<>)]+`)

// SecurityStage 一次性邮箱、反滥用头部和可疑链接。
// 可疑链接只是启发式检查，不能当作安全边界
type SecurityStage struct {
	disposable      map[string]struct{}
	suspicious      []string
	requiredHeaders []string
}

func NewSecurityStage(disposableDomains, requiredHeaders, suspiciousLinkDomains []string) *SecurityStage {
	disposable := make(map[string]struct{}, len(disposableDomains))
	for _, d := range disposableDomains {
		disposable[strings.ToLower(d)] = struct{}{}
	}
	return &SecurityStage{
		disposable:      disposable,
		suspicious:      slice.Map(suspiciousLinkDomains, func(_ int, d string) string { return strings.ToLower(d) }),
		requiredHeaders: requiredHeaders,
	}
}

func (s *SecurityStage) Name() string {
	return "security"
}

func (s *SecurityStage) Category() errs.ValidationCategory {
	return errs.CategorySecurity
}

func (s *SecurityStage) Check(_ context.Context, in Input) (domain.CheckResult, error) {
	var errors []string
	if domainOf(in.Message.To) != "" && s.matchDisposable(domainOf(in.Message.To)) {
		errors = append(errors, "收件人使用一次性邮箱")
	}
	for _, h := range s.requiredHeaders {
		if !hasHeader(in.Message.Headers, h) {
			errors = append(errors, "缺少头部: "+h)
		}
	}
	for _, link := range linkRegexp.FindAllString(in.Message.HTML, -1) {
		u, err := url.Parse(link)
		if err != nil {
			continue
		}
		if matchDomain(strings.ToLower(u.Hostname()), s.suspicious) {
			errors = append(errors, "正文包含可疑链接: "+u.Hostname())
		}
	}
	return newResult(s.Name(), errors), nil
}

// matchDisposable 子域名同样算
func (s *SecurityStage) matchDisposable(host string) bool {
	for {
		if _, ok := s.disposable[host]; ok {
			return true
		}
		idx := strings.IndexByte(host, '.')
		if idx < 0 {
			return false
		}
		host = host[idx+1:]
	}
}

func matchDomain(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func domainOf(addr string) string {
	idx := strings.LastIndexByte(addr, '@')
	if idx < 0 {
		return ""
	}
	return strings.ToLower(addr[idx+1:])
}

// hasHeader 头部名称大小写不敏感
func hasHeader(headers map[string]string, name string) bool {
	for k, v := range headers {
		if strings.EqualFold(k, name) && v != "" {
			return true
		}
	}
	return false
}

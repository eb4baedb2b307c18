package resend

import (
	"context"
	"net/http"
)

// SDK 只把错误信息拼成字符串，拿不到状态码，所以在传输层记录下来
type statusHolder struct {
	code int
}

type statusKey struct{}

func withStatusHolder(ctx context.Context) (context.Context, *statusHolder) {
	h := &statusHolder{}
	return context.WithValue(ctx, statusKey{}, h), h
}

type statusRecorder struct {
	next http.RoundTripper
}

func (s *statusRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := s.next.RoundTrip(req)
	if resp != nil {
		if h, ok := req.Context().Value(statusKey{}).(*statusHolder); ok {
			h.code = resp.StatusCode
		}
	}
	return resp, err
}

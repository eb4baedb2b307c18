package relay

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Send(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name     string
		status   int
		body     string
		delay    time.Duration
		wantID   string
		wantKind errs.DeliveryErrorKind
	}{
		{name: "发送成功", status: http.StatusAccepted, body: `{"messageId":"relay-1"}`, wantID: "relay-1"},
		{name: "鉴权失败", status: http.StatusUnauthorized, body: `{"error":"bad token"}`, wantKind: errs.KindAuthError},
		{name: "收件人被拒绝", status: http.StatusUnprocessableEntity, body: `{"error":"mailbox"}`, wantKind: errs.KindRecipientRejected},
		{name: "发件人未验证", status: http.StatusUnprocessableEntity, body: `{"error":"sender domain not verified"}`, wantKind: errs.KindUnknown},
		{name: "服务不可用", status: http.StatusServiceUnavailable, body: `{"error":"maintenance"}`, wantKind: errs.KindProviderUnavailable},
		{name: "未知状态码", status: http.StatusConflict, body: `{"error":"conflict"}`, wantKind: errs.KindUnknown},
		{name: "超时", status: http.StatusAccepted, body: `{"messageId":"late"}`, delay: 200 * time.Millisecond, wantKind: errs.KindTransientNetwork},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			reqs := make(chan capturedRequest, 1)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var body map[string]any
				_ = json.NewDecoder(r.Body).Decode(&body)
				reqs <- capturedRequest{path: r.URL.Path, auth: r.Header.Get("Authorization"), body: body}
				if tc.delay > 0 {
					time.Sleep(tc.delay)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			p := NewProvider("relay", Config{
				Endpoint: server.URL,
				Token:    "relay-token",
				Timeout:  50 * time.Millisecond,
			})
			resp, err := p.Send(t.Context(), domain.Message{
				IntentID: "intent-1",
				From:     "shop@example.com",
				To:       "customer@example.com",
				Subject:  "Status naprawy",
				HTML:     "<p>w realizacji</p>",
				Text:     "w realizacji",
				Headers:  map[string]string{"X-Entity-Ref-ID": "intent-1"},
				Tags:     map[string]string{"intent_id": "intent-1"},
			})
			if tc.wantKind != "" {
				var de *errs.DeliveryError
				require.ErrorAs(t, err, &de)
				assert.Equal(t, tc.wantKind, de.Kind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantID, resp.ProviderMessageID)
			got := <-reqs
			assert.Equal(t, "/v1/messages", got.path)
			assert.Equal(t, "Bearer relay-token", got.auth)
			assert.Equal(t, "Status naprawy", got.body["subject"])
			assert.Equal(t, "<p>w realizacji</p>", got.body["html"])
			// 备用供应商不携带追踪元数据
			assert.NotContains(t, got.body, "headers")
			assert.NotContains(t, got.body, "tags")
		})
	}
}

type capturedRequest struct {
	path string
	auth string
	body map[string]any
}

func TestProvider_CheckHealth(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	require.NoError(t, NewProvider("relay", Config{Endpoint: server.URL}).CheckHealth(t.Context()))

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()
	err := NewProvider("relay", Config{Endpoint: down.URL}).CheckHealth(t.Context())
	var de *errs.DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, errs.KindProviderUnavailable, de.Kind)
}

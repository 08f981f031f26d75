package openalex

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// closeTrackingBody 记录 Body 是否被关闭
type closeTrackingBody struct {
	inner  io.ReadCloser
	closed *atomic.Int32
}

func (b *closeTrackingBody) Read(p []byte) (int, error) { return b.inner.Read(p) }

func (b *closeTrackingBody) Close() error {
	b.closed.Add(1)
	return b.inner.Close()
}

type trackingTransport struct {
	inner  http.RoundTripper
	bodies atomic.Int32
	closed atomic.Int32
}

func (t *trackingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.inner.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	t.bodies.Add(1)
	resp.Body = &closeTrackingBody{inner: resp.Body, closed: &t.closed}
	return resp, nil
}

func TestRequestClosesBodyPerAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "server busy", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"meta":{"count":0},"results":[]}`))
	}))
	defer srv.Close()

	transport := &trackingTransport{inner: http.DefaultTransport}
	a := &Adapter{
		config:     DefaultConfig(),
		httpClient: &http.Client{Transport: transport},
	}

	body, err := a.request(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("request() error = %v", err)
	}
	if body == "" {
		t.Fatal("重试成功后应返回响应内容")
	}

	if got := calls.Load(); got != 2 {
		t.Errorf("应重试一次, 实际请求 %d 次", got)
	}
	// 每次尝试的响应体都必须在下一次尝试前被关闭
	if transport.bodies.Load() != transport.closed.Load() {
		t.Errorf("未关闭的响应体: 共 %d 个, 已关闭 %d 个",
			transport.bodies.Load(), transport.closed.Load())
	}
}

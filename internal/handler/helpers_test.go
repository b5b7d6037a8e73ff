package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/hitoshi/gadash/internal/analytics"
	"github.com/hitoshi/gadash/internal/model"
	"github.com/hitoshi/gadash/internal/view"
)

// --- モック定義 ---

type mockAuthService struct {
	getLoginURLFn    func(state string) string
	handleCallbackFn func(ctx context.Context, code string) (*model.Session, error)
}

func (m *mockAuthService) GetLoginURL(state string) string {
	if m.getLoginURLFn != nil {
		return m.getLoginURLFn(state)
	}
	return ""
}

func (m *mockAuthService) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	if m.handleCallbackFn != nil {
		return m.handleCallbackFn(ctx, code)
	}
	return nil, nil
}

type mockCookieIssuer struct {
	cookieFn func(sessionID string) (*http.Cookie, error)
}

func (m *mockCookieIssuer) Cookie(sessionID string) (*http.Cookie, error) {
	if m.cookieFn != nil {
		return m.cookieFn(sessionID)
	}
	return &http.Cookie{Name: "session_id", Value: "signed-" + sessionID, Path: "/", HttpOnly: true}, nil
}

type mockReportFetcher struct {
	calls       atomic.Int32
	getReportFn func(ctx context.Context, accessToken string, q analytics.Query) (*analytics.Report, error)
}

func (m *mockReportFetcher) GetReport(ctx context.Context, accessToken string, q analytics.Query) (*analytics.Report, error) {
	m.calls.Add(1)
	if m.getReportFn != nil {
		return m.getReportFn(ctx, accessToken, q)
	}
	return &analytics.Report{Raw: []byte(`{}`)}, nil
}

type mockPinger struct {
	err error
}

func (m *mockPinger) PingContext(ctx context.Context) error {
	return m.err
}

// --- compile-time interface checks ---
var (
	_ AuthServiceInterface = (*mockAuthService)(nil)
	_ SessionCookieIssuer  = (*mockCookieIssuer)(nil)
	_ ReportFetcher        = (*mockReportFetcher)(nil)
	_ Pinger               = (*mockPinger)(nil)
	_ PageRenderer         = (*view.Renderer)(nil)
)

// newTestRenderer は埋め込みテンプレートから実際のRendererを生成する。
func newTestRenderer(t *testing.T) *view.Renderer {
	t.Helper()
	r, err := view.NewRenderer()
	if err != nil {
		t.Fatalf("failed to create renderer: %v", err)
	}
	return r
}

// newTestErrorResponder はログをバッファに出力するErrorResponderを生成する。
func newTestErrorResponder(t *testing.T) (*ErrorResponder, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewErrorResponder(newTestRenderer(t), logger), &buf
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

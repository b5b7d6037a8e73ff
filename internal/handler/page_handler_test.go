package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hitoshi/gadash/internal/analytics"
	"github.com/hitoshi/gadash/internal/metrics"
	"github.com/hitoshi/gadash/internal/middleware"
	"github.com/hitoshi/gadash/internal/model"
)

var testUser = &model.User{ID: "user-1", GoogleID: "g123", DisplayName: "Alice", AccessToken: "access-1"}

func newTestPageHandler(t *testing.T, reports ReportFetcher) *PageHandler {
	t.Helper()
	errResp, _ := newTestErrorResponder(t)
	return NewPageHandler(newTestRenderer(t), reports, errResp, metrics.NopCollector{})
}

func authenticated(req *http.Request) *http.Request {
	return req.WithContext(middleware.ContextWithUser(req.Context(), testUser))
}

func reportRequest(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/getdata", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return authenticated(req)
}

func TestPageHandler_Index_RendersEntryPage(t *testing.T) {
	h := newTestPageHandler(t, &mockReportFetcher{})

	w := httptest.NewRecorder()
	h.Index(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `href="/auth"`) {
		t.Error("entry page should link to /auth")
	}
}

func TestPageHandler_Dashboard_RendersUserWithoutData(t *testing.T) {
	h := newTestPageHandler(t, &mockReportFetcher{})

	w := httptest.NewRecorder()
	h.Dashboard(w, authenticated(httptest.NewRequest(http.MethodGet, "/dashboard", nil)))

	body := w.Body.String()
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(body, "Alice") {
		t.Error("dashboard should show the user's display name")
	}
	if !strings.Contains(body, `id="no-data"`) {
		t.Error("dashboard should render the no-data state")
	}
}

func TestPageHandler_GetData_Success_RendersReport(t *testing.T) {
	reports := &mockReportFetcher{
		getReportFn: func(ctx context.Context, accessToken string, q analytics.Query) (*analytics.Report, error) {
			if accessToken != "access-1" {
				t.Errorf("accessToken = %q, want access-1", accessToken)
			}
			want := analytics.Query{StartDate: "2024-01-01", EndDate: "2024-01-31", Metric: "sessions"}
			if q != want {
				t.Errorf("query = %+v, want %+v", q, want)
			}
			return &analytics.Report{Raw: []byte(`{"reports":[{"total":42}]}`)}, nil
		},
	}
	h := newTestPageHandler(t, reports)

	w := httptest.NewRecorder()
	h.GetData(w, reportRequest(url.Values{
		"startDate": {"2024-01-01"},
		"endDate":   {"2024-01-31"},
		"metric":    {"sessions"},
	}))

	body := w.Body.String()
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d\n%s", w.Code, http.StatusOK, body)
	}
	if !strings.Contains(body, `id="report"`) {
		t.Error("dashboard should render the report section")
	}
	if !strings.Contains(body, "&#34;total&#34;: 42") {
		t.Errorf("report payload should be pretty-printed in the view, got:\n%s", body)
	}
}

func TestPageHandler_GetData_MissingField_Renders400WithoutFetching(t *testing.T) {
	reports := &mockReportFetcher{}
	h := newTestPageHandler(t, reports)

	w := httptest.NewRecorder()
	h.GetData(w, reportRequest(url.Values{
		"startDate": {"2024-01-01"},
		"metric":    {"sessions"},
	}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if !strings.Contains(w.Body.String(), model.ErrCodeInvalidInput) {
		t.Error("error view should contain the validation code")
	}
	if !strings.Contains(w.Body.String(), "endDate") {
		t.Error("error view should name the missing field")
	}
	if reports.calls.Load() != 0 {
		t.Errorf("GetReport calls = %d, want 0", reports.calls.Load())
	}
}

func TestPageHandler_GetData_FetchError_Renders500AndLogs(t *testing.T) {
	reports := &mockReportFetcher{
		getReportFn: func(ctx context.Context, accessToken string, q analytics.Query) (*analytics.Report, error) {
			return nil, errors.New("analytics api returned status 403")
		},
	}
	errResp, logs := newTestErrorResponder(t)
	h := NewPageHandler(newTestRenderer(t), reports, errResp, metrics.NopCollector{})

	w := httptest.NewRecorder()
	h.GetData(w, reportRequest(url.Values{
		"startDate": {"2024-01-01"},
		"endDate":   {"2024-01-31"},
		"metric":    {"sessions"},
	}))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if strings.Contains(w.Body.String(), "status 403") {
		t.Error("error view must not contain the raw error")
	}
	if !strings.Contains(logs.String(), "analytics api returned status 403") {
		t.Errorf("error should be logged, got %s", logs.String())
	}
}

func TestParseReportForm_TrimsAndCollectsMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/getdata", strings.NewReader("startDate=+2024-01-01+&endDate=&metric="))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	form, appErr := parseReportForm(req)
	if appErr == nil {
		t.Fatal("expected validation error")
	}
	if form.StartDate != "2024-01-01" {
		t.Errorf("StartDate = %q, want trimmed value", form.StartDate)
	}
	if !strings.Contains(appErr.Message, "endDate, metric") {
		t.Errorf("message = %q, want both missing fields", appErr.Message)
	}
}

func TestHealth_ReportsStoreStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "ok", status: http.StatusOK},
		{name: "unavailable", err: errors.New("down"), status: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			Health(&mockPinger{err: tt.err})(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

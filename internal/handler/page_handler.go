package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/gadash/internal/analytics"
	"github.com/hitoshi/gadash/internal/metrics"
	"github.com/hitoshi/gadash/internal/middleware"
	"github.com/hitoshi/gadash/internal/view"
)

// ReportFetcher はレポートAPIを呼び出す。analytics.Clientが実装する。
type ReportFetcher interface {
	GetReport(ctx context.Context, accessToken string, q analytics.Query) (*analytics.Report, error)
}

// PageHandler は画面を返すHTTPハンドラー。
type PageHandler struct {
	renderer PageRenderer
	reports  ReportFetcher
	errors   *ErrorResponder
	metrics  metrics.MetricsCollector
}

// NewPageHandler はPageHandlerを生成する。
func NewPageHandler(renderer PageRenderer, reports ReportFetcher, errResp *ErrorResponder, collector metrics.MetricsCollector) *PageHandler {
	return &PageHandler{
		renderer: renderer,
		reports:  reports,
		errors:   errResp,
		metrics:  collector,
	}
}

// Index はエントリーページを返す。
// GET /
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.PageIndex, nil)
}

// Dashboard はデータ未取得のダッシュボードを返す。
// GET /dashboard
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.PageDashboard, view.DashboardPage{
		User:      middleware.UserFromContext(r.Context()),
		CSRFToken: middleware.CSRFTokenFromContext(r.Context()),
	})
}

// GetData はレポートAPIからデータを取得してダッシュボードに表示する。
// POST /getdata
func (h *PageHandler) GetData(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	form, appErr := parseReportForm(r)
	if appErr != nil {
		h.errors.Render(w, r, http.StatusBadRequest, appErr)
		return
	}

	start := time.Now()
	report, err := h.reports.GetReport(r.Context(), user.AccessToken, form.query())
	if err != nil {
		h.metrics.RecordReportFetch(metrics.ResultFailure, time.Since(start))
		h.errors.Fail(w, r, err)
		return
	}
	h.metrics.RecordReportFetch(metrics.ResultSuccess, time.Since(start))

	h.render(w, r, http.StatusOK, view.PageDashboard, view.DashboardPage{
		User:      user,
		Data:      report.Pretty(),
		Query:     form.viewQuery(),
		CSRFToken: middleware.CSRFTokenFromContext(r.Context()),
	})
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if err := h.renderer.Render(w, status, name, data); err != nil {
		h.errors.Fail(w, r, err)
	}
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/gadash/internal/metrics"
	"github.com/hitoshi/gadash/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	UserResolver   middleware.UserResolver
	SessionCookies middleware.SessionCookies
	CookieSecure   bool

	// 認証
	AuthService AuthServiceInterface

	// 画面
	Renderer PageRenderer
	Reports  ReportFetcher

	// 運用
	HealthChecker  Pinger
	Metrics        metrics.MetricsCollector
	MetricsHandler http.Handler

	// nilの場合はslog.Default()を使用する
	Logger *slog.Logger
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → Session → (RequireUser → CSRF)
//
// セッション解決は全ルートに適用し、保護ルートのみRequireUserとCSRFを追加する。
// /health と /metrics はミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.NopCollector{}
	}

	errResp := NewErrorResponder(deps.Renderer, logger)
	authHandler := NewAuthHandler(deps.AuthService, deps.SessionCookies, errResp, collector, AuthHandlerConfig{
		CookieSecure: deps.CookieSecure,
	})
	pageHandler := NewPageHandler(deps.Renderer, deps.Reports, errResp, collector)

	r := chi.NewRouter()

	// --- 運用エンドポイント ---
	if deps.HealthChecker != nil {
		r.Get("/health", Health(deps.HealthChecker))
	}
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewRecoveryMiddleware(errResp.Fail))
		r.Use(middleware.NewLoggingMiddleware(logger, collector.RecordHTTPStatus))
		r.Use(middleware.NewSecurityHeadersMiddleware())
		r.Use(middleware.NewSessionMiddleware(deps.UserResolver, deps.SessionCookies, errResp.Fail))

		// --- 認証不要のルート ---
		r.Get("/", pageHandler.Index)
		r.Get("/auth", authHandler.Login)
		r.Get("/auth/callback", authHandler.Callback)

		// --- 認証が必要なルート ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser("/"))
			r.Use(middleware.NewCSRFMiddleware(middleware.CSRFConfig{
				CookieSecure: deps.CookieSecure,
				OnReject:     errResp.RejectCSRF,
			}))

			r.Get("/dashboard", pageHandler.Dashboard)
			r.Post("/getdata", pageHandler.GetData)
		})
	})

	return r
}

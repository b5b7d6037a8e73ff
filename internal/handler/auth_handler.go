// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/gadash/internal/auth"
	"github.com/hitoshi/gadash/internal/metrics"
	"github.com/hitoshi/gadash/internal/model"
)

const oauthStateCookie = "oauth_state"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	GetLoginURL(state string) string
	HandleCallback(ctx context.Context, code string) (*model.Session, error)
}

// SessionCookieIssuer はセッションIDから署名済みCookieを生成する。auth.CookieCodecが実装する。
type SessionCookieIssuer interface {
	Cookie(sessionID string) (*http.Cookie, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieSecure bool
}

// AuthHandler はOAuth認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	cookies SessionCookieIssuer
	errors  *ErrorResponder
	metrics metrics.MetricsCollector
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(
	service AuthServiceInterface,
	cookies SessionCookieIssuer,
	errResp *ErrorResponder,
	collector metrics.MetricsCollector,
	config AuthHandlerConfig,
) *AuthHandler {
	return &AuthHandler{
		service: service,
		cookies: cookies,
		errors:  errResp,
		metrics: collector,
		config:  config,
	}
}

// Login は同意画面へリダイレクトしてOAuthフローを開始する。
// GET /auth
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := auth.GenerateState()
	if err != nil {
		h.errors.Fail(w, r, err)
		return
	}

	// stateをCookieに保存（CSRF対策）
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10分
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.service.GetLoginURL(state), http.StatusFound)
}

// Callback はOAuthコールバックを処理する。
// GET /auth/callback?code=xxx&state=yyy
//
// 成功時は /dashboard、同意拒否やstate不一致は / へリダイレクトする。
// それ以外の失敗は500のエラー画面を返す。
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var stored string
	if c, err := r.Cookie(oauthStateCookie); err == nil {
		stored = c.Value
	}
	h.clearStateCookie(w)

	if err := auth.VerifyState(stored, query.Get("state")); err != nil {
		slog.Warn("oauth state mismatch", slog.String("error", err.Error()))
		h.deny(w, r)
		return
	}

	code := query.Get("code")
	if providerErr := query.Get("error"); providerErr != "" || code == "" {
		slog.Info("oauth consent denied", slog.String("provider_error", providerErr))
		h.deny(w, r)
		return
	}

	session, err := h.service.HandleCallback(r.Context(), code)
	if errors.Is(err, auth.ErrConsentDenied) {
		h.deny(w, r)
		return
	}
	if err != nil {
		h.metrics.RecordLogin(metrics.ResultFailure)
		h.errors.Fail(w, r, err)
		return
	}

	cookie, err := h.cookies.Cookie(session.ID)
	if err != nil {
		h.metrics.RecordLogin(metrics.ResultFailure)
		h.errors.Fail(w, r, err)
		return
	}
	http.SetCookie(w, cookie)

	h.metrics.RecordLogin(metrics.ResultSuccess)
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (h *AuthHandler) deny(w http.ResponseWriter, r *http.Request) {
	h.metrics.RecordLogin(metrics.ResultDenied)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *AuthHandler) clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/gadash/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストに解決済みユーザーを格納するためのキー。
var userContextKey = contextKey("user")

// UserResolver はセッションIDからユーザーを解決する。
// auth.Serviceが実装する。
type UserResolver interface {
	ResolveUser(ctx context.Context, sessionID string) (*model.User, error)
}

// SessionCookies はセッションCookieの読み書きを行う。
// auth.CookieCodecが実装する。
type SessionCookies interface {
	SessionIDFromRequest(r *http.Request) string
	Cookie(sessionID string) (*http.Cookie, error)
}

// ErrorHandler はミドルウェア内で発生したエラーを一元的に処理する。
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// NewSessionMiddleware は全リクエストでセッションCookieからユーザーを解決するミドルウェアを返す。
// 解決できたユーザーはコンテキストに注入し、セッションCookieを再発行して有効期限を延長する。
// Cookieがない、または無効なセッションの場合は未認証のまま次のハンドラーに渡す。
// ストアの障害はonErrorに委譲する。
func NewSessionMiddleware(resolver UserResolver, cookies SessionCookies, onError ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := cookies.SessionIDFromRequest(r)
			if sessionID == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := resolver.ResolveUser(r.Context(), sessionID)
			if err != nil {
				onError(w, r, err)
				return
			}
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}

			if cookie, err := cookies.Cookie(sessionID); err != nil {
				slog.Warn("failed to refresh session cookie",
					slog.String("user_id", user.ID),
					slog.String("error", err.Error()),
				)
			} else {
				http.SetCookie(w, cookie)
			}

			setLogUserID(r.Context(), user.ID)
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// RequireUser は未認証リクエストをredirectToへリダイレクトするミドルウェアを返す。
// NewSessionMiddlewareの内側に配置する。
func RequireUser(redirectTo string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserFromContext(r.Context()) == nil {
				http.Redirect(w, r, redirectTo, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// 未認証の場合はnilを返す。
func UserFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(userContextKey).(*model.User)
	return user
}

// ContextWithUser はコンテキストにユーザーを注入する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

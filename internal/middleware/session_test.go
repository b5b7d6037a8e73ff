package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/gadash/internal/model"
)

// --- モック定義 ---

type mockUserResolver struct {
	resolveUserFn func(ctx context.Context, sessionID string) (*model.User, error)
}

func (m *mockUserResolver) ResolveUser(ctx context.Context, sessionID string) (*model.User, error) {
	if m.resolveUserFn != nil {
		return m.resolveUserFn(ctx, sessionID)
	}
	return nil, nil
}

// plainCookies は署名なしでセッションIDをそのままCookie値として扱う。
type plainCookies struct{}

func (plainCookies) SessionIDFromRequest(r *http.Request) string {
	c, err := r.Cookie("session_id")
	if err != nil {
		return ""
	}
	return c.Value
}

func (plainCookies) Cookie(sessionID string) (*http.Cookie, error) {
	return &http.Cookie{Name: "session_id", Value: sessionID, Path: "/", HttpOnly: true}, nil
}

var (
	_ UserResolver   = (*mockUserResolver)(nil)
	_ SessionCookies = plainCookies{}
)

func failOnError(t *testing.T) ErrorHandler {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		t.Errorf("unexpected error handler call: %v", err)
	}
}

// --- テスト ---

func TestSessionMiddleware_ValidSession_InjectsUserAndRefreshesCookie(t *testing.T) {
	resolver := &mockUserResolver{
		resolveUserFn: func(ctx context.Context, sessionID string) (*model.User, error) {
			if sessionID == "valid-session-id" {
				return &model.User{ID: "user-123", DisplayName: "Taro"}, nil
			}
			return nil, nil
		},
	}

	var captured *model.User
	handler := NewSessionMiddleware(resolver, plainCookies{}, failOnError(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid-session-id"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if captured == nil || captured.ID != "user-123" {
		t.Fatalf("user = %+v, want ID user-123", captured)
	}

	var refreshed bool
	for _, c := range w.Result().Cookies() {
		if c.Name == "session_id" && c.Value == "valid-session-id" {
			refreshed = true
		}
	}
	if !refreshed {
		t.Error("expected session cookie to be re-issued")
	}
}

func TestSessionMiddleware_NoCookie_PassesThroughUnauthenticated(t *testing.T) {
	resolver := &mockUserResolver{
		resolveUserFn: func(ctx context.Context, sessionID string) (*model.User, error) {
			t.Error("resolver should not be called without a cookie")
			return nil, nil
		},
	}

	called := false
	handler := NewSessionMiddleware(resolver, plainCookies{}, failOnError(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if UserFromContext(r.Context()) != nil {
			t.Error("expected no user in context")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !called {
		t.Fatal("next handler should be called")
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("no cookie should be set for anonymous requests")
	}
}

func TestSessionMiddleware_UnknownSession_PassesThroughUnauthenticated(t *testing.T) {
	handler := NewSessionMiddleware(&mockUserResolver{}, plainCookies{}, failOnError(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) != nil {
			t.Error("expected no user in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "stale"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestSessionMiddleware_StoreError_DelegatesToErrorHandler(t *testing.T) {
	storeErr := errors.New("connection refused")
	resolver := &mockUserResolver{
		resolveUserFn: func(ctx context.Context, sessionID string) (*model.User, error) {
			return nil, storeErr
		},
	}

	var handled error
	onError := func(w http.ResponseWriter, r *http.Request, err error) {
		handled = err
		w.WriteHeader(http.StatusInternalServerError)
	}
	handler := NewSessionMiddleware(resolver, plainCookies{}, onError)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called on store error")
	}))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "s1"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !errors.Is(handled, storeErr) {
		t.Errorf("handled error = %v, want %v", handled, storeErr)
	}
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestRequireUser_Unauthenticated_RedirectsToRoot(t *testing.T) {
	handler := RequireUser("/")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("protected handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodPost, "/getdata", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusFound)
	}
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want %q", loc, "/")
	}
}

func TestRequireUser_Authenticated_CallsNext(t *testing.T) {
	called := false
	handler := RequireUser("/")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req = req.WithContext(ContextWithUser(req.Context(), &model.User{ID: "u1"}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !called {
		t.Error("protected handler should be called for authenticated user")
	}
}

func TestUserFromContext_Empty_ReturnsNil(t *testing.T) {
	if u := UserFromContext(context.Background()); u != nil {
		t.Errorf("UserFromContext = %+v, want nil", u)
	}
}

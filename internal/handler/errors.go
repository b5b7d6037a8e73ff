package handler

import (
	"log/slog"
	"net/http"

	"github.com/hitoshi/gadash/internal/model"
	"github.com/hitoshi/gadash/internal/view"
)

// PageRenderer はページ描画のインターフェース。view.Rendererが実装する。
type PageRenderer interface {
	Render(w http.ResponseWriter, status int, name string, data any) error
}

// ErrorResponder はハンドラーとミドルウェアで発生したエラーを一元的に処理する。
// 詳細はログにのみ出力し、画面には汎用的なAppErrorだけを表示する。
type ErrorResponder struct {
	renderer PageRenderer
	logger   *slog.Logger
}

// NewErrorResponder はErrorResponderを生成する。
func NewErrorResponder(renderer PageRenderer, logger *slog.Logger) *ErrorResponder {
	return &ErrorResponder{renderer: renderer, logger: logger}
}

// Fail はエラーの詳細をログに出力し、500のエラー画面を返す。
func (e *ErrorResponder) Fail(w http.ResponseWriter, r *http.Request, err error) {
	e.logger.LogAttrs(r.Context(), slog.LevelError, "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	e.Render(w, r, http.StatusInternalServerError, model.NewInternalError())
}

// RejectCSRF はフォームのCSRF検証失敗時に403のエラー画面を返す。
func (e *ErrorResponder) RejectCSRF(w http.ResponseWriter, r *http.Request) {
	e.Render(w, r, http.StatusForbidden, model.NewCSRFError())
}

// Render は指定ステータスでエラー画面を描画する。
// エラー画面自体の描画に失敗した場合はプレーンテキストで返す。
func (e *ErrorResponder) Render(w http.ResponseWriter, r *http.Request, status int, appErr *model.AppError) {
	page := view.ErrorPage{Status: status, Error: appErr}
	if err := e.renderer.Render(w, status, view.PageError, page); err != nil {
		e.logger.LogAttrs(r.Context(), slog.LevelError, "failed to render error page",
			slog.String("error", err.Error()),
		)
		http.Error(w, http.StatusText(status), status)
	}
}

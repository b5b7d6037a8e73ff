// Package view はサーバーサイドレンダリングのHTMLテンプレートを提供する。
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/Masterminds/sprig/v3"
	"github.com/hitoshi/gadash/internal/model"
)

//go:embed templates/*.html
var templatesFS embed.FS

// ページ名
const (
	PageIndex     = "index"
	PageDashboard = "dashboard"
	PageError     = "error"
)

// ReportQuery はダッシュボードのフォームに再表示する検索条件。
type ReportQuery struct {
	StartDate string
	EndDate   string
	Metric    string
}

// DashboardPage はダッシュボード画面のデータ。Dataが空の場合は未取得として表示する。
type DashboardPage struct {
	User      *model.User
	Data      string
	Query     ReportQuery
	CSRFToken string
}

// ErrorPage はエラー画面のデータ。内部エラーの詳細は含めない。
type ErrorPage struct {
	Status int
	Error  *model.AppError
}

// Renderer はページ名ごとにパース済みのテンプレートを保持する。
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer は埋め込みテンプレートをパースしてRendererを生成する。
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}

	for _, name := range []string{PageIndex, PageDashboard, PageError} {
		tmpl, err := template.New(name).
			Funcs(sprig.HtmlFuncMap()).
			ParseFS(templatesFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}

	return r, nil
}

// Render はページをバッファに描画してから、ステータスコードとともに書き込む。
// 描画に失敗した場合はレスポンスに何も書き込まずエラーを返す。
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

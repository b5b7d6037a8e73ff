package handler

import (
	"net/http"
	"strings"

	"github.com/hitoshi/gadash/internal/analytics"
	"github.com/hitoshi/gadash/internal/model"
	"github.com/hitoshi/gadash/internal/view"
)

// ReportForm はPOST /getdata のフォーム入力。
// 値の形式は検証せず、レポートAPI側の検証に委ねる。
type ReportForm struct {
	StartDate string
	EndDate   string
	Metric    string
}

// parseReportForm はフォームを読み取り、必須項目の有無を検証する。
func parseReportForm(r *http.Request) (ReportForm, *model.AppError) {
	if err := r.ParseForm(); err != nil {
		return ReportForm{}, model.NewInvalidInputError("form")
	}

	form := ReportForm{
		StartDate: strings.TrimSpace(r.PostFormValue("startDate")),
		EndDate:   strings.TrimSpace(r.PostFormValue("endDate")),
		Metric:    strings.TrimSpace(r.PostFormValue("metric")),
	}

	var missing []string
	if form.StartDate == "" {
		missing = append(missing, "startDate")
	}
	if form.EndDate == "" {
		missing = append(missing, "endDate")
	}
	if form.Metric == "" {
		missing = append(missing, "metric")
	}
	if len(missing) > 0 {
		return form, model.NewInvalidInputError(strings.Join(missing, ", "))
	}

	return form, nil
}

func (f ReportForm) query() analytics.Query {
	return analytics.Query{StartDate: f.StartDate, EndDate: f.EndDate, Metric: f.Metric}
}

func (f ReportForm) viewQuery() view.ReportQuery {
	return view.ReportQuery{StartDate: f.StartDate, EndDate: f.EndDate, Metric: f.Metric}
}

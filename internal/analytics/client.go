// Package analytics はユーザーのアクセストークンでレポートAPIを呼び出すクライアントを提供する。
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

const (
	// defaultEndpoint はAnalytics Reporting API v4のレポート一括取得エンドポイント。
	defaultEndpoint = "https://analyticsreporting.googleapis.com/v4/reports:batchGet"
	// metricPrefix はメトリクス式の名前空間。
	metricPrefix = "ga:"
	// maxResponseSize はレスポンスボディの上限（バイト）。
	maxResponseSize = 5 << 20
)

// Query はレポート取得の条件を表す。値の形式は検証せず、API側の検証に委ねる。
type Query struct {
	StartDate string
	EndDate   string
	Metric    string
}

// Report はレポートAPIのレスポンスをそのまま保持する。
type Report struct {
	Raw json.RawMessage
}

// Pretty はインデント付きのJSON文字列を返す。整形できない場合は元の文字列を返す。
func (r *Report) Pretty() string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, r.Raw, "", "  "); err != nil {
		return string(r.Raw)
	}
	return buf.String()
}

// Client はレポートAPIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string // テスト用にエンドポイントを差し替え可能
	viewID     string
}

// NewClient はClientを生成する。viewIDが空の場合はリクエストに含めない。
func NewClient(httpClient *http.Client, logger *slog.Logger, viewID string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		endpoint:   defaultEndpoint,
		viewID:     viewID,
	}
}

type dateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type metric struct {
	Expression string `json:"expression"`
}

type reportRequest struct {
	ViewID     string      `json:"viewId,omitempty"`
	DateRanges []dateRange `json:"dateRanges"`
	Metrics    []metric    `json:"metrics"`
}

type batchGetRequest struct {
	ReportRequests []reportRequest `json:"reportRequests"`
}

// GetReport はアクセストークンを使ってレポートを1件取得する。
// 失敗時はエラーを返し、呼び出し元がエラー画面に委ねる。
func (c *Client) GetReport(ctx context.Context, accessToken string, q Query) (*Report, error) {
	payload, err := json.Marshal(batchGetRequest{
		ReportRequests: []reportRequest{{
			ViewID:     c.viewID,
			DateRanges: []dateRange{{StartDate: q.StartDate, EndDate: q.EndDate}},
			Metrics:    []metric{{Expression: metricExpression(q.Metric)}},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode report request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// ユーザーのアクセストークンをBearerとして付与する
	client := oauth2.NewClient(
		context.WithValue(ctx, oauth2.HTTPClient, c.httpClient),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}),
	)
	client.Timeout = c.httpClient.Timeout

	resp, err := client.Do(req)
	if err != nil {
		c.logger.Error("report API request failed",
			slog.String("error", err.Error()),
			slog.String("metric", q.Metric),
		)
		return nil, fmt.Errorf("report request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read report response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("report API returned error status",
			slog.Int("http_status", resp.StatusCode),
			slog.String("metric", q.Metric),
		)
		return nil, fmt.Errorf("report API returned status %d: %s", resp.StatusCode, string(body))
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("report API returned invalid JSON")
	}

	return &Report{Raw: json.RawMessage(body)}, nil
}

// metricExpression はメトリクス名をAPIの式に変換する（"sessions" -> "ga:sessions"）。
func metricExpression(name string) string {
	if strings.HasPrefix(name, metricPrefix) {
		return name
	}
	return metricPrefix + name
}

package model

import "fmt"

// AppError はエラー画面に表示する統一エラーフォーマットを表す。
// 内部エラーの詳細は含めず、利用者向けの文言のみを保持する。
type AppError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, analytics, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeCSRF         = "CSRF_REJECTED"
)

// NewInternalError は内部エラーを生成する。
func NewInternalError() *AppError {
	return &AppError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInvalidInputError は入力不備エラーを生成する。
func NewInvalidInputError(field string) *AppError {
	return &AppError{
		Code:     ErrCodeInvalidInput,
		Message:  fmt.Sprintf("入力項目が不足しています: %s", field),
		Category: "validation",
		Action:   "開始日・終了日・メトリクスをすべて入力してください。",
	}
}

// NewCSRFError はフォームのCSRFトークン検証失敗エラーを生成する。
func NewCSRFError() *AppError {
	return &AppError{
		Code:     ErrCodeCSRF,
		Message:  "フォームの送信を検証できませんでした。",
		Category: "auth",
		Action:   "ダッシュボードを再読み込みしてから再度送信してください。",
	}
}

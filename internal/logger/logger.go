// Package logger はJSON構造化ログの初期化を提供する。
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Setup は指定レベル以上を出力するJSON構造化ログのslog.Loggerを生成して返す。
func Setup(w io.Writer, level slog.Leveler) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

// SetupDefault はJSON構造化ログをグローバルロガーとして設定する。
// wがnilの場合はos.Stdoutに出力する。
// 設定読み込み前に呼ばれるため、レベルは後からSetLevelで変更できるようLevelVarを返す。
func SetupDefault(w io.Writer) *slog.LevelVar {
	if w == nil {
		w = os.Stdout
	}
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	slog.SetDefault(Setup(w, level))
	return level
}

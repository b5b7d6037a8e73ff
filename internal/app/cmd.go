package app

import (
	"fmt"
	"strings"
)

// Command は gadash バイナリのサブコマンド。
type Command string

const (
	CommandServe   Command = "serve"
	CommandWorker  Command = "worker"
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は distroless イメージの HEALTHCHECK から呼ばれる。
	CommandHealthcheck Command = "healthcheck"
)

var knownCommands = []Command{CommandServe, CommandWorker, CommandMigrate, CommandHealthcheck}

// ErrUnknownCommand はサポート外のサブコマンドが指定された場合に返される。
var ErrUnknownCommand = fmt.Errorf("unknown command (want one of: %s)", commandList())

// ParseCommand は先頭の引数をサブコマンドとして解釈する。
// 引数が空の場合は serve、知らない名前の場合は ErrUnknownCommand を返す。
// 2番目以降の引数は無視する。
func ParseCommand(args []string) (Command, error) {
	if len(args) == 0 {
		return CommandServe, nil
	}
	for _, c := range knownCommands {
		if args[0] == string(c) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%q: %w", args[0], ErrUnknownCommand)
}

// NeedsConfig は環境変数からの設定読み込みが必要かどうかを返す。
func (c Command) NeedsConfig() bool {
	return c != CommandHealthcheck
}

func commandList() string {
	names := make([]string, len(knownCommands))
	for i, c := range knownCommands {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

package app

import (
	"errors"
	"fmt"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandWorker は期限切れ予約の整理ジョブを定期実行するワーカーモード。
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
	// CommandHelp は使い方を表示する。
	CommandHelp Command = "help"
)

// MigrateAction はmigrateサブコマンドの操作種別。
type MigrateAction string

const (
	MigrateUp      MigrateAction = "up"
	MigrateDown    MigrateAction = "down"
	MigrateVersion MigrateAction = "version"
)

// Invocation はコマンドライン引数の解析結果。
// MigrateはCommandがCommandMigrateのときのみ意味を持つ。
type Invocation struct {
	Command Command
	Migrate MigrateAction
}

// ErrUnknownCommand はサポート外のサブコマンドが指定された場合のエラー。
var ErrUnknownCommand = errors.New("unknown command")

// Usage はhelpサブコマンドで表示する使い方。
const Usage = `usage: gymman <command> [args]

commands:
  serve                  start the HTTP API server (default)
  worker                 run the booking cleanup job periodically
  migrate [up|down|version]
                         apply, roll back one step, or print the schema version
  healthcheck            probe GET /health on localhost:$PORT
  help                   show this message
`

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空の場合はserveとみなす。サポート外のコマンドはErrUnknownCommandを返す。
func ParseCommand(args []string) (Invocation, error) {
	if len(args) == 0 {
		return Invocation{Command: CommandServe}, nil
	}

	switch args[0] {
	case "serve":
		return Invocation{Command: CommandServe}, nil
	case "worker":
		return Invocation{Command: CommandWorker}, nil
	case "healthcheck":
		return Invocation{Command: CommandHealthcheck}, nil
	case "help", "-h", "--help":
		return Invocation{Command: CommandHelp}, nil
	case "migrate":
		action := MigrateUp
		if len(args) > 1 {
			switch MigrateAction(args[1]) {
			case MigrateUp, MigrateDown, MigrateVersion:
				action = MigrateAction(args[1])
			default:
				return Invocation{}, fmt.Errorf("%w: migrate %s", ErrUnknownCommand, args[1])
			}
		}
		return Invocation{Command: CommandMigrate, Migrate: action}, nil
	default:
		return Invocation{}, fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}
}

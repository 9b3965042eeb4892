// Command gymman はジム管理APIのサーバー・ワーカー・マイグレーションを起動する。
//
//	gymman [serve|worker|migrate|healthcheck]
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/gymman/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "gymman: %v\n", err)
		os.Exit(1)
	}
}

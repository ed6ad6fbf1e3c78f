// Command diarybook は日記帳のAPIサーバー・ワーカー・対話シェルを起動する。
//
//	diarybook serve | worker | migrate | healthcheck | shell
package main

import (
	"log/slog"
	"os"

	"github.com/hitoshi/diarybook/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

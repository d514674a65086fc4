package main

import (
	"fmt"
	"os"

	"github.com/markrai/gitpow/cmd"
	"github.com/markrai/gitpow/internal/errors"
)

// main 为 CLI 入口，调用 cmd.Execute 并按错误类型设置退出码。
func main() {
	if err := cmd.Execute(); err != nil {
		handler := errors.NewErrorHandler()
		report := handler.Handle(err)
		fmt.Fprint(os.Stderr, handler.FormatReport(report))
		os.Exit(report.ExitCode)
	}
}

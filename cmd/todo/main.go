package main

import (
	"context"
	"fmt"
	"os"

	"todo-list/internal/cli"
)

// version выставляется при сборке через -ldflags.
var version = "dev"

// Здесь только запуск: вся сборка зависимостей живёт в internal/cli.
func main() {
	root := cli.NewRootCommand(version)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

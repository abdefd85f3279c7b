// Command importctl runs and inspects bulk imports from a terminal.
//
//	importctl run --type subjects --file materias.csv
//	importctl run --type users --file usuarios.csv --dry-run
//	importctl list --status failed
//	importctl errors 3f0c...
//	importctl template groups > plantilla_groups.csv
//	importctl migrate
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli := newCommandLine(os.Stdout, os.Stderr)
	if err := cli.run(ctx, os.Args[1:]); err != nil {
		slog.Error("importctl failed", "error", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// Command import loads sales files into the configured store without the
// HTTP server, using the same configuration as cmd/server.
//
//	import sales-jan.csv sales-feb.xlsx
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/salesdash/internal/config"
	"github.com/JonMunkholm/salesdash/internal/core"
	"github.com/JonMunkholm/salesdash/internal/logging"
	"github.com/JonMunkholm/salesdash/internal/store"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] FILE...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	keepGoing := flag.Bool("keep-going", false, "continue with the next file after a failure")
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	service := core.NewService(st, store.ServiceOptions(cfg))

	failed := 0
	for _, path := range flag.Args() {
		if err := importFile(ctx, service, path); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %s\n", path, describe(err))
			if !*keepGoing {
				break
			}
		}
	}
	if failed > 0 {
		closeStore()
		os.Exit(1)
	}
}

// describe prints the friendly message for known failures and the raw error
// otherwise, since a local operator can act on it.
func describe(err error) string {
	if core.IsUserFacing(err) {
		return core.FormatUserError(err)
	}
	return err.Error()
}

func importFile(ctx context.Context, service *core.Service, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	report, err := service.IngestUpload(ctx, core.Upload{FileName: filepath.Base(path), Body: f})
	if err != nil {
		return err
	}
	fmt.Printf("%s: imported %d of %d records (%d rejected by the store)\n",
		path, report.Inserted, report.Total, report.Rejected)
	return nil
}

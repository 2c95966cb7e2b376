package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Omgitskie/gsc-dashboard/internal/app"
	"github.com/Omgitskie/gsc-dashboard/internal/config"
	"github.com/Omgitskie/gsc-dashboard/internal/db"
	"github.com/Omgitskie/gsc-dashboard/internal/gsc"
	"github.com/Omgitskie/gsc-dashboard/internal/ingest"
	"github.com/Omgitskie/gsc-dashboard/internal/overrides"
	"github.com/Omgitskie/gsc-dashboard/internal/web"
)

func main() {
	cfgPath := flag.String("config", "", "optional yaml config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	dbPath := flag.String("db", "", "sqlite db path (overrides config)")
	flag.Parse()

	cfg := config.Load(*cfgPath)
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := db.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer d.Close()
	if err := db.Migrate(ctx, d); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ovs := overrides.New(d)

	client := gsc.NewClient(cfg.PropertyURL, cfg.Token)
	client.BaseURL = cfg.GSCBaseURL
	client.RowLimit = cfg.RowLimit
	svc := ingest.NewService(client, ovs, cfg.CacheTTL)

	tmpl, err := web.LoadTemplates()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "gscdash listening on %s\n", cfg.Addr)
	if err := app.Run(ctx, svc, ovs, tmpl, app.Config{Addr: cfg.Addr}); err != nil && err != http.ErrServerClosed {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

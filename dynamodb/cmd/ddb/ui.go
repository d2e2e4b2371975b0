package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/attrinspect"
	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/ddbbrowse"
	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/ddbui"
)

func runUI(args []string) error {
	var flags commonFlags
	var port, scanLimit int

	fs := newFlagSet("ui", "[flags]")
	flags.register(fs)
	fs.IntVarP(&port, "port", "p", 0, "HTTP port (default 3070)")
	fs.IntVar(&scanLimit, "scan-limit", 0, "records per scan when a request names no limit (default 50)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, logger, err := flags.load(fs)
	if err != nil {
		return err
	}
	if fs.Changed("port") {
		cfg.Port = port
	}
	if fs.Changed("scan-limit") {
		cfg.ScanLimit = scanLimit
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := openSource(ctx, cfg, flags.local, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	if src.conn != nil {
		probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		id, err := src.conn.Identity(probeCtx)
		cancel()
		if err != nil {
			printWarning(os.Stderr, "AWS credentials could not be verified",
				err.Error(),
				"Requests will fail until valid credentials are configured.")
		} else {
			logger.Info("using AWS identity", "account", id.Account, "arn", id.ARN)
		}
	}

	inspector := attrinspect.New(attrinspect.WithLogger(logger))
	browser := ddbbrowse.New(src.reader,
		ddbbrowse.WithLogger(logger),
		ddbbrowse.WithInspector(inspector),
		ddbbrowse.WithDefaultLimit(cfg.ScanLimit),
	)

	opts := []ddbui.Option{
		ddbui.WithLogger(logger),
		ddbui.WithInspector(inspector),
	}
	if id := src.identity(); id != nil {
		opts = append(opts, ddbui.WithIdentity(id))
	}

	server := ddbui.NewServer(ddbui.ServerConfig{
		Port:      cfg.Port,
		Source:    src.name,
		ScanLimit: cfg.ScanLimit,
	}, browser, opts...)

	server.PrintBanner(os.Stdout)
	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

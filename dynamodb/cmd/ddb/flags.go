package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/ddbconn"
	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/ddbiface"
	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/ddbstore"
	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/ddbui"
)

// commonFlags are accepted by every command that reads tables.
type commonFlags struct {
	configPath string
	region     string
	profile    string
	endpoint   string
	dataDir    string
	local      bool
	verbose    bool
}

func (f *commonFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.configPath, "config", "c", "", "config file (default: ddb.yaml in this or a parent directory)")
	fs.StringVarP(&f.region, "region", "r", "", "AWS region")
	fs.StringVar(&f.profile, "profile", "", "shared config profile")
	fs.StringVar(&f.endpoint, "endpoint", "", "DynamoDB endpoint override, e.g. http://localhost:8000")
	fs.StringVar(&f.dataDir, "data-dir", "", "local BadgerDB directory")
	fs.BoolVar(&f.local, "local", false, "read the local BadgerDB store instead of AWS")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")
}

// load resolves the configuration: file, then environment, then any flag
// that was set explicitly.
func (f *commonFlags) load(fs *pflag.FlagSet) (Config, *slog.Logger, error) {
	logger := newLogger(os.Stderr, f.verbose)

	cfg, path, err := LoadConfig(f.configPath, "")
	if err != nil {
		return Config{}, nil, err
	}
	if path != "" {
		logger.Debug("loaded config", "path", path)
	}
	cfg.applyEnv(os.Getenv)

	for name, pair := range map[string]struct {
		dst *string
		src string
	}{
		"region":   {&cfg.Region, f.region},
		"profile":  {&cfg.Profile, f.profile},
		"endpoint": {&cfg.Endpoint, f.endpoint},
		"data-dir": {&cfg.DataDir, f.dataDir},
	} {
		if fs.Changed(name) {
			*pair.dst = pair.src
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, logger, nil
}

// newLogger writes text to a terminal and JSON otherwise.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if f, ok := w.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// source is where a command reads tables from: AWS or a local store.
type source struct {
	reader ddbiface.TableReader
	name   string

	conn  *ddbconn.Conn
	store *ddbstore.Store
}

func openSource(ctx context.Context, cfg Config, local bool, logger *slog.Logger) (*source, error) {
	if local {
		store, err := openStore(cfg, logger)
		if err != nil {
			return nil, err
		}
		return &source{reader: store, name: "local " + cfg.DataDir, store: store}, nil
	}

	conn, err := connect(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	name := conn.Config.Region
	if conn.Endpoint() != "" {
		name += " via " + conn.Endpoint()
	}
	return &source{reader: conn.DynamoDB, name: name, conn: conn}, nil
}

func (s *source) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// identity is nil for local stores.
func (s *source) identity() ddbui.IdentityFunc {
	if s.conn == nil {
		return nil
	}
	return s.conn.Identity
}

func connect(ctx context.Context, cfg Config, logger *slog.Logger) (*ddbconn.Conn, error) {
	opts := cfg.connOptions()
	opts.Logger = logger
	conn, err := ddbconn.Connect(ctx, opts)
	if errors.Is(err, ddbconn.ErrCredentialsRequired) {
		return nil, fmt.Errorf("%w: set both accessKeyId and secretAccessKey, or neither to use the default chain", err)
	}
	return conn, err
}

// openStore opens the BadgerDB store in cfg.DataDir and registers the
// configured tables.
func openStore(cfg Config, logger *slog.Logger) (*ddbstore.Store, error) {
	if cfg.DataDir == "" {
		return nil, errors.New("no data directory configured; set dataDir or --data-dir")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return ddbstore.New(ddbstore.StoreOptions{
		Path:   cfg.DataDir,
		Logger: logger.With("component", "store"),
	}, cfg.Tables...)
}

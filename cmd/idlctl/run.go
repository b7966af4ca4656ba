package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/danmuck/idlctl/internal/address"
	"github.com/danmuck/idlctl/internal/catalog"
	"github.com/danmuck/idlctl/internal/cluster"
	"github.com/danmuck/idlctl/internal/config"
	"github.com/danmuck/idlctl/internal/fetcher"
	"github.com/danmuck/idlctl/internal/logging"
	"github.com/danmuck/idlctl/internal/protocol/record"
	"github.com/danmuck/idlctl/internal/rpc"
	"github.com/danmuck/idlctl/internal/store"
	"github.com/ipfs/go-cid"
)

const defaultConfigPath = "idlctl.toml"

var errUsage = errors.New("usage: idlctl [flags] <program-id>")

type options struct {
	configPath string
	cluster    string
	rpcURL     string
	outputDir  string
	catalogDir string
	list       bool
	initConfig bool
	force      bool
	args       []string
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("idlctl", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "config file (TOML)")
	fs.StringVar(&opts.cluster, "cluster", "", "cluster: devnet|testnet|mainnet")
	fs.StringVar(&opts.rpcURL, "rpc", "", "RPC endpoint overriding the cluster URL")
	fs.StringVar(&opts.outputDir, "out", "", "directory for <program-id>.json")
	fs.StringVar(&opts.catalogDir, "catalog", "", "catalog directory; enables the fetch index")
	fs.BoolVar(&opts.list, "list", false, "list catalog entries and verify their documents")
	fs.BoolVar(&opts.initConfig, "init", false, "write a config template to -config (default idlctl.toml)")
	fs.BoolVar(&opts.force, "force", false, "overwrite an existing config with -init")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	opts.args = fs.Args()
	return opts, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	if opts.initConfig {
		path := opts.configPath
		if path == "" {
			path = defaultConfigPath
		}
		if err := config.WriteTemplate(path, opts.force); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wrote config template to %s\n", path)
		return nil
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logging.ConfigureWith(cfg.LoggingConfig())

	if opts.list {
		return listCatalog(cfg, stdout)
	}
	if len(opts.args) != 1 {
		return errUsage
	}
	return fetch(ctx, cfg, opts.args[0], stdout)
}

func loadConfig(opts options) (config.Config, error) {
	cfg := config.Default()
	path := opts.configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if opts.cluster != "" {
		c, err := cluster.Parse(opts.cluster)
		if err != nil {
			return config.Config{}, err
		}
		cfg.Cluster = c
	}
	if opts.rpcURL != "" {
		cfg.RPCURL = strings.TrimSpace(opts.rpcURL)
	}
	if opts.outputDir != "" {
		cfg.OutputDir = opts.outputDir
	}
	if opts.catalogDir != "" {
		cfg.CatalogDir = opts.catalogDir
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func fetch(ctx context.Context, cfg config.Config, program string, stdout io.Writer) (err error) {
	dec, err := record.NewDecoder(cfg.DecoderConfig())
	if err != nil {
		return err
	}
	writer, err := store.NewWriter(cfg.OutputDir)
	if err != nil {
		return err
	}
	deps := fetcher.Deps{
		Source:  rpc.New(cfg.Endpoint(), cfg.RPCConfig()),
		Deriver: address.AnchorIDL{},
		Decoder: dec,
		Sink:    writer,
	}
	if cfg.CatalogDir != "" {
		cat, err := catalog.Open(cfg.CatalogDir)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := cat.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close catalog: %w", cerr)
			}
		}()
		deps.Recorder = cat
	}

	svc, err := fetcher.New(deps, fetcher.Options{Cluster: cfg.Cluster.String()})
	if err != nil {
		return err
	}
	res, err := svc.Fetch(ctx, program)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, res.Receipt.Path)
	return nil
}

func listCatalog(cfg config.Config, stdout io.Writer) (err error) {
	if cfg.CatalogDir == "" {
		return errors.New("list requires catalog_dir or -catalog")
	}
	cat, err := catalog.Open(cfg.CatalogDir)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := cat.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close catalog: %w", cerr)
		}
	}()

	return cat.List(func(e catalog.Entry) error {
		status := "ok"
		want, cerr := cid.Cast(e.DocumentCID)
		if cerr != nil {
			want = cid.Undef
			status = "unverified"
		}
		if _, verr := store.ReadVerified(e.Path, want); verr != nil {
			status = "stale"
		}
		fmt.Fprintf(stdout, "%s\t%s\t%s\t%d\t%s\t%s\n",
			e.Cluster,
			e.Program,
			e.FetchedAt.UTC().Format("2006-01-02T15:04:05Z"),
			e.Size,
			e.Path,
			status,
		)
		return nil
	})
}

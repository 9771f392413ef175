// Package main is the Voxa CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hyperjump/voxa/internal/catalog"
	"github.com/hyperjump/voxa/internal/cli"
	"github.com/hyperjump/voxa/internal/config"
	"github.com/hyperjump/voxa/internal/embedding"
	"github.com/hyperjump/voxa/internal/metrics"
	"github.com/hyperjump/voxa/internal/models"
	"github.com/hyperjump/voxa/internal/search"
	"github.com/hyperjump/voxa/internal/server"
	"github.com/hyperjump/voxa/internal/storage"
	"github.com/hyperjump/voxa/internal/watcher"
	"github.com/hyperjump/voxa/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/voxa/config.yaml"

const defaultServerURL = "http://localhost:8080"

// errUnavailable is returned by the HTTP client when the server's model is still loading.
var errUnavailable = errors.New("search is initializing, try again shortly")

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "import":
		runImport()
	case "remove":
		runRemove()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("voxa version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads config and builds a logger, exiting on failure.
func setup(configPath string, debugFlag bool) (*config.Config, string, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.Debug = cfg.Debug || debugFlag
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return cfg, resolved, logger
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, logger := setup(*configPath, *debug)
	defer logger.Sync()
	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", cfg.Debug),
		zap.String("embedding_backend", cfg.Embedding.Backend),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()
	metrics.Register(prometheus.DefaultRegisterer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Embedding.WarmUpOrDefault() {
		go func() {
			if err := components.Provider.WarmUp(ctx); err != nil {
				logger.Warn("model warm-up failed; searches will retry the load", zap.Error(err))
			}
		}()
	}

	watchSvc := watcher.New(
		cfg.Watch.Directories,
		cfg.Watch.Extensions,
		cfg.Watch.RecursiveOrDefault(),
		components.Importer,
		watcher.WithLogger(logger),
	)
	if err := watchSvc.Start(ctx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	defer watchSvc.Stop()
	watchSvc.SyncExistingFiles(ctx)

	srv := server.NewServer(
		components.Service,
		components.Storage,
		components.Provider,
		cfg,
		logger,
		server.WithWatcher(watchSvc),
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: voxa search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Results are ranked by semantic similarity to the query, nudged by entity tier
(Company, Organization, Business, Consultant). Businesses below the relevance floor are dropped.

Examples:
  voxa search pediatric dentist
  voxa search --industry Healthcare --location Austin "kids dental care"
  voxa search --output json --limit 5 tax advisor
  voxa search --server "" commercial cleaning     # search the local database directly
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// configPathFromArgs returns the value of -config/--config from args if present, else defaultPath.
func configPathFromArgs(args []string, defaultPath string) string {
	for i, a := range args {
		if (a == "-config" || a == "--config") && i+1 < len(args) {
			return args[i+1]
		}
	}
	return defaultPath
}

// searchLimitDefaultFromConfig loads config at path and returns its default result limit,
// or 10 when the config cannot be loaded.
func searchLimitDefaultFromConfig(path string) int {
	cfg, _, err := loadConfig(path)
	if err != nil || cfg == nil {
		return 10
	}
	return cfg.Search.DefaultLimit
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. The flag package
// stops at the first non-flag argument, so "voxa search dentist -limit 3"
// would otherwise leave -limit unparsed.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runSearch() {
	searchArgs := searchArgsReorder(os.Args[2:])
	defaultLimit := searchLimitDefaultFromConfig(configPathFromArgs(searchArgs, defaultConfigPath))

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = search the local database directly)")
	limit := fs.Int("limit", defaultLimit, "number of results")
	offset := fs.Int("offset", 0, "number of ranked results to skip")
	industry := fs.String("industry", "", "only consider businesses in this industry")
	location := fs.String("location", "", "only consider businesses whose location contains this text")
	outputFormat := fs.String("output", "text", "output format: text (human-readable) or json (parseable)")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgs)

	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	query := &models.SearchQuery{
		Query:    queryStr,
		Limit:    *limit,
		Offset:   *offset,
		Industry: *industry,
		Location: *location,
	}

	var response *models.SearchResponse
	if *serverURL != "" {
		response, err = searchViaHTTP(http.DefaultClient, *serverURL, query)
	} else {
		cfg, _, logger := setup(*configPath, false)
		defer logger.Sync()
		components, initErr := initializeComponents(cfg, logger)
		if initErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", initErr)
			os.Exit(1)
		}
		defer components.Close()
		response, err = components.Service.Search(context.Background(), query)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(client *http.Client, serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := client.Post(strings.TrimRight(serverURL, "/")+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func statusViaHTTP(client *http.Client, serverURL string) (*models.Status, error) {
	resp, err := client.Get(strings.TrimRight(serverURL, "/") + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	var status models.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &status, nil
}

func checkResponse(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusServiceUnavailable:
		return errUnavailable
	default:
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = read the local database directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var status *models.Status
	if *serverURL != "" {
		status, err = statusViaHTTP(http.DefaultClient, *serverURL)
	} else {
		cfg, _, logger := setup(*configPath, false)
		defer logger.Sync()
		components, initErr := initializeComponents(cfg, logger)
		if initErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", initErr)
			os.Exit(1)
		}
		defer components.Close()
		status, err = localStatus(context.Background(), cfg, components)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// localStatus reads catalog counts straight from storage. The model is not loaded.
func localStatus(ctx context.Context, cfg *config.Config, c *Components) (*models.Status, error) {
	total, err := c.Storage.CountBusinesses(ctx, storage.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("count businesses: %w", err)
	}
	visible, err := c.Storage.CountBusinesses(ctx, storage.ListFilter{VisibleOnly: true})
	if err != nil {
		return nil, fmt.Errorf("count visible businesses: %w", err)
	}
	industries, err := c.Storage.ListIndustries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list industries: %w", err)
	}
	weights := c.Engine.Weights()
	status := &models.Status{
		Businesses:        total,
		VisibleBusinesses: visible,
		Industries:        industries,
		Model: models.ModelStatus{
			Backend:    c.Provider.Backend(),
			Ready:      c.Provider.Ready(),
			Dimensions: c.Provider.Dimensions(),
		},
		Ranking: models.RankingInfo{
			SimilarityWeight: weights.Similarity,
			TierWeight:       weights.Tier,
			MinRelevance:     weights.MinRelevance,
		},
		DatabasePath:     cfg.Storage.DatabasePath,
		WatchDirectories: cfg.Watch.Directories,
	}
	if n, err := storage.DatabaseSize(cfg.Storage.DatabasePath); err == nil {
		status.DiskUsageBytes = n
	}
	return status, nil
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	recursive := fs.Bool("recursive", true, "descend into subdirectories when importing a directory")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: voxa import [flags] <catalog-file-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, _, logger := setup(*configPath, false)
	defer logger.Sync()
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()
	importer := catalog.NewImporter(store, catalog.WithLogger(logger))

	ctx := context.Background()
	info, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to stat path: %v\n", err)
		os.Exit(1)
	}
	if info.IsDir() {
		n, err := importer.ImportDirectory(ctx, path, cfg.Watch.Extensions, *recursive)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Importing directory failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Imported %d catalog file(s) from %s\n", n, path)
		return
	}
	n, err := importer.ImportFile(ctx, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Imported %d business(es) from %s\n", n, path)
}

func runRemove() {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: voxa remove [flags] <catalog-file>")
		os.Exit(1)
	}

	cfg, _, logger := setup(*configPath, false)
	defer logger.Sync()
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	n, err := catalog.NewImporter(store, catalog.WithLogger(logger)).RemoveFile(context.Background(), fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Remove failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Removed %d business(es) imported from %s\n", n, fs.Arg(0))
}

// Components holds initialized services.
type Components struct {
	Storage  storage.Storage
	Provider *embedding.Provider
	Engine   *search.Engine
	Service  *search.Service
	Importer *catalog.Importer
}

func (c *Components) Close() {
	if c.Engine != nil {
		c.Engine.Release()
	}
	if c.Provider != nil {
		_ = c.Provider.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c := &Components{Storage: store}

	c.Provider, err = embedding.NewProviderFromConfig(&cfg.Embedding, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}

	c.Engine, err = search.NewEngine(c.Provider, cfg.Ranking.Weights(),
		search.WithEntityTable(cfg.Ranking.EntityTable()),
		search.WithConcurrency(cfg.Ranking.Concurrency),
		search.WithLogger(logger),
	)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize ranking engine: %w", err)
	}

	c.Service = search.NewService(c.Engine, store, &cfg.Search, logger)
	c.Importer = catalog.NewImporter(store, catalog.WithLogger(logger))
	return c, nil
}

func printUsage() {
	fmt.Println(`voxa - Semantic business matching and ranking

Usage:
  voxa server [flags]              Start the HTTP server
  voxa search [flags] <query>      Rank businesses against a query
  voxa import [flags] <path>       Import a catalog file or directory (.json, .yaml, .yml, .xlsx)
  voxa remove [flags] <file>       Remove the businesses imported from a catalog file
  voxa status [flags]              Show catalog, model and ranking status
  voxa version                     Show version
  voxa help                        Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/voxa/config.yaml)
  --debug            Enable debug logging

Search Flags:
  --config string    Config file path (for direct mode; also supplies the default limit)
  --server string    Server URL (default: http://localhost:8080). Use --server "" to search the local database.
  --limit int        Number of results (default from config, or 10)
  --offset int       Number of ranked results to skip
  --industry string  Only consider businesses in this industry
  --location string  Only consider businesses whose location contains this text
  --output string    Output format: text or json (default: text)

Import Flags:
  --config string    Config file path
  --recursive        Descend into subdirectories (default: true)

Status Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use --server "" for the local database.
  --output string    Output format: text or json (default: text)

Examples:
  voxa server
  voxa import ./catalogs
  voxa search "pediatric dentist"
  voxa search --industry Finance --output json "small business tax help"
  voxa status --output json`)
}

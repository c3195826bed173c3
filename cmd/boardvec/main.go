// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/boardvec"
	"github.com/poiesic/boardvec/ai"
	"github.com/poiesic/boardvec/config"
	"github.com/poiesic/boardvec/core"
	"github.com/poiesic/boardvec/extract"
	"github.com/poiesic/boardvec/ingestion"
	"github.com/poiesic/boardvec/provider"
	"github.com/poiesic/boardvec/quota"
	"github.com/poiesic/boardvec/reembed"
	"github.com/poiesic/boardvec/search"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "boardvec",
		Usage: "Sync content boards into a searchable vector store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "sync",
				Usage:  "Sync a collection into the local store",
				Action: syncCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "slug",
						Aliases:  []string{"s"},
						Usage:    "Collection slug to sync",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "db",
						Usage: "Path to BadgerDB database directory (overrides config)",
					},
					&cli.StringFlag{
						Name:  "account",
						Usage: "Account identifier the sync is billed to",
					},
					&cli.StringFlag{
						Name:  "session",
						Usage: "Anonymous session identifier (ignored when --account is set)",
					},
					&cli.StringFlag{
						Name:  "ip",
						Usage: "Client IP recorded with anonymous sessions",
						Value: "127.0.0.1",
					},
					&cli.StringFlag{
						Name:  "tier",
						Usage: "Billing tier (free, starter, pro)",
						Value: "free",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search stored items by meaning",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "db",
						Usage: "Path to BadgerDB database directory (overrides config)",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   5,
					},
					&cli.Float64Flag{
						Name:  "min-similarity",
						Usage: "Similarity floor for semantic matches",
						Value: 0.60,
					},
				},
			},
			{
				Name:   "usage",
				Usage:  "Show quota usage for an identity",
				Action: usageCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "db",
						Usage: "Path to BadgerDB database directory (overrides config)",
					},
					&cli.StringFlag{
						Name:  "account",
						Usage: "Account identifier to report on",
					},
					&cli.StringFlag{
						Name:  "session",
						Usage: "Anonymous session identifier to report on",
					},
					&cli.StringFlag{
						Name:  "ip",
						Usage: "Client IP of the anonymous session",
						Value: "127.0.0.1",
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all stored items with new embeddings",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "db",
						Usage: "Path to BadgerDB database directory (overrides config)",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL (overrides config)",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name (overrides config)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of items to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N items",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadConfig resolves the effective configuration from the optional
// --config file plus per-command flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}

	if db := c.String("db"); db != "" {
		cfg.Storage.Path = db
	}
	if host := c.String("embedding-host"); host != "" {
		cfg.AI.EmbeddingHost = host
	}
	if model := c.String("embedding-model"); model != "" {
		cfg.AI.EmbeddingModel = model
	}

	return cfg, nil
}

func aiConfig(cfg *config.Config) *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(cfg.AI.EmbeddingHost),
		ai.WithVisionHost(cfg.AI.VisionHost),
		ai.WithEmbeddingModel(cfg.AI.EmbeddingModel),
		ai.WithVisionModel(cfg.AI.VisionModel),
		ai.WithAPIToken(cfg.AI.APIToken),
	)
}

func quotaLimits(cfg *config.Config) quota.Limits {
	limits := quota.DefaultLimits()
	if cfg.Quota.FreeLifetimeLimit > 0 {
		limits.FreeLifetime = cfg.Quota.FreeLifetimeLimit
	}
	if cfg.Quota.FreeChannelLimit > 0 {
		limits.FreeChannel = cfg.Quota.FreeChannelLimit
	}
	if cfg.Quota.StarterMonthly > 0 {
		limits.StarterMonthly = cfg.Quota.StarterMonthly
	}
	if cfg.Quota.ProMonthly > 0 {
		limits.ProMonthly = cfg.Quota.ProMonthly
	}
	return limits
}

func openDatabase(cfg *config.Config) (*boardvec.Database, error) {
	opts := []boardvec.DatabaseOption{
		boardvec.WithAIConfig(aiConfig(cfg)),
		boardvec.WithQuotaLimits(quotaLimits(cfg)),
	}
	if cfg.Storage.InMemory {
		opts = append(opts, boardvec.WithInMemory())
	}
	return boardvec.NewDatabase(cfg.Storage.Path, opts...)
}

// identityFromFlags builds the billing identity. A CLI run with neither
// account nor session gets a fresh timestamp-based session so quota
// tracking still has a stable key for the invocation.
func identityFromFlags(c *cli.Context) core.Identity {
	identity := core.Identity{
		AccountID: c.String("account"),
		SessionID: c.String("session"),
		IP:        c.String("ip"),
	}
	if identity.AccountID == "" && identity.SessionID == "" {
		identity.SessionID = strconv.FormatInt(time.Now().Unix(), 10)
	}
	return identity
}

func parseTier(s string) (core.Tier, error) {
	switch strings.ToLower(s) {
	case "free":
		return core.TierFree, nil
	case "starter":
		return core.TierStarter, nil
	case "pro":
		return core.TierPro, nil
	default:
		return 0, fmt.Errorf("invalid tier %q: must be one of free, starter, pro", s)
	}
}

func syncCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	tier, err := parseTier(c.String("tier"))
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	board, err := provider.NewClient(cfg.Provider.BaseURL,
		provider.WithAccessToken(cfg.Provider.AccessToken))
	if err != nil {
		return fmt.Errorf("failed to create board client: %w", err)
	}
	defer board.Close()

	reader := extract.NewReaderClient(cfg.Reader.BaseURL, cfg.Reader.Token)
	extractor, err := extract.New(reader, db.ImageAnalyzer())
	if err != nil {
		return fmt.Errorf("failed to create extractor: %w", err)
	}

	orchestrator, err := db.NewOrchestrator(board, extractor)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}
	defer orchestrator.Release()

	monitor := &consoleMonitor{out: os.Stderr}
	result, err := orchestrator.Sync(ctx, c.String("slug"), identityFromFlags(c), tier, monitor)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if !result.Success {
		return fmt.Errorf("sync finished with %d errors", len(result.Errors))
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() == 0 {
		return fmt.Errorf("query is required")
	}
	query := strings.Join(c.Args().Slice(), " ")

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	searcher, err := db.NewSearcher(
		search.WithMinSimilarity(float32(c.Float64("min-similarity"))))
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	results, err := searcher.FindSimilar(ctx, query, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Printf("%d: %q [%0.3f] %s\n", i+1, hit.Item.Title, hit.Score, hit.Item.SourceURL)
	}
	return nil
}

func usageCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	identity := core.Identity{
		AccountID: c.String("account"),
		SessionID: c.String("session"),
		IP:        c.String("ip"),
	}
	if err := core.ValidateIdentity(identity); err != nil {
		return fmt.Errorf("either --account or --session is required")
	}

	total, err := db.UsageRepository().TotalUsage(ctx, identity.Key())
	if err != nil {
		return fmt.Errorf("failed to read usage: %w", err)
	}
	fmt.Printf("Identity: %s\n", identity.Key())
	fmt.Printf("Lifetime items processed: %d\n", total)

	month := core.MonthKey(time.Now())
	monthly, err := db.UsageRepository().GetMonthlyUsage(ctx, identity.Key(), month)
	if err == nil {
		fmt.Printf("This month (%s): %d/%d (%s tier)\n",
			month, monthly.ItemsProcessed, monthly.Limit, monthly.Tier)
	}

	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	fmt.Fprintf(os.Stderr, "Database: %s\n", cfg.Storage.Path)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", cfg.AI.EmbeddingHost)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintln(os.Stderr)

	reembedder := db.NewReembedder(reembedConfig, os.Stderr)
	if err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}

	return nil
}

// consoleMonitor streams sync progress to the terminal.
type consoleMonitor struct {
	out *os.File
}

var _ ingestion.SyncMonitor = (*consoleMonitor)(nil)

func (m *consoleMonitor) Start(slug string) {
	fmt.Fprintf(m.out, "Syncing %s\n", slug)
}

func (m *consoleMonitor) Progress(p ingestion.Progress) {
	fmt.Fprintf(m.out, "[%3d%%] %-10s %s\n", p.Percent, p.Stage, p.Message)
}

func (m *consoleMonitor) ItemSkipped(externalID int64, err error) {
	fmt.Fprintf(m.out, "       skipped item %d: %v\n", externalID, err)
}

func (m *consoleMonitor) Finish(result *ingestion.SyncResult) {
	fmt.Fprintf(m.out, "Done: %d new, %d processed, %d skipped in %v\n",
		result.TotalNewItems, result.ProcessedCount, result.SkippedCount,
		result.Duration.Round(time.Millisecond))
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

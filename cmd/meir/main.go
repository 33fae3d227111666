// Copyright 2025 The me-ir Authors
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
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	meir "github.com/jonewei/me-ir"
	"github.com/jonewei/me-ir/ai"
	"github.com/jonewei/me-ir/ai/openai"
	"github.com/jonewei/me-ir/core"
	"github.com/jonewei/me-ir/eval"
	"github.com/jonewei/me-ir/ingestion"
	"github.com/jonewei/me-ir/reembed"
	"github.com/jonewei/me-ir/storage/badger"
)

func main() {
	embeddingFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
	}

	app := &cli.App{
		Name:  "meir",
		Usage: "Mathematical expression retrieval engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "index",
				Usage:  "Ingest a JSONL corpus into a database",
				Action: indexCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "corpus",
						Aliases:  []string{"c"},
						Usage:    "Path to JSONL corpus file",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of concurrent enrichment workers (0 = auto)",
					},
				}, embeddingFlags...),
			},
			{
				Name:      "search",
				Usage:     "Search the corpus for a LaTeX expression",
				ArgsUsage: "<latex>",
				Action:    searchCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "max-hits",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   10,
					},
				}, embeddingFlags...),
			},
			{
				Name:   "eval",
				Usage:  "Evaluate a query set against relevance judgments",
				Action: evalCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "queries",
						Usage:    "Path to JSON query set",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "qrels",
						Usage:    "Path to TREC qrel file",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Result list depth per query",
						Value: 1000,
					},
					&cli.StringFlag{
						Name:  "run-file",
						Usage: "Write results as a TREC run to this path",
					},
					&cli.StringFlag{
						Name:  "run-id",
						Usage: "Run identifier in the TREC output",
						Value: "me-ir",
					},
				}, embeddingFlags...),
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all formulas with new embeddings",
				Action: reembedCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of formulas to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N formulas",
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
					&cli.BoolFlag{
						Name:  "resume",
						Usage: "Continue from the last saved checkpoint",
					},
				}, embeddingFlags...),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func aiConfigFromFlags(c *cli.Context) (*ai.Config, error) {
	config := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return config, nil
}

func openDatabase(c *cli.Context) (*meir.Database, error) {
	config, err := aiConfigFromFlags(c)
	if err != nil {
		return nil, err
	}
	db, err := meir.NewDatabase(c.String("db"), meir.WithAIConfig(config))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func indexCommand(c *cli.Context) error {
	ctx := context.Background()

	file, err := os.Open(c.String("corpus"))
	if err != nil {
		return fmt.Errorf("failed to open corpus: %w", err)
	}
	defer file.Close()

	entries, err := ingestion.ReadCorpus(file)
	if err != nil {
		return fmt.Errorf("failed to read corpus: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("corpus is empty")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	var opts []ingestion.Option
	if size := c.Int("pool-size"); size > 0 {
		opts = append(opts, ingestion.WithPoolSize(size))
	}
	pipeline, err := db.NewIngestionPipeline(opts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	start := time.Now()
	added, err := pipeline.Ingest(ctx, entries)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	pipeline.Wait()

	fmt.Fprintf(os.Stderr, "Indexed %d formulas in %v\n", len(added), time.Since(start).Round(time.Millisecond))
	return nil
}

func searchCommand(c *cli.Context) error {
	latex := strings.TrimSpace(c.Args().First())
	if latex == "" {
		return fmt.Errorf("a LaTeX expression argument is required")
	}

	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher(ctx)
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	results, err := searcher.FindMatches(ctx, &core.Query{Latex: latex}, c.Int("max-hits"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No matches found.")
		return nil
	}

	for i, r := range results {
		fmt.Printf("%2d. [%.4f] %s  %s\n", i+1, r.Score, r.Formula.DocId, r.Formula.Latex)
	}
	return nil
}

func evalCommand(c *cli.Context) error {
	ctx := context.Background()

	queryFile, err := os.Open(c.String("queries"))
	if err != nil {
		return fmt.Errorf("failed to open query set: %w", err)
	}
	defer queryFile.Close()

	queries, err := eval.LoadQuerySet(queryFile)
	if err != nil {
		return err
	}

	qrelFile, err := os.Open(c.String("qrels"))
	if err != nil {
		return fmt.Errorf("failed to open qrels: %w", err)
	}
	defer qrelFile.Close()

	qrels, err := eval.LoadQrels(qrelFile)
	if err != nil {
		return fmt.Errorf("failed to load qrels: %w", err)
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher(ctx)
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	slog.Info("starting evaluation", "queries", len(queries), "judgments", qrels.JudgmentCount())

	run, err := eval.Evaluate(ctx, searcher, queries, c.Int("top-k"), slog.Default())
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	metrics := eval.Calculate(run, qrels)
	fmt.Printf("Evaluated queries: %d\n", metrics.Evaluated)
	fmt.Printf("Recall@K:          %.4f\n", metrics.RecallAtK)
	fmt.Printf("MAP:               %.4f\n", metrics.MAP)
	fmt.Printf("nDCG@K:            %.4f\n", metrics.NDCGAtK)

	if path := c.String("run-file"); path != "" {
		out, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create run file: %w", err)
		}
		defer out.Close()
		if err := eval.WriteTRECRun(out, run, c.String("run-id")); err != nil {
			return fmt.Errorf("failed to write run file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "TREC run saved to %s\n", path)
	}

	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	config, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewFormulaRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	checkpoints := badger.NewCheckpointRepository(backend)

	embedder, err := openai.NewEmbedder(config)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		Resume:         c.Bool("resume"),
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

	reembedder := reembed.NewReembedder(repo, checkpoints, embedder, reembedConfig, os.Stderr)

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}

	return nil
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

// Copyright 2025 Fleetkit Labs
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
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/fleetkit/knowledge"
	"github.com/fleetkit/knowledge/ai"
	"github.com/fleetkit/knowledge/ai/openai"
	"github.com/fleetkit/knowledge/core"
	"github.com/fleetkit/knowledge/reembed"
	"github.com/fleetkit/knowledge/storage/badger"
)

func main() {
	app := &cli.App{
		Name:   "knowledge",
		Usage:  "Fleet maintenance knowledge base with semantic search and grounded chat",
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
				Name:      "ingest",
				Usage:     "Ingest a plain-text document and wait for processing",
				ArgsUsage: "FILE",
				Action:    ingestCommand,
				Flags: append(serviceFlags(),
					&cli.StringFlag{
						Name:  "title",
						Usage: "Document title (defaults to the file name)",
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Document description",
					},
					&cli.StringFlag{
						Name:  "type",
						Usage: "Document type",
						Value: "manual",
					},
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "Tag to attach to the document (repeatable)",
					},
				),
			},
			{
				Name:      "ingest-vision",
				Usage:     "Extract text from page images and ingest the result",
				ArgsUsage: "IMAGE [IMAGE...]",
				Action:    ingestVisionCommand,
				Flags: append(serviceFlags(),
					&cli.StringFlag{
						Name:     "title",
						Usage:    "Document title",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "media-type",
						Usage: "MIME type of the page images",
						Value: "image/png",
					},
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "Tag to attach to the document (repeatable)",
					},
				),
			},
			{
				Name:      "reprocess",
				Usage:     "Re-run ingestion for a stored document",
				ArgsUsage: "DOCUMENT_ID",
				Action:    reprocessCommand,
				Flags:     serviceFlags(),
			},
			{
				Name:      "search",
				Usage:     "Search the knowledge base",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: append(serviceFlags(),
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Maximum number of results",
						Value: 5,
					},
					&cli.Float64Flag{
						Name:  "min-similarity",
						Usage: "Minimum cosine similarity for a result",
						Value: 0.5,
					},
				),
			},
			{
				Name:      "chat",
				Usage:     "Ask a question against the knowledge base",
				ArgsUsage: "QUESTION",
				Action:    chatCommand,
				Flags: append(serviceFlags(),
					&cli.StringFlag{
						Name:  "context",
						Usage: "External context handed to the model (vehicle facts, fault codes)",
					},
				),
			},
			{
				Name:      "status",
				Usage:     "Show documents and their processing state",
				ArgsUsage: "[DOCUMENT_ID]",
				Action:    statusCommand,
				Flags:     serviceFlags(),
			},
			{
				Name:      "delete",
				Usage:     "Delete a document and its chunks",
				ArgsUsage: "DOCUMENT_ID",
				Action:    deleteCommand,
				Flags:     serviceFlags(),
			},
			{
				Name:   "reembed",
				Usage:  "Re-embed all of a tenant's chunks with the configured embedding model",
				Action: reembedCommand,
				Flags: append(serviceFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to embed per provider call",
						Value: 50,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
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
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// serviceFlags are shared by every command that opens the knowledge base.
func serviceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to the knowledge base directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "tenant",
			Aliases:  []string{"t"},
			Usage:    "Tenant the operation is scoped to",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible provider host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:    "api-token",
			Usage:   "Bearer token for the provider",
			EnvVars: []string{"KNOWLEDGE_API_TOKEN"},
			Value:   "none",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "completion-model",
			Usage: "Completion model name",
			Value: "qwen2.5:3b",
		},
		&cli.StringFlag{
			Name:  "vision-model",
			Usage: "Vision model name",
			Value: "qwen2.5vl:7b",
		},
	}
}

// openService builds a Service from the command's flags.
func openService(c *cli.Context) (*knowledge.Service, error) {
	cfg := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithAPIToken(c.String("api-token")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithCompletionModel(c.String("completion-model")),
		ai.WithVisionModel(c.String("vision-model")),
	)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	service, err := knowledge.NewService(c.String("db"), knowledge.WithAIConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge base: %w", err)
	}
	return service, nil
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file argument")
	}
	path := c.Args().First()

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	title := c.String("title")
	if title == "" {
		title = filepath.Base(path)
	}

	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	ctx := context.Background()
	receipt, err := service.IngestText(ctx, title, c.String("description"), c.String("type"),
		string(content), c.StringSlice("tag"), c.String("tenant"))
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("Document %s accepted, %d chunks planned\n", receipt.DocumentId, receipt.ChunkCountPlanned)

	service.Wait()
	return printDocument(c, service, receipt.DocumentId)
}

func ingestVisionCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("expected at least one image argument")
	}

	pages := make([]core.PageImage, 0, c.NArg())
	for _, path := range c.Args().Slice() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		pages = append(pages, core.PageImage{Data: data, MediaType: c.String("media-type")})
	}

	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	ctx := context.Background()
	receipt, err := service.IngestVision(ctx, c.String("title"), pages,
		c.StringSlice("tag"), c.String("tenant"))
	if err != nil {
		return fmt.Errorf("vision ingestion failed: %w", err)
	}

	fmt.Printf("Document %s accepted, %d pages processed, %d chunks planned\n",
		receipt.DocumentId, receipt.PagesProcessed, receipt.ChunkCountPlanned)

	service.Wait()
	return printDocument(c, service, receipt.DocumentId)
}

func reprocessCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one document ID argument")
	}

	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	ctx := context.Background()
	receipt, err := service.Reprocess(ctx, c.Args().First())
	if err != nil {
		return fmt.Errorf("reprocess failed: %w", err)
	}

	fmt.Printf("Document %s reprocessing, %d chunks planned\n", receipt.DocumentId, receipt.ChunkCountPlanned)

	service.Wait()
	return printDocument(c, service, receipt.DocumentId)
}

func searchCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one query argument")
	}

	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	results, err := service.Search(context.Background(), c.Args().First(), c.String("tenant"),
		c.Int("top-k"), float32(c.Float64("min-similarity")))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	for i, result := range results {
		fmt.Printf("%d. [%.3f] %s\n   %s\n", i+1, result.Score, result.DocumentTitle,
			strings.ReplaceAll(result.Chunk.Content, "\n", " "))
	}
	return nil
}

func chatCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one question argument")
	}

	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	answer, err := service.Chat(context.Background(), c.Args().First(), c.String("tenant"),
		nil, c.String("context"))
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	fmt.Println(answer.Text)
	if len(answer.Sources) > 0 {
		fmt.Println("\nSources:")
		for i, source := range answer.Sources {
			fmt.Printf("  %d. %s (similarity %.3f, %d excerpts)\n",
				i+1, source.Title, source.MaxScore, len(source.Excerpts))
		}
	}
	return nil
}

func statusCommand(c *cli.Context) error {
	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	ctx := context.Background()

	if c.NArg() == 1 {
		return printDocument(c, service, c.Args().First())
	}

	docs, err := service.ListDocuments(ctx, c.String("tenant"))
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if len(docs) == 0 {
		fmt.Println("No documents.")
		return nil
	}
	for _, doc := range docs {
		fmt.Printf("%s  %-17s %4d chunks  %s\n", doc.Id, doc.Status, doc.ChunkCount, doc.Title)
	}
	return nil
}

func deleteCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one document ID argument")
	}

	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	id := c.Args().First()
	if err := service.DeleteDocument(context.Background(), id); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	fmt.Printf("Document %s deleted\n", id)
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	documents, err := badger.NewDocumentRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create document repository: %w", err)
	}
	defer documents.Close()

	chunks, err := badger.NewChunkRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create chunk repository: %w", err)
	}
	defer chunks.Close()

	cfg := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithAPIToken(c.String("api-token")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithCompletionModel(c.String("completion-model")),
		ai.WithVisionModel(c.String("vision-model")),
	)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	embedder, err := openai.NewEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
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

	reembedder := reembed.NewReembedder(documents, chunks, embedder, reembedConfig, os.Stderr)

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(ctx, c.String("tenant")); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}

	return nil
}

func printDocument(c *cli.Context, service *knowledge.Service, id string) error {
	doc, err := service.Document(context.Background(), id)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}

	fmt.Printf("Document:  %s\n", doc.Id)
	fmt.Printf("Title:     %s\n", doc.Title)
	fmt.Printf("Status:    %s\n", doc.Status)
	fmt.Printf("Chunks:    %d\n", doc.ChunkCount)
	if doc.StatusMessage != "" {
		fmt.Printf("Message:   %s\n", doc.StatusMessage)
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

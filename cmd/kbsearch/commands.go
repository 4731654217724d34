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
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/poiesic/kbsearch"
	"github.com/poiesic/kbsearch/api"
	"github.com/poiesic/kbsearch/config"
	"github.com/poiesic/kbsearch/core"
	"github.com/poiesic/kbsearch/ingestion"
	"github.com/poiesic/kbsearch/reembed"
	"github.com/urfave/cli/v2"
)

// openService resolves the configuration and opens the service.
func openService(c *cli.Context) (*kbsearch.Service, error) {
	cfg, err := config.Resolve(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	svc, err := kbsearch.Open(c.Context, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening service: %w", err)
	}
	return svc, nil
}

func stdout(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

func stderr(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}

func serveCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	searcher, err := svc.NewSearcher()
	if err != nil {
		return err
	}
	defer searcher.Close()

	cfg := svc.Config()
	server, err := api.NewServer(searcher, svc.Store(),
		api.WithRateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst),
		api.WithMetricsHandler(svc.Metrics().Handler()),
		api.WithIndexSize(svc.Index().Len),
	)
	if err != nil {
		return err
	}

	addr := c.String("addr")
	if addr == "" {
		addr = cfg.Server.Addr
	}
	return server.ListenAndServe(c.Context, addr, cfg.ShutdownTimeout())
}

func importCommand(c *cli.Context) error {
	dir := c.Args().First()
	if dir == "" {
		return errors.New("import requires a directory argument")
	}

	articles, err := ingestion.LoadDirectory(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	pipeline, err := svc.NewPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	stored, err := pipeline.Ingest(c.Context, articles...)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	published := 0
	for _, article := range stored {
		if article.Published {
			published++
		}
	}
	fmt.Fprintf(stdout(c), "Imported %d articles (%d published, %d index entries)\n",
		len(stored), published, svc.Index().Len())
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")

	filters := make(map[string]string)
	for _, raw := range c.StringSlice("filter") {
		key, value, ok := strings.Cut(raw, "=")
		if !ok {
			return fmt.Errorf("invalid filter %q: expected key=value", raw)
		}
		filters[key] = value
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	searcher, err := svc.NewSearcher()
	if err != nil {
		return err
	}
	defer searcher.Close()

	resp, err := searcher.Search(c.Context, core.SearchRequest{
		Query:    query,
		Filters:  filters,
		Page:     c.Int("page"),
		PageSize: c.Int("page-size"),
	})
	if err != nil {
		return err
	}

	out := stdout(c)
	fmt.Fprintf(out, "Found %d documents (%s), page %d\n", resp.Total, resp.Mode, resp.Page)
	for i, hit := range resp.Results {
		rank := (resp.Page-1)*resp.PageSize + i + 1
		fmt.Fprintf(out, "%d. %s [%s] (%d) %.3f\n", rank, hit.Title, hit.Category, hit.DocumentId, hit.Score)
		if hit.Answer != "" {
			fmt.Fprintf(out, "   %s\n", hit.Answer)
		}
	}
	return nil
}

func suggestCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	searcher, err := svc.NewSearcher()
	if err != nil {
		return err
	}
	defer searcher.Close()

	suggestions, err := searcher.Suggest(c.Context, c.Args().First())
	if err != nil {
		return err
	}
	for _, word := range suggestions {
		fmt.Fprintln(stdout(c), word)
	}
	return nil
}

func reindexCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	pipeline, err := svc.NewPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	count, err := pipeline.Rebuild(c.Context)
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	fmt.Fprintf(stdout(c), "Reindexed %d index entries\n", count)
	return nil
}

func reembedCommand(c *cli.Context) error {
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

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	reembedder, err := svc.NewReembedder(reembedConfig, stderr(c))
	if err != nil {
		return err
	}

	cfg := svc.Config()
	fmt.Fprintf(stderr(c), "Storage: %s (%s)\n", cfg.Storage.Path, cfg.Storage.Backend)
	fmt.Fprintf(stderr(c), "Embedding host: %s\n", cfg.AI.EmbeddingHost)
	fmt.Fprintf(stderr(c), "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintln(stderr(c))

	if _, err := reembedder.Run(c.Context); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}

	indexed, err := svc.LoadIndex(c.Context)
	if err != nil {
		return fmt.Errorf("reloading index: %w", err)
	}
	fmt.Fprintf(stdout(c), "Index holds %d entries\n", indexed)
	return nil
}

func logsCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	entries, err := svc.Store().RecentSearchLogs(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}
	for _, entry := range entries {
		fmt.Fprintf(stdout(c), "%s\t%d\t%s\n", entry.Timestamp.Format("2006-01-02 15:04:05"), entry.ResultsCount, entry.Query)
	}
	return nil
}

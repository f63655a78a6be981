package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"content-ontology/internal/analyzer"
	"content-ontology/internal/config"
	"content-ontology/internal/crawler"
	"content-ontology/internal/database"
	"content-ontology/internal/rum"
	"content-ontology/internal/worker"
)

func main() {
	// Disable structured logging for CLI
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors
	})))

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	if command == "help" || command == "-h" || command == "--help" {
		printUsage()
		return
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "crawl":
		err = handleCrawl(ctx, db, cfg, os.Args[2:])
	case "analyze":
		err = handleAnalyze(ctx, db, cfg, os.Args[2:])
	case "ingest-rum":
		err = handleIngestRUM(ctx, db, os.Args[2:])
	case "score":
		err = handleScore(ctx, db, cfg)
	case "sites":
		err = handleSites(ctx, db)
	default:
		fmt.Fprintf(os.Stderr, "Error: Unknown command '%s'\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		db.Close()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`content-ontology CLI - Inventory Management

Usage:
  cli <command> [options]

Commands:
  crawl <seed-url>   Crawl a site and store its pages
      --site-id      Site identifier (default: derived from host)
      --name         Site display name
      --domain       Site domain description
  analyze            Classify pages that have not been analyzed
      --limit        Maximum pages to classify (default: all)
  ingest-rum         Store real-user monitoring samples
      --file         JSON export to load (default: simulate)
      --days         Days to simulate (default: 30)
      --seed         Simulation seed (default: 1)
  score              Recompute page scores and performance patterns
  sites              List onboarded sites
  help               Show this help message

Examples:
  cli crawl https://wknd.site/ --site-id wknd --name "WKND Adventures"
  cli analyze --limit 50
  cli ingest-rum --file rum-export.json
  cli score

Environment Variables:
  DATABASE_PATH    - SQLite database path (default: ./ontology.db)
  OPENAI_API_KEY   - Required by analyze
  OPENAI_MODEL     - Classifier model (default: gpt-4o-mini)
  CRAWL_DELAY      - Delay between requests (default: 100ms)
  CRAWL_MAX_DEPTH  - Maximum link depth (default: 5)`)
}

func handleCrawl(ctx context.Context, db *database.DB, cfg *config.Config, args []string) error {
	if len(args) < 1 || args[0] == "" || args[0][0] == '-' {
		fmt.Fprintln(os.Stderr, "Usage: cli crawl <seed-url> [--site-id id] [--name name] [--domain domain]")
		return fmt.Errorf("seed URL required")
	}
	seed := args[0]

	fs := flag.NewFlagSet("crawl", flag.ExitOnError)
	siteID := fs.String("site-id", "", "Site identifier")
	name := fs.String("name", "", "Site display name")
	domain := fs.String("domain", "", "Site domain description")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	site := database.Site{ID: *siteID, Name: *name}
	if *domain != "" {
		site.Domain = domain
	}

	fmt.Printf("Crawling %s...\n", seed)

	c := crawler.New(db, crawler.Options{
		Delay:     cfg.CrawlDelay,
		MaxDepth:  cfg.CrawlMaxDepth,
		UserAgent: cfg.CrawlUserAgent,
	})
	result, err := c.Run(ctx, seed, site)
	if err != nil {
		return err
	}

	fmt.Println("✓ Crawl complete!")
	fmt.Printf("  Site: %s\n", result.SiteID)
	fmt.Printf("  Crawl ID: %d\n", result.CrawlID)
	fmt.Printf("  Pages: %d\n", result.Pages)
	fmt.Printf("  Skipped: %d\n", result.Skipped)
	if len(result.Errors) > 0 {
		fmt.Printf("  Errors: %d\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("    - %s\n", e)
		}
	}
	return nil
}

func handleAnalyze(ctx context.Context, db *database.DB, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	limit := fs.Int("limit", 0, "Maximum pages to classify")
	pause := fs.Duration("pause", 500*time.Millisecond, "Pause between classifier requests")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if cfg.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}

	a := analyzer.New(db, analyzer.NewOpenAIClassifier(cfg.OpenAIAPIKey, cfg.OpenAIModel), analyzer.Options{
		BrandName:   cfg.BrandName,
		BrandDomain: cfg.BrandDomain,
		Pause:       *pause,
	})

	result, err := a.Run(ctx, *limit)
	if err != nil {
		return err
	}

	fmt.Println("✓ Analysis complete!")
	fmt.Printf("  Analyzed: %d\n", result.Analyzed)
	fmt.Printf("  Failed: %d\n", result.Failed)
	for _, e := range result.Errors {
		fmt.Printf("    - %s\n", e)
	}
	return nil
}

func handleIngestRUM(ctx context.Context, db *database.DB, args []string) error {
	fs := flag.NewFlagSet("ingest-rum", flag.ExitOnError)
	file := fs.String("file", "", "JSON export to load")
	days := fs.Int("days", 30, "Days to simulate")
	seed := fs.Uint64("seed", 1, "Simulation seed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var samples []database.PerformanceSample
	if *file != "" {
		fmt.Printf("Loading RUM export %s...\n", *file)
		loaded, err := rum.LoadFile(*file)
		if err != nil {
			return err
		}
		samples = loaded
	} else {
		if *days < 1 {
			return fmt.Errorf("--days must be positive")
		}
		pages, err := db.QueryPages(ctx, database.PageFilter{})
		if err != nil {
			return err
		}
		if len(pages) == 0 {
			fmt.Println("No pages found. Run: cli crawl <seed-url>")
			return nil
		}
		fmt.Printf("Simulating %d days of RUM data for %d pages...\n", *days, len(pages))
		samples = rum.NewSimulator(*seed, nil).Generate(rum.PagesFromSummaries(pages), *days)
	}

	stored, err := db.UpsertPerformanceSamples(ctx, samples)
	if err != nil {
		return err
	}

	fmt.Println("✓ RUM data stored!")
	fmt.Printf("  Samples: %d\n", stored)
	fmt.Println("\nTo update scores, run: cli score")
	return nil
}

func handleScore(ctx context.Context, db *database.DB, cfg *config.Config) error {
	fmt.Println("Recomputing scores...")

	result, err := worker.NewWorker(db, cfg).RunOnce(ctx)
	if err != nil {
		return err
	}

	fmt.Println("✓ Scores updated!")
	fmt.Printf("  Pages scored: %d\n", result.PagesScored)
	fmt.Printf("  Patterns: %d\n", result.Patterns)
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Millisecond))
	return nil
}

func handleSites(ctx context.Context, db *database.DB) error {
	sites, err := db.ListSites(ctx)
	if err != nil {
		return err
	}

	if len(sites) == 0 {
		fmt.Println("No sites found.")
		fmt.Println("\nTo onboard a site, run: cli crawl <seed-url>")
		return nil
	}

	fmt.Printf("Found %d site(s):\n\n", len(sites))
	for _, s := range sites {
		fmt.Printf("%s\n", s.ID)
		fmt.Printf("  Name: %s\n", s.Name)
		if s.Domain != nil {
			fmt.Printf("  Domain: %s\n", *s.Domain)
		}
		fmt.Printf("  Pages: %d\n", s.ActualPageCount)
		fmt.Printf("  Topics: %d\n", s.TopicCount)
		if s.LastCrawled != nil {
			fmt.Printf("  Last crawled: %s\n", *s.LastCrawled)
		}
		fmt.Println()
	}
	return nil
}

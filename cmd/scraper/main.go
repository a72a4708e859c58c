// Package main implements the collection phase CLI: it fetches seed URLs for
// a role model and saves extracted text into the raw data directory.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rolemodelconnect/rolemodel-pipeline/internal/scraping"
	"github.com/rolemodelconnect/rolemodel-pipeline/pkg/logging"
	"github.com/rolemodelconnect/rolemodel-pipeline/pkg/pipeline"
)

var (
	scrapeSubject  string
	scrapeURLsFile string
	scrapeRawDir   string
)

var rootCmd = &cobra.Command{
	Use:   "scraper --subject NAME [URL...]",
	Short: "Collect raw source text for a role model",
	Long: "Fetches each seed URL politely (robots.txt, per-host rate limiting, retries),\n" +
		"extracts the readable text, and saves one numbered file per successful URL\n" +
		"into the raw data directory for later curation.",
	Args: cobra.ArbitraryArgs,
	RunE: runScrape,
}

func init() {
	rootCmd.Flags().StringVarP(&scrapeSubject, "subject", "s", "", "Role model name (required)")
	rootCmd.Flags().StringVarP(&scrapeURLsFile, "urls-file", "f", "", "File with one seed URL per line")
	rootCmd.Flags().StringVar(&scrapeRawDir, "raw-dir", "", "Raw data output directory (default Raw_Data)")

	if err := rootCmd.MarkFlagRequired("subject"); err != nil {
		panic(fmt.Sprintf("failed to mark subject flag as required: %v", err))
	}
}

func runScrape(_ *cobra.Command, args []string) error {
	config, err := pipeline.Load()
	if err != nil {
		return err
	}
	if err := logging.SetupLogger(config.Logging); err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	if scrapeRawDir != "" {
		config.Scraping.RawDataDir = scrapeRawDir
	}

	urls := append([]string(nil), args...)
	if scrapeURLsFile != "" {
		fromFile, err := readURLs(scrapeURLsFile)
		if err != nil {
			return err
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		return fmt.Errorf("no seed URLs given: pass URLs as arguments or via --urls-file")
	}

	p, err := scraping.NewPipeline(config.Scraping)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := p.Run(ctx, &scraping.SeedRequest{
		SubjectName: scrapeSubject,
		URLs:        urls,
	})
	if err != nil {
		return err
	}

	printReport(result)

	if result.Succeeded == 0 {
		return fmt.Errorf("no sources collected for %s", scrapeSubject)
	}
	return nil
}

// readURLs loads seed URLs from a file, one per line; blank lines and
// #-comments are skipped.
func readURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open URLs file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read URLs file: %w", err)
	}
	return urls, nil
}

func printReport(result *scraping.BatchResult) {
	fmt.Printf("\nCollection run %s for %s\n", result.RunID, result.SubjectName)
	fmt.Printf("%d succeeded, %d failed\n\n", result.Succeeded, result.Failed)

	for _, r := range result.Results {
		if r.Status == scraping.StatusSuccess {
			fmt.Printf("  [%d] OK    %s -> %s\n", r.Index, r.URL, r.OutputFile)
			continue
		}
		fmt.Printf("  [%d] FAIL  %s (%s)\n", r.Index, r.URL, r.Status)
	}

	log.Info().
		Str("run_id", result.RunID).
		Str("subject", result.SubjectName).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("Collection run complete")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

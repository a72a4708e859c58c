// Package main implements the curation phase CLI: an interactive session
// that turns collected raw text files into schema-valid story entries.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rolemodelconnect/rolemodel-pipeline/internal/curation"
	"github.com/rolemodelconnect/rolemodel-pipeline/internal/storage"
	"github.com/rolemodelconnect/rolemodel-pipeline/pkg/logging"
	"github.com/rolemodelconnect/rolemodel-pipeline/pkg/pipeline"
)

var (
	curateRawDir string
	curateOutDir string
)

var rootCmd = &cobra.Command{
	Use:   "curator",
	Short: "Interactively curate raw text into structured story entries",
	Long: "Walks a human curator through the collected raw files, prompting for the\n" +
		"structured story fields, validating against the entry schema, and saving\n" +
		"each entry as an individual JSON file.",
	Args: cobra.NoArgs,
	RunE: runCurate,
}

func init() {
	rootCmd.Flags().StringVar(&curateRawDir, "raw-dir", "", "Raw data directory to curate from (default Raw_Data)")
	rootCmd.Flags().StringVar(&curateOutDir, "out-dir", "", "Curated entries output directory (default Generated_JSON_Entries)")
}

func runCurate(_ *cobra.Command, _ []string) error {
	config, err := pipeline.Load()
	if err != nil {
		return err
	}
	if err := logging.SetupLogger(config.Logging); err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	if curateRawDir != "" {
		config.Scraping.RawDataDir = curateRawDir
	}
	if curateOutDir != "" {
		config.EntriesDir = curateOutDir
	}

	raw, err := storage.NewRawStore(config.Scraping.RawDataDir)
	if err != nil {
		return err
	}
	entries, err := curation.NewEntryStore(config.EntriesDir)
	if err != nil {
		return err
	}

	session := curation.NewSession(raw, entries, os.Stdin, os.Stdout)
	return session.Run()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Command scan-image runs the scan pipeline against a local image and
// prints the resulting record. Records are kept in memory only.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Toverson/Thrifter-s-Eye/internal/app"
	"github.com/Toverson/Thrifter-s-Eye/internal/config"
	"github.com/Toverson/Thrifter-s-Eye/internal/scan"
	"github.com/Toverson/Thrifter-s-Eye/internal/storage"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <image-path> [country-code] [currency-code]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment variables:\n")
		fmt.Fprintf(os.Stderr, "  GOOGLE_VISION_API_KEY   - Cloud Vision (fallback if unset)\n")
		fmt.Fprintf(os.Stderr, "  GOOGLE_SEARCH_API_KEY   - Custom Search (fallback if unset)\n")
		fmt.Fprintf(os.Stderr, "  GOOGLE_SEARCH_ENGINE_ID - Custom Search engine id\n")
		fmt.Fprintf(os.Stderr, "  LLM_PROVIDER            - gemini or openai\n")
		fmt.Fprintf(os.Stderr, "  GEMINI_API_KEY / OPENAI_API_KEY\n")
		os.Exit(1)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	config.LoadEnvFile()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	imageData, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read image: %v\n", err)
		os.Exit(1)
	}

	req := scan.Request{Image: imageData, UserID: "cli"}
	if len(os.Args) >= 3 {
		req.CountryCode = os.Args[2]
	}
	if len(os.Args) >= 4 {
		req.CurrencyCode = os.Args[3]
	}

	store, err := storage.Open(storage.DriverSQLite, ":memory:")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	pipeline := scan.NewPipeline(app.NewAnalyzer(cfg), app.NewSearcher(cfg), app.NewAppraiser(ctx, cfg), store)

	record, err := pipeline.Run(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
		os.Exit(1)
	}

	printRecord(record)
}

func printRecord(r *scan.Record) {
	fmt.Printf("Item:        %s\n", r.ItemName)
	fmt.Printf("Value:       %s\n", r.EstimatedValue)
	fmt.Printf("Confidence:  %d\n", r.ConfidenceScore)
	fmt.Printf("Analysis:    %s\n", r.AnalysisText)
	fmt.Println()
	fmt.Printf("Draft title: %s\n", r.ListingDraft.Title)
	fmt.Printf("Draft text:  %s\n", r.ListingDraft.Description)

	if len(r.ComparableListings) > 0 {
		fmt.Println("\n" + strings.Repeat("-", 50))
		for i, l := range r.ComparableListings {
			fmt.Printf("%d. %s\n   %s\n", i+1, l.Title, l.Link)
		}
	}

	if r.VisionDebug != nil {
		fmt.Println("\n" + strings.Repeat("-", 50))
		out, _ := json.MarshalIndent(r.VisionDebug, "", "  ")
		fmt.Printf("Vision:      %s\n", out)
	}
}

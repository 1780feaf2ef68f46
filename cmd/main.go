package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/LarjGit/edinburgh-finds-core/internal/app"
	"github.com/LarjGit/edinburgh-finds-core/internal/extraction"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	subcommand := os.Args[1]
	args := os.Args[2:]

	switch subcommand {
	case "ingest":
		runIngest(args)
	case "extract":
		runExtract(args)
	case "quarantine":
		runQuarantine(args)
	case "finalize":
		runFinalize(args)
	case "serve":
		runServe(args)
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: edinburgh-finds-core <ingest|extract|quarantine|finalize|serve> [flags]")
}

func configFileFromEnv() string {
	if f := os.Getenv("CATALOG_CONFIG_FILE"); f != "" {
		return f
	}
	return "/app/configs/config.yaml"
}

func newApp(configFile string) *app.App {
	if configFile == "" {
		configFile = configFileFromEnv()
	}
	fmt.Printf("using configuration file: %s\n", configFile)

	a, err := app.New(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create application: %v\n", err)
		os.Exit(1)
	}
	return a
}

func runIngest(args []string) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configFile := fs.String("config", "", "path to configuration file")
	source := fs.String("source", "", "source name to ingest (required)")
	fs.Parse(args)

	if *source == "" {
		fmt.Fprintln(os.Stderr, "ingest: --source is required")
		os.Exit(1)
	}

	a := newApp(*configFile)
	summary, err := a.RunIngest(*source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ingest failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("ingest: fetched=%d stored=%d duplicates=%d errors=%d\n",
		summary.Fetched, summary.Stored, summary.Duplicates, summary.Errors)
	if summary.Errors > 0 {
		os.Exit(1)
	}
}

func runExtract(args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	configFile := fs.String("config", "", "path to configuration file")
	source := fs.String("source", "", "source name to extract (required)")
	sinceFlag := fs.String("since", "", "RFC3339 timestamp; defaults to epoch (all pending)")
	limit := fs.Int("limit", 0, "cap the number of records processed (0 = no cap)")
	dryRun := fs.Bool("dry-run", false, "extract and validate without persisting")
	forceRetry := fs.Bool("force-retry", false, "ignore the already_extracted idempotence check")
	fs.Parse(args)

	if *source == "" {
		fmt.Fprintln(os.Stderr, "extract: --source is required")
		os.Exit(1)
	}

	since := time.Time{}
	if *sinceFlag != "" {
		parsed, err := time.Parse(time.RFC3339, *sinceFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "extract: invalid --since: %v\n", err)
			os.Exit(1)
		}
		since = parsed
	}

	a := newApp(*configFile)
	summary, err := a.RunExtract(*source, since, extraction.Options{
		DryRun:     *dryRun,
		ForceRetry: *forceRetry,
		Limit:      *limit,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "extract failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("extract: attempted=%d succeeded=%d failed=%d cached=%d\n",
		summary.Attempted, summary.Succeeded, summary.Failed, summary.Cached)
	if summary.Failed > 0 {
		os.Exit(1)
	}
}

func runQuarantine(args []string) {
	fs := flag.NewFlagSet("quarantine", flag.ExitOnError)
	configFile := fs.String("config", "", "path to configuration file")
	limit := fs.Int("limit", 0, "cap the number of items retried (0 = no cap)")
	fs.Parse(args)

	a := newApp(*configFile)
	summary, err := a.RunQuarantineRetry(*limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "quarantine retry failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("quarantine: retried=%d succeeded=%d failed=%d\n",
		summary.Retried, summary.Succeeded, summary.Failed)
	if summary.Failed > 0 {
		os.Exit(1)
	}
}

func runFinalize(args []string) {
	fs := flag.NewFlagSet("finalize", flag.ExitOnError)
	configFile := fs.String("config", "", "path to configuration file")
	sinceFlag := fs.String("since", "", "RFC3339 timestamp; defaults to epoch (all extracted records)")
	fs.Parse(args)

	since := time.Time{}
	if *sinceFlag != "" {
		parsed, err := time.Parse(time.RFC3339, *sinceFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "finalize: invalid --since: %v\n", err)
			os.Exit(1)
		}
		since = parsed
	}

	a := newApp(*configFile)
	summary, err := a.RunFinalize(since)
	if err != nil {
		fmt.Fprintf(os.Stderr, "finalize failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("finalize: created=%d updated=%d conflicts=%d\n",
		summary.EntitiesCreated, summary.EntitiesUpdated, summary.Conflicts)
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configFile := fs.String("config", "", "path to configuration file")
	fs.Parse(args)

	a := newApp(*configFile)
	if err := a.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "application error: %v\n", err)
		os.Exit(1)
	}
}

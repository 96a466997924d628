// Command cytomine-dump downloads the annotation crops of a project into a
// local directory tree.
//
// Connection settings fall back to the CYTOMINE_HOST, CYTOMINE_PUBLIC_KEY
// and CYTOMINE_PRIVATE_KEY environment variables. The destination pattern
// accepts {attr} placeholders resolved per annotation, so
// "crops/{project}/{id}.jpg" spreads the crops over one directory per
// project.
//
// Per-crop failures are reported but do not fail the run; connection and
// listing errors do.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	cytomine "github.com/Cytomine-ULiege/cytomine-go-client"
	"github.com/Cytomine-ULiege/cytomine-go-client/models"
)

type config struct {
	host       string
	publicKey  string
	privateKey string
	project    int64
	dest       string
	workers    int
	pageSize   int64
	override   bool
	showWKT    bool
	verbose    bool
	wait       time.Duration
}

func main() {
	cfg := &config{}
	flag.StringVar(&cfg.host, "host", getEnv("CYTOMINE_HOST", ""), "Cytomine server host")
	flag.StringVar(&cfg.publicKey, "public-key", getEnv("CYTOMINE_PUBLIC_KEY", ""), "API public key")
	flag.StringVar(&cfg.privateKey, "private-key", getEnv("CYTOMINE_PRIVATE_KEY", ""), "API private key")
	flag.Int64Var(&cfg.project, "project", 0, "Project to dump annotation crops from (required)")
	flag.StringVar(&cfg.dest, "dest", "crops/{project}/{id}.jpg",
		"Destination pattern, {attr} placeholders resolve per annotation")
	flag.IntVar(&cfg.workers, "workers", 0, "Concurrent downloads (0 means one per CPU)")
	flag.Int64Var(&cfg.pageSize, "page-size", 500, "Annotation listing page size")
	flag.BoolVar(&cfg.override, "override", false, "Redownload crops that already exist")
	flag.BoolVar(&cfg.showWKT, "wkt", false, "Fetch annotation geometries along with the listing")
	flag.BoolVar(&cfg.verbose, "verbose", false, "Enable debug logging")
	flag.DurationVar(&cfg.wait, "wait", time.Minute, "How long to wait for the server to accept connections")
	flag.Parse()

	if err := run(context.Background(), cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (c *config) validate() error {
	if c.host == "" || c.publicKey == "" || c.privateKey == "" {
		return fmt.Errorf("host, public-key and private-key are required")
	}
	if c.project == 0 {
		return fmt.Errorf("project is required")
	}
	return nil
}

func run(ctx context.Context, cfg *config) error {
	if err := cfg.validate(); err != nil {
		flag.Usage()
		return err
	}

	level := zerolog.InfoLevel
	if cfg.verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).With().Timestamp().Logger()

	client, err := cytomine.New(cfg.host, cfg.publicKey, cfg.privateKey,
		cytomine.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	if err := client.WaitReady(ctx, cfg.wait, 2*time.Second); err != nil {
		return err
	}
	user, err := client.FetchCurrentUser(ctx)
	if err != nil {
		return err
	}
	logger.Info().Str("user", user.Username()).Str("host", client.Host()).Msg("connected")

	annotations := models.NewAnnotationCollection()
	annotations.Project = models.Int(cfg.project)
	if cfg.showWKT {
		annotations.ShowWKT = models.Bool(true)
	}
	if err := annotations.FetchAll(ctx, client, cfg.pageSize); err != nil {
		return err
	}
	logger.Info().Int("annotations", len(annotations.Items)).Msg("listing fetched")

	// The client filesystem is rooted at /, so anchor the pattern to the
	// working directory before resolving placeholders.
	dest, err := filepath.Abs(cfg.dest)
	if err != nil {
		return err
	}
	report := annotations.DumpCrops(ctx, client, dest, cfg.workers,
		models.WithOverride(cfg.override))

	fmt.Printf("Downloaded %d files for %d of %d annotations.\n",
		len(report.Files()), len(report.Succeeded()), report.Total())
	if report.FailureCount() > 0 {
		fmt.Printf("Failed annotations: %v (%.2f %%).\n",
			report.FailedIDs(), report.FailureRate())
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Command amfinavd serves the mutual-fund NAV cache API and runs cache
// rebuilds from snapshot files.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amfikit/go-amfi-nav-cache/cache"
	"github.com/amfikit/go-amfi-nav-cache/models"
	"github.com/amfikit/go-amfi-nav-cache/server"
)

var (
	listenAddr   string
	snapshotPath string
	purgeFirst   bool
)

func main() {
	root := &cobra.Command{
		Use:          "amfinavd",
		Short:        "Mutual-fund NAV cache and search service",
		SilenceUsage: true,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the cache API over HTTP",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&listenAddr, "listen", ":8080", "address to listen on")
	serveCmd.Flags().StringVar(&snapshotPath, "snapshot", "", "snapshot file backing the rebuild endpoint (optional)")

	rebuildCmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Run a one-shot cache rebuild from a snapshot file",
		RunE:  runRebuild,
	}
	rebuildCmd.Flags().StringVar(&snapshotPath, "snapshot", "", "snapshot file to load (required)")
	rebuildCmd.Flags().BoolVar(&purgeFirst, "purge", false, "delete all namespaces before rebuilding")
	_ = rebuildCmd.MarkFlagRequired("snapshot")

	root.AddCommand(serveCmd, rebuildCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newCache() (*cache.NavCache, *cache.RedisConfig, error) {
	config, err := cache.RedisConfigFromEnv()
	if err != nil {
		return nil, nil, err
	}

	c, err := cache.NewNavCache(config)
	if err != nil {
		return nil, nil, err
	}

	return c, config, nil
}

// fileSnapshotSource loads a snapshot from a JSON file. It stands in for
// the upstream AMFI fetch step.
type fileSnapshotSource struct {
	path string
}

func (f fileSnapshotSource) Fetch(ctx context.Context) (models.Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snapshot models.Snapshot
	if err := snapshot.FromJSON(data); err != nil {
		return nil, err
	}

	return snapshot, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	c, config, err := newCache()
	if err != nil {
		return err
	}
	defer c.Close()

	search, err := cache.NewSearchClient(config)
	if err != nil {
		return err
	}
	defer search.Close()

	var rebuild *server.Rebuild
	if snapshotPath != "" {
		rebuild = &server.Rebuild{
			Orchestrator: cache.NewRebuilder(c, logger),
			Source:       fileSnapshotSource{path: snapshotPath},
		}
	}

	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           server.New(c, search, rebuild, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("serving fund cache API", "addr", listenAddr, "redis", config.RedisAddr)
	return srv.ListenAndServe()
}

func runRebuild(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	c, config, err := newCache()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx := context.Background()

	if purgeFirst {
		prefixes := []string{
			cache.FundPrefix,
			cache.FundHousePrefix,
			cache.SchemeTypePrefix,
			cache.SchemeSubTypePrefix,
			cache.SchemeSubTypeFundHousePrefix,
		}
		for _, prefix := range prefixes {
			if err := c.Cleanup(ctx, prefix); err != nil {
				return fmt.Errorf("purge of %s namespace failed: %w", prefix, err)
			}
		}
		logger.Info("purged all cache namespaces", "redis", config.RedisAddr)
	}

	rebuilder := cache.NewRebuilder(c, logger)
	status, err := rebuilder.Rebuild(ctx, fileSnapshotSource{path: snapshotPath})
	if err != nil {
		return err
	}

	logger.Info("rebuild finished",
		"state", status.State.String(),
		"funds_written", status.FundsWritten,
		"skipped_records", status.SkippedRecords,
		"duration", status.Duration)
	return nil
}

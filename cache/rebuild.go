package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amfikit/go-amfi-nav-cache/internal"
	"github.com/amfikit/go-amfi-nav-cache/models"
)

// maxConcurrentOps bounds how many store operations one rebuild batch keeps
// in flight at once.
const maxConcurrentOps = 64

// SnapshotSource produces the full nested fund mapping a rebuild consumes.
// The AMFI fetch/parse step lives behind this interface.
type SnapshotSource interface {
	Fetch(ctx context.Context) (models.Snapshot, error)
}

// SnapshotFunc adapts a function to the SnapshotSource interface
type SnapshotFunc func(ctx context.Context) (models.Snapshot, error)

// Fetch implements SnapshotSource
func (f SnapshotFunc) Fetch(ctx context.Context) (models.Snapshot, error) {
	return f(ctx)
}

// Rebuilder drives a full cache rebuild from a snapshot source. It walks
// the snapshot hierarchy, stamps each fund record with its containing
// identifiers, and issues every cache write as one concurrently-awaited
// batch. Only one rebuild may run at a time; a concurrent invocation is
// rejected with a rebuild-in-progress error.
//
// Rebuilds are append-only: they union and overwrite, never delete. Funds
// absent from the new snapshot stay queryable until an operator runs
// Cleanup and rebuilds.
type Rebuilder struct {
	cache  Cache
	keyGen internal.KeyGenerator
	logger *slog.Logger

	running atomic.Bool

	mu     sync.Mutex
	status RebuildStatus
}

// NewRebuilder creates a new rebuild orchestrator over the given cache
func NewRebuilder(c Cache, logger *slog.Logger) *Rebuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rebuilder{
		cache:  c,
		keyGen: internal.NewKeyGenerator(),
		logger: logger,
	}
}

// Rebuild fetches a snapshot and repopulates the hierarchy and suggestion
// indexes from it. All store operations for the snapshot are spawned onto
// one batch and joined; the first failure aborts the batch and leaves the
// cache partially overwritten — there is no rollback, only a re-run.
//
// Identifiers containing the reserved key delimiter are fatal to the record
// (or subtree) they name, not to the batch: the offending entry is skipped,
// logged, and counted in the returned status.
func (r *Rebuilder) Rebuild(ctx context.Context, source SnapshotSource) (RebuildStatus, error) {
	if !r.running.CompareAndSwap(false, true) {
		return r.Status(), internal.NewRebuildInProgressError()
	}
	defer r.running.Store(false)

	started := time.Now()
	r.setStatus(RebuildStatus{State: RebuildRunning})

	snapshot, err := source.Fetch(ctx)
	if err != nil {
		status := RebuildStatus{
			State:     RebuildFailed,
			Duration:  time.Since(started),
			LastError: err.Error(),
		}
		r.setStatus(status)
		return status, fmt.Errorf("failed to fetch snapshot: %w", err)
	}

	var written atomic.Int64
	skipped := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentOps)

	for schemeType, subTypes := range snapshot {
		if !r.validComponent(schemeType, "scheme_type") {
			skipped += countFundsUnder(subTypes)
			continue
		}

		schemeSubTypeNames := make([]string, 0, len(subTypes))
		for schemeSubType, houses := range subTypes {
			if !r.validComponent(schemeSubType, "scheme_sub_type") {
				for _, funds := range houses {
					skipped += len(funds)
				}
				continue
			}

			houseNames := make([]string, 0, len(houses))
			for houseName, funds := range houses {
				if !r.validComponent(houseName, "fund_house") {
					skipped += len(funds)
					continue
				}

				fundNames := make([]string, 0, len(funds))
				for _, fund := range funds {
					if !r.validComponent(fund.SchemeName, "fund") {
						skipped++
						continue
					}

					record := fund
					record.SchemeType = schemeType
					record.SchemeSubType = schemeSubType
					record.SchemeFundHouse = houseName

					g.Go(func() error {
						if err := r.cache.WriteFund(gctx, &record); err != nil {
							return err
						}
						written.Add(1)
						return nil
					})
					fundNames = append(fundNames, record.SchemeName)
				}

				subType := schemeSubType
				house := houseName
				g.Go(func() error {
					return r.cache.AddFundHouseUnderSubType(gctx, subType, house, fundNames)
				})
				g.Go(func() error {
					return r.cache.AddFundHouse(gctx, house, fundNames)
				})
				houseNames = append(houseNames, houseName)
			}

			sType := schemeType
			subType := schemeSubType
			g.Go(func() error {
				return r.cache.AddSchemeSubType(gctx, sType, subType, houseNames)
			})
			schemeSubTypeNames = append(schemeSubTypeNames, schemeSubType)
		}

		sType := schemeType
		g.Go(func() error {
			return r.cache.AddSchemeType(gctx, sType, schemeSubTypeNames)
		})
	}

	err = g.Wait()

	status := RebuildStatus{
		FundsWritten:   int(written.Load()),
		SkippedRecords: skipped,
		Duration:       time.Since(started),
	}
	if err != nil {
		status.State = RebuildFailed
		status.LastError = err.Error()
		r.setStatus(status)
		return status, fmt.Errorf("rebuild batch failed: %w", err)
	}

	status.State = RebuildCompleted
	r.setStatus(status)

	r.logger.Info("cache rebuild completed",
		"funds_written", status.FundsWritten,
		"skipped_records", status.SkippedRecords,
		"duration", status.Duration)

	return status, nil
}

// Status returns the status of the most recent rebuild
func (r *Rebuilder) Status() RebuildStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Running reports whether a rebuild is currently in flight
func (r *Rebuilder) Running() bool {
	return r.running.Load()
}

func (r *Rebuilder) setStatus(status RebuildStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
}

// validComponent checks one identifier and logs the skip when it is unusable
func (r *Rebuilder) validComponent(component, kind string) bool {
	if err := r.keyGen.ValidateComponent(component); err != nil {
		r.logger.Warn("skipping snapshot entry with invalid identifier",
			"kind", kind,
			"identifier", component,
			"error", err)
		return false
	}
	return true
}

func countFundsUnder(subTypes map[string]map[string][]models.FundRecord) int {
	total := 0
	for _, houses := range subTypes {
		for _, funds := range houses {
			total += len(funds)
		}
	}
	return total
}
